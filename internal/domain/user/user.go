package user

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested user does not exist.
var ErrNotFound = errors.New("user not found")

// Role classifies what an account is allowed to do on the marketplace.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleSeller   Role = "SELLER"
	RoleOwner    Role = "OWNER"
)

// CanListProducts reports whether accounts with this role may list and manage
// products. Owners act as sellers; the decision is centralized here instead of
// being re-derived from the enum at call sites.
func (r Role) CanListProducts() bool {
	return r == RoleSeller || r == RoleOwner
}

// User represents a marketplace account. Buyers and sellers share the same
// entity, distinguished by Role.
type User struct {
	ID          int64
	Email       string
	FirstName   string
	LastName    string
	PhoneNumber string
	Role        Role
}

// Repository defines read operations on the user directory.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
}
