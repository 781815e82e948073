package address

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested address does not exist.
var ErrNotFound = errors.New("address not found")

// Address is a buyer-owned delivery address. It is mutable: buyers edit
// addresses over time, which is why orders keep their own immutable snapshot
// instead of referencing this record.
type Address struct {
	ID          int64
	UserID      int64
	Line1       string
	Line2       string
	City        string
	Region      string
	PostalCode  string
	Country     string
	PhoneNumber string
}

// Repository defines read operations on the address directory.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Address, error)
}
