package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a user has no cart in the requested state.
var ErrNotFound = errors.New("cart not found")

// Status is the lifecycle state of a cart. Only Active carts are produced and
// consumed by the current flows; CheckedOut exists for forward compatibility.
type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusCheckedOut Status = "CHECKED_OUT"
)

// Cart holds a buyer's in-progress item selection. A user has at most one
// Active cart at any time.
type Cart struct {
	ID        int64
	UserID    int64
	Status    Status
	CreatedAt time.Time
	Items     []Item
}

// Item is one (product, quantity, captured price) entry. A cart holds at most
// one Item per distinct product; repeat additions merge by quantity.
type Item struct {
	ID        int64
	CartID    int64
	ProductID int64
	Quantity  int
	// UnitPrice is captured from the live product on first add and retained
	// on merges, even if the catalog price changes afterwards.
	UnitPrice decimal.Decimal
}

// Repository defines persistence operations for carts.
type Repository interface {
	// FindActiveByUser returns the user's Active cart with its items, or
	// ErrNotFound.
	FindActiveByUser(ctx context.Context, userID int64) (*Cart, error)
	// Create opens a new Active cart for the user.
	Create(ctx context.Context, userID int64) (*Cart, error)
	// UpsertItem appends a new item or, when the cart already holds the
	// product, increments the existing item's quantity keeping its original
	// unit price. It returns the resulting item.
	UpsertItem(ctx context.Context, cartID, productID int64, quantity int, unitPrice decimal.Decimal) (*Item, error)
}
