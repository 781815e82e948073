package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/marketplace-api/internal/domain/product"
)

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// Status is the lifecycle state of an order. Checkout only ever produces
// Pending; later transitions (shipping, cancellation) are outside this
// service.
type Status string

const StatusPending Status = "PENDING"

// Order is the aggregate produced by checkout: line items grouped into
// per-seller sub-orders, plus an immutable shipping address snapshot whose
// lifecycle is bound to the order.
type Order struct {
	ID              int64
	BuyerID         int64
	ShippingAddress ShippingAddress
	Status          Status
	TotalAmount     decimal.Decimal
	CreatedAt       time.Time
	Items           []LineItem
	SellerOrders    []SellerOrder
}

// LineItem is one (product, quantity, captured price) entry of an order.
// UnitPrice is the product's price at order time and is never re-read from
// the live catalog. SellerID mirrors the product's seller and links the item
// to its sub-order as plain data rather than an owning pointer.
type LineItem struct {
	ID            int64
	OrderID       int64
	SellerOrderID int64
	ProductID     int64
	SellerID      int64
	Quantity      int
	UnitPrice     decimal.Decimal
}

// Value returns the line's monetary value, unit price times quantity.
func (li LineItem) Value() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// SellerOrder is the portion of one order attributable to a single seller.
// Exactly one exists per distinct seller represented in the order.
type SellerOrder struct {
	ID          int64
	OrderID     int64
	SellerID    int64
	TotalAmount decimal.Decimal
}

// ShippingAddress is the point-in-time copy of the buyer's delivery address
// taken at order creation. It is owned by the order and never mutated or
// shared with the live address record.
type ShippingAddress struct {
	ID          int64
	Name        string
	Line1       string
	Line2       string
	City        string
	Region      string
	PostalCode  string
	Country     string
	PhoneNumber string
}

// CheckoutTx is the set of operations available inside one atomic checkout
// unit of work. Implementations back every call with the same database
// transaction so that a failure anywhere rolls back all of it, including
// stock decrements already applied.
type CheckoutTx interface {
	// GetProduct resolves a product by id, returning product.ErrNotFound
	// when absent.
	GetProduct(ctx context.Context, id int64) (*product.Product, error)
	// ReduceStock atomically decrements the product's stock, failing with
	// *product.InsufficientStockError when stock would go negative. The
	// check-and-decrement is indivisible with respect to concurrent
	// reductions on the same product.
	ReduceStock(ctx context.Context, productID int64, quantity int) error
	// SaveOrder persists the composed order graph (order, items, sub-orders,
	// address snapshot) and fills in generated identifiers.
	SaveOrder(ctx context.Context, o *Order) error
}

// Store defines persistence operations for orders.
type Store interface {
	// Checkout runs fn inside a single transaction, committing only when fn
	// returns nil.
	Checkout(ctx context.Context, fn func(ctx context.Context, tx CheckoutTx) error) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	List(ctx context.Context) ([]Order, error)
}
