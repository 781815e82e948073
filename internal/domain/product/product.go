package product

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// InsufficientStockError indicates a stock decrement would drop the product's
// stock below zero. The decrement is rejected atomically; stock is unchanged.
type InsufficientStockError struct {
	ProductID int64
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d (requested %d)", e.ProductID, e.Requested)
}

// Product represents a catalog item owned by a seller.
//
// StockQuantity is never negative. The only path that lowers it is the
// conditional decrement executed inside the order checkout transaction.
type Product struct {
	ID            int64
	Name          string
	Description   string
	Price         decimal.Decimal
	StockQuantity int
	// SellerID references the owning seller account; zero means the product
	// has no seller, which the order flow rejects as a data-integrity fault.
	SellerID int64
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
}
