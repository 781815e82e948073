package order

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ErrEmptyItems is returned when a checkout request carries no line items.
var ErrEmptyItems = errors.New("order items required")

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID int64
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %d", e.ProductID)
}

// BuyerNotFoundError indicates the requested buyer does not exist.
type BuyerNotFoundError struct {
	BuyerID int64
}

func (e *BuyerNotFoundError) Error() string {
	return fmt.Sprintf("buyer %d not found", e.BuyerID)
}

// AddressNotFoundError indicates the requested shipping address does not exist.
type AddressNotFoundError struct {
	AddressID int64
}

func (e *AddressNotFoundError) Error() string {
	return fmt.Sprintf("shipping address %d not found", e.AddressID)
}

// AddressOwnershipError indicates the shipping address does not belong to the
// buyer placing the order.
type AddressOwnershipError struct {
	AddressID int64
	BuyerID   int64
}

func (e *AddressOwnershipError) Error() string {
	return fmt.Sprintf("shipping address %d does not belong to buyer %d", e.AddressID, e.BuyerID)
}

// ProductNotFoundError indicates a requested product does not exist.
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

// NoSellerError indicates a product has no associated seller. This is an
// upstream catalog inconsistency, not a user error; it should not occur under
// normal catalog rules.
type NoSellerError struct {
	ProductID int64
}

func (e *NoSellerError) Error() string {
	return fmt.Sprintf("product %d has no seller", e.ProductID)
}
