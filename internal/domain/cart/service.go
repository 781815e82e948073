package cart

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"

	"github.com/xenking/marketplace-api/internal/domain/product"
	"github.com/xenking/marketplace-api/internal/domain/user"
)

// InvalidQuantityError indicates a non-positive quantity was requested.
type InvalidQuantityError struct {
	ProductID int64
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %d", e.ProductID)
}

// Service encapsulates cart business logic.
type Service struct {
	carts    Repository
	users    user.Repository
	products product.Repository
}

// NewService creates a cart Service with the required domain dependencies.
func NewService(carts Repository, users user.Repository, products product.Repository) *Service {
	return &Service{
		carts:    carts,
		users:    users,
		products: products,
	}
}

// ActiveCart returns the user's Active cart, creating one when none exists.
func (s *Service) ActiveCart(ctx context.Context, userID int64) (*Cart, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, errors.Wrap(err, "get user")
	}

	c, err := s.carts.FindActiveByUser(ctx, userID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(err, "find active cart")
	}

	c, err = s.carts.Create(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "create cart")
	}
	return c, nil
}

// AddItem puts quantity units of the product into the user's Active cart. The
// product's current price is captured on first add; when the cart already
// holds the product, only the quantity grows and the originally captured
// price is retained.
func (s *Service) AddItem(ctx context.Context, userID, productID int64, quantity int) (*Item, error) {
	if quantity <= 0 {
		return nil, &InvalidQuantityError{ProductID: productID}
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, errors.Wrap(err, "get product")
	}

	c, err := s.ActiveCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	item, err := s.carts.UpsertItem(ctx, c.ID, p.ID, quantity, p.Price)
	if err != nil {
		return nil, errors.Wrap(err, "upsert cart item")
	}
	return item, nil
}
