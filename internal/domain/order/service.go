package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/marketplace-api/internal/domain/address"
	"github.com/xenking/marketplace-api/internal/domain/product"
	"github.com/xenking/marketplace-api/internal/domain/user"
)

// ItemRequest is one requested (product, quantity) pair of a checkout.
type ItemRequest struct {
	ProductID int64
	Quantity  int
}

// CreateOrderRequest holds the input for creating an order.
type CreateOrderRequest struct {
	BuyerID           int64
	ShippingAddressID int64
	Items             []ItemRequest
}

// Service is the order fulfillment engine. It validates the buyer and the
// shipping address, converts the requested items into an order graph split
// into per-seller sub-orders, and persists everything as one atomic unit.
type Service struct {
	users     user.Repository
	addresses address.Repository
	store     Store
	now       func() time.Time
}

// NewService creates an order Service with the required domain dependencies.
func NewService(users user.Repository, addresses address.Repository, store Store) *Service {
	return &Service{
		users:     users,
		addresses: addresses,
		store:     store,
		now:       time.Now,
	}
}

// CreateOrder converts a buyer-submitted item list into a persisted order.
//
// All stock decrements, the order row, its line items, its sub-orders, and
// the address snapshot are committed together; a failure at any point leaves
// the system in its pre-call state. Line items are processed strictly in
// submission order and sub-orders are created in first-seller-occurrence
// order, so identical input yields identical output.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
	}

	buyer, err := s.users.GetByID(ctx, req.BuyerID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, &BuyerNotFoundError{BuyerID: req.BuyerID}
		}
		return nil, errors.Wrap(err, "get buyer")
	}

	addr, err := s.addresses.GetByID(ctx, req.ShippingAddressID)
	if err != nil {
		if errors.Is(err, address.ErrNotFound) {
			return nil, &AddressNotFoundError{AddressID: req.ShippingAddressID}
		}
		return nil, errors.Wrap(err, "get shipping address")
	}
	if addr.UserID != buyer.ID {
		return nil, &AddressOwnershipError{AddressID: addr.ID, BuyerID: buyer.ID}
	}

	o := &Order{
		BuyerID:         buyer.ID,
		ShippingAddress: SnapshotAddress(addr, buyer),
		Status:          StatusPending,
		CreatedAt:       s.now().UTC(),
	}

	err = s.store.Checkout(ctx, func(ctx context.Context, tx CheckoutTx) error {
		total := decimal.Zero
		subOrders := make(map[int64]*SellerOrder, len(req.Items))
		var sellerSeq []int64

		for _, item := range req.Items {
			p, err := tx.GetProduct(ctx, item.ProductID)
			if err != nil {
				if errors.Is(err, product.ErrNotFound) {
					return &ProductNotFoundError{ProductID: item.ProductID}
				}
				return errors.Wrapf(err, "get product %d", item.ProductID)
			}
			if p.SellerID == 0 {
				return &NoSellerError{ProductID: p.ID}
			}

			if err := tx.ReduceStock(ctx, p.ID, item.Quantity); err != nil {
				return err
			}

			line := LineItem{
				ProductID: p.ID,
				SellerID:  p.SellerID,
				Quantity:  item.Quantity,
				UnitPrice: p.Price,
			}

			sub, ok := subOrders[p.SellerID]
			if !ok {
				sub = &SellerOrder{SellerID: p.SellerID, TotalAmount: decimal.Zero}
				subOrders[p.SellerID] = sub
				sellerSeq = append(sellerSeq, p.SellerID)
			}
			sub.TotalAmount = sub.TotalAmount.Add(line.Value())

			o.Items = append(o.Items, line)
			total = total.Add(line.Value())
		}

		o.SellerOrders = make([]SellerOrder, len(sellerSeq))
		for i, sellerID := range sellerSeq {
			o.SellerOrders[i] = *subOrders[sellerID]
		}
		o.TotalAmount = total

		return tx.SaveOrder(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	return o, nil
}

// GetOrder returns a single order with its full graph.
func (s *Service) GetOrder(ctx context.Context, id int64) (*Order, error) {
	return s.store.GetByID(ctx, id)
}

// ListOrders returns every order. Administrative use, no pagination.
func (s *Service) ListOrders(ctx context.Context) ([]Order, error) {
	return s.store.List(ctx)
}
