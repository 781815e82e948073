package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/marketplace-api/internal/domain/order"
	"github.com/xenking/marketplace-api/internal/domain/product"
)

const (
	// The stock floor check and the decrement are one statement so Postgres
	// row locking makes concurrent reductions on the same product serialize:
	// two under-stocked orders can never both succeed.
	reduceStockSQL = `UPDATE products SET stock_quantity = stock_quantity - $2
	WHERE id = $1 AND stock_quantity >= $2`

	insertSnapshotSQL = `INSERT INTO order_shipping_addresses
	(name, line1, line2, city, region, postal_code, country, phone_number)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`

	insertOrderSQL = `INSERT INTO orders (buyer_id, shipping_address_id, status, total_amount, created_at)
	VALUES ($1, $2, $3, $4, $5) RETURNING id`

	insertSellerOrderSQL = `INSERT INTO seller_orders (order_id, seller_id, total_amount)
	VALUES ($1, $2, $3) RETURNING id`

	insertLineItemSQL = `INSERT INTO order_items (order_id, seller_order_id, product_id, seller_id, quantity, unit_price)
	VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`

	getOrderSQL = `SELECT o.id, o.buyer_id, o.status, o.total_amount, o.created_at,
	a.id, a.name, a.line1, a.line2, a.city, a.region, a.postal_code, a.country, a.phone_number
	FROM orders o
	JOIN order_shipping_addresses a ON a.id = o.shipping_address_id
	WHERE o.id = $1`

	listOrderIDsSQL = `SELECT id FROM orders ORDER BY id`

	listLineItemsSQL = `SELECT id, order_id, seller_order_id, product_id, seller_id, quantity, unit_price
	FROM order_items WHERE order_id = $1 ORDER BY id`

	listSellerOrdersSQL = `SELECT id, order_id, seller_id, total_amount
	FROM seller_orders WHERE order_id = $1 ORDER BY id`
)

var _ order.Store = (*OrderStore)(nil)

// OrderStore implements order.Store backed by PostgreSQL.
type OrderStore struct {
	pool *pgxpool.Pool
}

// NewOrderStore returns an OrderStore that uses the given pool.
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// Checkout runs fn inside one pgx transaction. The transaction commits only
// when fn returns nil; any error rolls back every statement issued through
// the CheckoutTx, including stock decrements.
func (s *OrderStore) Checkout(ctx context.Context, fn func(ctx context.Context, tx order.CheckoutTx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin checkout")
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := fn(ctx, &checkoutTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit checkout")
	}
	return nil
}

// checkoutTx scopes the checkout operations to a single pgx transaction.
type checkoutTx struct {
	tx pgx.Tx
}

var _ order.CheckoutTx = (*checkoutTx)(nil)

// GetProduct resolves a product inside the transaction.
func (c *checkoutTx) GetProduct(ctx context.Context, id int64) (*product.Product, error) {
	p, err := scanProduct(c.tx.QueryRow(ctx, getProductSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get product %d", id)
	}
	return &p, nil
}

// ReduceStock applies the conditional decrement. Zero affected rows means the
// floor check failed (the product row was just read, so it exists).
func (c *checkoutTx) ReduceStock(ctx context.Context, productID int64, quantity int) error {
	tag, err := c.tx.Exec(ctx, reduceStockSQL, productID, quantity)
	if err != nil {
		return errors.Wrapf(err, "reduce stock of product %d", productID)
	}
	if tag.RowsAffected() == 0 {
		return &product.InsufficientStockError{ProductID: productID, Requested: quantity}
	}
	return nil
}

// SaveOrder inserts the order graph and fills in all generated identifiers,
// linking line items to their seller sub-orders.
func (c *checkoutTx) SaveOrder(ctx context.Context, o *order.Order) error {
	snap := &o.ShippingAddress
	err := c.tx.QueryRow(ctx, insertSnapshotSQL,
		snap.Name, snap.Line1, snap.Line2, snap.City, snap.Region,
		snap.PostalCode, snap.Country, snap.PhoneNumber,
	).Scan(&snap.ID)
	if err != nil {
		return errors.Wrap(err, "insert address snapshot")
	}

	err = c.tx.QueryRow(ctx, insertOrderSQL,
		o.BuyerID, snap.ID, o.Status, o.TotalAmount, o.CreatedAt,
	).Scan(&o.ID)
	if err != nil {
		return errors.Wrap(err, "insert order")
	}

	subOrderIDs := make(map[int64]int64, len(o.SellerOrders))
	for i := range o.SellerOrders {
		sub := &o.SellerOrders[i]
		sub.OrderID = o.ID
		err := c.tx.QueryRow(ctx, insertSellerOrderSQL, sub.OrderID, sub.SellerID, sub.TotalAmount).Scan(&sub.ID)
		if err != nil {
			return errors.Wrapf(err, "insert sub-order for seller %d", sub.SellerID)
		}
		subOrderIDs[sub.SellerID] = sub.ID
	}

	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID
		item.SellerOrderID = subOrderIDs[item.SellerID]
		err := c.tx.QueryRow(ctx, insertLineItemSQL,
			item.OrderID, item.SellerOrderID, item.ProductID, item.SellerID,
			item.Quantity, item.UnitPrice,
		).Scan(&item.ID)
		if err != nil {
			return errors.Wrapf(err, "insert line item for product %d", item.ProductID)
		}
	}

	return nil
}

// GetByID returns a single order with its full graph, mapping missing rows to
// order.ErrNotFound.
func (s *OrderStore) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	o, err := s.scanOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.loadGraph(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// List returns every order with its graph, ordered by ID.
func (s *OrderStore) List(ctx context.Context) ([]order.Order, error) {
	rows, err := s.pool.Query(ctx, listOrderIDsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, errors.Wrap(err, "collect order ids")
	}

	orders := make([]order.Order, 0, len(ids))
	for _, id := range ids {
		o, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, nil
}

func (s *OrderStore) scanOrder(ctx context.Context, id int64) (*order.Order, error) {
	var o order.Order
	snap := &o.ShippingAddress
	err := s.pool.QueryRow(ctx, getOrderSQL, id).Scan(
		&o.ID, &o.BuyerID, &o.Status, &o.TotalAmount, &o.CreatedAt,
		&snap.ID, &snap.Name, &snap.Line1, &snap.Line2, &snap.City,
		&snap.Region, &snap.PostalCode, &snap.Country, &snap.PhoneNumber,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get order %d", id)
	}
	return &o, nil
}

func (s *OrderStore) loadGraph(ctx context.Context, o *order.Order) error {
	rows, err := s.pool.Query(ctx, listLineItemsSQL, o.ID)
	if err != nil {
		return errors.Wrapf(err, "list items of order %d", o.ID)
	}
	o.Items, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.LineItem, error) {
		var li order.LineItem
		err := row.Scan(&li.ID, &li.OrderID, &li.SellerOrderID, &li.ProductID, &li.SellerID, &li.Quantity, &li.UnitPrice)
		return li, err
	})
	if err != nil {
		return errors.Wrap(err, "collect line items")
	}

	rows, err = s.pool.Query(ctx, listSellerOrdersSQL, o.ID)
	if err != nil {
		return errors.Wrapf(err, "list sub-orders of order %d", o.ID)
	}
	o.SellerOrders, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.SellerOrder, error) {
		var sub order.SellerOrder
		err := row.Scan(&sub.ID, &sub.OrderID, &sub.SellerID, &sub.TotalAmount)
		return sub, err
	})
	if err != nil {
		return errors.Wrap(err, "collect sub-orders")
	}

	return nil
}
