package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/marketplace-api/internal/domain/cart"
)

const (
	findActiveCartSQL = `SELECT id, user_id, status, created_at
	FROM carts WHERE user_id = $1 AND status = $2`

	createCartSQL = `INSERT INTO carts (user_id, status)
	VALUES ($1, $2) RETURNING id, user_id, status, created_at`

	listCartItemsSQL = `SELECT id, cart_id, product_id, quantity, unit_price
	FROM cart_items WHERE cart_id = $1 ORDER BY id`

	// The conflict clause grows the quantity in place and deliberately leaves
	// unit_price alone: the price captured on first add is retained on merges.
	upsertCartItemSQL = `INSERT INTO cart_items (cart_id, product_id, quantity, unit_price)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (cart_id, product_id)
	DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
	RETURNING id, cart_id, product_id, quantity, unit_price`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// FindActiveByUser returns the user's Active cart with its items, mapping
// missing rows to cart.ErrNotFound.
func (r *CartRepository) FindActiveByUser(ctx context.Context, userID int64) (*cart.Cart, error) {
	var c cart.Cart
	err := r.pool.QueryRow(ctx, findActiveCartSQL, userID, cart.StatusActive).Scan(
		&c.ID, &c.UserID, &c.Status, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotFound
		}
		return nil, errors.Wrapf(err, "find active cart for user %d", userID)
	}

	rows, err := r.pool.Query(ctx, listCartItemsSQL, c.ID)
	if err != nil {
		return nil, errors.Wrapf(err, "list items of cart %d", c.ID)
	}
	defer rows.Close()

	for rows.Next() {
		var item cart.Item
		if err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, errors.Wrap(err, "scan cart item")
		}
		c.Items = append(c.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate cart items")
	}

	return &c, nil
}

// Create opens a new Active cart for the user.
func (r *CartRepository) Create(ctx context.Context, userID int64) (*cart.Cart, error) {
	var c cart.Cart
	err := r.pool.QueryRow(ctx, createCartSQL, userID, cart.StatusActive).Scan(
		&c.ID, &c.UserID, &c.Status, &c.CreatedAt,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "create cart for user %d", userID)
	}
	return &c, nil
}

// UpsertItem merges the quantity into an existing item for the product or
// inserts a new one with the captured unit price.
func (r *CartRepository) UpsertItem(ctx context.Context, cartID, productID int64, quantity int, unitPrice decimal.Decimal) (*cart.Item, error) {
	var item cart.Item
	err := r.pool.QueryRow(ctx, upsertCartItemSQL, cartID, productID, quantity, unitPrice).Scan(
		&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &item.UnitPrice,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "upsert item for product %d in cart %d", productID, cartID)
	}
	return &item, nil
}
