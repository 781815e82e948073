package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/marketplace-api/internal/domain/address"
	"github.com/xenking/marketplace-api/internal/domain/cart"
	"github.com/xenking/marketplace-api/internal/domain/order"
	"github.com/xenking/marketplace-api/internal/domain/product"
	"github.com/xenking/marketplace-api/internal/domain/user"
)

// --- In-memory backing implementations ---

type stubUserRepo struct {
	byID map[int64]*user.User
}

func (m *stubUserRepo) GetByID(_ context.Context, id int64) (*user.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

type stubAddressRepo struct {
	byID map[int64]*address.Address
}

func (m *stubAddressRepo) GetByID(_ context.Context, id int64) (*address.Address, error) {
	a, ok := m.byID[id]
	if !ok {
		return nil, address.ErrNotFound
	}
	return a, nil
}

type stubProductRepo struct {
	byID map[int64]*product.Product
	seq  []int64
}

func (m *stubProductRepo) List(_ context.Context) ([]product.Product, error) {
	out := make([]product.Product, 0, len(m.seq))
	for _, id := range m.seq {
		out = append(out, *m.byID[id])
	}
	return out, nil
}

func (m *stubProductRepo) GetByID(_ context.Context, id int64) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

type stubCartRepo struct {
	carts  map[int64]*cart.Cart
	active map[int64]int64
	nextID int64
}

func (r *stubCartRepo) FindActiveByUser(_ context.Context, userID int64) (*cart.Cart, error) {
	id, ok := r.active[userID]
	if !ok {
		return nil, cart.ErrNotFound
	}
	return r.carts[id], nil
}

func (r *stubCartRepo) Create(_ context.Context, userID int64) (*cart.Cart, error) {
	r.nextID++
	c := &cart.Cart{ID: r.nextID, UserID: userID, Status: cart.StatusActive}
	r.carts[c.ID] = c
	r.active[userID] = c.ID
	return c, nil
}

func (r *stubCartRepo) UpsertItem(_ context.Context, cartID, productID int64, quantity int, unitPrice decimal.Decimal) (*cart.Item, error) {
	c := r.carts[cartID]
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += quantity
			return &c.Items[i], nil
		}
	}
	r.nextID++
	c.Items = append(c.Items, cart.Item{
		ID:        r.nextID,
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	})
	return &c.Items[len(c.Items)-1], nil
}

type stubOrderStore struct {
	products *stubProductRepo
	orders   []*order.Order
	nextID   int64
}

func (s *stubOrderStore) Checkout(ctx context.Context, fn func(ctx context.Context, tx order.CheckoutTx) error) error {
	tx := &stubTx{store: s, reduced: make(map[int64]int)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for id, qty := range tx.reduced {
		s.products.byID[id].StockQuantity -= qty
	}
	if tx.saved != nil {
		s.nextID++
		tx.saved.ID = s.nextID
		s.orders = append(s.orders, tx.saved)
	}
	return nil
}

func (s *stubOrderStore) GetByID(_ context.Context, id int64) (*order.Order, error) {
	for _, o := range s.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, order.ErrNotFound
}

func (s *stubOrderStore) List(_ context.Context) ([]order.Order, error) {
	out := make([]order.Order, len(s.orders))
	for i, o := range s.orders {
		out[i] = *o
	}
	return out, nil
}

type stubTx struct {
	store   *stubOrderStore
	reduced map[int64]int
	saved   *order.Order
}

func (t *stubTx) GetProduct(_ context.Context, id int64) (*product.Product, error) {
	p, ok := t.store.products.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	cp := *p
	cp.StockQuantity -= t.reduced[id]
	return &cp, nil
}

func (t *stubTx) ReduceStock(_ context.Context, productID int64, quantity int) error {
	p, ok := t.store.products.byID[productID]
	if !ok {
		return product.ErrNotFound
	}
	if p.StockQuantity-t.reduced[productID]-quantity < 0 {
		return &product.InsufficientStockError{ProductID: productID, Requested: quantity}
	}
	t.reduced[productID] += quantity
	return nil
}

func (t *stubTx) SaveOrder(_ context.Context, o *order.Order) error {
	t.saved = o
	return nil
}

// --- Test harness ---

type testEnv struct {
	mux      *http.ServeMux
	products *stubProductRepo
	store    *stubOrderStore
}

func newTestEnv() *testEnv {
	users := &stubUserRepo{byID: map[int64]*user.User{
		1: {ID: 1, Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace", Role: user.RoleCustomer},
		2: {ID: 2, Email: "grace@example.com", FirstName: "Grace", Role: user.RoleSeller},
	}}
	addresses := &stubAddressRepo{byID: map[int64]*address.Address{
		10: {ID: 10, UserID: 1, Line1: "12 Analytical Way", City: "London", PostalCode: "EC1A 1BB", Country: "GB"},
		20: {ID: 20, UserID: 2, Line1: "1 Compiler Rd", City: "Arlington", PostalCode: "22201", Country: "US"},
	}}
	products := &stubProductRepo{
		byID: map[int64]*product.Product{
			5: {ID: 5, Name: "Widget", Price: decimal.RequireFromString("9.99"), StockQuantity: 10, SellerID: 7},
			6: {ID: 6, Name: "Gadget", Price: decimal.RequireFromString("20.00"), StockQuantity: 3, SellerID: 8},
		},
		seq: []int64{5, 6},
	}
	cartRepo := &stubCartRepo{
		carts:  make(map[int64]*cart.Cart),
		active: make(map[int64]int64),
	}
	store := &stubOrderStore{products: products}

	h := NewHandler(
		products,
		order.NewService(users, addresses, store),
		cart.NewService(cartRepo, users, products),
	)
	mux := http.NewServeMux()
	h.Register(mux)

	return &testEnv{mux: mux, products: products, store: store}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

// --- Tests ---

func TestListProducts(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	list := decodeBody[[]productResponse](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, int64(5), list[0].ID)
	assert.Equal(t, "Widget", list[0].Name)
	assert.True(t, decimal.RequireFromString("9.99").Equal(list[0].Price))
}

func TestGetProduct(t *testing.T) {
	env := newTestEnv()

	t.Run("found", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/products/5", "")
		require.Equal(t, http.StatusOK, rec.Code)

		p := decodeBody[productResponse](t, rec)
		assert.Equal(t, "Widget", p.Name)
		assert.Equal(t, 10, p.StockQuantity)
	})

	t.Run("not found returns 404", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/products/404", "")
		require.Equal(t, http.StatusNotFound, rec.Code)

		body := decodeBody[errorBody](t, rec)
		assert.Equal(t, http.StatusNotFound, body.Code)
	})

	t.Run("non-numeric id returns 400", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/products/widget", "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCreateOrder(t *testing.T) {
	t.Run("valid order", func(t *testing.T) {
		env := newTestEnv()

		rec := env.do(t, http.MethodPost, "/api/orders",
			`{"buyerId":1,"shippingAddressId":10,"items":[{"productId":5,"quantity":2}]}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		o := decodeBody[orderResponse](t, rec)
		assert.NotZero(t, o.ID)
		assert.Equal(t, order.StatusPending, o.Status)
		assert.True(t, decimal.RequireFromString("19.98").Equal(o.TotalAmount))
		assert.Equal(t, "Ada Lovelace", o.ShippingAddress.Name)
		require.Len(t, o.Items, 1)
		assert.True(t, decimal.RequireFromString("9.99").Equal(o.Items[0].UnitPrice))
		require.Len(t, o.SellerOrders, 1)
		assert.Equal(t, int64(7), o.SellerOrders[0].SellerID)

		assert.Equal(t, 8, env.products.byID[5].StockQuantity)
	})

	t.Run("multi seller split", func(t *testing.T) {
		env := newTestEnv()

		rec := env.do(t, http.MethodPost, "/api/orders",
			`{"buyerId":1,"shippingAddressId":10,"items":[{"productId":5,"quantity":1},{"productId":6,"quantity":2}]}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		o := decodeBody[orderResponse](t, rec)
		assert.True(t, decimal.RequireFromString("49.99").Equal(o.TotalAmount))
		require.Len(t, o.SellerOrders, 2)
	})

	t.Run("insufficient stock returns 400", func(t *testing.T) {
		env := newTestEnv()

		rec := env.do(t, http.MethodPost, "/api/orders",
			`{"buyerId":1,"shippingAddressId":10,"items":[{"productId":6,"quantity":4}]}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		assert.Equal(t, 3, env.products.byID[6].StockQuantity, "stock unchanged")
	})

	t.Run("empty items returns 400", func(t *testing.T) {
		env := newTestEnv()

		rec := env.do(t, http.MethodPost, "/api/orders",
			`{"buyerId":1,"shippingAddressId":10,"items":[]}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("foreign address returns 400", func(t *testing.T) {
		env := newTestEnv()

		rec := env.do(t, http.MethodPost, "/api/orders",
			`{"buyerId":1,"shippingAddressId":20,"items":[{"productId":5,"quantity":1}]}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown buyer returns 404", func(t *testing.T) {
		env := newTestEnv()

		rec := env.do(t, http.MethodPost, "/api/orders",
			`{"buyerId":99,"shippingAddressId":10,"items":[{"productId":5,"quantity":1}]}`)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown product returns 404", func(t *testing.T) {
		env := newTestEnv()

		rec := env.do(t, http.MethodPost, "/api/orders",
			`{"buyerId":1,"shippingAddressId":10,"items":[{"productId":404,"quantity":1}]}`)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		env := newTestEnv()

		rec := env.do(t, http.MethodPost, "/api/orders", `{"buyerId":`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetOrder(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/orders",
		`{"buyerId":1,"shippingAddressId":10,"items":[{"productId":5,"quantity":1}]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[orderResponse](t, rec)

	t.Run("found", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/orders/1", "")
		require.Equal(t, http.StatusOK, rec.Code)

		o := decodeBody[orderResponse](t, rec)
		assert.Equal(t, created.ID, o.ID)
		assert.Equal(t, "12 Analytical Way", o.ShippingAddress.Line1)
	})

	t.Run("not found returns 404", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/orders/42", "")
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestListOrders(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodGet, "/api/orders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[[]orderResponse](t, rec))

	for range 2 {
		rec := env.do(t, http.MethodPost, "/api/orders",
			`{"buyerId":1,"shippingAddressId":10,"items":[{"productId":5,"quantity":1}]}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/orders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]orderResponse](t, rec), 2)
}

func TestGetCart(t *testing.T) {
	env := newTestEnv()

	t.Run("creates active cart on first request", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/carts/1", "")
		require.Equal(t, http.StatusOK, rec.Code)

		c := decodeBody[cartResponse](t, rec)
		assert.Equal(t, int64(1), c.UserID)
		assert.Equal(t, cart.StatusActive, c.Status)
		assert.Empty(t, c.Items)
	})

	t.Run("unknown user returns 404", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/carts/99", "")
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAddCartItem(t *testing.T) {
	t.Run("adds and merges", func(t *testing.T) {
		env := newTestEnv()

		rec := env.do(t, http.MethodPost, "/api/carts/1/items", `{"productId":5,"quantity":2}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		item := decodeBody[cartItemResponse](t, rec)
		assert.Equal(t, 2, item.Quantity)
		assert.True(t, decimal.RequireFromString("9.99").Equal(item.UnitPrice))

		// The price captured on first add survives a catalog change.
		env.products.byID[5].Price = decimal.RequireFromString("14.99")

		rec = env.do(t, http.MethodPost, "/api/carts/1/items", `{"productId":5,"quantity":3}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		item = decodeBody[cartItemResponse](t, rec)
		assert.Equal(t, 5, item.Quantity)
		assert.True(t, decimal.RequireFromString("9.99").Equal(item.UnitPrice))

		rec = env.do(t, http.MethodGet, "/api/carts/1", "")
		require.Equal(t, http.StatusOK, rec.Code)
		c := decodeBody[cartResponse](t, rec)
		require.Len(t, c.Items, 1)
	})

	t.Run("zero quantity returns 400", func(t *testing.T) {
		env := newTestEnv()

		rec := env.do(t, http.MethodPost, "/api/carts/1/items", `{"productId":5,"quantity":0}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown product returns 404", func(t *testing.T) {
		env := newTestEnv()

		rec := env.do(t, http.MethodPost, "/api/carts/1/items", `{"productId":404,"quantity":1}`)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown user returns 404", func(t *testing.T) {
		env := newTestEnv()

		rec := env.do(t, http.MethodPost, "/api/carts/99/items", `{"productId":5,"quantity":1}`)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}
