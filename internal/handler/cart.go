package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/marketplace-api/internal/domain/cart"
	"github.com/xenking/marketplace-api/internal/domain/product"
	"github.com/xenking/marketplace-api/internal/domain/user"
)

type addCartItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type cartItemResponse struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type cartResponse struct {
	ID        int64              `json:"id"`
	UserID    int64              `json:"userId"`
	Status    cart.Status        `json:"status"`
	CreatedAt time.Time          `json:"createdAt"`
	Items     []cartItemResponse `json:"items"`
}

func toCartItemResponse(item cart.Item) cartItemResponse {
	return cartItemResponse{
		ID:        item.ID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		UnitPrice: item.UnitPrice,
	}
}

func toCartResponse(c *cart.Cart) cartResponse {
	resp := cartResponse{
		ID:        c.ID,
		UserID:    c.UserID,
		Status:    c.Status,
		CreatedAt: c.CreatedAt,
		Items:     make([]cartItemResponse, len(c.Items)),
	}
	for i, item := range c.Items {
		resp.Items[i] = toCartItemResponse(item)
	}
	return resp
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.PathValue("userID"), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid user id")
		return
	}

	c, err := h.carts.ActiveCart(r.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "user not found")
			return
		}
		writeInternalError(w, r, errors.Wrap(err, "get cart"))
		return
	}
	writeJSON(w, r, http.StatusOK, toCartResponse(c))
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.PathValue("userID"), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid user id")
		return
	}

	var req addCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.carts.AddItem(r.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		var invalidQty *cart.InvalidQuantityError
		switch {
		case errors.As(err, &invalidQty):
			writeError(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, user.ErrNotFound):
			writeError(w, r, http.StatusNotFound, "user not found")
		case errors.Is(err, product.ErrNotFound):
			writeError(w, r, http.StatusNotFound, "product not found")
		default:
			writeInternalError(w, r, errors.Wrap(err, "add cart item"))
		}
		return
	}
	writeJSON(w, r, http.StatusCreated, toCartItemResponse(*item))
}
