package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/marketplace-api/internal/domain/order"
	"github.com/xenking/marketplace-api/internal/domain/product"
)

type orderItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type createOrderRequest struct {
	BuyerID           int64              `json:"buyerId"`
	ShippingAddressID int64              `json:"shippingAddressId"`
	Items             []orderItemRequest `json:"items"`
}

type lineItemResponse struct {
	ID            int64           `json:"id"`
	ProductID     int64           `json:"productId"`
	SellerOrderID int64           `json:"sellerOrderId"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
}

type sellerOrderResponse struct {
	ID          int64           `json:"id"`
	SellerID    int64           `json:"sellerId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

type shippingAddressResponse struct {
	Name        string `json:"name"`
	Line1       string `json:"line1"`
	Line2       string `json:"line2,omitempty"`
	City        string `json:"city"`
	Region      string `json:"region,omitempty"`
	PostalCode  string `json:"postalCode"`
	Country     string `json:"country"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

type orderResponse struct {
	ID              int64                   `json:"id"`
	BuyerID         int64                   `json:"buyerId"`
	Status          order.Status            `json:"status"`
	TotalAmount     decimal.Decimal         `json:"totalAmount"`
	CreatedAt       time.Time               `json:"createdAt"`
	ShippingAddress shippingAddressResponse `json:"shippingAddress"`
	Items           []lineItemResponse      `json:"items"`
	SellerOrders    []sellerOrderResponse   `json:"sellerOrders"`
}

func toOrderResponse(o *order.Order) orderResponse {
	resp := orderResponse{
		ID:          o.ID,
		BuyerID:     o.BuyerID,
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
		CreatedAt:   o.CreatedAt,
		ShippingAddress: shippingAddressResponse{
			Name:        o.ShippingAddress.Name,
			Line1:       o.ShippingAddress.Line1,
			Line2:       o.ShippingAddress.Line2,
			City:        o.ShippingAddress.City,
			Region:      o.ShippingAddress.Region,
			PostalCode:  o.ShippingAddress.PostalCode,
			Country:     o.ShippingAddress.Country,
			PhoneNumber: o.ShippingAddress.PhoneNumber,
		},
		Items:        make([]lineItemResponse, len(o.Items)),
		SellerOrders: make([]sellerOrderResponse, len(o.SellerOrders)),
	}
	for i, li := range o.Items {
		resp.Items[i] = lineItemResponse{
			ID:            li.ID,
			ProductID:     li.ProductID,
			SellerOrderID: li.SellerOrderID,
			Quantity:      li.Quantity,
			UnitPrice:     li.UnitPrice,
		}
	}
	for i, sub := range o.SellerOrders {
		resp.SellerOrders[i] = sellerOrderResponse{
			ID:          sub.ID,
			SellerID:    sub.SellerID,
			TotalAmount: sub.TotalAmount,
		}
	}
	return resp
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	items := make([]order.ItemRequest, len(req.Items))
	for i, item := range req.Items {
		items[i] = order.ItemRequest{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	o, err := h.orders.CreateOrder(r.Context(), order.CreateOrderRequest{
		BuyerID:           req.BuyerID,
		ShippingAddressID: req.ShippingAddressID,
		Items:             items,
	})
	if err != nil {
		h.writeOrderError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toOrderResponse(o))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid order id")
		return
	}

	o, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "order not found")
			return
		}
		writeInternalError(w, r, errors.Wrap(err, "get order"))
		return
	}
	writeJSON(w, r, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrders(r.Context())
	if err != nil {
		writeInternalError(w, r, errors.Wrap(err, "list orders"))
		return
	}

	out := make([]orderResponse, len(orders))
	for i := range orders {
		out[i] = toOrderResponse(&orders[i])
	}
	writeJSON(w, r, http.StatusOK, out)
}

// writeOrderError maps checkout failures to HTTP statuses: missing entities
// are 404, request-level validation faults are 400, the rest is 500.
func (h *Handler) writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		buyerNotFound   *order.BuyerNotFoundError
		addrNotFound    *order.AddressNotFoundError
		productNotFound *order.ProductNotFoundError
		ownership       *order.AddressOwnershipError
		noSeller        *order.NoSellerError
		invalidQty      *order.InvalidQuantityError
		noStock         *product.InsufficientStockError
	)

	switch {
	case errors.As(err, &buyerNotFound),
		errors.As(err, &addrNotFound),
		errors.As(err, &productNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrEmptyItems),
		errors.As(err, &ownership),
		errors.As(err, &noSeller),
		errors.As(err, &invalidQty),
		errors.As(err, &noStock):
		writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		writeInternalError(w, r, errors.Wrap(err, "create order"))
	}
}
