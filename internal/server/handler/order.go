package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/campustribe/tribemarket/internal/domain"
	"github.com/campustribe/tribemarket/internal/service"
)

// OrderService defines the methods the order handler requires from the
// service layer.
type OrderService interface {
	Checkout(ctx context.Context, id domain.Identity, in service.CheckoutInput) (domain.Order, error)
	GetOrder(ctx context.Context, id domain.Identity, orderID string) (domain.Order, error)
	ListOrders(ctx context.Context, id domain.Identity, opts domain.ListOpts) ([]domain.Order, error)
}

// OrderHandler serves checkout and order read endpoints.
type OrderHandler struct {
	orders OrderService
	logger *slog.Logger
}

// NewOrderHandler creates an OrderHandler with the given service and logger.
func NewOrderHandler(orders OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

type checkoutItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type checkoutRequest struct {
	Items           []checkoutItemRequest `json:"items"`
	DeliveryMethod  string                `json:"delivery_method"`
	DeliveryAddress string                `json:"delivery_address"`
	DeliveryPhone   string                `json:"delivery_phone"`
}

// Checkout creates an unpaid order and returns the payment reference the
// buyer takes to the payment provider.
// POST /api/orders
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	in := service.CheckoutInput{
		DeliveryMethod:  domain.DeliveryMethod(req.DeliveryMethod),
		DeliveryAddress: req.DeliveryAddress,
		DeliveryPhone:   req.DeliveryPhone,
	}
	if in.DeliveryMethod == "" {
		in.DeliveryMethod = domain.DeliveryMeetup
	}
	for _, item := range req.Items {
		in.Items = append(in.Items, service.CheckoutItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	o, err := h.orders.Checkout(r.Context(), id, in)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderDTO(o))
}

// GetOrder returns one order with its items.
// GET /api/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	o, err := h.orders.GetOrder(r.Context(), id, pathParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(o))
}

// ListOrders returns the caller's orders.
// GET /api/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	orders, err := h.orders.ListOrders(r.Context(), id, parseListOpts(r))
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": toOrderDTOs(orders)})
}
