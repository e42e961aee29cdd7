package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/campustribe/tribemarket/internal/domain"
	"github.com/campustribe/tribemarket/internal/escrow"
)

// FulfillmentService defines the methods the fulfillment handler
// requires from the service layer.
type FulfillmentService interface {
	Apply(ctx context.Context, id domain.Identity, itemID string, act escrow.Action) (domain.OrderItem, error)
	ListStoreItems(ctx context.Context, id domain.Identity, opts domain.ListOpts) ([]domain.OrderItem, error)
	ListBuyerItems(ctx context.Context, id domain.Identity, opts domain.ListOpts) ([]domain.OrderItem, error)
	ListDisputes(ctx context.Context, id domain.Identity, opts domain.ListOpts) ([]domain.OrderItem, error)
}

// FulfillmentHandler serves the fulfillment protocol endpoints for
// vendors, buyers and the dispute council.
type FulfillmentHandler struct {
	fulfillment FulfillmentService
	logger      *slog.Logger
}

// NewFulfillmentHandler creates a FulfillmentHandler with the given
// service and logger.
func NewFulfillmentHandler(fulfillment FulfillmentService, logger *slog.Logger) *FulfillmentHandler {
	return &FulfillmentHandler{fulfillment: fulfillment, logger: logger}
}

// action builds a handler that applies one protocol verb to the item in
// the path. All five verbs share the same request/response shape.
func (h *FulfillmentHandler) action(act escrow.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identity(w, r)
		if !ok {
			return
		}

		itemID := pathParam(r, "id")
		if itemID == "" {
			writeError(w, http.StatusBadRequest, "missing item id")
			return
		}

		item, err := h.fulfillment.Apply(r.Context(), id, itemID, act)
		if err != nil {
			writeDomainError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toItemDTO(item))
	}
}

// MarkDelivered lets a vendor mark an item handed over.
// POST /api/plug/items/{id}/mark-delivered
func (h *FulfillmentHandler) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	h.action(escrow.ActionMarkDelivered)(w, r)
}

// ConfirmReceived lets a buyer confirm receipt, releasing escrow.
// POST /api/citizen/items/{id}/confirm-received
func (h *FulfillmentHandler) ConfirmReceived(w http.ResponseWriter, r *http.Request) {
	h.action(escrow.ActionConfirmReceived)(w, r)
}

// RaiseDispute lets a buyer dispute an item before settlement.
// POST /api/citizen/items/{id}/raise-dispute
func (h *FulfillmentHandler) RaiseDispute(w http.ResponseWriter, r *http.Request) {
	h.action(escrow.ActionRaiseDispute)(w, r)
}

// ResolveRefund lets an admin resolve a dispute in the buyer's favour.
// POST /api/admin/items/{id}/resolve-refund
func (h *FulfillmentHandler) ResolveRefund(w http.ResponseWriter, r *http.Request) {
	h.action(escrow.ActionResolveRefund)(w, r)
}

// ResolveRelease lets an admin resolve a dispute in the vendor's favour.
// POST /api/admin/items/{id}/resolve-release
func (h *FulfillmentHandler) ResolveRelease(w http.ResponseWriter, r *http.Request) {
	h.action(escrow.ActionResolveRelease)(w, r)
}

// ListStoreItems returns the vendor's sold items.
// GET /api/plug/items
func (h *FulfillmentHandler) ListStoreItems(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	items, err := h.fulfillment.ListStoreItems(r.Context(), id, parseListOpts(r))
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": toItemDTOs(items)})
}

// ListBuyerItems returns the buyer's purchased items.
// GET /api/citizen/items
func (h *FulfillmentHandler) ListBuyerItems(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	items, err := h.fulfillment.ListBuyerItems(r.Context(), id, parseListOpts(r))
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": toItemDTOs(items)})
}

// ListDisputes returns the open dispute queue.
// GET /api/admin/disputes
func (h *FulfillmentHandler) ListDisputes(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	items, err := h.fulfillment.ListDisputes(r.Context(), id, parseListOpts(r))
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": toItemDTOs(items)})
}
