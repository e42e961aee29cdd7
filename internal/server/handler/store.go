package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/campustribe/tribemarket/internal/domain"
)

// StoreService defines the methods the store handler requires from the
// service layer.
type StoreService interface {
	CreateStore(ctx context.Context, id domain.Identity, name string) (domain.Store, error)
	GetMine(ctx context.Context, id domain.Identity) (domain.Store, error)
	GetStore(ctx context.Context, id domain.Identity, storeID string) (domain.Store, error)
}

// StoreHandler serves vendor store endpoints.
type StoreHandler struct {
	stores StoreService
	logger *slog.Logger
}

// NewStoreHandler creates a StoreHandler with the given service and logger.
func NewStoreHandler(stores StoreService, logger *slog.Logger) *StoreHandler {
	return &StoreHandler{stores: stores, logger: logger}
}

type createStoreRequest struct {
	Name string `json:"name"`
}

// CreateStore opens a store for the caller.
// POST /api/stores
func (h *StoreHandler) CreateStore(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req createStoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	s, err := h.stores.CreateStore(r.Context(), id, req.Name)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toStoreDTO(s))
}

// GetMine returns the caller's store with current balances.
// GET /api/stores/me
func (h *StoreHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	s, err := h.stores.GetMine(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toStoreDTO(s))
}

// GetStore returns any store by ID. Admin only.
// GET /api/stores/{id}
func (h *StoreHandler) GetStore(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	s, err := h.stores.GetStore(r.Context(), id, pathParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toStoreDTO(s))
}
