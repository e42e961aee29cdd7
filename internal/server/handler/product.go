package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/campustribe/tribemarket/internal/domain"
	"github.com/campustribe/tribemarket/internal/service"
)

// CatalogService defines the methods the product handler requires from
// the service layer.
type CatalogService interface {
	CreateProduct(ctx context.Context, id domain.Identity, in service.ProductInput) (domain.Product, error)
	UpdateProduct(ctx context.Context, id domain.Identity, productID string, in service.ProductInput) (domain.Product, error)
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
	ListStoreProducts(ctx context.Context, id domain.Identity, opts domain.ListOpts) ([]domain.Product, error)
	Marketplace(ctx context.Context, f domain.MarketplaceFilter, opts domain.ListOpts) ([]domain.Product, error)
}

// ProductHandler serves catalog endpoints.
type ProductHandler struct {
	catalog CatalogService
	logger  *slog.Logger
}

// NewProductHandler creates a ProductHandler with the given service and logger.
func NewProductHandler(catalog CatalogService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{catalog: catalog, logger: logger}
}

type productRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Price       string `json:"price"`
	IsAwoof     bool   `json:"is_awoof"`
	DiscountPct int    `json:"discount_pct"`
}

func (req productRequest) toInput() (service.ProductInput, error) {
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return service.ProductInput{}, err
	}
	return service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       price,
		IsAwoof:     req.IsAwoof,
		DiscountPct: req.DiscountPct,
	}, nil
}

// CreateProduct lists a product under the caller's store.
// POST /api/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid price: "+err.Error())
		return
	}

	p, err := h.catalog.CreateProduct(r.Context(), id, in)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductDTO(p))
}

// UpdateProduct rewrites a listing the caller owns.
// PUT /api/products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid price: "+err.Error())
		return
	}

	p, err := h.catalog.UpdateProduct(r.Context(), id, pathParam(r, "id"), in)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(p))
}

// GetProduct returns a single listing. Public.
// GET /api/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.GetProduct(r.Context(), pathParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(p))
}

// ListMine returns the caller's listings.
// GET /api/products
func (h *ProductHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	products, err := h.catalog.ListStoreProducts(r.Context(), id, parseListOpts(r))
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": toProductDTOs(products)})
}

// Marketplace returns the public browse feed.
// GET /api/marketplace?category=...&awoof=true
func (h *ProductHandler) Marketplace(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.MarketplaceFilter{
		Category:  q.Get("category"),
		AwoofOnly: q.Get("awoof") == "true",
	}

	products, err := h.catalog.Marketplace(r.Context(), filter, parseListOpts(r))
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": toProductDTOs(products)})
}
