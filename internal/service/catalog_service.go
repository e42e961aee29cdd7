package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/campustribe/tribemarket/internal/domain"
)

// ProductInput carries the vendor-editable fields of a listing.
type ProductInput struct {
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	IsAwoof     bool
	DiscountPct int
}

// CatalogService manages product listings and the public marketplace
// feed.
type CatalogService struct {
	products domain.ProductStore
	logger   *slog.Logger
}

// NewCatalogService creates a CatalogService with all required
// dependencies.
func NewCatalogService(products domain.ProductStore, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		products: products,
		logger:   logger.With(slog.String("component", "catalog_service")),
	}
}

// CreateProduct lists a new product under the caller's store.
func (s *CatalogService) CreateProduct(ctx context.Context, id domain.Identity, in ProductInput) (domain.Product, error) {
	if !id.IsPlug() {
		return domain.Product{}, fmt.Errorf("catalog_service: no store attached: %w", domain.ErrForbidden)
	}
	if err := validateProduct(in); err != nil {
		return domain.Product{}, err
	}

	p := domain.Product{
		ID:          uuid.New().String(),
		StoreID:     id.StoreID,
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		Price:       in.Price.Round(2),
		IsAwoof:     in.IsAwoof,
		DiscountPct: in.DiscountPct,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.products.Create(ctx, p); err != nil {
		return domain.Product{}, fmt.Errorf("catalog_service: create product: %w", err)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", p.ID),
		slog.String("store_id", p.StoreID),
	)
	return p, nil
}

// UpdateProduct rewrites a listing the caller owns. Existing order items
// keep their snapshotted price.
func (s *CatalogService) UpdateProduct(ctx context.Context, id domain.Identity, productID string, in ProductInput) (domain.Product, error) {
	if !id.IsPlug() {
		return domain.Product{}, fmt.Errorf("catalog_service: no store attached: %w", domain.ErrForbidden)
	}
	if err := validateProduct(in); err != nil {
		return domain.Product{}, err
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("catalog_service: get product: %w", err)
	}
	if p.StoreID != id.StoreID {
		return domain.Product{}, fmt.Errorf("catalog_service: product belongs to another store: %w", domain.ErrForbidden)
	}

	p.Name = in.Name
	p.Description = in.Description
	p.Category = in.Category
	p.Price = in.Price.Round(2)
	p.IsAwoof = in.IsAwoof
	p.DiscountPct = in.DiscountPct

	if err := s.products.Update(ctx, p); err != nil {
		return domain.Product{}, fmt.Errorf("catalog_service: update product: %w", err)
	}
	return p, nil
}

// GetProduct returns a single listing. Public.
func (s *CatalogService) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("catalog_service: get product: %w", err)
	}
	return p, nil
}

// ListStoreProducts returns the caller's listings, newest first.
func (s *CatalogService) ListStoreProducts(ctx context.Context, id domain.Identity, opts domain.ListOpts) ([]domain.Product, error) {
	if !id.IsPlug() {
		return nil, fmt.Errorf("catalog_service: no store attached: %w", domain.ErrForbidden)
	}
	products, err := s.products.ListByStore(ctx, id.StoreID, opts)
	if err != nil {
		return nil, fmt.Errorf("catalog_service: list store products: %w", err)
	}
	return products, nil
}

// Marketplace returns the public browse feed. Public.
func (s *CatalogService) Marketplace(ctx context.Context, f domain.MarketplaceFilter, opts domain.ListOpts) ([]domain.Product, error) {
	products, err := s.products.ListMarketplace(ctx, f, opts)
	if err != nil {
		return nil, fmt.Errorf("catalog_service: marketplace: %w", err)
	}
	return products, nil
}

func validateProduct(in ProductInput) error {
	if in.Name == "" {
		return fmt.Errorf("catalog_service: name required: %w", domain.ErrValidation)
	}
	if in.Price.IsNegative() {
		return fmt.Errorf("catalog_service: price cannot be negative: %w", domain.ErrValidation)
	}
	if in.DiscountPct < 0 || in.DiscountPct >= 100 {
		return fmt.Errorf("catalog_service: discount must be within [0,100): %w", domain.ErrValidation)
	}
	return nil
}
