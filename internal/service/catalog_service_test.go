package service

import (
	"context"
	"errors"
	"testing"

	"github.com/campustribe/tribemarket/internal/domain"
)

func TestCreateProductOwnership(t *testing.T) {
	svc := NewCatalogService(newMemProducts(), testLogger())

	p, err := svc.CreateProduct(context.Background(), vendorOne, ProductInput{Name: "Sneakers", Price: dec("15000.00")})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if p.StoreID != "store-1" {
		t.Errorf("store = %s, want store-1", p.StoreID)
	}

	if _, err := svc.CreateProduct(context.Background(), buyerOne, ProductInput{Name: "X", Price: dec("1.00")}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("citizen create err = %v, want ErrForbidden", err)
	}
}

func TestUpdateProductOtherStore(t *testing.T) {
	products := newMemProducts(domain.Product{ID: "p1", StoreID: "store-2", Name: "Sneakers", Price: dec("100.00")})
	svc := NewCatalogService(products, testLogger())

	_, err := svc.UpdateProduct(context.Background(), vendorOne, "p1", ProductInput{Name: "Hijacked", Price: dec("1.00")})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}

func TestProductValidation(t *testing.T) {
	svc := NewCatalogService(newMemProducts(), testLogger())

	tests := []struct {
		name string
		in   ProductInput
	}{
		{"empty name", ProductInput{Price: dec("10.00")}},
		{"negative price", ProductInput{Name: "X", Price: dec("-1.00")}},
		{"discount over range", ProductInput{Name: "X", Price: dec("10.00"), DiscountPct: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateProduct(context.Background(), vendorOne, tt.in); !errors.Is(err, domain.ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestMarketplaceFilters(t *testing.T) {
	products := newMemProducts(
		domain.Product{ID: "p1", StoreID: "store-1", Name: "Sneakers", Category: "fashion", Price: dec("100.00")},
		domain.Product{ID: "p2", StoreID: "store-2", Name: "Jollof pack", Category: "food", Price: dec("20.00"), IsAwoof: true},
	)
	svc := NewCatalogService(products, testLogger())

	got, err := svc.Marketplace(context.Background(), domain.MarketplaceFilter{AwoofOnly: true}, domain.ListOpts{})
	if err != nil {
		t.Fatalf("Marketplace: %v", err)
	}
	if len(got) != 1 || got[0].ID != "p2" {
		t.Errorf("awoof filter = %+v, want only p2", got)
	}
}
