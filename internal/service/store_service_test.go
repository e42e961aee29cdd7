package service

import (
	"context"
	"errors"
	"testing"

	"github.com/campustribe/tribemarket/internal/domain"
)

func TestCreateStoreOnePerOwner(t *testing.T) {
	vendors := newMemVendors()
	svc := NewStoreService(vendors, newMemBalances(), testLogger())
	owner := domain.Identity{UserID: "plug-1", Role: domain.RolePlug}

	s, err := svc.CreateStore(context.Background(), owner, "Kicks Corner")
	if err != nil {
		t.Fatalf("CreateStore: %v", err)
	}
	if s.OwnerID != "plug-1" {
		t.Errorf("owner = %s, want plug-1", s.OwnerID)
	}
	if !s.WalletBalance.IsZero() || !s.EscrowBalance.IsZero() {
		t.Errorf("new store balances = %s/%s, want 0/0", s.WalletBalance, s.EscrowBalance)
	}

	_, err = svc.CreateStore(context.Background(), owner, "Second Shop")
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("duplicate err = %v, want ErrAlreadyExists", err)
	}
}

func TestCreateStoreValidation(t *testing.T) {
	svc := NewStoreService(newMemVendors(), newMemBalances(), testLogger())

	if _, err := svc.CreateStore(context.Background(), domain.Identity{UserID: "u", Role: domain.RolePlug}, ""); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("empty name err = %v, want ErrValidation", err)
	}
	if _, err := svc.CreateStore(context.Background(), council, "Admin Shop"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("admin err = %v, want ErrForbidden", err)
	}
}

func TestGetMineReadsThroughCache(t *testing.T) {
	vendors := newMemVendors(domain.Store{
		ID: "store-1", OwnerID: "plug-1", Name: "Kicks Corner",
		WalletBalance: dec("500.00"), EscrowBalance: dec("200.00"),
	})
	balances := newMemBalances()
	svc := NewStoreService(vendors, balances, testLogger())

	// Miss populates the cache.
	s, err := svc.GetMine(context.Background(), vendorOne)
	if err != nil {
		t.Fatalf("GetMine: %v", err)
	}
	if !s.WalletBalance.Equal(dec("500.00")) {
		t.Errorf("wallet = %s, want 500.00", s.WalletBalance)
	}
	if _, _, ok, _ := balances.Get(context.Background(), "store-1"); !ok {
		t.Error("cache not populated after miss")
	}

	// A warm cache wins over the row.
	_ = balances.Set(context.Background(), "store-1", dec("999.00"), dec("111.00"), 0)
	s, err = svc.GetMine(context.Background(), vendorOne)
	if err != nil {
		t.Fatalf("GetMine cached: %v", err)
	}
	if !s.WalletBalance.Equal(dec("999.00")) || !s.EscrowBalance.Equal(dec("111.00")) {
		t.Errorf("cached balances = %s/%s, want 999.00/111.00", s.WalletBalance, s.EscrowBalance)
	}
}

func TestGetStoreAdminOnly(t *testing.T) {
	vendors := newMemVendors(domain.Store{ID: "store-1", OwnerID: "plug-1"})
	svc := NewStoreService(vendors, newMemBalances(), testLogger())

	if _, err := svc.GetStore(context.Background(), council, "store-1"); err != nil {
		t.Errorf("admin lookup: %v", err)
	}
	if _, err := svc.GetStore(context.Background(), vendorOne, "store-1"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("vendor lookup err = %v, want ErrForbidden", err)
	}
}
