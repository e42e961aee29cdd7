package service

import (
	"context"
	"errors"
	"testing"

	"github.com/campustribe/tribemarket/internal/domain"
)

func TestPayoutRequestDebitsWallet(t *testing.T) {
	settle := newMemSettlement()
	settle.addStore(domain.Store{ID: "store-1", WalletBalance: dec("10000.00")})
	locks := &memLocks{}
	balances := newMemBalances()

	svc := NewPayoutService(settle, &memPayouts{}, locks, balances, newMemBus(), testLogger())
	p, err := svc.Request(context.Background(), vendorOne, dec("4000.00"), "GTB 0123456789")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}

	if p.Status != domain.PayoutPending {
		t.Errorf("status = %s, want PENDING", p.Status)
	}
	if got := settle.stores["store-1"].WalletBalance; !got.Equal(dec("6000.00")) {
		t.Errorf("wallet = %s, want 6000.00", got)
	}
	if len(settle.ledger) != 1 || settle.ledger[0].Kind != domain.LedgerPayoutHold {
		t.Errorf("ledger = %+v, want one payout_hold entry", settle.ledger)
	}
	if len(locks.acquired) != 1 || locks.acquired[0] != "payout:store-1" {
		t.Errorf("locks = %v, want [payout:store-1]", locks.acquired)
	}
	if len(balances.invalidated) != 1 {
		t.Errorf("cache invalidations = %d, want 1", len(balances.invalidated))
	}
}

func TestPayoutRequestInsufficientFunds(t *testing.T) {
	settle := newMemSettlement()
	settle.addStore(domain.Store{ID: "store-1", WalletBalance: dec("1000.00")})

	svc := NewPayoutService(settle, &memPayouts{}, &memLocks{}, newMemBalances(), newMemBus(), testLogger())
	_, err := svc.Request(context.Background(), vendorOne, dec("4000.00"), "GTB 0123456789")
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
	if got := settle.stores["store-1"].WalletBalance; !got.Equal(dec("1000.00")) {
		t.Errorf("wallet = %s, want 1000.00 untouched", got)
	}
}

func TestPayoutRequestValidation(t *testing.T) {
	settle := newMemSettlement()
	settle.addStore(domain.Store{ID: "store-1", WalletBalance: dec("1000.00")})
	svc := NewPayoutService(settle, &memPayouts{}, &memLocks{}, newMemBalances(), newMemBus(), testLogger())

	if _, err := svc.Request(context.Background(), vendorOne, dec("0"), "GTB 0123456789"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("zero amount err = %v, want ErrValidation", err)
	}
	if _, err := svc.Request(context.Background(), vendorOne, dec("-50.00"), "GTB 0123456789"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("negative amount err = %v, want ErrValidation", err)
	}
	if _, err := svc.Request(context.Background(), vendorOne, dec("100.00"), ""); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("missing bank details err = %v, want ErrValidation", err)
	}
	if _, err := svc.Request(context.Background(), buyerOne, dec("100.00"), "GTB 0123456789"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("citizen payout err = %v, want ErrForbidden", err)
	}
}

func TestPayoutRequestLockHeld(t *testing.T) {
	settle := newMemSettlement()
	settle.addStore(domain.Store{ID: "store-1", WalletBalance: dec("10000.00")})

	svc := NewPayoutService(settle, &memPayouts{}, &memLocks{held: true}, newMemBalances(), newMemBus(), testLogger())
	_, err := svc.Request(context.Background(), vendorOne, dec("100.00"), "GTB 0123456789")
	if !errors.Is(err, domain.ErrLockHeld) {
		t.Errorf("err = %v, want ErrLockHeld", err)
	}
}

func TestPayoutListScopes(t *testing.T) {
	payouts := &memPayouts{payouts: []domain.PayoutRequest{
		{ID: "p1", StoreID: "store-1"},
		{ID: "p2", StoreID: "store-2"},
	}}
	svc := NewPayoutService(newMemSettlement(), payouts, &memLocks{}, newMemBalances(), newMemBus(), testLogger())

	mine, err := svc.List(context.Background(), vendorOne, domain.ListOpts{})
	if err != nil {
		t.Fatalf("vendor list: %v", err)
	}
	if len(mine) != 1 || mine[0].StoreID != "store-1" {
		t.Errorf("vendor list = %+v, want only store-1", mine)
	}

	all, err := svc.List(context.Background(), council, domain.ListOpts{})
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("admin list = %d entries, want 2", len(all))
	}

	if _, err := svc.List(context.Background(), buyerOne, domain.ListOpts{}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("citizen list err = %v, want ErrForbidden", err)
	}
}
