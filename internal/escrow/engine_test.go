package escrow

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/campustribe/tribemarket/internal/domain"
)

func item(status domain.FulfillmentStatus, guard domain.EscrowStatus, price string, qty int) domain.OrderItem {
	return domain.OrderItem{
		ID:        "item-1",
		OrderID:   "order-1",
		StoreID:   "store-1",
		Quantity:  qty,
		UnitPrice: decimal.RequireFromString(price),
		Status:    status,
		Guard:     guard,
	}
}

func TestApplyTransitionTable(t *testing.T) {
	tests := []struct {
		name       string
		status     domain.FulfillmentStatus
		guard      domain.EscrowStatus
		action     Action
		wantStatus domain.FulfillmentStatus
		wantGuard  domain.EscrowStatus
		wantErr    bool
	}{
		{"deliver from received", domain.FulfillmentReceived, domain.EscrowLocked, ActionMarkDelivered, domain.FulfillmentDelivered, domain.EscrowLocked, false},
		{"deliver from processing", domain.FulfillmentProcessing, domain.EscrowLocked, ActionMarkDelivered, domain.FulfillmentDelivered, domain.EscrowLocked, false},
		{"deliver twice", domain.FulfillmentDelivered, domain.EscrowLocked, ActionMarkDelivered, "", "", true},
		{"confirm after delivery", domain.FulfillmentDelivered, domain.EscrowLocked, ActionConfirmReceived, domain.FulfillmentDelivered, domain.EscrowReleased, false},
		{"confirm before delivery", domain.FulfillmentReceived, domain.EscrowLocked, ActionConfirmReceived, "", "", true},
		{"confirm while processing", domain.FulfillmentProcessing, domain.EscrowLocked, ActionConfirmReceived, "", "", true},
		{"dispute from received", domain.FulfillmentReceived, domain.EscrowLocked, ActionRaiseDispute, domain.FulfillmentDisputed, domain.EscrowLocked, false},
		{"dispute from processing", domain.FulfillmentProcessing, domain.EscrowLocked, ActionRaiseDispute, domain.FulfillmentDisputed, domain.EscrowLocked, false},
		{"dispute from delivered", domain.FulfillmentDelivered, domain.EscrowLocked, ActionRaiseDispute, domain.FulfillmentDisputed, domain.EscrowLocked, false},
		{"dispute a disputed item", domain.FulfillmentDisputed, domain.EscrowLocked, ActionRaiseDispute, "", "", true},
		{"refund disputed", domain.FulfillmentDisputed, domain.EscrowLocked, ActionResolveRefund, domain.FulfillmentReceived, domain.EscrowRefunded, false},
		{"release disputed", domain.FulfillmentDisputed, domain.EscrowLocked, ActionResolveRelease, domain.FulfillmentDelivered, domain.EscrowReleased, false},
		{"refund undisputed", domain.FulfillmentDelivered, domain.EscrowLocked, ActionResolveRefund, "", "", true},
		{"release undisputed", domain.FulfillmentReceived, domain.EscrowLocked, ActionResolveRelease, "", "", true},
		{"confirm released item", domain.FulfillmentDelivered, domain.EscrowReleased, ActionConfirmReceived, "", "", true},
		{"deliver refunded item", domain.FulfillmentReceived, domain.EscrowRefunded, ActionMarkDelivered, "", "", true},
		{"dispute released item", domain.FulfillmentDelivered, domain.EscrowReleased, ActionRaiseDispute, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := item(tt.status, tt.guard, "100.00", 1)
			mut, err := Apply(it, domain.Order{BuyerID: "buyer-1"}, tt.action)

			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidState) {
					t.Fatalf("want ErrInvalidState, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if mut.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", mut.Status, tt.wantStatus)
			}
			if mut.Guard != tt.wantGuard {
				t.Errorf("guard = %s, want %s", mut.Guard, tt.wantGuard)
			}
		})
	}
}

func TestReleaseCommissionSplit(t *testing.T) {
	it := item(domain.FulfillmentDelivered, domain.EscrowLocked, "45000.00", 1)

	mut, err := Apply(it, domain.Order{BuyerID: "buyer-1"}, ActionConfirmReceived)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if want := decimal.RequireFromString("-45000.00"); !mut.EscrowDelta.Equal(want) {
		t.Errorf("escrow delta = %s, want %s", mut.EscrowDelta, want)
	}
	if want := decimal.RequireFromString("42750.00"); !mut.WalletDelta.Equal(want) {
		t.Errorf("wallet delta = %s, want %s", mut.WalletDelta, want)
	}

	if len(mut.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(mut.Entries))
	}
	if mut.Entries[0].Kind != domain.LedgerEscrowRelease {
		t.Errorf("first entry kind = %s", mut.Entries[0].Kind)
	}
	if want := decimal.RequireFromString("2250.00"); !mut.Entries[1].Amount.Equal(want) {
		t.Errorf("commission = %s, want %s", mut.Entries[1].Amount, want)
	}
}

// Every escrow decrease must equal the wallet increase plus the
// commission leaving the system, exactly.
func TestReleaseConservation(t *testing.T) {
	prices := []string{"0.01", "19.99", "333.33", "45000.00", "12345.67"}
	for _, p := range prices {
		for qty := 1; qty <= 3; qty++ {
			it := item(domain.FulfillmentDelivered, domain.EscrowLocked, p, qty)
			mut, err := Apply(it, domain.Order{}, ActionConfirmReceived)
			if err != nil {
				t.Fatalf("apply %s x%d: %v", p, qty, err)
			}

			commission := mut.Entries[1].Amount
			outflow := mut.WalletDelta.Add(commission)
			if !mut.EscrowDelta.Neg().Equal(outflow) {
				t.Errorf("price %s x%d: escrow out %s != wallet %s + commission %s",
					p, qty, mut.EscrowDelta.Neg(), mut.WalletDelta, commission)
			}
		}
	}
}

func TestRefundCreditsBuyer(t *testing.T) {
	it := item(domain.FulfillmentDisputed, domain.EscrowLocked, "250.00", 2)

	mut, err := Apply(it, domain.Order{BuyerID: "buyer-9"}, ActionResolveRefund)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if want := decimal.RequireFromString("-500.00"); !mut.EscrowDelta.Equal(want) {
		t.Errorf("escrow delta = %s, want %s", mut.EscrowDelta, want)
	}
	if !mut.WalletDelta.IsZero() {
		t.Errorf("wallet delta = %s, want 0", mut.WalletDelta)
	}

	if len(mut.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(mut.Entries))
	}
	e := mut.Entries[0]
	if e.Kind != domain.LedgerBuyerRefund {
		t.Errorf("entry kind = %s, want %s", e.Kind, domain.LedgerBuyerRefund)
	}
	if e.UserID != "buyer-9" {
		t.Errorf("entry user = %s, want buyer-9", e.UserID)
	}
	if want := decimal.RequireFromString("500.00"); !e.Amount.Equal(want) {
		t.Errorf("entry amount = %s, want %s", e.Amount, want)
	}
}

func TestSettledItemRejectsEveryAction(t *testing.T) {
	actions := []Action{
		ActionMarkDelivered, ActionConfirmReceived,
		ActionRaiseDispute, ActionResolveRefund, ActionResolveRelease,
	}
	for _, guard := range []domain.EscrowStatus{domain.EscrowReleased, domain.EscrowRefunded} {
		for _, act := range actions {
			it := item(domain.FulfillmentDelivered, guard, "10.00", 1)
			if _, err := Apply(it, domain.Order{}, act); !errors.Is(err, domain.ErrInvalidState) {
				t.Errorf("%s on %s item: want ErrInvalidState, got %v", act, guard, err)
			}
		}
	}
}

func TestBuildFundingPlanAggregatesPerStore(t *testing.T) {
	o := domain.Order{
		ID:      "order-7",
		BuyerID: "buyer-1",
		Items: []domain.OrderItem{
			{ID: "a", OrderID: "order-7", StoreID: "store-1", Quantity: 2, UnitPrice: decimal.RequireFromString("1500.00")},
			{ID: "b", OrderID: "order-7", StoreID: "store-1", Quantity: 1, UnitPrice: decimal.RequireFromString("700.50")},
			{ID: "c", OrderID: "order-7", StoreID: "store-2", Quantity: 1, UnitPrice: decimal.RequireFromString("99.99")},
		},
	}

	plan := BuildFundingPlan(o)

	if len(plan.Entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(plan.Entries))
	}
	if len(plan.Credits) != 2 {
		t.Fatalf("credits = %d, want 2", len(plan.Credits))
	}

	byStore := make(map[string]decimal.Decimal)
	for _, c := range plan.Credits {
		byStore[c.StoreID] = c.Amount
	}
	if want := decimal.RequireFromString("3700.50"); !byStore["store-1"].Equal(want) {
		t.Errorf("store-1 credit = %s, want %s", byStore["store-1"], want)
	}
	if want := decimal.RequireFromString("99.99"); !byStore["store-2"].Equal(want) {
		t.Errorf("store-2 credit = %s, want %s", byStore["store-2"], want)
	}

	for _, e := range plan.Entries {
		if e.Kind != domain.LedgerEscrowFund {
			t.Errorf("entry kind = %s, want %s", e.Kind, domain.LedgerEscrowFund)
		}
		if e.OrderID != "order-7" {
			t.Errorf("entry order = %s, want order-7", e.OrderID)
		}
	}
}
