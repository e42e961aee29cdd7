package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/campustribe/tribemarket/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCheckoutSnapshotsPrices(t *testing.T) {
	products := newMemProducts(
		domain.Product{ID: "p1", StoreID: "store-1", Name: "Sneakers", Price: dec("15000.00")},
		domain.Product{ID: "p2", StoreID: "store-2", Name: "Jollof pack", Price: dec("2500.00"), IsAwoof: true, DiscountPct: 20},
	)
	orders := newMemOrders()
	svc := NewOrderService(orders, products, newMemBus(), testLogger())

	buyer := domain.Identity{UserID: "citizen-1", Role: domain.RoleCitizen}
	o, err := svc.Checkout(context.Background(), buyer, CheckoutInput{
		Items: []CheckoutItem{
			{ProductID: "p1", Quantity: 2},
			{ProductID: "p2", Quantity: 3},
		},
		DeliveryMethod: domain.DeliveryMeetup,
	})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	if len(o.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(o.Items))
	}
	if got := o.Items[0].UnitPrice; !got.Equal(dec("15000.00")) {
		t.Errorf("item 0 unit price = %s, want 15000.00", got)
	}
	// Awoof products snapshot the discounted price.
	if got := o.Items[1].UnitPrice; !got.Equal(dec("2000.00")) {
		t.Errorf("item 1 unit price = %s, want 2000.00", got)
	}
	if want := dec("36000.00"); !o.TotalAmount.Equal(want) {
		t.Errorf("total = %s, want %s", o.TotalAmount, want)
	}
	if o.PaymentRef == "" {
		t.Error("payment ref not set")
	}
	if o.IsPaid {
		t.Error("new order must be unpaid")
	}
	for _, it := range o.Items {
		if it.Status != domain.FulfillmentReceived || it.Guard != domain.EscrowLocked {
			t.Errorf("item %s state = %s/%s, want RECEIVED/LOCKED", it.ID, it.Status, it.Guard)
		}
	}
	if len(orders.created) != 1 {
		t.Fatalf("persisted orders = %d, want 1", len(orders.created))
	}
}

func TestCheckoutRejectsNonCitizens(t *testing.T) {
	svc := NewOrderService(newMemOrders(), newMemProducts(), newMemBus(), testLogger())

	for _, role := range []domain.Role{domain.RolePlug, domain.RoleAdmin} {
		_, err := svc.Checkout(context.Background(), domain.Identity{UserID: "u", Role: role}, CheckoutInput{
			Items:          []CheckoutItem{{ProductID: "p1", Quantity: 1}},
			DeliveryMethod: domain.DeliveryMeetup,
		})
		if !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("role %s: err = %v, want ErrForbidden", role, err)
		}
	}
}

func TestCheckoutValidation(t *testing.T) {
	products := newMemProducts(domain.Product{ID: "p1", StoreID: "store-1", Price: dec("100.00")})
	svc := NewOrderService(newMemOrders(), products, newMemBus(), testLogger())
	buyer := domain.Identity{UserID: "citizen-1", Role: domain.RoleCitizen}

	tests := []struct {
		name string
		in   CheckoutInput
		want error
	}{
		{
			name: "no items",
			in:   CheckoutInput{DeliveryMethod: domain.DeliveryMeetup},
			want: domain.ErrValidation,
		},
		{
			name: "zero quantity",
			in: CheckoutInput{
				Items:          []CheckoutItem{{ProductID: "p1", Quantity: 0}},
				DeliveryMethod: domain.DeliveryMeetup,
			},
			want: domain.ErrValidation,
		},
		{
			name: "unknown delivery method",
			in: CheckoutInput{
				Items:          []CheckoutItem{{ProductID: "p1", Quantity: 1}},
				DeliveryMethod: "DRONE",
			},
			want: domain.ErrValidation,
		},
		{
			name: "delivery without address",
			in: CheckoutInput{
				Items:          []CheckoutItem{{ProductID: "p1", Quantity: 1}},
				DeliveryMethod: domain.DeliveryPlugDelivery,
			},
			want: domain.ErrValidation,
		},
		{
			name: "unknown product",
			in: CheckoutInput{
				Items:          []CheckoutItem{{ProductID: "ghost", Quantity: 1}},
				DeliveryMethod: domain.DeliveryMeetup,
			},
			want: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Checkout(context.Background(), buyer, tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestGetOrderPermissions(t *testing.T) {
	orders := newMemOrders()
	_ = orders.CreateWithItems(context.Background(), domain.Order{ID: "o1", BuyerID: "citizen-1"})
	svc := NewOrderService(orders, newMemProducts(), newMemBus(), testLogger())

	if _, err := svc.GetOrder(context.Background(), domain.Identity{UserID: "citizen-1", Role: domain.RoleCitizen}, "o1"); err != nil {
		t.Errorf("owner read: %v", err)
	}
	if _, err := svc.GetOrder(context.Background(), domain.Identity{UserID: "admin", Role: domain.RoleAdmin}, "o1"); err != nil {
		t.Errorf("admin read: %v", err)
	}
	_, err := svc.GetOrder(context.Background(), domain.Identity{UserID: "citizen-2", Role: domain.RoleCitizen}, "o1")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("stranger read err = %v, want ErrForbidden", err)
	}
}
