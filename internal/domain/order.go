package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeliveryMethod selects how an order reaches the buyer.
type DeliveryMethod string

const (
	DeliveryMeetup       DeliveryMethod = "MEETUP"
	DeliveryPlugDelivery DeliveryMethod = "PLUG_DELIVERY"
	DeliveryWaybill      DeliveryMethod = "WAYBILL"
)

// FulfillmentStatus tracks the physical delivery lifecycle of an item.
type FulfillmentStatus string

const (
	FulfillmentReceived   FulfillmentStatus = "RECEIVED"
	FulfillmentProcessing FulfillmentStatus = "PROCESSING"
	FulfillmentDelivered  FulfillmentStatus = "DELIVERED"
	FulfillmentDisputed   FulfillmentStatus = "DISPUTED"
)

// EscrowStatus tracks the TribeGuard money axis of an item. LOCKED moves
// to RELEASED or REFUNDED exactly once; both are terminal.
type EscrowStatus string

const (
	EscrowLocked   EscrowStatus = "LOCKED"
	EscrowReleased EscrowStatus = "RELEASED"
	EscrowRefunded EscrowStatus = "REFUNDED"
)

// Order is a buyer's checkout. PaymentRef is the unique reference handed
// to the external payment provider; IsPaid flips exactly once when the
// provider confirms the charge. Items are created together with the
// order and never added afterwards.
type Order struct {
	ID              string
	BuyerID         string
	TotalAmount     decimal.Decimal
	PaymentRef      string
	IsPaid          bool
	DeliveryMethod  DeliveryMethod
	DeliveryAddress string
	DeliveryPhone   string
	CreatedAt       time.Time
	Items           []OrderItem
}

// OrderItem is one product/store/quantity line of an order. UnitPrice is
// snapshotted from the product at checkout; all settlement math uses the
// snapshot, so later price edits by the vendor cannot change what
// settles.
type OrderItem struct {
	ID          string
	OrderID     string
	ProductID   string
	ProductName string
	StoreID     string
	Quantity    int
	UnitPrice   decimal.Decimal
	Status      FulfillmentStatus
	Guard       EscrowStatus
	CreatedAt   time.Time
}

// Total returns the monetary value of the item, unit price times
// quantity.
func (i OrderItem) Total() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Settled reports whether the escrow axis has reached a terminal state.
func (i OrderItem) Settled() bool {
	return i.Guard != EscrowLocked
}
