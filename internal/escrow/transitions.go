// Package escrow implements the TribeGuard settlement state machine as
// pure computation. Given an order item and an action it produces the
// next fulfillment/escrow states and the exact balance deltas; it owns
// no I/O. The settlement store applies the result atomically.
package escrow

import (
	"github.com/campustribe/tribemarket/internal/domain"
)

// Action is one of the fulfillment protocol verbs.
type Action string

const (
	ActionMarkDelivered   Action = "mark-delivered"
	ActionConfirmReceived Action = "confirm-received"
	ActionRaiseDispute    Action = "raise-dispute"
	ActionResolveRefund   Action = "resolve-refund"
	ActionResolveRelease  Action = "resolve-release"
)

// SettlementKind selects the money movement a transition triggers.
type SettlementKind int

const (
	SettleNone SettlementKind = iota
	SettleRelease
	SettleRefund
)

type transitionKey struct {
	action Action
	status domain.FulfillmentStatus
	guard  domain.EscrowStatus
}

type outcome struct {
	status domain.FulfillmentStatus
	guard  domain.EscrowStatus
	settle SettlementKind
}

// transitions is the complete state machine, keyed by (action, current
// fulfillment, current escrow). Every key requires escrow LOCKED, so a
// settled item has no valid transitions at all: RELEASED and REFUNDED
// are terminal and double settlement is structurally unreachable.
var transitions = map[transitionKey]outcome{
	// Vendor marks the item handed over.
	{ActionMarkDelivered, domain.FulfillmentReceived, domain.EscrowLocked}:   {domain.FulfillmentDelivered, domain.EscrowLocked, SettleNone},
	{ActionMarkDelivered, domain.FulfillmentProcessing, domain.EscrowLocked}: {domain.FulfillmentDelivered, domain.EscrowLocked, SettleNone},

	// Buyer confirms receipt; funds release to the vendor.
	{ActionConfirmReceived, domain.FulfillmentDelivered, domain.EscrowLocked}: {domain.FulfillmentDelivered, domain.EscrowReleased, SettleRelease},

	// Buyer raises a dispute from any pre-settlement state.
	{ActionRaiseDispute, domain.FulfillmentReceived, domain.EscrowLocked}:   {domain.FulfillmentDisputed, domain.EscrowLocked, SettleNone},
	{ActionRaiseDispute, domain.FulfillmentProcessing, domain.EscrowLocked}: {domain.FulfillmentDisputed, domain.EscrowLocked, SettleNone},
	{ActionRaiseDispute, domain.FulfillmentDelivered, domain.EscrowLocked}:  {domain.FulfillmentDisputed, domain.EscrowLocked, SettleNone},

	// Council resolves a dispute either way. Refund resets the
	// fulfillment axis; release settles in the vendor's favour.
	{ActionResolveRefund, domain.FulfillmentDisputed, domain.EscrowLocked}:  {domain.FulfillmentReceived, domain.EscrowRefunded, SettleRefund},
	{ActionResolveRelease, domain.FulfillmentDisputed, domain.EscrowLocked}: {domain.FulfillmentDelivered, domain.EscrowReleased, SettleRelease},
}

// lookup returns the outcome for an action on an item in its current
// states, or false when the combination is not a legal transition.
func lookup(act Action, item domain.OrderItem) (outcome, bool) {
	out, ok := transitions[transitionKey{act, item.Status, item.Guard}]
	return out, ok
}
