package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ListOpts provides pagination and time filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// MarketplaceFilter narrows public product browsing.
type MarketplaceFilter struct {
	Category  string
	AwoofOnly bool
}

// VendorStore persists vendor stores.
type VendorStore interface {
	Create(ctx context.Context, s Store) error
	GetByID(ctx context.Context, id string) (Store, error)
	GetByOwner(ctx context.Context, ownerID string) (Store, error)
}

// ProductStore persists product listings.
type ProductStore interface {
	Create(ctx context.Context, p Product) error
	Update(ctx context.Context, p Product) error
	GetByID(ctx context.Context, id string) (Product, error)
	ListByStore(ctx context.Context, storeID string, opts ListOpts) ([]Product, error)
	ListMarketplace(ctx context.Context, f MarketplaceFilter, opts ListOpts) ([]Product, error)
}

// OrderStore persists orders and their items.
type OrderStore interface {
	// CreateWithItems inserts the order and all of its items in one
	// transaction.
	CreateWithItems(ctx context.Context, o Order) error
	GetByID(ctx context.Context, id string) (Order, error)
	ListByBuyer(ctx context.Context, buyerID string, opts ListOpts) ([]Order, error)
	GetItem(ctx context.Context, itemID string) (OrderItem, error)
	ListItemsByStore(ctx context.Context, storeID string, opts ListOpts) ([]OrderItem, error)
	ListItemsByBuyer(ctx context.Context, buyerID string, opts ListOpts) ([]OrderItem, error)
	ListDisputedItems(ctx context.Context, opts ListOpts) ([]OrderItem, error)
	// ListPaidBefore returns paid orders created strictly before the
	// cutoff, for archival.
	ListPaidBefore(ctx context.Context, before time.Time) ([]Order, error)
}

// PayoutStore persists payout requests. Creation happens inside the
// settlement transaction (see SettlementStore.RequestPayout).
type PayoutStore interface {
	ListByStore(ctx context.Context, storeID string, opts ListOpts) ([]PayoutRequest, error)
	List(ctx context.Context, opts ListOpts) ([]PayoutRequest, error)
}

// LedgerStore reads the append-only balance movement log. Writes happen
// inside settlement transactions.
type LedgerStore interface {
	ListByOrder(ctx context.Context, orderID string) ([]LedgerEntry, error)
	List(ctx context.Context, opts ListOpts) ([]LedgerEntry, error)
	// ListBefore returns entries created strictly before the cutoff, for
	// archival.
	ListBefore(ctx context.Context, before time.Time) ([]LedgerEntry, error)
}

// EscrowCredit is one store's escrow funding share of an order.
type EscrowCredit struct {
	StoreID string
	Amount  decimal.Decimal
}

// FundingPlan is the set of mutations funding an order's escrow.
type FundingPlan struct {
	Credits []EscrowCredit
	Entries []LedgerEntry
}

// ItemMutation is the outcome of a fulfillment action on one item:
// the new states plus the balance deltas for the item's store. Deltas
// are zero for pure status moves.
type ItemMutation struct {
	Status      FulfillmentStatus
	Guard       EscrowStatus
	EscrowDelta decimal.Decimal
	WalletDelta decimal.Decimal
	Entries     []LedgerEntry
}

// PayoutMutation is the outcome of a payout request against a store.
type PayoutMutation struct {
	Payout      PayoutRequest
	WalletDelta decimal.Decimal
	Entries     []LedgerEntry
}

// SettlementStore executes every balance-mutating operation as a single
// database transaction. Each method locks the target aggregate rows,
// invokes the decide callback on the locked state, applies the returned
// mutations together with the status change, and commits — or rolls the
// whole thing back if decide returns an error. No reader ever observes a
// partial update.
type SettlementStore interface {
	// FundOrder locks the order identified by paymentRef. When the order
	// is already paid it returns (order, true, nil) without calling
	// decide — replayed payment notifications fund escrow exactly once.
	FundOrder(ctx context.Context, paymentRef string, decide func(o Order) (FundingPlan, error)) (Order, bool, error)

	// ApplyItemTransition locks the item, its order and its store, and
	// applies the mutation decide computes from the locked state.
	ApplyItemTransition(ctx context.Context, itemID string, decide func(item OrderItem, o Order) (ItemMutation, error)) (OrderItem, error)

	// RequestPayout locks the store row and applies the payout mutation.
	RequestPayout(ctx context.Context, storeID string, decide func(s Store) (PayoutMutation, error)) (PayoutRequest, error)
}
