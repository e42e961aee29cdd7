package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/campustribe/tribemarket/internal/domain"
)

// memSettlement implements domain.SettlementStore in memory with the
// same decide-closure semantics as the postgres implementation.
type memSettlement struct {
	orders map[string]domain.Order // keyed by payment ref
	items  map[string]*domain.OrderItem
	stores map[string]*domain.Store
	ledger []domain.LedgerEntry
}

func newMemSettlement() *memSettlement {
	return &memSettlement{
		orders: make(map[string]domain.Order),
		items:  make(map[string]*domain.OrderItem),
		stores: make(map[string]*domain.Store),
	}
}

func (m *memSettlement) addOrder(o domain.Order) {
	m.orders[o.PaymentRef] = o
	for i := range o.Items {
		item := o.Items[i]
		m.items[item.ID] = &item
	}
}

func (m *memSettlement) addStore(s domain.Store) {
	copied := s
	m.stores[s.ID] = &copied
}

func (m *memSettlement) orderByID(id string) (domain.Order, bool) {
	for _, o := range m.orders {
		if o.ID == id {
			items := make([]domain.OrderItem, 0, len(o.Items))
			for _, it := range o.Items {
				items = append(items, *m.items[it.ID])
			}
			o.Items = items
			return o, true
		}
	}
	return domain.Order{}, false
}

func (m *memSettlement) FundOrder(_ context.Context, paymentRef string, decide func(o domain.Order) (domain.FundingPlan, error)) (domain.Order, bool, error) {
	o, ok := m.orders[paymentRef]
	if !ok {
		return domain.Order{}, false, domain.ErrNotFound
	}
	if o.IsPaid {
		return o, true, nil
	}

	plan, err := decide(o)
	if err != nil {
		return domain.Order{}, false, err
	}
	for _, credit := range plan.Credits {
		s := m.stores[credit.StoreID]
		s.EscrowBalance = s.EscrowBalance.Add(credit.Amount)
	}
	m.ledger = append(m.ledger, plan.Entries...)

	o.IsPaid = true
	m.orders[paymentRef] = o
	return o, false, nil
}

func (m *memSettlement) ApplyItemTransition(_ context.Context, itemID string, decide func(item domain.OrderItem, o domain.Order) (domain.ItemMutation, error)) (domain.OrderItem, error) {
	item, ok := m.items[itemID]
	if !ok {
		return domain.OrderItem{}, domain.ErrNotFound
	}
	o, ok := m.orderByID(item.OrderID)
	if !ok {
		return domain.OrderItem{}, domain.ErrNotFound
	}

	mut, err := decide(*item, o)
	if err != nil {
		return domain.OrderItem{}, err
	}

	item.Status = mut.Status
	item.Guard = mut.Guard
	if s, ok := m.stores[item.StoreID]; ok {
		s.EscrowBalance = s.EscrowBalance.Add(mut.EscrowDelta)
		s.WalletBalance = s.WalletBalance.Add(mut.WalletDelta)
	}
	m.ledger = append(m.ledger, mut.Entries...)
	return *item, nil
}

func (m *memSettlement) RequestPayout(_ context.Context, storeID string, decide func(s domain.Store) (domain.PayoutMutation, error)) (domain.PayoutRequest, error) {
	s, ok := m.stores[storeID]
	if !ok {
		return domain.PayoutRequest{}, domain.ErrNotFound
	}

	mut, err := decide(*s)
	if err != nil {
		return domain.PayoutRequest{}, err
	}
	s.WalletBalance = s.WalletBalance.Add(mut.WalletDelta)
	m.ledger = append(m.ledger, mut.Entries...)
	return mut.Payout, nil
}

// memOrders implements the read side of domain.OrderStore.
type memOrders struct {
	byID    map[string]domain.Order
	created []domain.Order
}

func newMemOrders() *memOrders {
	return &memOrders{byID: make(map[string]domain.Order)}
}

func (m *memOrders) CreateWithItems(_ context.Context, o domain.Order) error {
	m.byID[o.ID] = o
	m.created = append(m.created, o)
	return nil
}

func (m *memOrders) GetByID(_ context.Context, id string) (domain.Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	return o, nil
}

func (m *memOrders) ListByBuyer(_ context.Context, buyerID string, _ domain.ListOpts) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range m.byID {
		if o.BuyerID == buyerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memOrders) GetItem(_ context.Context, itemID string) (domain.OrderItem, error) {
	for _, o := range m.byID {
		for _, it := range o.Items {
			if it.ID == itemID {
				return it, nil
			}
		}
	}
	return domain.OrderItem{}, domain.ErrNotFound
}

func (m *memOrders) ListItemsByStore(_ context.Context, storeID string, _ domain.ListOpts) ([]domain.OrderItem, error) {
	var out []domain.OrderItem
	for _, o := range m.byID {
		for _, it := range o.Items {
			if it.StoreID == storeID {
				out = append(out, it)
			}
		}
	}
	return out, nil
}

func (m *memOrders) ListItemsByBuyer(_ context.Context, buyerID string, _ domain.ListOpts) ([]domain.OrderItem, error) {
	var out []domain.OrderItem
	for _, o := range m.byID {
		if o.BuyerID == buyerID {
			out = append(out, o.Items...)
		}
	}
	return out, nil
}

func (m *memOrders) ListDisputedItems(_ context.Context, _ domain.ListOpts) ([]domain.OrderItem, error) {
	var out []domain.OrderItem
	for _, o := range m.byID {
		for _, it := range o.Items {
			if it.Status == domain.FulfillmentDisputed {
				out = append(out, it)
			}
		}
	}
	return out, nil
}

func (m *memOrders) ListPaidBefore(_ context.Context, before time.Time) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range m.byID {
		if o.IsPaid && o.CreatedAt.Before(before) {
			out = append(out, o)
		}
	}
	return out, nil
}

// memProducts implements domain.ProductStore.
type memProducts struct {
	byID map[string]domain.Product
}

func newMemProducts(products ...domain.Product) *memProducts {
	m := &memProducts{byID: make(map[string]domain.Product)}
	for _, p := range products {
		m.byID[p.ID] = p
	}
	return m
}

func (m *memProducts) Create(_ context.Context, p domain.Product) error {
	m.byID[p.ID] = p
	return nil
}

func (m *memProducts) Update(_ context.Context, p domain.Product) error {
	if _, ok := m.byID[p.ID]; !ok {
		return domain.ErrNotFound
	}
	m.byID[p.ID] = p
	return nil
}

func (m *memProducts) GetByID(_ context.Context, id string) (domain.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	return p, nil
}

func (m *memProducts) ListByStore(_ context.Context, storeID string, _ domain.ListOpts) ([]domain.Product, error) {
	var out []domain.Product
	for _, p := range m.byID {
		if p.StoreID == storeID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memProducts) ListMarketplace(_ context.Context, f domain.MarketplaceFilter, _ domain.ListOpts) ([]domain.Product, error) {
	var out []domain.Product
	for _, p := range m.byID {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.AwoofOnly && !p.IsAwoof {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// memVendors implements domain.VendorStore.
type memVendors struct {
	byID map[string]domain.Store
}

func newMemVendors(stores ...domain.Store) *memVendors {
	m := &memVendors{byID: make(map[string]domain.Store)}
	for _, s := range stores {
		m.byID[s.ID] = s
	}
	return m
}

func (m *memVendors) Create(_ context.Context, s domain.Store) error {
	m.byID[s.ID] = s
	return nil
}

func (m *memVendors) GetByID(_ context.Context, id string) (domain.Store, error) {
	s, ok := m.byID[id]
	if !ok {
		return domain.Store{}, domain.ErrNotFound
	}
	return s, nil
}

func (m *memVendors) GetByOwner(_ context.Context, ownerID string) (domain.Store, error) {
	for _, s := range m.byID {
		if s.OwnerID == ownerID {
			return s, nil
		}
	}
	return domain.Store{}, domain.ErrNotFound
}

// memPayouts implements domain.PayoutStore.
type memPayouts struct {
	payouts []domain.PayoutRequest
}

func (m *memPayouts) ListByStore(_ context.Context, storeID string, _ domain.ListOpts) ([]domain.PayoutRequest, error) {
	var out []domain.PayoutRequest
	for _, p := range m.payouts {
		if p.StoreID == storeID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPayouts) List(_ context.Context, _ domain.ListOpts) ([]domain.PayoutRequest, error) {
	return m.payouts, nil
}

// memBalances implements domain.BalanceCache and records invalidations.
type memBalances struct {
	wallet      map[string]decimal.Decimal
	escrow      map[string]decimal.Decimal
	invalidated []string
}

func newMemBalances() *memBalances {
	return &memBalances{
		wallet: make(map[string]decimal.Decimal),
		escrow: make(map[string]decimal.Decimal),
	}
}

func (m *memBalances) Set(_ context.Context, storeID string, wallet, escrow decimal.Decimal, _ time.Duration) error {
	m.wallet[storeID] = wallet
	m.escrow[storeID] = escrow
	return nil
}

func (m *memBalances) Get(_ context.Context, storeID string) (decimal.Decimal, decimal.Decimal, bool, error) {
	w, ok := m.wallet[storeID]
	if !ok {
		return decimal.Zero, decimal.Zero, false, nil
	}
	return w, m.escrow[storeID], true, nil
}

func (m *memBalances) Invalidate(_ context.Context, storeID string) error {
	delete(m.wallet, storeID)
	delete(m.escrow, storeID)
	m.invalidated = append(m.invalidated, storeID)
	return nil
}

// memLocks implements domain.LockManager. When held is set, Acquire
// fails with ErrLockHeld.
type memLocks struct {
	held     bool
	acquired []string
}

func (m *memLocks) Acquire(_ context.Context, key string, _ time.Duration) (func(), error) {
	if m.held {
		return nil, domain.ErrLockHeld
	}
	m.acquired = append(m.acquired, key)
	return func() {}, nil
}

// memBus implements domain.SignalBus and records publishes.
type memBus struct {
	published map[string][][]byte
	streamed  [][]byte
}

func newMemBus() *memBus {
	return &memBus{published: make(map[string][][]byte)}
}

func (m *memBus) Publish(_ context.Context, channel string, payload []byte) error {
	m.published[channel] = append(m.published[channel], payload)
	return nil
}

func (m *memBus) Subscribe(_ context.Context, _ string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}

func (m *memBus) StreamAppend(_ context.Context, _ string, payload []byte) error {
	m.streamed = append(m.streamed, payload)
	return nil
}

func (m *memBus) StreamTail(_ context.Context, _ string, count int) ([]domain.StreamMessage, error) {
	start := len(m.streamed) - count
	if start < 0 {
		start = 0
	}
	var msgs []domain.StreamMessage
	for _, p := range m.streamed[start:] {
		msgs = append(msgs, domain.StreamMessage{Payload: p})
	}
	return msgs, nil
}

// memAlerter records notifications.
type memAlerter struct {
	events []string
}

func (m *memAlerter) Notify(_ context.Context, event, _, _ string) error {
	m.events = append(m.events, event)
	return nil
}

// Compile-time interface checks.
var (
	_ domain.SettlementStore = (*memSettlement)(nil)
	_ domain.OrderStore      = (*memOrders)(nil)
	_ domain.ProductStore    = (*memProducts)(nil)
	_ domain.VendorStore     = (*memVendors)(nil)
	_ domain.PayoutStore     = (*memPayouts)(nil)
	_ domain.BalanceCache    = (*memBalances)(nil)
	_ domain.LockManager     = (*memLocks)(nil)
	_ domain.SignalBus       = (*memBus)(nil)
)
