package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/campustribe/tribemarket/internal/domain"
	"github.com/campustribe/tribemarket/internal/escrow"
)

// FulfillmentService executes the fulfillment protocol on order items:
// vendors mark delivery, buyers confirm or dispute, the council resolves
// disputes. Each action locks the item and runs the settlement state
// machine inside one transaction, so an item settles at most once no
// matter how requests race.
type FulfillmentService struct {
	settle   domain.SettlementStore
	orders   domain.OrderStore
	balances domain.BalanceCache
	bus      domain.SignalBus
	alerts   Alerter
	logger   *slog.Logger
}

// NewFulfillmentService creates a FulfillmentService with all required
// dependencies. alerts may be nil.
func NewFulfillmentService(settle domain.SettlementStore, orders domain.OrderStore, balances domain.BalanceCache, bus domain.SignalBus, alerts Alerter, logger *slog.Logger) *FulfillmentService {
	return &FulfillmentService{
		settle:   settle,
		orders:   orders,
		balances: balances,
		bus:      bus,
		alerts:   alerts,
		logger:   logger.With(slog.String("component", "fulfillment_service")),
	}
}

// Apply runs one fulfillment action on an item for the caller. The
// permission check and the state machine both evaluate against the
// row-locked state, never against what the caller last saw.
func (s *FulfillmentService) Apply(ctx context.Context, id domain.Identity, itemID string, act escrow.Action) (domain.OrderItem, error) {
	item, err := s.settle.ApplyItemTransition(ctx, itemID, func(item domain.OrderItem, o domain.Order) (domain.ItemMutation, error) {
		if err := authorize(id, act, item, o); err != nil {
			return domain.ItemMutation{}, err
		}
		if !o.IsPaid {
			return domain.ItemMutation{}, fmt.Errorf("fulfillment_service: order %s not paid: %w", o.ID, domain.ErrInvalidState)
		}
		return escrow.Apply(item, o, act)
	})
	if err != nil {
		return domain.OrderItem{}, fmt.Errorf("fulfillment_service: %s item %s: %w", act, itemID, err)
	}

	if item.Settled() {
		if err := s.balances.Invalidate(ctx, item.StoreID); err != nil {
			s.logger.WarnContext(ctx, "invalidate balance cache",
				slog.String("store_id", item.StoreID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "fulfillment action applied",
		slog.String("action", string(act)),
		slog.String("item_id", item.ID),
		slog.String("status", string(item.Status)),
		slog.String("guard", string(item.Guard)),
	)
	publishEvent(ctx, s.bus, s.logger, ChannelSettlements, Event{
		Kind:    "item_" + string(act),
		OrderID: item.OrderID,
		ItemID:  item.ID,
		StoreID: item.StoreID,
		Status:  string(item.Guard),
	})

	if s.alerts != nil && act == escrow.ActionRaiseDispute {
		msg := fmt.Sprintf("Item %s (%s) disputed by buyer", item.ID, item.ProductName)
		if err := s.alerts.Notify(ctx, "dispute_raised", "Dispute raised", msg); err != nil {
			s.logger.WarnContext(ctx, "notify dispute", slog.String("error", err.Error()))
		}
	}
	return item, nil
}

// authorize maps each protocol verb to who may invoke it. Admins can
// stand in for vendors, but buyer confirmations stay with the buyer.
func authorize(id domain.Identity, act escrow.Action, item domain.OrderItem, o domain.Order) error {
	switch act {
	case escrow.ActionMarkDelivered:
		if id.IsAdmin() {
			return nil
		}
		if !id.IsPlug() || id.StoreID != item.StoreID {
			return fmt.Errorf("fulfillment_service: item belongs to another store: %w", domain.ErrForbidden)
		}
	case escrow.ActionConfirmReceived, escrow.ActionRaiseDispute:
		if o.BuyerID != id.UserID {
			return fmt.Errorf("fulfillment_service: order belongs to another buyer: %w", domain.ErrForbidden)
		}
	case escrow.ActionResolveRefund, escrow.ActionResolveRelease:
		if !id.IsAdmin() {
			return fmt.Errorf("fulfillment_service: dispute resolution is admin only: %w", domain.ErrForbidden)
		}
	default:
		return fmt.Errorf("fulfillment_service: unknown action %q: %w", act, domain.ErrValidation)
	}
	return nil
}

// ListStoreItems returns a vendor's sold items, newest first.
func (s *FulfillmentService) ListStoreItems(ctx context.Context, id domain.Identity, opts domain.ListOpts) ([]domain.OrderItem, error) {
	if !id.IsPlug() {
		return nil, fmt.Errorf("fulfillment_service: no store attached: %w", domain.ErrForbidden)
	}
	items, err := s.orders.ListItemsByStore(ctx, id.StoreID, opts)
	if err != nil {
		return nil, fmt.Errorf("fulfillment_service: list store items: %w", err)
	}
	return items, nil
}

// ListBuyerItems returns the caller's purchased items, newest first.
func (s *FulfillmentService) ListBuyerItems(ctx context.Context, id domain.Identity, opts domain.ListOpts) ([]domain.OrderItem, error) {
	items, err := s.orders.ListItemsByBuyer(ctx, id.UserID, opts)
	if err != nil {
		return nil, fmt.Errorf("fulfillment_service: list buyer items: %w", err)
	}
	return items, nil
}

// ListDisputes returns every open dispute for the council queue.
func (s *FulfillmentService) ListDisputes(ctx context.Context, id domain.Identity, opts domain.ListOpts) ([]domain.OrderItem, error) {
	if !id.IsAdmin() {
		return nil, fmt.Errorf("fulfillment_service: dispute queue is admin only: %w", domain.ErrForbidden)
	}
	items, err := s.orders.ListDisputedItems(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("fulfillment_service: list disputes: %w", err)
	}
	return items, nil
}
