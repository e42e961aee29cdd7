package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/campustribe/tribemarket/internal/domain"
	"github.com/campustribe/tribemarket/internal/escrow"
)

// PaymentEvent is a payment provider notification, already verified by
// the transport layer. Reference is the provider's tx_ref, which matches
// the order's payment reference.
type PaymentEvent struct {
	Event     string
	Status    string
	Reference string
	Amount    string
}

// The provider sends one charge.completed event per attempt; the
// data.status field separates successful charges from failed ones.
const (
	paymentEventCharge      = "charge.completed"
	paymentStatusSuccessful = "successful"
)

// PaymentService turns provider webhooks into escrow funding. Funding is
// idempotent on the payment reference: the settlement store short
// circuits replays before any balance moves.
type PaymentService struct {
	settle   domain.SettlementStore
	balances domain.BalanceCache
	bus      domain.SignalBus
	alerts   Alerter
	logger   *slog.Logger
}

// NewPaymentService creates a PaymentService with all required
// dependencies. alerts may be nil when no notification channel is
// configured.
func NewPaymentService(settle domain.SettlementStore, balances domain.BalanceCache, bus domain.SignalBus, alerts Alerter, logger *slog.Logger) *PaymentService {
	return &PaymentService{
		settle:   settle,
		balances: balances,
		bus:      bus,
		alerts:   alerts,
		logger:   logger.With(slog.String("component", "payment_service")),
	}
}

// HandleEvent processes one provider notification. Events other than a
// successful charge.completed are acknowledged without effect. A
// successful charge marks the order paid and credits each vendor's
// escrow by their items' totals, all in one transaction.
func (s *PaymentService) HandleEvent(ctx context.Context, ev PaymentEvent) (domain.Order, error) {
	if ev.Event != paymentEventCharge {
		s.logger.DebugContext(ctx, "ignoring payment event", slog.String("event", ev.Event))
		return domain.Order{}, nil
	}
	if ev.Status != paymentStatusSuccessful {
		s.logger.InfoContext(ctx, "charge not successful, nothing to fund",
			slog.String("status", ev.Status),
			slog.String("reference", ev.Reference),
			slog.String("amount", ev.Amount),
		)
		return domain.Order{}, nil
	}
	if ev.Reference == "" {
		return domain.Order{}, fmt.Errorf("payment_service: missing reference: %w", domain.ErrValidation)
	}

	o, replayed, err := s.settle.FundOrder(ctx, ev.Reference, func(o domain.Order) (domain.FundingPlan, error) {
		return escrow.BuildFundingPlan(o), nil
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("payment_service: fund order %s: %w", ev.Reference, err)
	}
	if replayed {
		s.logger.InfoContext(ctx, "payment replay ignored",
			slog.String("reference", ev.Reference),
			slog.String("order_id", o.ID),
		)
		return o, nil
	}

	for _, storeID := range storeIDs(o) {
		if err := s.balances.Invalidate(ctx, storeID); err != nil {
			s.logger.WarnContext(ctx, "invalidate balance cache",
				slog.String("store_id", storeID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "order funded",
		slog.String("order_id", o.ID),
		slog.String("reference", ev.Reference),
		slog.String("total", o.TotalAmount.StringFixed(2)),
	)
	publishEvent(ctx, s.bus, s.logger, ChannelSettlements, Event{
		Kind:    "order_funded",
		OrderID: o.ID,
		Amount:  o.TotalAmount.StringFixed(2),
	})
	if s.alerts != nil {
		msg := fmt.Sprintf("Order %s funded for %s across %d item(s)", o.ID, o.TotalAmount.StringFixed(2), len(o.Items))
		if err := s.alerts.Notify(ctx, "order_funded", "Order funded", msg); err != nil {
			s.logger.WarnContext(ctx, "notify order funded", slog.String("error", err.Error()))
		}
	}
	return o, nil
}

func storeIDs(o domain.Order) []string {
	seen := make(map[string]bool, len(o.Items))
	var ids []string
	for _, item := range o.Items {
		if !seen[item.StoreID] {
			seen[item.StoreID] = true
			ids = append(ids, item.StoreID)
		}
	}
	return ids
}
