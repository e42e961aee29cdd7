package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/campustribe/tribemarket/internal/domain"
)

// payoutLockTTL bounds how long a payout request may hold the per-store
// lock before it expires on its own.
const payoutLockTTL = 10 * time.Second

// PayoutService handles vendor withdrawals. The requested amount leaves
// the wallet the moment the request is recorded; approval happens out of
// band.
type PayoutService struct {
	settle   domain.SettlementStore
	payouts  domain.PayoutStore
	locks    domain.LockManager
	balances domain.BalanceCache
	bus      domain.SignalBus
	logger   *slog.Logger
}

// NewPayoutService creates a PayoutService with all required dependencies.
func NewPayoutService(settle domain.SettlementStore, payouts domain.PayoutStore, locks domain.LockManager, balances domain.BalanceCache, bus domain.SignalBus, logger *slog.Logger) *PayoutService {
	return &PayoutService{
		settle:   settle,
		payouts:  payouts,
		locks:    locks,
		balances: balances,
		bus:      bus,
		logger:   logger.With(slog.String("component", "payout_service")),
	}
}

// Request records a withdrawal for the caller's store and debits the
// wallet. A per-store distributed lock serializes concurrent requests
// across instances; the wallet check runs against the row-locked
// balance, so the wallet can never go negative.
func (s *PayoutService) Request(ctx context.Context, id domain.Identity, amount decimal.Decimal, bankDetails string) (domain.PayoutRequest, error) {
	if !id.IsPlug() {
		return domain.PayoutRequest{}, fmt.Errorf("payout_service: no store attached: %w", domain.ErrForbidden)
	}
	if !amount.IsPositive() {
		return domain.PayoutRequest{}, fmt.Errorf("payout_service: amount must be positive: %w", domain.ErrValidation)
	}
	if bankDetails == "" {
		return domain.PayoutRequest{}, fmt.Errorf("payout_service: bank details required: %w", domain.ErrValidation)
	}

	unlock, err := s.locks.Acquire(ctx, "payout:"+id.StoreID, payoutLockTTL)
	if err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			return domain.PayoutRequest{}, fmt.Errorf("payout_service: another payout in flight for store %s: %w", id.StoreID, err)
		}
		return domain.PayoutRequest{}, fmt.Errorf("payout_service: acquire lock: %w", err)
	}
	defer unlock()

	amount = amount.Round(2)
	p, err := s.settle.RequestPayout(ctx, id.StoreID, func(store domain.Store) (domain.PayoutMutation, error) {
		if store.WalletBalance.LessThan(amount) {
			return domain.PayoutMutation{}, fmt.Errorf(
				"payout_service: wallet %s below requested %s: %w",
				store.WalletBalance.StringFixed(2), amount.StringFixed(2), domain.ErrInsufficientFunds,
			)
		}

		payout := domain.PayoutRequest{
			ID:          uuid.New().String(),
			StoreID:     store.ID,
			Amount:      amount,
			Status:      domain.PayoutPending,
			BankDetails: bankDetails,
			CreatedAt:   time.Now().UTC(),
		}
		return domain.PayoutMutation{
			Payout:      payout,
			WalletDelta: amount.Neg(),
			Entries: []domain.LedgerEntry{
				{
					Kind:     domain.LedgerPayoutHold,
					StoreID:  store.ID,
					PayoutID: payout.ID,
					Amount:   amount,
				},
			},
		}, nil
	})
	if err != nil {
		return domain.PayoutRequest{}, err
	}

	if err := s.balances.Invalidate(ctx, id.StoreID); err != nil {
		s.logger.WarnContext(ctx, "invalidate balance cache",
			slog.String("store_id", id.StoreID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "payout requested",
		slog.String("payout_id", p.ID),
		slog.String("store_id", p.StoreID),
		slog.String("amount", p.Amount.StringFixed(2)),
	)
	publishEvent(ctx, s.bus, s.logger, ChannelPayouts, Event{
		Kind:    "payout_requested",
		StoreID: p.StoreID,
		Amount:  p.Amount.StringFixed(2),
		Status:  string(p.Status),
	})
	return p, nil
}

// List returns the caller's payout requests; admins see all stores.
func (s *PayoutService) List(ctx context.Context, id domain.Identity, opts domain.ListOpts) ([]domain.PayoutRequest, error) {
	if id.IsAdmin() {
		payouts, err := s.payouts.List(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("payout_service: list payouts: %w", err)
		}
		return payouts, nil
	}
	if !id.IsPlug() {
		return nil, fmt.Errorf("payout_service: no store attached: %w", domain.ErrForbidden)
	}

	payouts, err := s.payouts.ListByStore(ctx, id.StoreID, opts)
	if err != nil {
		return nil, fmt.Errorf("payout_service: list payouts: %w", err)
	}
	return payouts, nil
}
