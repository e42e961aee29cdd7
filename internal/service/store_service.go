package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/campustribe/tribemarket/internal/domain"
)

// balanceCacheTTL keeps dashboard balance reads warm between
// settlements. Every settlement invalidates the entry anyway.
const balanceCacheTTL = 30 * time.Second

// StoreService manages vendor stores and serves cached balance reads.
type StoreService struct {
	vendors  domain.VendorStore
	balances domain.BalanceCache
	logger   *slog.Logger
}

// NewStoreService creates a StoreService with all required dependencies.
func NewStoreService(vendors domain.VendorStore, balances domain.BalanceCache, logger *slog.Logger) *StoreService {
	return &StoreService{
		vendors:  vendors,
		balances: balances,
		logger:   logger.With(slog.String("component", "store_service")),
	}
}

// CreateStore opens a store for the caller. One store per owner.
func (s *StoreService) CreateStore(ctx context.Context, id domain.Identity, name string) (domain.Store, error) {
	if name == "" {
		return domain.Store{}, fmt.Errorf("store_service: name required: %w", domain.ErrValidation)
	}
	if id.IsAdmin() {
		return domain.Store{}, fmt.Errorf("store_service: admins cannot own stores: %w", domain.ErrForbidden)
	}

	if _, err := s.vendors.GetByOwner(ctx, id.UserID); err == nil {
		return domain.Store{}, fmt.Errorf("store_service: owner %s already has a store: %w", id.UserID, domain.ErrAlreadyExists)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.Store{}, fmt.Errorf("store_service: check existing store: %w", err)
	}

	store := domain.Store{
		ID:        uuid.New().String(),
		OwnerID:   id.UserID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.vendors.Create(ctx, store); err != nil {
		return domain.Store{}, fmt.Errorf("store_service: create store: %w", err)
	}

	s.logger.InfoContext(ctx, "store created",
		slog.String("store_id", store.ID),
		slog.String("owner_id", store.OwnerID),
	)
	return store, nil
}

// GetMine returns the caller's store with balances, served from cache
// when warm.
func (s *StoreService) GetMine(ctx context.Context, id domain.Identity) (domain.Store, error) {
	store, err := s.vendors.GetByOwner(ctx, id.UserID)
	if err != nil {
		return domain.Store{}, fmt.Errorf("store_service: get own store: %w", err)
	}

	wallet, escrowBal, ok, err := s.balances.Get(ctx, store.ID)
	if err != nil {
		s.logger.WarnContext(ctx, "balance cache read",
			slog.String("store_id", store.ID),
			slog.String("error", err.Error()),
		)
	} else if ok {
		store.WalletBalance = wallet
		store.EscrowBalance = escrowBal
		return store, nil
	}

	if err := s.balances.Set(ctx, store.ID, store.WalletBalance, store.EscrowBalance, balanceCacheTTL); err != nil {
		s.logger.WarnContext(ctx, "balance cache write",
			slog.String("store_id", store.ID),
			slog.String("error", err.Error()),
		)
	}
	return store, nil
}

// GetStore returns any store by ID. Admin only; vendors read their own
// store through GetMine.
func (s *StoreService) GetStore(ctx context.Context, id domain.Identity, storeID string) (domain.Store, error) {
	if !id.IsAdmin() {
		return domain.Store{}, fmt.Errorf("store_service: store lookup is admin only: %w", domain.ErrForbidden)
	}
	store, err := s.vendors.GetByID(ctx, storeID)
	if err != nil {
		return domain.Store{}, fmt.Errorf("store_service: get store: %w", err)
	}
	return store, nil
}
