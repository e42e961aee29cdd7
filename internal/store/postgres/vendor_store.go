package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/campustribe/tribemarket/internal/domain"
)

// VendorStore implements domain.VendorStore using PostgreSQL.
type VendorStore struct {
	pool *pgxpool.Pool
}

// NewVendorStore creates a VendorStore backed by the given pool.
func NewVendorStore(pool *pgxpool.Pool) *VendorStore {
	return &VendorStore{pool: pool}
}

// storeSelectCols casts the NUMERIC balances to text so they can be
// parsed into exact decimals; floats never touch money.
const storeSelectCols = `id, owner_id, name, wallet_balance::text, escrow_balance::text, created_at`

func scanStore(scanner interface{ Scan(dest ...any) error }) (domain.Store, error) {
	var s domain.Store
	var wallet, escrow string

	if err := scanner.Scan(&s.ID, &s.OwnerID, &s.Name, &wallet, &escrow, &s.CreatedAt); err != nil {
		return domain.Store{}, err
	}

	var err error
	if s.WalletBalance, err = decimal.NewFromString(wallet); err != nil {
		return domain.Store{}, fmt.Errorf("parse wallet balance %q: %w", wallet, err)
	}
	if s.EscrowBalance, err = decimal.NewFromString(escrow); err != nil {
		return domain.Store{}, fmt.Errorf("parse escrow balance %q: %w", escrow, err)
	}
	return s, nil
}

// Create inserts a new vendor store with zero balances.
func (vs *VendorStore) Create(ctx context.Context, s domain.Store) error {
	const query = `
		INSERT INTO stores (id, owner_id, name, wallet_balance, escrow_balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := vs.pool.Exec(ctx, query,
		s.ID, s.OwnerID, s.Name,
		s.WalletBalance.StringFixed(2), s.EscrowBalance.StringFixed(2),
		s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create store %s: %w", s.ID, err)
	}
	return nil
}

// GetByID retrieves a store by its ID.
func (vs *VendorStore) GetByID(ctx context.Context, id string) (domain.Store, error) {
	row := vs.pool.QueryRow(ctx,
		`SELECT `+storeSelectCols+` FROM stores WHERE id = $1`, id)

	s, err := scanStore(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Store{}, domain.ErrNotFound
		}
		return domain.Store{}, fmt.Errorf("postgres: get store %s: %w", id, err)
	}
	return s, nil
}

// GetByOwner retrieves the store owned by the given vendor.
func (vs *VendorStore) GetByOwner(ctx context.Context, ownerID string) (domain.Store, error) {
	row := vs.pool.QueryRow(ctx,
		`SELECT `+storeSelectCols+` FROM stores WHERE owner_id = $1`, ownerID)

	s, err := scanStore(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Store{}, domain.ErrNotFound
		}
		return domain.Store{}, fmt.Errorf("postgres: get store for owner %s: %w", ownerID, err)
	}
	return s, nil
}

// Compile-time interface check.
var _ domain.VendorStore = (*VendorStore)(nil)
