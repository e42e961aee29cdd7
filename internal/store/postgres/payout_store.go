package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/campustribe/tribemarket/internal/domain"
)

// PayoutStore implements domain.PayoutStore using PostgreSQL. Rows are
// inserted by SettlementStore.RequestPayout; this store only reads.
type PayoutStore struct {
	pool *pgxpool.Pool
}

// NewPayoutStore creates a PayoutStore backed by the given pool.
func NewPayoutStore(pool *pgxpool.Pool) *PayoutStore {
	return &PayoutStore{pool: pool}
}

const payoutSelectCols = `id, store_id, amount::text, status, bank_details, created_at`

func scanPayoutRows(rows pgx.Rows) ([]domain.PayoutRequest, error) {
	var payouts []domain.PayoutRequest
	for rows.Next() {
		var p domain.PayoutRequest
		var amount, status string

		err := rows.Scan(&p.ID, &p.StoreID, &amount, &status, &p.BankDetails, &p.CreatedAt)
		if err != nil {
			return nil, err
		}
		p.Status = domain.PayoutStatus(status)
		if p.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse payout amount %q: %w", amount, err)
		}
		payouts = append(payouts, p)
	}
	return payouts, rows.Err()
}

// ListByStore returns a store's payout requests, newest first.
func (ps *PayoutStore) ListByStore(ctx context.Context, storeID string, opts domain.ListOpts) ([]domain.PayoutRequest, error) {
	query := `SELECT ` + payoutSelectCols + ` FROM payout_requests WHERE store_id = $1 ORDER BY created_at DESC`
	args := []any{storeID}
	query, args = applyLimitOffset(query, args, opts)

	rows, err := ps.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list payouts by store: %w", err)
	}
	defer rows.Close()

	payouts, err := scanPayoutRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan payouts by store: %w", err)
	}
	return payouts, nil
}

// List returns payout requests across all stores, newest first.
func (ps *PayoutStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.PayoutRequest, error) {
	query := `SELECT ` + payoutSelectCols + ` FROM payout_requests ORDER BY created_at DESC`
	var args []any
	query, args = applyLimitOffset(query, args, opts)

	rows, err := ps.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list payouts: %w", err)
	}
	defer rows.Close()

	payouts, err := scanPayoutRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan payouts: %w", err)
	}
	return payouts, nil
}

// Compile-time interface check.
var _ domain.PayoutStore = (*PayoutStore)(nil)
