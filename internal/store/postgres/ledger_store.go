package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/campustribe/tribemarket/internal/domain"
)

// LedgerStore implements domain.LedgerStore using PostgreSQL. Entries
// are written by settlement transactions; this store only reads.
type LedgerStore struct {
	pool *pgxpool.Pool
}

// NewLedgerStore creates a LedgerStore backed by the given pool.
func NewLedgerStore(pool *pgxpool.Pool) *LedgerStore {
	return &LedgerStore{pool: pool}
}

// Nullable reference columns come back as empty strings so callers
// never deal with pointers.
const ledgerSelectCols = `id, kind,
	COALESCE(store_id::text, ''), COALESCE(order_id::text, ''),
	COALESCE(item_id::text, ''), COALESCE(payout_id::text, ''),
	COALESCE(user_id, ''), amount::text, created_at`

func scanLedgerRows(rows pgx.Rows) ([]domain.LedgerEntry, error) {
	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		var kind, amount string

		err := rows.Scan(
			&e.ID, &kind, &e.StoreID, &e.OrderID,
			&e.ItemID, &e.PayoutID, &e.UserID, &amount, &e.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		e.Kind = domain.LedgerKind(kind)
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse ledger amount %q: %w", amount, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListByOrder returns every entry touching the given order, oldest
// first.
func (ls *LedgerStore) ListByOrder(ctx context.Context, orderID string) ([]domain.LedgerEntry, error) {
	rows, err := ls.pool.Query(ctx,
		`SELECT `+ledgerSelectCols+` FROM ledger_entries WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list ledger by order: %w", err)
	}
	defer rows.Close()

	entries, err := scanLedgerRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan ledger by order: %w", err)
	}
	return entries, nil
}

// List returns ledger entries, newest first, with optional time bounds.
func (ls *LedgerStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.LedgerEntry, error) {
	query := `SELECT ` + ledgerSelectCols + ` FROM ledger_entries WHERE 1=1`
	var args []any
	argIdx := 1

	if opts.Since != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND created_at < $%d", argIdx)
		args = append(args, *opts.Until)
	}

	query += " ORDER BY id DESC"
	query, args = applyLimitOffset(query, args, opts)

	rows, err := ls.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list ledger: %w", err)
	}
	defer rows.Close()

	entries, err := scanLedgerRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan ledger: %w", err)
	}
	return entries, nil
}

// ListBefore returns entries created before the cutoff, oldest first,
// for archival.
func (ls *LedgerStore) ListBefore(ctx context.Context, before time.Time) ([]domain.LedgerEntry, error) {
	rows, err := ls.pool.Query(ctx,
		`SELECT `+ledgerSelectCols+` FROM ledger_entries WHERE created_at < $1 ORDER BY id`, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list ledger before %s: %w", before, err)
	}
	defer rows.Close()

	entries, err := scanLedgerRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan ledger before: %w", err)
	}
	return entries, nil
}

// Compile-time interface check.
var _ domain.LedgerStore = (*LedgerStore)(nil)
