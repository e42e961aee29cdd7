package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campustribe/tribemarket/internal/domain"
)

// SettlementStore implements domain.SettlementStore. Every method runs
// one transaction: lock the aggregate rows, hand the locked state to the
// decide callback, apply the returned mutation, commit. Lock order is
// always order row, then item row, then store rows, so concurrent
// settlements cannot deadlock.
type SettlementStore struct {
	pool *pgxpool.Pool
}

// NewSettlementStore creates a SettlementStore backed by the given pool.
func NewSettlementStore(pool *pgxpool.Pool) *SettlementStore {
	return &SettlementStore{pool: pool}
}

// FundOrder locks the order row for the payment reference and, unless
// the order is already paid, marks it paid and applies the funding plan.
// A replayed payment notification finds is_paid set and returns without
// touching balances.
func (ss *SettlementStore) FundOrder(ctx context.Context, paymentRef string, decide func(o domain.Order) (domain.FundingPlan, error)) (domain.Order, bool, error) {
	tx, err := ss.pool.Begin(ctx)
	if err != nil {
		return domain.Order{}, false, fmt.Errorf("postgres: begin fund order: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`SELECT `+orderSelectCols+` FROM orders WHERE payment_ref = $1 FOR UPDATE`, paymentRef)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Order{}, false, domain.ErrNotFound
		}
		return domain.Order{}, false, fmt.Errorf("postgres: lock order by ref: %w", err)
	}

	itemRows, err := tx.Query(ctx,
		`SELECT `+itemSelectCols+` FROM order_items WHERE order_id = $1 ORDER BY created_at`, o.ID)
	if err != nil {
		return domain.Order{}, false, fmt.Errorf("postgres: load order items: %w", err)
	}
	o.Items, err = scanItemRows(itemRows)
	itemRows.Close()
	if err != nil {
		return domain.Order{}, false, fmt.Errorf("postgres: scan order items: %w", err)
	}

	if o.IsPaid {
		return o, true, nil
	}

	plan, err := decide(o)
	if err != nil {
		return domain.Order{}, false, err
	}

	if _, err := tx.Exec(ctx, `UPDATE orders SET is_paid = TRUE WHERE id = $1`, o.ID); err != nil {
		return domain.Order{}, false, fmt.Errorf("postgres: mark order paid: %w", err)
	}

	for _, credit := range plan.Credits {
		tag, err := tx.Exec(ctx,
			`UPDATE stores SET escrow_balance = escrow_balance + $1 WHERE id = $2`,
			credit.Amount.StringFixed(2), credit.StoreID)
		if err != nil {
			return domain.Order{}, false, fmt.Errorf("postgres: credit escrow for store %s: %w", credit.StoreID, err)
		}
		if tag.RowsAffected() == 0 {
			return domain.Order{}, false, fmt.Errorf("postgres: credit escrow for store %s: %w", credit.StoreID, domain.ErrNotFound)
		}
	}

	if err := insertLedgerEntries(ctx, tx, plan.Entries); err != nil {
		return domain.Order{}, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Order{}, false, fmt.Errorf("postgres: commit fund order: %w", err)
	}

	o.IsPaid = true
	return o, false, nil
}

// ApplyItemTransition locks the item, its order and its store, then
// applies the status change and balance deltas decide computes. An error
// from decide rolls everything back.
func (ss *SettlementStore) ApplyItemTransition(ctx context.Context, itemID string, decide func(item domain.OrderItem, o domain.Order) (domain.ItemMutation, error)) (domain.OrderItem, error) {
	tx, err := ss.pool.Begin(ctx)
	if err != nil {
		return domain.OrderItem{}, fmt.Errorf("postgres: begin item transition: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`SELECT `+itemSelectCols+` FROM order_items WHERE id = $1 FOR UPDATE`, itemID)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.OrderItem{}, domain.ErrNotFound
		}
		return domain.OrderItem{}, fmt.Errorf("postgres: lock item %s: %w", itemID, err)
	}

	row = tx.QueryRow(ctx,
		`SELECT `+orderSelectCols+` FROM orders WHERE id = $1 FOR UPDATE`, item.OrderID)
	o, err := scanOrder(row)
	if err != nil {
		return domain.OrderItem{}, fmt.Errorf("postgres: lock order %s: %w", item.OrderID, err)
	}

	// Store row lock keeps the balance deltas serialized per vendor.
	if _, err := tx.Exec(ctx,
		`SELECT id FROM stores WHERE id = $1 FOR UPDATE`, item.StoreID); err != nil {
		return domain.OrderItem{}, fmt.Errorf("postgres: lock store %s: %w", item.StoreID, err)
	}

	mut, err := decide(item, o)
	if err != nil {
		return domain.OrderItem{}, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE order_items SET status = $1, guard_status = $2 WHERE id = $3`,
		string(mut.Status), string(mut.Guard), item.ID); err != nil {
		return domain.OrderItem{}, fmt.Errorf("postgres: update item %s: %w", item.ID, err)
	}

	if !mut.EscrowDelta.IsZero() || !mut.WalletDelta.IsZero() {
		if _, err := tx.Exec(ctx,
			`UPDATE stores
			 SET escrow_balance = escrow_balance + $1,
			     wallet_balance = wallet_balance + $2
			 WHERE id = $3`,
			mut.EscrowDelta.StringFixed(2), mut.WalletDelta.StringFixed(2), item.StoreID); err != nil {
			return domain.OrderItem{}, fmt.Errorf("postgres: apply balance deltas for store %s: %w", item.StoreID, err)
		}
	}

	if err := insertLedgerEntries(ctx, tx, mut.Entries); err != nil {
		return domain.OrderItem{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.OrderItem{}, fmt.Errorf("postgres: commit item transition: %w", err)
	}

	item.Status = mut.Status
	item.Guard = mut.Guard
	return item, nil
}

// RequestPayout locks the store row, lets decide validate the wallet
// balance, then records the payout and debits the wallet atomically.
func (ss *SettlementStore) RequestPayout(ctx context.Context, storeID string, decide func(s domain.Store) (domain.PayoutMutation, error)) (domain.PayoutRequest, error) {
	tx, err := ss.pool.Begin(ctx)
	if err != nil {
		return domain.PayoutRequest{}, fmt.Errorf("postgres: begin payout: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`SELECT `+storeSelectCols+` FROM stores WHERE id = $1 FOR UPDATE`, storeID)
	s, err := scanStore(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PayoutRequest{}, domain.ErrNotFound
		}
		return domain.PayoutRequest{}, fmt.Errorf("postgres: lock store %s: %w", storeID, err)
	}

	mut, err := decide(s)
	if err != nil {
		return domain.PayoutRequest{}, err
	}

	p := mut.Payout
	if _, err := tx.Exec(ctx,
		`INSERT INTO payout_requests (id, store_id, amount, status, bank_details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.StoreID, p.Amount.StringFixed(2), string(p.Status), p.BankDetails, p.CreatedAt); err != nil {
		return domain.PayoutRequest{}, fmt.Errorf("postgres: insert payout %s: %w", p.ID, err)
	}

	if !mut.WalletDelta.IsZero() {
		if _, err := tx.Exec(ctx,
			`UPDATE stores SET wallet_balance = wallet_balance + $1 WHERE id = $2`,
			mut.WalletDelta.StringFixed(2), storeID); err != nil {
			return domain.PayoutRequest{}, fmt.Errorf("postgres: debit wallet for store %s: %w", storeID, err)
		}
	}

	if err := insertLedgerEntries(ctx, tx, mut.Entries); err != nil {
		return domain.PayoutRequest{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.PayoutRequest{}, fmt.Errorf("postgres: commit payout: %w", err)
	}
	return p, nil
}

func insertLedgerEntries(ctx context.Context, tx pgx.Tx, entries []domain.LedgerEntry) error {
	const query = `
		INSERT INTO ledger_entries (kind, store_id, order_id, item_id, payout_id, user_id, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	for _, e := range entries {
		_, err := tx.Exec(ctx, query,
			string(e.Kind), nullStr(e.StoreID), nullStr(e.OrderID),
			nullStr(e.ItemID), nullStr(e.PayoutID), nullStr(e.UserID),
			e.Amount.StringFixed(2), e.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("postgres: insert ledger entry %s: %w", e.Kind, err)
		}
	}
	return nil
}

// nullStr maps empty strings to SQL NULL for nullable columns.
func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Compile-time interface check.
var _ domain.SettlementStore = (*SettlementStore)(nil)
