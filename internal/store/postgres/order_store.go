package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/campustribe/tribemarket/internal/domain"
)

// OrderStore implements domain.OrderStore using PostgreSQL.
type OrderStore struct {
	pool *pgxpool.Pool
}

// NewOrderStore creates an OrderStore backed by the given pool.
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

const orderSelectCols = `id, buyer_id, total_amount::text, payment_ref, is_paid,
	delivery_method, delivery_address, delivery_phone, created_at`

const itemSelectCols = `id, order_id, product_id, product_name, store_id,
	quantity, unit_price::text, status, guard_status, created_at`

func scanOrder(scanner interface{ Scan(dest ...any) error }) (domain.Order, error) {
	var o domain.Order
	var total, method string

	err := scanner.Scan(
		&o.ID, &o.BuyerID, &total, &o.PaymentRef, &o.IsPaid,
		&method, &o.DeliveryAddress, &o.DeliveryPhone, &o.CreatedAt,
	)
	if err != nil {
		return domain.Order{}, err
	}

	o.DeliveryMethod = domain.DeliveryMethod(method)
	if o.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return domain.Order{}, fmt.Errorf("parse total %q: %w", total, err)
	}
	return o, nil
}

func scanItem(scanner interface{ Scan(dest ...any) error }) (domain.OrderItem, error) {
	var it domain.OrderItem
	var price, status, guard string

	err := scanner.Scan(
		&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.StoreID,
		&it.Quantity, &price, &status, &guard, &it.CreatedAt,
	)
	if err != nil {
		return domain.OrderItem{}, err
	}

	it.Status = domain.FulfillmentStatus(status)
	it.Guard = domain.EscrowStatus(guard)
	if it.UnitPrice, err = decimal.NewFromString(price); err != nil {
		return domain.OrderItem{}, fmt.Errorf("parse unit price %q: %w", price, err)
	}
	return it, nil
}

func scanItemRows(rows pgx.Rows) ([]domain.OrderItem, error) {
	var items []domain.OrderItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// CreateWithItems inserts the order and all of its items in a single
// transaction. Items can never be added to an existing order.
func (os *OrderStore) CreateWithItems(ctx context.Context, o domain.Order) error {
	tx, err := os.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin create order: %w", err)
	}
	defer tx.Rollback(ctx)

	const orderInsert = `
		INSERT INTO orders (id, buyer_id, total_amount, payment_ref, is_paid,
			delivery_method, delivery_address, delivery_phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = tx.Exec(ctx, orderInsert,
		o.ID, o.BuyerID, o.TotalAmount.StringFixed(2), o.PaymentRef, o.IsPaid,
		string(o.DeliveryMethod), o.DeliveryAddress, o.DeliveryPhone, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create order %s: %w", o.ID, err)
	}

	const itemInsert = `
		INSERT INTO order_items (id, order_id, product_id, product_name, store_id,
			quantity, unit_price, status, guard_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	for _, it := range o.Items {
		_, err = tx.Exec(ctx, itemInsert,
			it.ID, o.ID, it.ProductID, it.ProductName, it.StoreID,
			it.Quantity, it.UnitPrice.StringFixed(2),
			string(it.Status), string(it.Guard), it.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("postgres: create order item %s: %w", it.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit create order %s: %w", o.ID, err)
	}
	return nil
}

// GetByID retrieves an order with its items.
func (os *OrderStore) GetByID(ctx context.Context, id string) (domain.Order, error) {
	row := os.pool.QueryRow(ctx,
		`SELECT `+orderSelectCols+` FROM orders WHERE id = $1`, id)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Order{}, domain.ErrNotFound
		}
		return domain.Order{}, fmt.Errorf("postgres: get order %s: %w", id, err)
	}

	rows, err := os.pool.Query(ctx,
		`SELECT `+itemSelectCols+` FROM order_items WHERE order_id = $1 ORDER BY created_at`, id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("postgres: get order items %s: %w", id, err)
	}
	defer rows.Close()

	if o.Items, err = scanItemRows(rows); err != nil {
		return domain.Order{}, fmt.Errorf("postgres: scan order items %s: %w", id, err)
	}
	return o, nil
}

// ListByBuyer returns the buyer's orders with items, newest first.
func (os *OrderStore) ListByBuyer(ctx context.Context, buyerID string, opts domain.ListOpts) ([]domain.Order, error) {
	query := `SELECT ` + orderSelectCols + ` FROM orders WHERE buyer_id = $1 ORDER BY created_at DESC`
	args := []any{buyerID}
	query, args = applyLimitOffset(query, args, opts)

	rows, err := os.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list orders by buyer: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list orders by buyer: %w", err)
	}

	for i := range orders {
		itemRows, err := os.pool.Query(ctx,
			`SELECT `+itemSelectCols+` FROM order_items WHERE order_id = $1 ORDER BY created_at`,
			orders[i].ID)
		if err != nil {
			return nil, fmt.Errorf("postgres: list order items: %w", err)
		}
		orders[i].Items, err = scanItemRows(itemRows)
		itemRows.Close()
		if err != nil {
			return nil, fmt.Errorf("postgres: scan order items: %w", err)
		}
	}
	return orders, nil
}

// GetItem retrieves a single order item.
func (os *OrderStore) GetItem(ctx context.Context, itemID string) (domain.OrderItem, error) {
	row := os.pool.QueryRow(ctx,
		`SELECT `+itemSelectCols+` FROM order_items WHERE id = $1`, itemID)

	it, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.OrderItem{}, domain.ErrNotFound
		}
		return domain.OrderItem{}, fmt.Errorf("postgres: get item %s: %w", itemID, err)
	}
	return it, nil
}

// ListItemsByStore returns items sold by a store, newest first.
func (os *OrderStore) ListItemsByStore(ctx context.Context, storeID string, opts domain.ListOpts) ([]domain.OrderItem, error) {
	query := `SELECT ` + itemSelectCols + ` FROM order_items WHERE store_id = $1 ORDER BY created_at DESC`
	args := []any{storeID}
	query, args = applyLimitOffset(query, args, opts)

	return os.listItems(ctx, query, args, "by store")
}

// ListItemsByBuyer returns items across the buyer's orders, newest
// first.
func (os *OrderStore) ListItemsByBuyer(ctx context.Context, buyerID string, opts domain.ListOpts) ([]domain.OrderItem, error) {
	query := `SELECT oi.id, oi.order_id, oi.product_id, oi.product_name, oi.store_id,
			oi.quantity, oi.unit_price::text, oi.status, oi.guard_status, oi.created_at
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.buyer_id = $1
		ORDER BY oi.created_at DESC`
	args := []any{buyerID}
	query, args = applyLimitOffset(query, args, opts)

	return os.listItems(ctx, query, args, "by buyer")
}

// ListDisputedItems returns every item currently under dispute.
func (os *OrderStore) ListDisputedItems(ctx context.Context, opts domain.ListOpts) ([]domain.OrderItem, error) {
	query := `SELECT ` + itemSelectCols + ` FROM order_items WHERE status = $1 ORDER BY created_at`
	args := []any{string(domain.FulfillmentDisputed)}
	query, args = applyLimitOffset(query, args, opts)

	return os.listItems(ctx, query, args, "disputed")
}

func (os *OrderStore) listItems(ctx context.Context, query string, args []any, what string) ([]domain.OrderItem, error) {
	rows, err := os.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list items %s: %w", what, err)
	}
	defer rows.Close()

	items, err := scanItemRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan items %s: %w", what, err)
	}
	return items, nil
}

// ListPaidBefore returns paid orders created before the cutoff, for
// archival.
func (os *OrderStore) ListPaidBefore(ctx context.Context, before time.Time) ([]domain.Order, error) {
	rows, err := os.pool.Query(ctx,
		`SELECT `+orderSelectCols+` FROM orders WHERE is_paid AND created_at < $1 ORDER BY created_at`,
		before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list paid orders before %s: %w", before, err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan paid order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// Compile-time interface check.
var _ domain.OrderStore = (*OrderStore)(nil)
