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

// ProductStore implements domain.ProductStore using PostgreSQL.
type ProductStore struct {
	pool *pgxpool.Pool
}

// NewProductStore creates a ProductStore backed by the given pool.
func NewProductStore(pool *pgxpool.Pool) *ProductStore {
	return &ProductStore{pool: pool}
}

const productSelectCols = `id, store_id, name, description, category, price::text, is_awoof, discount_pct, created_at`

func scanProduct(scanner interface{ Scan(dest ...any) error }) (domain.Product, error) {
	var p domain.Product
	var price string

	err := scanner.Scan(
		&p.ID, &p.StoreID, &p.Name, &p.Description, &p.Category,
		&price, &p.IsAwoof, &p.DiscountPct, &p.CreatedAt,
	)
	if err != nil {
		return domain.Product{}, err
	}

	if p.Price, err = decimal.NewFromString(price); err != nil {
		return domain.Product{}, fmt.Errorf("parse price %q: %w", price, err)
	}
	return p, nil
}

func scanProductRows(rows pgx.Rows) ([]domain.Product, error) {
	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Create inserts a new product listing.
func (ps *ProductStore) Create(ctx context.Context, p domain.Product) error {
	const query = `
		INSERT INTO products (id, store_id, name, description, category, price, is_awoof, discount_pct, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := ps.pool.Exec(ctx, query,
		p.ID, p.StoreID, p.Name, p.Description, p.Category,
		p.Price.StringFixed(2), p.IsAwoof, p.DiscountPct, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create product %s: %w", p.ID, err)
	}
	return nil
}

// Update rewrites the mutable fields of an existing product.
func (ps *ProductStore) Update(ctx context.Context, p domain.Product) error {
	const query = `
		UPDATE products
		SET name = $1, description = $2, category = $3, price = $4,
		    is_awoof = $5, discount_pct = $6
		WHERE id = $7`

	tag, err := ps.pool.Exec(ctx, query,
		p.Name, p.Description, p.Category, p.Price.StringFixed(2),
		p.IsAwoof, p.DiscountPct, p.ID,
	)
	if err != nil {
		return fmt.Errorf("postgres: update product %s: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID retrieves a single product by ID.
func (ps *ProductStore) GetByID(ctx context.Context, id string) (domain.Product, error) {
	row := ps.pool.QueryRow(ctx,
		`SELECT `+productSelectCols+` FROM products WHERE id = $1`, id)

	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Product{}, domain.ErrNotFound
		}
		return domain.Product{}, fmt.Errorf("postgres: get product %s: %w", id, err)
	}
	return p, nil
}

// ListByStore returns a store's products, newest first.
func (ps *ProductStore) ListByStore(ctx context.Context, storeID string, opts domain.ListOpts) ([]domain.Product, error) {
	query := `SELECT ` + productSelectCols + ` FROM products WHERE store_id = $1 ORDER BY created_at DESC`
	args := []any{storeID}
	query, args = applyLimitOffset(query, args, opts)

	rows, err := ps.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list products by store: %w", err)
	}
	defer rows.Close()

	products, err := scanProductRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan products by store: %w", err)
	}
	return products, nil
}

// ListMarketplace returns the public browse feed with optional category
// and awoof filters, newest first.
func (ps *ProductStore) ListMarketplace(ctx context.Context, f domain.MarketplaceFilter, opts domain.ListOpts) ([]domain.Product, error) {
	query := `SELECT ` + productSelectCols + ` FROM products WHERE 1=1`
	var args []any
	argIdx := 1

	if f.Category != "" {
		query += fmt.Sprintf(" AND category = $%d", argIdx)
		args = append(args, f.Category)
		argIdx++
	}
	if f.AwoofOnly {
		query += " AND is_awoof"
	}

	query += " ORDER BY created_at DESC"
	query, args = applyLimitOffset(query, args, opts)

	rows, err := ps.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list marketplace: %w", err)
	}
	defer rows.Close()

	products, err := scanProductRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan marketplace: %w", err)
	}
	return products, nil
}

// applyLimitOffset appends LIMIT/OFFSET clauses for positive opts.
func applyLimitOffset(query string, args []any, opts domain.ListOpts) (string, []any) {
	argIdx := len(args) + 1
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}
	return query, args
}

// Compile-time interface check.
var _ domain.ProductStore = (*ProductStore)(nil)
