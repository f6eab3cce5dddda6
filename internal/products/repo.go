package products

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-merchant-console/internal/pricing"
)

var (
	ErrNotFound            = errors.New("product not found")
	ErrIncompletePricing   = errors.New("original and final price are required")
	ErrInconsistentPricing = errors.New("discount percent does not match the prices")
)

// Repo is the product store. Statuses are recomputed on every read.
type Repo struct {
	DB  *pgxpool.Pool
	Now func() time.Time
}

const productColumns = `id, name, original_price::text, discount_percent, discounted_price::text,
	quantity, is_featured, expiry_date, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repo) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Repo) scan(row rowScanner) (Product, error) {
	var (
		p               Product
		original, final string
		expiry          *time.Time
	)
	if err := row.Scan(&p.ID, &p.Name, &original, &p.DiscountPercent, &final,
		&p.Quantity, &p.IsFeatured, &expiry, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Product{}, err
	}
	var err error
	if p.OriginalPrice, err = decimal.NewFromString(original); err != nil {
		return Product{}, err
	}
	if p.DiscountedPrice, err = decimal.NewFromString(final); err != nil {
		return Product{}, err
	}
	if expiry != nil {
		p.ExpiryDate = *expiry
	}
	p.Normalize(r.now())
	return p, nil
}

func (r *Repo) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) GetProduct(ctx context.Context, id string) (Product, error) {
	p, err := r.scan(r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

// UpdateStock sets the quantity; a zero quantity also clears is_featured in
// the same statement.
func (r *Repo) UpdateStock(ctx context.Context, id string, qty int) (Product, error) {
	if qty < 0 {
		qty = 0
	}
	p, err := r.scan(r.DB.QueryRow(ctx, `
		UPDATE products
		SET quantity = $2::int,
		    is_featured = CASE WHEN $2::int = 0 THEN false ELSE is_featured END,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+productColumns, id, qty))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

func (r *Repo) UpdatePricing(ctx context.Context, id string, f pricing.Form) (Product, error) {
	var p Product
	if err := p.ApplyPricing(f); err != nil {
		return Product{}, err
	}
	out, err := r.scan(r.DB.QueryRow(ctx, `
		UPDATE products
		SET original_price = $2::numeric,
		    discount_percent = $3,
		    discounted_price = $4::numeric,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+productColumns,
		id, p.OriginalPrice.StringFixed(2), p.DiscountPercent, p.DiscountedPrice.StringFixed(2)))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return out, err
}
