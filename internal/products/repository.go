package products

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the Postgres Gateway.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

var _ Gateway = (*Repository)(nil)

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *Repository) CreateProduct(ctx context.Context, name, description string) (Product, error) {
	p := Product{Name: name, Description: description}
	err := r.db.QueryRow(ctx,
		`INSERT INTO products (name, description) VALUES ($1, $2) RETURNING id`,
		name, description).Scan(&p.ID)
	if err != nil {
		return Product{}, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}

func (r *Repository) GetProduct(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := r.db.QueryRow(ctx,
		`SELECT id, name, description FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("get product %d: %w", id, err)
	}
	return p, nil
}

func (r *Repository) UpdateProduct(ctx context.Context, p Product) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE products SET name = $2, description = $3 WHERE id = $1`,
		p.ID, p.Name, p.Description)
	if err != nil {
		return fmt.Errorf("update product %d: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) ListProductIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// InsertOffers writes the whole batch in one statement. Offers for products
// deleted since the fetch are filtered out instead of failing the batch.
func (r *Repository) InsertOffers(ctx context.Context, offers []Offer) (int64, error) {
	if len(offers) == 0 {
		return 0, nil
	}
	var (
		ids        = make([]int64, len(offers))
		productIDs = make([]int64, len(offers))
		prices     = make([]int64, len(offers))
		stock      = make([]int64, len(offers))
		captured   = make([]time.Time, len(offers))
	)
	for i, o := range offers {
		ids[i] = o.ID
		productIDs[i] = o.ProductID
		prices[i] = o.Price
		stock[i] = o.ItemsInStock
		captured[i] = o.CapturedAt
	}

	tag, err := r.db.Exec(ctx, `
INSERT INTO offers (id, product_id, price, items_in_stock, captured_at)
SELECT o.id, o.product_id, o.price, o.items_in_stock, o.captured_at
FROM unnest($1::bigint[], $2::bigint[], $3::bigint[], $4::bigint[], $5::timestamptz[])
     AS o(id, product_id, price, items_in_stock, captured_at)
WHERE EXISTS (SELECT 1 FROM products p WHERE p.id = o.product_id)
ON CONFLICT (id, product_id, captured_at) DO NOTHING
`, ids, productIDs, prices, stock, captured)
	if err != nil {
		return 0, fmt.Errorf("insert offers: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) OffersAtLatest(ctx context.Context, productID int64) ([]Offer, error) {
	rows, err := r.db.Query(ctx, `
SELECT id, product_id, price, items_in_stock, captured_at
FROM offers
WHERE product_id = $1
  AND captured_at = (SELECT max(captured_at) FROM offers WHERE product_id = $1)
ORDER BY id
`, productID)
	if err != nil {
		return nil, err
	}
	return scanOffers(rows)
}

func (r *Repository) OffersAll(ctx context.Context, productID int64) ([]Offer, error) {
	rows, err := r.db.Query(ctx, `
SELECT id, product_id, price, items_in_stock, captured_at
FROM offers
WHERE product_id = $1
ORDER BY captured_at, id
`, productID)
	if err != nil {
		return nil, err
	}
	return scanOffers(rows)
}

func (r *Repository) PricesInRange(ctx context.Context, productID int64, from, to time.Time) ([]PriceSample, error) {
	rows, err := r.db.Query(ctx, `
SELECT price, captured_at
FROM offers
WHERE product_id = $1 AND captured_at BETWEEN $2 AND $3
ORDER BY captured_at, id
`, productID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	samples := []PriceSample{}
	for rows.Next() {
		var s PriceSample
		if err := rows.Scan(&s.Price, &s.CapturedAt); err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}

func scanOffers(rows pgx.Rows) ([]Offer, error) {
	defer rows.Close()

	out := []Offer{}
	for rows.Next() {
		var o Offer
		if err := rows.Scan(&o.ID, &o.ProductID, &o.Price, &o.ItemsInStock, &o.CapturedAt); err != nil {
			return nil, err
		}
		o.CapturedAt = o.CapturedAt.UTC()
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
