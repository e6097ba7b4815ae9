package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/streetfood-connect/internal/catalog/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{
		log:  log.With("component", "catalog-postgres"),
		pool: pool,
	}
}

func (r *Repository) Get(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	err := r.pool.QueryRow(ctx, `SELECT id, supplier_id, name, description, price_cents, unit, is_prepped,
		average_rating, rating_count, created_at FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.SupplierID, &p.Name, &p.Description, &p.PriceCents, &p.Unit, &p.IsPrepped,
			&p.AverageRating, &p.RatingCount, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, domain.ErrProductNotFound)
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("load product %s: %w", id, err)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}

// Upsert is used by seeding and tests; product management itself lives in
// the marketplace service.
func (r *Repository) Upsert(ctx context.Context, p domain.Product) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO products (id, supplier_id, name, description, price_cents, unit, is_prepped, average_rating, rating_count, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO UPDATE SET supplier_id=$2, name=$3, description=$4, price_cents=$5, unit=$6,
			is_prepped=$7, average_rating=$8, rating_count=$9`,
		p.ID, p.SupplierID, p.Name, p.Description, p.PriceCents, p.Unit, p.IsPrepped, p.AverageRating, p.RatingCount, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert product %s: %w", p.ID, err)
	}
	return nil
}
