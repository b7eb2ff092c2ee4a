package repository

import (
	"context"
	"time"

	"github.com/diagnosis/villa-bookings/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PricingRepository stores custom per-date price overrides keyed by
// (property_id, date).
type PricingRepository interface {
	// ListRange returns overrides whose date lies in [from, to], both inclusive.
	ListRange(ctx context.Context, propertyID string, from, to time.Time) ([]domain.CustomPriceOverride, error)
	BulkUpsert(ctx context.Context, overrides []domain.CustomPriceOverride) error
	DeleteDates(ctx context.Context, propertyID string, dates []time.Time) (int64, error)
}

type pricingRepository struct {
	pool *pgxpool.Pool
}

func NewPricingRepository(pool *pgxpool.Pool) PricingRepository {
	return &pricingRepository{pool: pool}
}

func (r *pricingRepository) ListRange(ctx context.Context, propertyID string, from, to time.Time) ([]domain.CustomPriceOverride, error) {
	const q = `SELECT property_id, date, price_per_night, price_per_adult, price_per_child, notes, updated_at
FROM custom_pricing
WHERE property_id=$1 AND date >= $2 AND date <= $3
ORDER BY date`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, propertyID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CustomPriceOverride
	for rows.Next() {
		var o domain.CustomPriceOverride
		if err := rows.Scan(&o.PropertyID, &o.Date, &o.PricePerNight, &o.PricePerAdult, &o.PricePerChild, &o.Notes, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *pricingRepository) BulkUpsert(ctx context.Context, overrides []domain.CustomPriceOverride) error {
	const q = `INSERT INTO custom_pricing (property_id, date, price_per_night, price_per_adult, price_per_child, notes)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (property_id, date) DO UPDATE SET
	price_per_night=EXCLUDED.price_per_night,
	price_per_adult=EXCLUDED.price_per_adult,
	price_per_child=EXCLUDED.price_per_child,
	notes=EXCLUDED.notes,
	updated_at=now()`
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	batch := &pgx.Batch{}
	for _, o := range overrides {
		batch.Queue(q, o.PropertyID, o.Date, o.PricePerNight, o.PricePerAdult, o.PricePerChild, o.Notes)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

func (r *pricingRepository) DeleteDates(ctx context.Context, propertyID string, dates []time.Time) (int64, error) {
	const q = `DELETE FROM custom_pricing WHERE property_id=$1 AND date = ANY($2::date[])`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	ct, err := r.pool.Exec(ctx, q, propertyID, dates)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
