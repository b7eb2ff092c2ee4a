package repository

import (
	"context"
	"time"

	"github.com/diagnosis/villa-bookings/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PropertyRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Property, error)
	// First returns the earliest created property, or nil when none exist.
	First(ctx context.Context) (*domain.Property, error)
	Upsert(ctx context.Context, p *domain.Property) (*domain.Property, error)
}

type propertyRepository struct {
	pool *pgxpool.Pool
}

func NewPropertyRepository(pool *pgxpool.Pool) PropertyRepository {
	return &propertyRepository{pool: pool}
}

const propertyCols = `id, name, currency, weekday_price_night, weekend_price_night,
cleaning_fee, vat_percent, min_nights, max_nights, max_adults, max_children,
created_at, updated_at`

func scanProperty(row pgx.Row) (*domain.Property, error) {
	var p domain.Property
	err := row.Scan(
		&p.ID, &p.Name, &p.Currency, &p.WeekdayPriceNight, &p.WeekendPriceNight,
		&p.CleaningFee, &p.VATPercent, &p.MinNights, &p.MaxNights, &p.MaxAdults, &p.MaxChildren,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *propertyRepository) GetByID(ctx context.Context, id string) (*domain.Property, error) {
	const q = `SELECT ` + propertyCols + ` FROM properties WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanProperty(r.pool.QueryRow(ctx, q, id))
}

func (r *propertyRepository) First(ctx context.Context) (*domain.Property, error) {
	const q = `SELECT ` + propertyCols + ` FROM properties ORDER BY created_at, id LIMIT 1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanProperty(r.pool.QueryRow(ctx, q))
}

func (r *propertyRepository) Upsert(ctx context.Context, p *domain.Property) (*domain.Property, error) {
	const q = `INSERT INTO properties (
		id, name, currency, weekday_price_night, weekend_price_night,
		cleaning_fee, vat_percent, min_nights, max_nights, max_adults, max_children
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	ON CONFLICT (id) DO UPDATE SET
		name=EXCLUDED.name, currency=EXCLUDED.currency,
		weekday_price_night=EXCLUDED.weekday_price_night,
		weekend_price_night=EXCLUDED.weekend_price_night,
		cleaning_fee=EXCLUDED.cleaning_fee, vat_percent=EXCLUDED.vat_percent,
		min_nights=EXCLUDED.min_nights, max_nights=EXCLUDED.max_nights,
		max_adults=EXCLUDED.max_adults, max_children=EXCLUDED.max_children,
		updated_at=now()
	RETURNING ` + propertyCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanProperty(r.pool.QueryRow(ctx, q,
		p.ID, p.Name, p.Currency, p.WeekdayPriceNight, p.WeekendPriceNight,
		p.CleaningFee, p.VATPercent, p.MinNights, p.MaxNights, p.MaxAdults, p.MaxChildren,
	))
}
