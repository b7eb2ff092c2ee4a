package repository

import (
	"context"
	"time"

	"github.com/diagnosis/villa-bookings/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BlockedPeriodRepository stores administrative blocks. Blocks are closed
// ranges: end_date is unavailable too.
type BlockedPeriodRepository interface {
	// FindOverlapping returns blocks touching any night of [checkIn, checkOut).
	FindOverlapping(ctx context.Context, propertyID string, checkIn, checkOut time.Time) ([]domain.BlockedPeriod, error)
	// ListRange returns blocks touching any date of [from, to].
	ListRange(ctx context.Context, propertyID string, from, to time.Time) ([]domain.BlockedPeriod, error)
	Create(ctx context.Context, b *domain.BlockedPeriod) (*domain.BlockedPeriod, error)
	// Delete removes a block and returns it, or nil when the id is unknown.
	Delete(ctx context.Context, id string) (*domain.BlockedPeriod, error)
}

type blockedPeriodRepository struct {
	pool *pgxpool.Pool
}

func NewBlockedPeriodRepository(pool *pgxpool.Pool) BlockedPeriodRepository {
	return &blockedPeriodRepository{pool: pool}
}

const blockCols = `id, property_id, start_date, end_date, reason, created_at`

func (r *blockedPeriodRepository) query(ctx context.Context, q string, args ...any) ([]domain.BlockedPeriod, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.BlockedPeriod
	for rows.Next() {
		var b domain.BlockedPeriod
		if err := rows.Scan(&b.ID, &b.PropertyID, &b.StartDate, &b.EndDate, &b.Reason, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *blockedPeriodRepository) FindOverlapping(ctx context.Context, propertyID string, checkIn, checkOut time.Time) ([]domain.BlockedPeriod, error) {
	const q = `SELECT ` + blockCols + ` FROM blocked_periods
WHERE property_id=$1 AND start_date < $3 AND end_date >= $2
ORDER BY start_date`
	return r.query(ctx, q, propertyID, checkIn, checkOut)
}

func (r *blockedPeriodRepository) ListRange(ctx context.Context, propertyID string, from, to time.Time) ([]domain.BlockedPeriod, error) {
	const q = `SELECT ` + blockCols + ` FROM blocked_periods
WHERE property_id=$1 AND start_date <= $3 AND end_date >= $2
ORDER BY start_date`
	return r.query(ctx, q, propertyID, from, to)
}

func (r *blockedPeriodRepository) Create(ctx context.Context, b *domain.BlockedPeriod) (*domain.BlockedPeriod, error) {
	const q = `INSERT INTO blocked_periods (id, property_id, start_date, end_date, reason)
VALUES ($1,$2,$3,$4,$5) RETURNING ` + blockCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var out domain.BlockedPeriod
	err := r.pool.QueryRow(ctx, q, b.ID, b.PropertyID, b.StartDate, b.EndDate, b.Reason).Scan(
		&out.ID, &out.PropertyID, &out.StartDate, &out.EndDate, &out.Reason, &out.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *blockedPeriodRepository) Delete(ctx context.Context, id string) (*domain.BlockedPeriod, error) {
	const q = `DELETE FROM blocked_periods WHERE id=$1 RETURNING ` + blockCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var out domain.BlockedPeriod
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&out.ID, &out.PropertyID, &out.StartDate, &out.EndDate, &out.Reason, &out.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
