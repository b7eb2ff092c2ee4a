package repository

import (
	"context"
	"time"

	"github.com/diagnosis/villa-bookings/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReservationRepository stores guest and admin reservations. A reservation
// occupies [check_in, check_out).
type ReservationRepository interface {
	// FindConflicting returns reservations in one of statuses that share at
	// least one night with [checkIn, checkOut). Hold expiry is not applied.
	FindConflicting(ctx context.Context, propertyID string, checkIn, checkOut time.Time, statuses []domain.ReservationStatus) ([]domain.Reservation, error)
	// ListRange returns every reservation occupying a date in [from, to].
	ListRange(ctx context.Context, propertyID string, from, to time.Time) ([]domain.Reservation, error)
	Insert(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error)
	GetByID(ctx context.Context, id string) (*domain.Reservation, error)
	// UpdateStatus moves a reservation from one status to another and reports
	// whether the row was still in the expected status.
	UpdateStatus(ctx context.Context, id string, from, to domain.ReservationStatus) (bool, error)
	// ExpireHolds cancels PENDING rows whose hold lapsed at or before now.
	ExpireHolds(ctx context.Context, now time.Time) (int64, error)
}

type reservationRepository struct {
	pool *pgxpool.Pool
}

func NewReservationRepository(pool *pgxpool.Pool) ReservationRepository {
	return &reservationRepository{pool: pool}
}

const reservationCols = `id, property_id, user_id, check_in, check_out, nights,
adults, children, total, status, hold_expires_at, hold_token_hash, notes,
created_at, updated_at`

func scanReservation(row pgx.Row) (*domain.Reservation, error) {
	var res domain.Reservation
	err := row.Scan(
		&res.ID, &res.PropertyID, &res.UserID, &res.CheckIn, &res.CheckOut, &res.Nights,
		&res.Adults, &res.Children, &res.Total, &res.Status, &res.HoldExpiresAt, &res.HoldTokenHash, &res.Notes,
		&res.CreatedAt, &res.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *reservationRepository) list(ctx context.Context, q string, args ...any) ([]domain.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

func (r *reservationRepository) FindConflicting(ctx context.Context, propertyID string, checkIn, checkOut time.Time, statuses []domain.ReservationStatus) ([]domain.Reservation, error) {
	const q = `SELECT ` + reservationCols + ` FROM reservations
WHERE property_id=$1 AND check_in < $3 AND check_out > $2 AND status = ANY($4::text[])
ORDER BY check_in`
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	return r.list(ctx, q, propertyID, checkIn, checkOut, names)
}

func (r *reservationRepository) ListRange(ctx context.Context, propertyID string, from, to time.Time) ([]domain.Reservation, error) {
	const q = `SELECT ` + reservationCols + ` FROM reservations
WHERE property_id=$1 AND check_in <= $3 AND check_out > $2
ORDER BY check_in`
	return r.list(ctx, q, propertyID, from, to)
}

func (r *reservationRepository) Insert(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	const q = `INSERT INTO reservations (
		id, property_id, user_id, check_in, check_out, nights,
		adults, children, total, status, hold_expires_at, hold_token_hash, notes
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	RETURNING ` + reservationCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanReservation(r.pool.QueryRow(ctx, q,
		res.ID, res.PropertyID, res.UserID, res.CheckIn, res.CheckOut, res.Nights,
		res.Adults, res.Children, res.Total, string(res.Status), res.HoldExpiresAt, res.HoldTokenHash, res.Notes,
	))
}

func (r *reservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	const q = `SELECT ` + reservationCols + ` FROM reservations WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanReservation(r.pool.QueryRow(ctx, q, id))
}

func (r *reservationRepository) UpdateStatus(ctx context.Context, id string, from, to domain.ReservationStatus) (bool, error) {
	const q = `UPDATE reservations SET status=$3, updated_at=now() WHERE id=$1 AND status=$2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	ct, err := r.pool.Exec(ctx, q, id, string(from), string(to))
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (r *reservationRepository) ExpireHolds(ctx context.Context, now time.Time) (int64, error) {
	const q = `UPDATE reservations SET status='CANCELLED', updated_at=now()
WHERE status='PENDING' AND hold_expires_at IS NOT NULL AND hold_expires_at <= $1`
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	ct, err := r.pool.Exec(ctx, q, now)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
