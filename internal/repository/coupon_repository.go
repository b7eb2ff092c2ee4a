package repository

import (
	"context"
	"time"

	"github.com/diagnosis/villa-bookings/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CouponRepository interface {
	// FindByCode matches case-insensitively. Validity is checked by the caller.
	FindByCode(ctx context.Context, code string) (*domain.Coupon, error)
	Create(ctx context.Context, c *domain.Coupon) (*domain.Coupon, error)
	SetActive(ctx context.Context, code string, active bool) (*domain.Coupon, error)
	ListPublic(ctx context.Context) ([]domain.Coupon, error)
}

type couponRepository struct {
	pool *pgxpool.Pool
}

func NewCouponRepository(pool *pgxpool.Pool) CouponRepository {
	return &couponRepository{pool: pool}
}

const couponCols = `id, code, description, percent_off, amount_off, valid_from, valid_to,
min_nights, is_active, is_public, created_at, updated_at`

func scanCoupon(row pgx.Row) (*domain.Coupon, error) {
	var c domain.Coupon
	err := row.Scan(
		&c.ID, &c.Code, &c.Description, &c.PercentOff, &c.AmountOff, &c.ValidFrom, &c.ValidTo,
		&c.MinNights, &c.IsActive, &c.IsPublic, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *couponRepository) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	const q = `SELECT ` + couponCols + ` FROM coupons WHERE code=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanCoupon(r.pool.QueryRow(ctx, q, domain.NormalizeCouponCode(code)))
}

func (r *couponRepository) Create(ctx context.Context, c *domain.Coupon) (*domain.Coupon, error) {
	const q = `INSERT INTO coupons (
		id, code, description, percent_off, amount_off, valid_from, valid_to,
		min_nights, is_active, is_public
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	RETURNING ` + couponCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanCoupon(r.pool.QueryRow(ctx, q,
		c.ID, domain.NormalizeCouponCode(c.Code), c.Description, c.PercentOff, c.AmountOff, c.ValidFrom, c.ValidTo,
		c.MinNights, c.IsActive, c.IsPublic,
	))
}

func (r *couponRepository) SetActive(ctx context.Context, code string, active bool) (*domain.Coupon, error) {
	const q = `UPDATE coupons SET is_active=$2, updated_at=now() WHERE code=$1 RETURNING ` + couponCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanCoupon(r.pool.QueryRow(ctx, q, domain.NormalizeCouponCode(code), active))
}

func (r *couponRepository) ListPublic(ctx context.Context) ([]domain.Coupon, error) {
	const q = `SELECT ` + couponCols + ` FROM coupons WHERE is_public AND is_active ORDER BY code`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}
