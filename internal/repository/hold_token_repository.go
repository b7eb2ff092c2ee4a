package repository

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// HoldTokenRepository maps quote hold tokens to the reservation they created,
// so a retried hold request returns the same reservation.
type HoldTokenRepository interface {
	// Find returns the reservation id recorded for token, or "" when none.
	Find(ctx context.Context, token string) (string, error)
	// Save records token -> reservationID. An existing mapping is kept.
	Save(ctx context.Context, token, reservationID string, expiresAt time.Time) error
	CleanupExpired(ctx context.Context, before time.Time) (int64, error)
}

// HashHoldToken is the stored form of a hold token.
func HashHoldToken(token string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(token)))
}

type holdTokenRepository struct {
	pool *pgxpool.Pool
}

func NewHoldTokenRepository(pool *pgxpool.Pool) HoldTokenRepository {
	return &holdTokenRepository{pool: pool}
}

func (r *holdTokenRepository) Find(ctx context.Context, token string) (string, error) {
	const q = `SELECT reservation_id FROM hold_tokens WHERE key_hash=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var id string
	err := r.pool.QueryRow(ctx, q, HashHoldToken(token)).Scan(&id)
	if err == pgx.ErrNoRows {
		return "", nil
	}
	return id, err
}

func (r *holdTokenRepository) Save(ctx context.Context, token, reservationID string, expiresAt time.Time) error {
	const q = `INSERT INTO hold_tokens (key_hash, reservation_id, expires_at)
VALUES ($1,$2,$3)
ON CONFLICT (key_hash) DO NOTHING`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, q, HashHoldToken(token), reservationID, expiresAt)
	return err
}

func (r *holdTokenRepository) CleanupExpired(ctx context.Context, before time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	ct, err := r.pool.Exec(ctx, `DELETE FROM hold_tokens WHERE expires_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
