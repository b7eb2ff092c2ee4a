package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is applied in order by Migrate. Every statement is idempotent.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS properties (
		id                  TEXT PRIMARY KEY,
		name                TEXT NOT NULL DEFAULT '',
		currency            TEXT NOT NULL DEFAULT 'ILS',
		weekday_price_night BIGINT NOT NULL CHECK (weekday_price_night >= 0),
		weekend_price_night BIGINT CHECK (weekend_price_night >= 0),
		cleaning_fee        BIGINT NOT NULL DEFAULT 0 CHECK (cleaning_fee >= 0),
		vat_percent         NUMERIC(5,2) NOT NULL DEFAULT 0,
		min_nights          INTEGER NOT NULL DEFAULT 1,
		max_nights          INTEGER NOT NULL DEFAULT 30,
		max_adults          INTEGER NOT NULL DEFAULT 2,
		max_children        INTEGER NOT NULL DEFAULT 0,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	// Tax is priced to two decimal places.
	`ALTER TABLE properties ALTER COLUMN vat_percent TYPE NUMERIC(5,2)`,
	`CREATE TABLE IF NOT EXISTS custom_pricing (
		property_id     TEXT NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
		date            DATE NOT NULL,
		price_per_night BIGINT NOT NULL CHECK (price_per_night >= 0),
		price_per_adult BIGINT,
		price_per_child BIGINT,
		notes           TEXT NOT NULL DEFAULT '',
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (property_id, date)
	)`,
	`CREATE TABLE IF NOT EXISTS coupons (
		id          TEXT PRIMARY KEY,
		code        TEXT NOT NULL UNIQUE CHECK (code = upper(code)),
		description TEXT NOT NULL DEFAULT '',
		percent_off INTEGER CHECK (percent_off BETWEEN 1 AND 100),
		amount_off  BIGINT CHECK (amount_off > 0),
		valid_from  TIMESTAMPTZ,
		valid_to    TIMESTAMPTZ,
		min_nights  INTEGER,
		is_active   BOOLEAN NOT NULL DEFAULT true,
		is_public   BOOLEAN NOT NULL DEFAULT false,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		CHECK ((percent_off IS NULL) <> (amount_off IS NULL))
	)`,
	`CREATE TABLE IF NOT EXISTS blocked_periods (
		id          TEXT PRIMARY KEY,
		property_id TEXT NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
		start_date  DATE NOT NULL,
		end_date    DATE NOT NULL,
		reason      TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		CHECK (start_date <= end_date)
	)`,
	`CREATE INDEX IF NOT EXISTS blocked_periods_range_idx ON blocked_periods (property_id, start_date, end_date)`,
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		role          TEXT NOT NULL DEFAULT 'guest',
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL DEFAULT '',
		name          TEXT NOT NULL DEFAULT '',
		phone         TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id              TEXT PRIMARY KEY,
		property_id     TEXT NOT NULL REFERENCES properties(id),
		user_id         TEXT NOT NULL REFERENCES users(id),
		check_in        DATE NOT NULL,
		check_out       DATE NOT NULL,
		nights          INTEGER NOT NULL,
		adults          INTEGER NOT NULL DEFAULT 0,
		children        INTEGER NOT NULL DEFAULT 0,
		total           BIGINT NOT NULL DEFAULT 0,
		status          TEXT NOT NULL,
		hold_expires_at TIMESTAMPTZ,
		hold_token_hash TEXT NOT NULL DEFAULT '',
		notes           TEXT NOT NULL DEFAULT '',
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		CHECK (check_in < check_out)
	)`,
	`CREATE INDEX IF NOT EXISTS reservations_range_idx ON reservations (property_id, check_in, check_out)`,
	`CREATE TABLE IF NOT EXISTS hold_tokens (
		key_hash       TEXT PRIMARY KEY,
		reservation_id TEXT NOT NULL REFERENCES reservations(id) ON DELETE CASCADE,
		expires_at     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		id          TEXT PRIMARY KEY,
		actor_id    TEXT NOT NULL DEFAULT '',
		action      TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id   TEXT NOT NULL,
		details     TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for i, stmt := range Schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d failed: %w", i+1, err)
		}
	}
	return nil
}
