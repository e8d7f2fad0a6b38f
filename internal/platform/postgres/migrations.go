package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"promo-backend/internal/common/logger"
)

// schema is applied in order inside one transaction. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS admin_users (
		id            BIGSERIAL PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL CHECK (role IN ('viewer', 'editor', 'admin')),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS prizes (
		id          BIGSERIAL PRIMARY KEY,
		label       TEXT NOT NULL,
		wheel_index INT NOT NULL,
		image_url   TEXT,
		enabled     BOOLEAN NOT NULL DEFAULT TRUE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS prize_tier_weights (
		prize_id  BIGINT NOT NULL REFERENCES prizes(id) ON DELETE CASCADE,
		tier      TEXT NOT NULL,
		weight_bp INT NOT NULL CHECK (weight_bp BETWEEN 0 AND 10000),
		PRIMARY KEY (prize_id, tier)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_prize_tier_weights_tier ON prize_tier_weights (tier)`,
	`CREATE TABLE IF NOT EXISTS spin_codes (
		code       TEXT PRIMARY KEY,
		username   TEXT,
		status     TEXT NOT NULL DEFAULT 'issued' CHECK (status IN ('issued', 'used', 'expired')),
		mode       TEXT NOT NULL DEFAULT 'auto' CHECK (mode IN ('auto', 'manual')),
		tier       TEXT,
		prize_id   BIGINT REFERENCES prizes(id) ON DELETE CASCADE,
		expires_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		used_at    TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_spin_codes_status ON spin_codes (status)`,
	`CREATE INDEX IF NOT EXISTS idx_spin_codes_prize ON spin_codes (prize_id)`,
	`CREATE TABLE IF NOT EXISTS spins (
		id         BIGSERIAL PRIMARY KEY,
		code       TEXT NOT NULL,
		username   TEXT NOT NULL,
		prize_id   BIGINT NOT NULL,
		ip         TEXT NOT NULL DEFAULT '',
		user_agent TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_spins_code ON spins (code)`,
	`CREATE TABLE IF NOT EXISTS content_items (
		id         BIGSERIAL PRIMARY KEY,
		kind       TEXT NOT NULL,
		title      TEXT NOT NULL,
		body       TEXT NOT NULL DEFAULT '',
		image_url  TEXT NOT NULL DEFAULT '',
		link_url   TEXT NOT NULL DEFAULT '',
		sort_order INT NOT NULL DEFAULT 0,
		active     BOOLEAN NOT NULL DEFAULT TRUE,
		starts_at  TIMESTAMPTZ,
		ends_at    TIMESTAMPTZ,
		attrs      JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_content_items_kind ON content_items (kind, active, sort_order)`,
}

// Migrate applies the schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration: %w", err)
	}
	defer tx.Rollback()

	for i, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d failed: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}

	logger.Info().Int("statements", len(schema)).Msg("Database schema applied")
	return nil
}
