package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
)

// ProgressTable holds one row per learner.
const ProgressTable = "user_progress"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS user_progress (
	user_id           TEXT PRIMARY KEY,
	xp                INTEGER NOT NULL DEFAULT 0 CHECK (xp >= 0),
	current_stage_id  INTEGER NOT NULL DEFAULT 1,
	completed_lessons TEXT    NOT NULL DEFAULT '[]',
	earned_badges     TEXT    NOT NULL DEFAULT '[]',
	login_dates       TEXT    NOT NULL DEFAULT '[]',
	streak_days       INTEGER NOT NULL DEFAULT 0,
	updated_at        DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_user_progress_updated_at ON user_progress (updated_at);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS user_progress (
	user_id           TEXT PRIMARY KEY,
	xp                BIGINT NOT NULL DEFAULT 0 CHECK (xp >= 0),
	current_stage_id  INTEGER NOT NULL DEFAULT 1,
	completed_lessons JSONB NOT NULL DEFAULT '[]'::jsonb,
	earned_badges     JSONB NOT NULL DEFAULT '[]'::jsonb,
	login_dates       JSONB NOT NULL DEFAULT '[]'::jsonb,
	streak_days       INTEGER NOT NULL DEFAULT 0,
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_user_progress_updated_at ON user_progress (updated_at);
`

// EnsureSQLiteSchema creates the progress table when missing.
func EnsureSQLiteSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create sqlite schema: %w", err)
	}
	return nil
}

// EnsurePostgresSchema creates the progress table when missing.
func EnsurePostgresSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("create postgres schema: %w", err)
	}
	return nil
}
