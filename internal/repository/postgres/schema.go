// internal/repository/postgres/schema.go
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the three store tables when missing. Mirrors
// the desktop app's startup table checks; safe to run on every boot.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS subscribers (
			id            BIGSERIAL PRIMARY KEY,
			customer_name TEXT,
			agent_name    TEXT,
			agent_code    INTEGER,
			phone         BIGINT,
			card          BIGINT UNIQUE NOT NULL,
			open_date     DATE,
			status        TEXT,
			days_remain   INTEGER,
			duration      INTEGER,
			expire_date   DATE,
			date_joined   TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS performance (
			id             BIGSERIAL PRIMARY KEY,
			agent_name     TEXT NOT NULL,
			agent_code     INTEGER NOT NULL,
			active         INTEGER DEFAULT 0,
			dormant        INTEGER DEFAULT 0,
			dormant_active INTEGER DEFAULT 0,
			active_dormant INTEGER DEFAULT 0,
			gain_loss      INTEGER DEFAULT 0,
			date           TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS total_performance (
			id             BIGSERIAL PRIMARY KEY,
			agent_code     INTEGER NOT NULL,
			agent_name     TEXT NOT NULL,
			active         INTEGER NOT NULL,
			dormant        INTEGER NOT NULL,
			dormant_active INTEGER DEFAULT 0,
			active_dormant INTEGER DEFAULT 0,
			total_active   INTEGER DEFAULT 0,
			total_dormant  INTEGER DEFAULT 0,
			gain_loss      INTEGER DEFAULT 0,
			week           INTEGER NOT NULL,
			year           INTEGER,
			date           TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_performance_date ON performance (date)`,
		`CREATE INDEX IF NOT EXISTS idx_total_performance_date ON total_performance (date)`,
		`CREATE INDEX IF NOT EXISTS idx_total_performance_week ON total_performance (week, year)`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
