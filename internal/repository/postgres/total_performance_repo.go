// internal/repository/postgres/total_performance_repo.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"timesoffice-service/internal/domain/performance"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const totalColumns = `
	id, agent_code, agent_name, active, dormant,
	COALESCE(dormant_active, 0), COALESCE(active_dormant, 0),
	COALESCE(total_active, 0), COALESCE(total_dormant, 0), COALESCE(gain_loss, 0),
	week, COALESCE(year, 0), date`

type TotalPerformanceRepository struct {
	db  *pgxpool.Pool
	txs *DB
}

func NewTotalPerformanceRepository(db *pgxpool.Pool, txs *DB) *TotalPerformanceRepository {
	return &TotalPerformanceRepository{db: db, txs: txs}
}

// Insert seeds one agent's weekly total row.
func (r *TotalPerformanceRepository) Insert(ctx context.Context, t *performance.TotalPerformance) error {
	query := `
		INSERT INTO total_performance (
			agent_code, agent_name, active, dormant,
			dormant_active, active_dormant, total_active, total_dormant,
			gain_loss, week, year, date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	err := r.db.QueryRow(
		ctx, query,
		t.AgentCode, t.AgentName, t.Active, t.Dormant,
		t.DormantActive, t.ActiveDormant, t.TotalActive, t.TotalDormant,
		t.GainLoss, t.Week, t.Year, t.Date,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("failed to insert weekly total: %w", err)
	}
	return nil
}

// CountInRange reports how many weekly total rows have date in
// [from, to]; zero means the window has not been seeded.
func (r *TotalPerformanceRepository) CountInRange(ctx context.Context, from, to time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM total_performance WHERE date BETWEEN $1 AND $2`,
		from, to,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count weekly totals: %w", err)
	}
	return n, nil
}

// ListRange returns weekly total rows with date in [from, to], ordered
// by agent name.
func (r *TotalPerformanceRepository) ListRange(ctx context.Context, from, to time.Time) ([]performance.TotalPerformance, error) {
	query := `
		SELECT ` + totalColumns + `
		FROM total_performance
		WHERE date BETWEEN $1 AND $2 AND agent_name IS NOT NULL
		ORDER BY agent_name ASC
	`
	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list weekly totals: %w", err)
	}
	defer rows.Close()
	return scanTotals(rows)
}

// ListWeek returns the rows tagged with an ISO week and year; backs
// the chart view.
func (r *TotalPerformanceRepository) ListWeek(ctx context.Context, week, year int) ([]performance.TotalPerformance, error) {
	query := `
		SELECT ` + totalColumns + `
		FROM total_performance
		WHERE week = $1 AND year = $2 AND agent_name IS NOT NULL
		ORDER BY agent_name ASC
	`
	rows, err := r.db.Query(ctx, query, week, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list weekly totals by week: %w", err)
	}
	defer rows.Close()
	return scanTotals(rows)
}

// ApplyWeeklyUpdates writes a window's rolled-up counters in a single
// transaction: the transition counters and the recomputed cumulative
// totals must land together or not at all.
func (r *TotalPerformanceRepository) ApplyWeeklyUpdates(ctx context.Context, from, to time.Time, updates []performance.WeeklyTotalUpdate) error {
	tx, err := r.txs.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin rollup transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE total_performance
		SET dormant_active = $1, active_dormant = $2, gain_loss = $3,
		    total_active = $4, total_dormant = $5
		WHERE agent_code = $6 AND date BETWEEN $7 AND $8
	`
	for _, u := range updates {
		if _, err := tx.Exec(ctx, query,
			u.DormantActive, u.ActiveDormant, u.GainLoss,
			u.TotalActive, u.TotalDormant,
			u.AgentCode, from, to,
		); err != nil {
			return fmt.Errorf("failed to apply weekly update for agent %d: %w", u.AgentCode, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rollup transaction: %w", err)
	}
	return nil
}

func scanTotals(rows pgx.Rows) ([]performance.TotalPerformance, error) {
	var out []performance.TotalPerformance
	for rows.Next() {
		var t performance.TotalPerformance
		if err := rows.Scan(
			&t.ID, &t.AgentCode, &t.AgentName, &t.Active, &t.Dormant,
			&t.DormantActive, &t.ActiveDormant, &t.TotalActive, &t.TotalDormant,
			&t.GainLoss, &t.Week, &t.Year, &t.Date,
		); err != nil {
			return nil, fmt.Errorf("failed to scan weekly total: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
