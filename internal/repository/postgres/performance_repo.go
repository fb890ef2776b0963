// internal/repository/postgres/performance_repo.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"timesoffice-service/internal/domain/performance"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const performanceColumns = `
	id, agent_name, agent_code, COALESCE(active, 0), COALESCE(dormant, 0),
	COALESCE(dormant_active, 0), COALESCE(active_dormant, 0), COALESCE(gain_loss, 0), date`

type PerformanceRepository struct {
	db *pgxpool.Pool
}

func NewPerformanceRepository(db *pgxpool.Pool) *PerformanceRepository {
	return &PerformanceRepository{db: db}
}

// Insert writes one agent's daily snapshot row.
func (r *PerformanceRepository) Insert(ctx context.Context, p *performance.Performance) error {
	query := `
		INSERT INTO performance (
			agent_name, agent_code, active, dormant,
			dormant_active, active_dormant, gain_loss, date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.db.QueryRow(
		ctx, query,
		p.AgentName, p.AgentCode, p.Active, p.Dormant,
		p.DormantActive, p.ActiveDormant, p.GainLoss, p.Date,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to insert performance row: %w", err)
	}
	return nil
}

// ListRange returns snapshot rows with date in [from, to], ordered by
// agent name.
func (r *PerformanceRepository) ListRange(ctx context.Context, from, to time.Time) ([]performance.Performance, error) {
	query := `
		SELECT ` + performanceColumns + `
		FROM performance
		WHERE date BETWEEN $1 AND $2
		ORDER BY agent_name ASC
	`
	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list performance rows: %w", err)
	}
	defer rows.Close()
	return scanPerformance(rows)
}

func scanPerformance(rows pgx.Rows) ([]performance.Performance, error) {
	var out []performance.Performance
	for rows.Next() {
		var p performance.Performance
		if err := rows.Scan(
			&p.ID, &p.AgentName, &p.AgentCode, &p.Active, &p.Dormant,
			&p.DormantActive, &p.ActiveDormant, &p.GainLoss, &p.Date,
		); err != nil {
			return nil, fmt.Errorf("failed to scan performance row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
