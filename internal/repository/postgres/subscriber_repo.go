// internal/repository/postgres/subscriber_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"timesoffice-service/internal/domain/subscriber"
	xerrors "timesoffice-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const subscriberColumns = `
	id, COALESCE(customer_name, ''), COALESCE(agent_name, ''), COALESCE(agent_code, 0),
	COALESCE(phone, 0), card, COALESCE(open_date, 'epoch'::date), COALESCE(status, ''),
	COALESCE(days_remain, 0), COALESCE(duration, 0), COALESCE(expire_date, 'epoch'::date),
	date_joined`

type SubscriberRepository struct {
	db *pgxpool.Pool
}

func NewSubscriberRepository(db *pgxpool.Pool) *SubscriberRepository {
	return &SubscriberRepository{db: db}
}

// Insert creates a new subscriber row. A duplicate card maps to
// xerrors.ErrDuplicateEntry so callers can report it distinctly.
func (r *SubscriberRepository) Insert(ctx context.Context, s *subscriber.Subscriber) error {
	query := `
		INSERT INTO subscribers (
			customer_name, agent_name, agent_code, phone, card,
			open_date, status, days_remain, duration, expire_date, date_joined
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	err := r.db.QueryRow(
		ctx, query,
		s.CustomerName, s.AgentName, s.AgentCode, s.Phone, s.Card,
		s.OpenDate, s.Status, s.DaysRemain, s.Duration, s.ExpireDate, s.DateJoined,
	).Scan(&s.ID)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return xerrors.ErrDuplicateEntry
	}
	if err != nil {
		return fmt.Errorf("failed to insert subscriber: %w", err)
	}
	return nil
}

// UpdateCountdown persists a recomputed days-remaining value and the
// status derived from it.
func (r *SubscriberRepository) UpdateCountdown(ctx context.Context, id int64, daysRemain int, status subscriber.Status) error {
	query := `UPDATE subscribers SET days_remain = $1, status = $2 WHERE id = $3`
	if _, err := r.db.Exec(ctx, query, daysRemain, status, id); err != nil {
		return fmt.Errorf("failed to update countdown: %w", err)
	}
	return nil
}

// UpdateRenewal applies a renewal payment to the card's row.
func (r *SubscriberRepository) UpdateRenewal(ctx context.Context, card int64, openDate time.Time, duration, daysRemain int, expireDate time.Time, status subscriber.Status) error {
	query := `
		UPDATE subscribers
		SET open_date = $1, duration = $2, days_remain = $3, expire_date = $4, status = $5
		WHERE card = $6
	`
	tag, err := r.db.Exec(ctx, query, openDate, duration, daysRemain, expireDate, status, card)
	if err != nil {
		return fmt.Errorf("failed to update renewal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// DeleteByAgentCode removes every card owned by the agent; used by the
// replace-data import.
func (r *SubscriberRepository) DeleteByAgentCode(ctx context.Context, agentCode int) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM subscribers WHERE agent_code = $1`, agentCode)
	if err != nil {
		return 0, fmt.Errorf("failed to delete subscribers: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListAll returns every subscriber with a known agent, oldest join
// first.
func (r *SubscriberRepository) ListAll(ctx context.Context) ([]subscriber.Subscriber, error) {
	query := `
		SELECT ` + subscriberColumns + `
		FROM subscribers
		WHERE agent_name IS NOT NULL
		ORDER BY date_joined ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	defer rows.Close()
	return scanSubscribers(rows)
}

// ListAgentStatus returns the (agent, status) projection used by the
// status reducers.
func (r *SubscriberRepository) ListAgentStatus(ctx context.Context) ([]subscriber.Subscriber, error) {
	query := `
		SELECT COALESCE(agent_name, ''), COALESCE(agent_code, 0), COALESCE(status, '')
		FROM subscribers
		WHERE agent_name IS NOT NULL
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list agent status: %w", err)
	}
	defer rows.Close()

	var out []subscriber.Subscriber
	for rows.Next() {
		var s subscriber.Subscriber
		if err := rows.Scan(&s.AgentName, &s.AgentCode, &s.Status); err != nil {
			return nil, fmt.Errorf("failed to scan agent status: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListJustExpired returns subscribers whose countdown hit -1: the
// active-to-dormant transition set of the daily snapshot.
func (r *SubscriberRepository) ListJustExpired(ctx context.Context) ([]subscriber.Subscriber, error) {
	query := `
		SELECT ` + subscriberColumns + `
		FROM subscribers
		WHERE days_remain = -1 AND agent_name IS NOT NULL
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired subscribers: %w", err)
	}
	defer rows.Close()
	return scanSubscribers(rows)
}

// ListOpenedOn returns subscribers whose card was opened on the given
// calendar day: the dormant-to-active transition set.
func (r *SubscriberRepository) ListOpenedOn(ctx context.Context, day time.Time) ([]subscriber.Subscriber, error) {
	query := `
		SELECT ` + subscriberColumns + `
		FROM subscribers
		WHERE open_date = $1::date AND agent_name IS NOT NULL
	`
	rows, err := r.db.Query(ctx, query, day)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers by open date: %w", err)
	}
	defer rows.Close()
	return scanSubscribers(rows)
}

// Search matches the term against the columns the desktop search box
// covered: customer, agent, code, phone, card and status.
func (r *SubscriberRepository) Search(ctx context.Context, term string) ([]subscriber.Subscriber, error) {
	query := `
		SELECT ` + subscriberColumns + `
		FROM subscribers
		WHERE customer_name ILIKE $1
		   OR agent_name ILIKE $1
		   OR status ILIKE $1
		   OR CAST(agent_code AS TEXT) LIKE $1
		   OR CAST(phone AS TEXT) LIKE $1
		   OR CAST(card AS TEXT) LIKE $1
	`
	rows, err := r.db.Query(ctx, query, "%"+term+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to search subscribers: %w", err)
	}
	defer rows.Close()
	return scanSubscribers(rows)
}

func scanSubscribers(rows pgx.Rows) ([]subscriber.Subscriber, error) {
	var out []subscriber.Subscriber
	for rows.Next() {
		var s subscriber.Subscriber
		if err := rows.Scan(
			&s.ID, &s.CustomerName, &s.AgentName, &s.AgentCode,
			&s.Phone, &s.Card, &s.OpenDate, &s.Status,
			&s.DaysRemain, &s.Duration, &s.ExpireDate, &s.DateJoined,
		); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
