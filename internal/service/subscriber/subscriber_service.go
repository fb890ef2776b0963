// internal/service/subscriber/subscriber_service.go
package subscriber

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"timesoffice-service/internal/domain/event"
	"timesoffice-service/internal/domain/subscriber"
	"timesoffice-service/internal/pkg/aggregate"
	"timesoffice-service/internal/pkg/datewindow"
	xerrors "timesoffice-service/internal/pkg/errors"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultDuration is assumed when an imported sheet carries no
	// duration column.
	DefaultDuration = 30

	// batchLimit bounds the fan-out of batch writes.
	batchLimit = 8

	statusSumKey = "timesoffice:status_sum"
	statusSumTTL = time.Minute
)

// Store is the slice of the relational store the subscriber service
// consumes.
type Store interface {
	Insert(ctx context.Context, s *subscriber.Subscriber) error
	UpdateCountdown(ctx context.Context, id int64, daysRemain int, status subscriber.Status) error
	UpdateRenewal(ctx context.Context, card int64, openDate time.Time, duration, daysRemain int, expireDate time.Time, status subscriber.Status) error
	DeleteByAgentCode(ctx context.Context, agentCode int) (int64, error)
	ListAll(ctx context.Context) ([]subscriber.Subscriber, error)
	ListAgentStatus(ctx context.Context) ([]subscriber.Subscriber, error)
	Search(ctx context.Context, term string) ([]subscriber.Subscriber, error)
}

type SubscriberService struct {
	store    Store
	notifier event.Notifier
	cache    *redis.Client
	logger   *zap.Logger
}

func NewSubscriberService(store Store, notifier event.Notifier, cache *redis.Client, logger *zap.Logger) *SubscriberService {
	return &SubscriberService{
		store:    store,
		notifier: notifier,
		cache:    cache,
		logger:   logger,
	}
}

// DurationForAmount maps a renewal payment amount to the subscription
// duration it buys. Unknown amounts fall back to the default month.
func DurationForAmount(amount decimal.Decimal) int {
	table := []struct {
		amounts []int64
		days    int
	}{
		{[]int64{25, 35}, 7},
		{[]int64{20, 45, 75}, 30},
		{[]int64{90, 150}, 60},
		{[]int64{60, 135}, 90},
	}
	for _, entry := range table {
		for _, a := range entry.amounts {
			if amount.Equal(decimal.NewFromInt(a)) {
				return entry.days
			}
		}
	}
	return DefaultDuration
}

// ImportSubscribers inserts a batch of imported rows. Each row is
// written independently: a duplicate card or store error is reported
// through the notifier and the batch continues. The completion event
// fires exactly once, after every write has settled.
func (s *SubscriberService) ImportSubscribers(ctx context.Context, rows []subscriber.ImportRow) (*subscriber.BatchResult, error) {
	now := time.Now()
	result := &subscriber.BatchResult{
		BatchRef:  ulid.Make().String(),
		Processed: len(rows),
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(batchLimit)

	for _, row := range rows {
		row := row
		g.Go(func() error {
			sub := s.buildSubscriber(row, now)
			err := s.store.Insert(ctx, sub)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				result.Inserted++
			case xerrors.Is(err, xerrors.ErrDuplicateEntry):
				result.Duplicates++
				s.notifier.Publish(event.New(event.TypeError,
					fmt.Sprintf("card %d skipped: data already exists", row.Card)))
			default:
				result.Failed++
				s.logger.Error("failed to insert subscriber",
					zap.Int64("card", row.Card), zap.Error(err))
				s.notifier.Publish(event.New(event.TypeError, err.Error()))
			}
			return nil
		})
	}
	g.Wait()

	if result.Duplicates > 0 || result.Failed > 0 {
		s.notifier.Publish(event.New(event.TypeErrorDone, result))
	} else {
		s.notifier.Publish(event.New(event.TypeDataInserted, result.Inserted))
	}

	s.invalidateStatusSum(ctx)

	s.logger.Info("subscriber import finished",
		zap.String("batch_ref", result.BatchRef),
		zap.Int("inserted", result.Inserted),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// RenewSubscribers applies a batch of renewal payments by card number.
// The renewed duration is decided by the payment amount.
func (s *SubscriberService) RenewSubscribers(ctx context.Context, rows []subscriber.RenewalRow) (*subscriber.BatchResult, error) {
	now := time.Now()
	result := &subscriber.BatchResult{
		BatchRef:  ulid.Make().String(),
		Processed: len(rows),
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(batchLimit)

	for _, row := range rows {
		row := row
		g.Go(func() error {
			duration := DurationForAmount(row.Amount)
			open := datewindow.Truncate(row.OpenDate)
			expire := open.AddDate(0, 0, duration)
			days := datewindow.DayCountdown(expire, now)

			err := s.store.UpdateRenewal(ctx, row.Card, open, duration, days, expire, subscriber.StatusValid)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				s.logger.Error("failed to renew subscriber",
					zap.Int64("card", row.Card), zap.Error(err))
				s.notifier.Publish(event.New(event.TypeError,
					fmt.Sprintf("card %d: %s", row.Card, err)))
				return nil
			}
			result.Inserted++
			return nil
		})
	}
	g.Wait()

	s.notifier.Publish(event.New(event.TypeDataUpdated, result))
	s.invalidateStatusSum(ctx)

	s.logger.Info("subscriber renewal finished",
		zap.String("batch_ref", result.BatchRef),
		zap.Int("renewed", result.Inserted),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// ReplaceAgentData drops every card the agent owns and re-imports the
// supplied rows.
func (s *SubscriberService) ReplaceAgentData(ctx context.Context, agentCode int, rows []subscriber.ImportRow) (*subscriber.BatchResult, error) {
	deleted, err := s.store.DeleteByAgentCode(ctx, agentCode)
	if err != nil {
		return nil, fmt.Errorf("failed to replace agent data: %w", err)
	}
	s.logger.Info("agent data cleared",
		zap.Int("agent_code", agentCode), zap.Int64("deleted", deleted))

	return s.ImportSubscribers(ctx, rows)
}

// RefreshCountdowns recomputes days-remaining and status for every
// subscriber against the given reference day. Row failures are
// reported and skipped, never retried.
func (s *SubscriberService) RefreshCountdowns(ctx context.Context, now time.Time) (int, error) {
	s.notifier.Publish(event.New(event.TypeGlobalMsg, "Updating days remain..."))

	rows, err := s.store.ListAll(ctx)
	if err != nil {
		s.notifier.Publish(event.New(event.TypeError, err.Error()))
		return 0, fmt.Errorf("failed to load subscribers: %w", err)
	}

	var mu sync.Mutex
	updated := 0
	var g errgroup.Group
	g.SetLimit(batchLimit)

	for _, row := range rows {
		row := row
		g.Go(func() error {
			days := datewindow.DayCountdown(row.ExpireDate, now)
			status := subscriber.StatusFor(days)
			if err := s.store.UpdateCountdown(ctx, row.ID, days, status); err != nil {
				s.logger.Error("failed to update countdown",
					zap.Int64("id", row.ID), zap.Error(err))
				s.notifier.Publish(event.New(event.TypeError, err.Error()))
				return nil
			}
			mu.Lock()
			updated++
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	s.notifier.Publish(event.New(event.TypeGlobalMsg, "Days remain has been updated successfully."))
	s.invalidateStatusSum(ctx)

	s.logger.Info("countdowns refreshed", zap.Int("updated", updated), zap.Int("total", len(rows)))
	return updated, nil
}

// List returns every subscriber with countdown and status recomputed
// against now. The view is transient; persisted values only change on
// the daily refresh.
func (s *SubscriberService) List(ctx context.Context, now time.Time) ([]subscriber.Subscriber, error) {
	rows, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	return refreshView(rows, now), nil
}

// Search returns matching subscribers with the same transient
// countdown refresh as List.
func (s *SubscriberService) Search(ctx context.Context, term string, now time.Time) ([]subscriber.Subscriber, error) {
	rows, err := s.store.Search(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("failed to search subscribers: %w", err)
	}
	return refreshView(rows, now), nil
}

// StatusSum counts valid vs expired cards across the whole table,
// cached briefly in redis since the UI polls it.
func (s *SubscriberService) StatusSum(ctx context.Context) (subscriber.StatusSum, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, statusSumKey).Result(); err == nil {
			var sum subscriber.StatusSum
			if err := json.Unmarshal([]byte(cached), &sum); err == nil {
				return sum, nil
			}
		}
	}

	rows, err := s.store.ListAgentStatus(ctx)
	if err != nil {
		return subscriber.StatusSum{}, fmt.Errorf("failed to load status rows: %w", err)
	}
	sum := aggregate.StatusCounts(rows)

	if s.cache != nil {
		if payload, err := json.Marshal(sum); err == nil {
			if err := s.cache.Set(ctx, statusSumKey, payload, statusSumTTL).Err(); err != nil {
				s.logger.Warn("failed to cache status sum", zap.Error(err))
			}
		}
	}
	return sum, nil
}

func (s *SubscriberService) buildSubscriber(row subscriber.ImportRow, now time.Time) *subscriber.Subscriber {
	duration := row.Duration
	if duration <= 0 {
		duration = DefaultDuration
	}

	open := datewindow.Truncate(row.OpenDate)
	expire := open.AddDate(0, 0, duration)
	days := datewindow.DayCountdown(expire, now)

	// A still-running card is VALID regardless of what the sheet
	// says; an expired one keeps the imported status when present.
	status := subscriber.StatusValid
	if days <= 0 {
		status = row.Status
		if status == "" {
			status = subscriber.StatusPunishStop
		}
	}

	return &subscriber.Subscriber{
		CustomerName: row.CustomerName,
		AgentName:    row.AgentName,
		AgentCode:    row.AgentCode,
		Phone:        row.Phone,
		Card:         row.Card,
		OpenDate:     open,
		Status:       status,
		DaysRemain:   days,
		Duration:     duration,
		ExpireDate:   expire,
		DateJoined:   now,
	}
}

func (s *SubscriberService) invalidateStatusSum(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, statusSumKey).Err(); err != nil {
		s.logger.Warn("failed to invalidate status sum cache", zap.Error(err))
	}
}

func refreshView(rows []subscriber.Subscriber, now time.Time) []subscriber.Subscriber {
	out := make([]subscriber.Subscriber, len(rows))
	for i, row := range rows {
		row.DaysRemain = datewindow.DayCountdown(row.ExpireDate, now)
		row.Status = subscriber.StatusFor(row.DaysRemain)
		out[i] = row
	}
	return out
}
