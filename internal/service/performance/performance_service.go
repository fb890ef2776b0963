// internal/service/performance/performance_service.go
package performance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"timesoffice-service/internal/domain/event"
	"timesoffice-service/internal/domain/performance"
	"timesoffice-service/internal/domain/subscriber"
	"timesoffice-service/internal/pkg/aggregate"
	"timesoffice-service/internal/pkg/datewindow"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const batchLimit = 8

// SubscriberStore is the slice of the subscriber table the engine
// reads: the two daily transition sets and the status projection used
// for first-run seeding.
type SubscriberStore interface {
	ListJustExpired(ctx context.Context) ([]subscriber.Subscriber, error)
	ListOpenedOn(ctx context.Context, day time.Time) ([]subscriber.Subscriber, error)
	ListAgentStatus(ctx context.Context) ([]subscriber.Subscriber, error)
}

// SnapshotStore holds the daily performance rows.
type SnapshotStore interface {
	Insert(ctx context.Context, p *performance.Performance) error
	ListRange(ctx context.Context, from, to time.Time) ([]performance.Performance, error)
}

// TotalStore holds the weekly total rows.
type TotalStore interface {
	Insert(ctx context.Context, t *performance.TotalPerformance) error
	CountInRange(ctx context.Context, from, to time.Time) (int, error)
	ListRange(ctx context.Context, from, to time.Time) ([]performance.TotalPerformance, error)
	ListWeek(ctx context.Context, week, year int) ([]performance.TotalPerformance, error)
	ApplyWeeklyUpdates(ctx context.Context, from, to time.Time, updates []performance.WeeklyTotalUpdate) error
}

// PerformanceService turns raw subscriber rows into per-agent daily
// snapshots and weekly totals. Per week and agent the data moves
// through: no window data -> seeded -> daily snapshots -> week
// totaled.
type PerformanceService struct {
	subs     SubscriberStore
	snaps    SnapshotStore
	totals   TotalStore
	notifier event.Notifier
	logger   *zap.Logger
}

func NewPerformanceService(subs SubscriberStore, snaps SnapshotStore, totals TotalStore, notifier event.Notifier, logger *zap.Logger) *PerformanceService {
	return &PerformanceService{
		subs:     subs,
		snaps:    snaps,
		totals:   totals,
		notifier: notifier,
		logger:   logger,
	}
}

// TakeDailySnapshot records each agent's dormant/active traffic for
// today: cards opened yesterday count as dormant-to-active, cards
// whose countdown just hit -1 count as active-to-dormant. One
// performance row per agent; row failures are reported and skipped.
// The completion event fires exactly once, after every write settles.
func (s *PerformanceService) TakeDailySnapshot(ctx context.Context, today time.Time) error {
	day := datewindow.Truncate(today)

	renewedRows, err := s.subs.ListOpenedOn(ctx, day.AddDate(0, 0, -1))
	if err != nil {
		s.notifier.Publish(event.New(event.TypeError, err.Error()))
		return fmt.Errorf("failed to load renewed subscribers: %w", err)
	}
	expiredRows, err := s.subs.ListJustExpired(ctx)
	if err != nil {
		s.notifier.Publish(event.New(event.TypeError, err.Error()))
		return fmt.Errorf("failed to load expired subscribers: %w", err)
	}

	byCode := func(sub subscriber.Subscriber) int { return sub.AgentCode }
	transitions := aggregate.MergeTransitions(
		aggregate.CountByKey(renewedRows, byCode),
		aggregate.CountByKey(expiredRows, byCode),
	)
	if len(transitions) == 0 {
		s.logger.Info("daily snapshot: no transitions", zap.Time("day", day))
		s.notifier.Publish(event.New(event.TypeGlobalMsg, "No performance changes today."))
		return nil
	}

	var mu sync.Mutex
	inserted, failed := 0, 0
	var g errgroup.Group
	g.SetLimit(batchLimit)

	for _, tr := range transitions {
		tr := tr
		g.Go(func() error {
			row := &performance.Performance{
				AgentName:     tr.AgentName,
				AgentCode:     tr.AgentCode,
				DormantActive: tr.DormantActive,
				ActiveDormant: tr.ActiveDormant,
				GainLoss:      tr.GainLoss,
				Date:          day,
			}
			err := s.snaps.Insert(ctx, row)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				s.logger.Error("failed to insert snapshot row",
					zap.Int("agent_code", tr.AgentCode), zap.Error(err))
				s.notifier.Publish(event.New(event.TypeError, err.Error()))
				return nil
			}
			inserted++
			return nil
		})
	}
	g.Wait()

	s.notifier.Publish(event.New(event.TypePerformanceUpdated, map[string]interface{}{
		"date":     day,
		"inserted": inserted,
		"failed":   failed,
	}))
	s.notifier.Publish(event.New(event.TypeGlobalMsg, "Performance data inserted."))

	s.logger.Info("daily snapshot taken",
		zap.Time("day", day),
		zap.Int("agents", len(transitions)),
		zap.Int("inserted", inserted),
		zap.Int("failed", failed),
	)
	return nil
}

// EnsureWeekSeeded opens the current week window when it has no rows
// yet. The first tracked week seeds from live subscriber status
// counts; every later week copies forward the previous week's closing
// totals, so week n's opening balance equals week n-1's close.
func (s *PerformanceService) EnsureWeekSeeded(ctx context.Context, today time.Time) error {
	day := datewindow.Truncate(today)
	window, ok := datewindow.CurrentWindow(day, datewindow.WindowsFor(day))
	if !ok {
		s.logger.Warn("no active week window, skipping seeding", zap.Time("day", day))
		return nil
	}

	n, err := s.totals.CountInRange(ctx, window.Begin, window.End)
	if err != nil {
		return fmt.Errorf("failed to check week seeding: %w", err)
	}
	if n > 0 {
		return nil
	}

	var prevRows []performance.TotalPerformance
	prevDay := day.AddDate(0, 0, -7)
	if prevWindow, ok := datewindow.CurrentWindow(prevDay, datewindow.WindowsFor(prevDay)); ok {
		prevRows, err = s.totals.ListRange(ctx, prevWindow.Begin, prevWindow.End)
		if err != nil {
			return fmt.Errorf("failed to load previous week totals: %w", err)
		}
	}

	week := datewindow.ISOWeekNumber(window.Begin)
	year := datewindow.ISOWeekYear(window.Begin)

	var seeds []performance.TotalPerformance
	if len(prevRows) == 0 {
		// First tracked week: opening balance from live status counts.
		rows, err := s.subs.ListAgentStatus(ctx)
		if err != nil {
			return fmt.Errorf("failed to load subscriber status: %w", err)
		}
		for _, c := range aggregate.AgentStatusCounts(rows) {
			seeds = append(seeds, performance.TotalPerformance{
				AgentCode: c.AgentCode,
				AgentName: c.AgentName,
				Active:    c.Active,
				Dormant:   c.Dormant,
				Week:      week,
				Year:      year,
				Date:      today,
			})
		}
	} else {
		for _, prev := range prevRows {
			seeds = append(seeds, performance.TotalPerformance{
				AgentCode: prev.AgentCode,
				AgentName: prev.AgentName,
				Active:    prev.TotalActive,
				Dormant:   prev.TotalDormant,
				Week:      week,
				Year:      year,
				Date:      today,
			})
		}
	}

	seeded := 0
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(batchLimit)
	for i := range seeds {
		seed := seeds[i]
		g.Go(func() error {
			if err := s.totals.Insert(ctx, &seed); err != nil {
				s.logger.Error("failed to seed weekly total",
					zap.Int("agent_code", seed.AgentCode), zap.Error(err))
				s.notifier.Publish(event.New(event.TypeError, err.Error()))
				return nil
			}
			mu.Lock()
			seeded++
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	s.notifier.Publish(event.New(event.TypeGlobalMsg, "Weekly totals seeded."))
	s.logger.Info("week seeded",
		zap.Int("week", week), zap.Int("year", year),
		zap.Int("agents", seeded), zap.Bool("first_run", len(prevRows) == 0),
	)
	return nil
}

// RollupWeeklyTotals sums the window's snapshot rows per agent, writes
// the summed transition counters into the window's total rows and
// recomputes the cumulative columns, all in one store transaction.
func (s *PerformanceService) RollupWeeklyTotals(ctx context.Context, window datewindow.Window) error {
	perfRows, err := s.snaps.ListRange(ctx, window.Begin, window.End)
	if err != nil {
		return fmt.Errorf("failed to load snapshot rows: %w", err)
	}
	sums := aggregate.SumByAgentIdentity(perfRows)

	existing, err := s.totals.ListRange(ctx, window.Begin, window.End)
	if err != nil {
		return fmt.Errorf("failed to load weekly totals: %w", err)
	}
	if len(existing) == 0 {
		s.logger.Warn("rollup skipped: window not seeded",
			zap.Time("begin", window.Begin), zap.Time("end", window.End))
		return nil
	}

	byCode := make(map[int]performance.Performance, len(sums))
	for _, sum := range sums {
		byCode[sum.AgentCode] = sum
	}

	updates := make([]performance.WeeklyTotalUpdate, 0, len(existing))
	for _, row := range existing {
		sum := byCode[row.AgentCode] // zero counters when absent
		row.DormantActive = sum.DormantActive
		row.ActiveDormant = sum.ActiveDormant
		row.GainLoss = sum.GainLoss
		row.Recompute()
		updates = append(updates, performance.WeeklyTotalUpdate{
			AgentCode:     row.AgentCode,
			DormantActive: row.DormantActive,
			ActiveDormant: row.ActiveDormant,
			GainLoss:      row.GainLoss,
			TotalActive:   row.TotalActive,
			TotalDormant:  row.TotalDormant,
		})
	}

	if err := s.totals.ApplyWeeklyUpdates(ctx, window.Begin, window.End, updates); err != nil {
		s.notifier.Publish(event.New(event.TypeError, err.Error()))
		return fmt.Errorf("failed to apply weekly rollup: %w", err)
	}

	s.notifier.Publish(event.New(event.TypePerformanceUpdated, map[string]interface{}{
		"window_begin": window.Begin,
		"window_end":   window.End,
		"agents":       len(updates),
	}))
	s.logger.Info("weekly totals rolled up",
		zap.Time("begin", window.Begin), zap.Time("end", window.End),
		zap.Int("agents", len(updates)),
	)
	return nil
}

// OnWeekBoundary rolls up any week window of the current month that
// closes today. Membership is decided on the full date, not the
// day-of-month, so month boundaries cannot trigger a false rollup.
func (s *PerformanceService) OnWeekBoundary(ctx context.Context, today time.Time) error {
	day := datewindow.Truncate(today)
	for _, window := range datewindow.WindowsFor(day) {
		if datewindow.SameDay(window.End, day) {
			if err := s.RollupWeeklyTotals(ctx, window); err != nil {
				return err
			}
		}
	}
	return nil
}

// MonthlyDetails sums the month's weekly totals into one row per
// agent.
func (s *PerformanceService) MonthlyDetails(ctx context.Context, month time.Time) ([]performance.TotalPerformance, error) {
	from, to := datewindow.MonthRange(month)
	rows, err := s.totals.ListRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load monthly totals: %w", err)
	}
	return aggregate.SumTotalsByAgentIdentity(rows), nil
}

// ChartTotals returns the totals tagged with an ISO week and year.
func (s *PerformanceService) ChartTotals(ctx context.Context, week, year int) ([]performance.TotalPerformance, error) {
	return s.totals.ListWeek(ctx, week, year)
}

// RangeTotals returns the totals between two days, inclusive.
func (s *PerformanceService) RangeTotals(ctx context.Context, from, to time.Time) ([]performance.TotalPerformance, error) {
	return s.totals.ListRange(ctx, datewindow.Truncate(from), datewindow.EndOfDay(to))
}

// DailyPerformance returns the snapshot rows of one calendar day.
func (s *PerformanceService) DailyPerformance(ctx context.Context, day time.Time) ([]performance.Performance, error) {
	return s.snaps.ListRange(ctx, datewindow.Truncate(day), datewindow.EndOfDay(day))
}
