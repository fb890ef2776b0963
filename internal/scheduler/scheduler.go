// internal/scheduler/scheduler.go

// Package scheduler drives the daily performance pipeline. The run is
// guarded by a redis lock so only one service instance executes it per
// day even when several are deployed behind the same database.
package scheduler

import (
	"context"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	lockKey = "timesoffice:daily-pipeline"
	lockTTL = 10 * time.Minute
)

// CountdownRefresher recomputes per-subscriber countdowns.
type CountdownRefresher interface {
	RefreshCountdowns(ctx context.Context, now time.Time) (int, error)
}

// PerformanceEngine runs the snapshot and rollup steps.
type PerformanceEngine interface {
	EnsureWeekSeeded(ctx context.Context, today time.Time) error
	TakeDailySnapshot(ctx context.Context, today time.Time) error
	OnWeekBoundary(ctx context.Context, today time.Time) error
}

type Scheduler struct {
	subs   CountdownRefresher
	engine PerformanceEngine
	locker *redislock.Client
	cron   *cron.Cron
	spec   string
	runNow bool
	logger *zap.Logger
}

// New builds a scheduler firing at the given cron spec. When runNow is
// set the pipeline also runs once at startup, which covers the desktop
// style deployment where the machine was off at the scheduled time.
func New(subs CountdownRefresher, engine PerformanceEngine, rdb *redis.Client, spec string, runNow bool, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		subs:   subs,
		engine: engine,
		locker: redislock.New(rdb),
		cron:   cron.New(),
		spec:   spec,
		runNow: runNow,
		logger: logger,
	}
}

// Start registers the daily job and launches the cron loop. Blocks
// only for the optional startup run.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() {
		s.RunDailyPipeline(ctx, time.Now())
	}); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("spec", s.spec))

	if s.runNow {
		s.RunDailyPipeline(ctx, time.Now())
	}
	return nil
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RunDailyPipeline executes the four pipeline steps in order:
// countdown refresh, week seeding, daily snapshot, then rollup when a
// week window closes today. Later steps read what earlier steps wrote,
// so the order is load-bearing. A step failure logs and aborts the
// remainder; the next scheduled run retries from the top.
func (s *Scheduler) RunDailyPipeline(ctx context.Context, today time.Time) {
	lock, err := s.locker.Obtain(ctx, lockKey, lockTTL, nil)
	if err == redislock.ErrNotObtained {
		s.logger.Info("daily pipeline already running elsewhere, skipping")
		return
	}
	if err != nil {
		s.logger.Error("failed to obtain pipeline lock", zap.Error(err))
		return
	}
	defer lock.Release(ctx)

	started := time.Now()
	s.logger.Info("daily pipeline started", zap.Time("today", today))

	if _, err := s.subs.RefreshCountdowns(ctx, today); err != nil {
		s.logger.Error("pipeline aborted at countdown refresh", zap.Error(err))
		return
	}
	if err := s.engine.EnsureWeekSeeded(ctx, today); err != nil {
		s.logger.Error("pipeline aborted at week seeding", zap.Error(err))
		return
	}
	if err := s.engine.TakeDailySnapshot(ctx, today); err != nil {
		s.logger.Error("pipeline aborted at daily snapshot", zap.Error(err))
		return
	}
	if err := s.engine.OnWeekBoundary(ctx, today); err != nil {
		s.logger.Error("pipeline aborted at weekly rollup", zap.Error(err))
		return
	}

	s.logger.Info("daily pipeline finished", zap.Duration("took", time.Since(started)))
}
