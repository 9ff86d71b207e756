// AngelaMos | 2026
// sweeper.go

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lesartilleurs/club-api/internal/config"
	"github.com/lesartilleurs/club-api/internal/core"
)

const sweepLockKey = "lock:refresh_token_sweep"

type Cleaner interface {
	Cleanup(ctx context.Context, retention time.Duration) (int64, error)
}

// Locker hands out a lock shared by every replica. A nil Locker on the
// Sweeper restricts exclusion to this process.
type Locker interface {
	TryLock(
		ctx context.Context,
		key string,
		ttl time.Duration,
	) (release func(context.Context) error, ok bool, err error)
}

// Sweeper physically deletes refresh token records that expired longer ago
// than the retention window. At most one sweep runs at a time.
type Sweeper struct {
	cleaner Cleaner
	locker  Locker
	config  config.SweeperConfig
	logger  *slog.Logger

	running sync.Mutex
	cron    *cron.Cron
}

func NewSweeper(
	cleaner Cleaner,
	locker Locker,
	cfg config.SweeperConfig,
	logger *slog.Logger,
) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}

	return &Sweeper{
		cleaner: cleaner,
		locker:  locker,
		config:  cfg,
		logger:  logger,
	}
}

// RunOnce performs a single sweep and returns the number of deleted records.
// It returns ErrSweepInProgress when another sweep holds the lock.
func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	if !s.running.TryLock() {
		core.SweepRunsTotal.WithLabelValues("skipped").Inc()
		return 0, ErrSweepInProgress
	}
	defer s.running.Unlock()

	ctx, span := core.StartSpan(ctx, tracerName, "auth.sweep")
	defer span.End()

	if s.locker != nil {
		release, ok, err := s.locker.TryLock(ctx, sweepLockKey, s.config.LockTTL)
		if err != nil {
			core.SweepRunsTotal.WithLabelValues(resultError).Inc()
			core.SetSpanError(ctx, err)
			s.logger.ErrorContext(ctx, "refresh token sweep lock failed", "error", err)
			return 0, fmt.Errorf("sweep: %w", err)
		}
		if !ok {
			core.SweepRunsTotal.WithLabelValues("skipped").Inc()
			return 0, ErrSweepInProgress
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.logger.WarnContext(ctx, "refresh token sweep unlock failed", "error", err)
			}
		}()
	}

	start := time.Now()
	deleted, err := s.cleaner.Cleanup(ctx, s.config.Retention)
	if err != nil {
		core.SweepRunsTotal.WithLabelValues(resultError).Inc()
		core.SetSpanError(ctx, err)
		s.logger.ErrorContext(ctx, "refresh token sweep failed", "error", err)
		return 0, fmt.Errorf("sweep: %w", err)
	}

	core.SweepRunsTotal.WithLabelValues(resultSuccess).Inc()
	core.SweepDeletedTotal.Add(float64(deleted))

	if deleted > 0 {
		s.logger.InfoContext(ctx, "refresh token sweep completed",
			"deleted", deleted,
			"retention", s.config.Retention.String(),
			"duration", time.Since(start).String(),
		)
	} else {
		s.logger.DebugContext(ctx, "refresh token sweep found nothing to delete")
	}

	return deleted, nil
}

// Start schedules RunOnce on the configured cron expression, evaluated in UTC.
func (s *Sweeper) Start(ctx context.Context) error {
	logger := cronLogger{logger: s.logger}

	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(logger),
		cron.WithChain(cron.SkipIfStillRunning(logger)),
	)

	_, err := c.AddFunc(s.config.Schedule, func() {
		//nolint:errcheck // outcome is logged and counted inside RunOnce
		_, _ = s.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule sweeper %q: %w", s.config.Schedule, err)
	}

	s.cron = c
	c.Start()

	s.logger.Info("refresh token sweeper scheduled",
		"schedule", s.config.Schedule,
		"retention", s.config.Retention.String(),
	)

	return nil
}

// Stop waits for a running sweep to finish or ctx to end.
func (s *Sweeper) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}

	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
