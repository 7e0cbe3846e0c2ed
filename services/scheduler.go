package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
)

type StatusSweeper interface {
	SweepStatusesByDate(ctx context.Context) error
}

// StatusScheduler runs the date based status sweep on a fixed interval.
type StatusScheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
}

func NewStatusScheduler(ctx context.Context, sweeper StatusSweeper, interval time.Duration, clock clockwork.Clock, logger *slog.Logger) (*StatusScheduler, error) {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := []gocron.SchedulerOption{gocron.WithLocation(time.UTC)}
	if clock != nil {
		opts = append(opts, gocron.WithClock(clock))
	}
	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if err := sweeper.SweepStatusesByDate(ctx); err != nil {
				logger.Error("Status sweep finished with errors", slog.Any("error", err))
			}
		}),
		gocron.WithName("tournament-status-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to schedule status sweep: %w", err)
	}

	return &StatusScheduler{scheduler: s, logger: logger}, nil
}

func (s *StatusScheduler) Start() {
	s.scheduler.Start()
	s.logger.Info("Status scheduler started")
}

func (s *StatusScheduler) Stop() error {
	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	s.logger.Info("Status scheduler stopped")
	return nil
}
