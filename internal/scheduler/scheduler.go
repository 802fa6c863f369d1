package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/jonboulle/clockwork"

	"github.com/i474232898/weather-briefing/internal/briefing"
)

// Runner is the single invocation the scheduler triggers.
type Runner interface {
	RunOnce(ctx context.Context, now time.Time) briefing.ExitStatus
}

// Scheduler triggers the briefing pipeline on a cron expression. Most
// triggers end as Skipped; the ledger decides which ones publish.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	runner     Runner
	cron       string
	runTimeout time.Duration
	clock      clockwork.Clock
	logger     *slog.Logger
}

// New creates a Scheduler. runTimeout bounds one invocation.
func New(cron string, runner Runner, runTimeout time.Duration, clock clockwork.Clock, logger *slog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler:  s,
		runner:     runner,
		cron:       cron,
		runTimeout: runTimeout,
		clock:      clock,
		logger:     logger,
	}
}

// Start schedules the job and starts the underlying scheduler. ctx is the
// parent of every run; cancelling it aborts the run in flight.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.scheduler.Cron(s.cron).Do(func() {
		s.Trigger(ctx)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", "cron", s.cron)
	return nil
}

// Trigger performs one run immediately.
func (s *Scheduler) Trigger(ctx context.Context) briefing.ExitStatus {
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	status := s.runner.RunOnce(ctx, s.clock.Now())
	if status.Code() != 0 {
		s.logger.Error("scheduled run failed", "status", status.String())
	}
	return status
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
