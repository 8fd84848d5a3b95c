package scheduler

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/user/image-update-checker/pkg/errors"
)

// Scheduler runs a task on a cron schedule. Signal handling stays with the
// caller, Stop is expected to be driven by context cancellation.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// New creates a scheduler using the standard five-field cron format.
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		cron: cron.New(cron.WithParser(cron.NewParser(
			cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
		))),
		logger: logger,
	}
}

// Start registers the task under the given cron expression and starts firing.
func (s *Scheduler) Start(cronExpr string, task func()) error {
	if _, err := s.cron.AddFunc(cronExpr, task); err != nil {
		return errors.Wrapf("scheduler.Start", err, "invalid cron expression %q", cronExpr)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started", "schedule", cronExpr)

	return nil
}

// Stop stops the scheduler and waits for any running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}

// NextRun returns the next scheduled execution, nil when nothing is registered.
func (s *Scheduler) NextRun() *time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}

	next := entries[0].Next
	return &next
}
