// Package scheduler runs the ledger's periodic batch jobs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/middleware"
	"github.com/google/uuid"
)

// Job is one batch run for every organization with due work.
type Job struct {
	Name string
	Run  func(ctx context.Context, asOf time.Time) (domain.BatchResult, error)
}

// LedgerJobs returns the scheduled-payment and recurring-entry batches.
func LedgerJobs(services *portssvc.ServiceContainer) []Job {
	return []Job{
		{Name: "scheduled_payments", Run: services.Payments.ProcessScheduledPayments},
		{Name: "recurring_entries", Run: services.Recurring.ProcessAllRecurringEntries},
	}
}

// Scheduler runs its jobs once at start and then on every tick.
type Scheduler struct {
	interval time.Duration
	jobs     []Job
	notifier portssvc.NotificationService
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a Scheduler. notifier may be nil.
func New(interval time.Duration, notifier portssvc.NotificationService, logger *slog.Logger, jobs ...Job) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		interval: interval,
		jobs:     jobs,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "scheduler")),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("Scheduler started", slog.Duration("interval", s.interval), slog.Int("jobs", len(s.jobs)))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.RunOnce(ctx)
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce runs every job for today's date. A failing job does not stop the
// ones after it.
func (s *Scheduler) RunOnce(ctx context.Context) {
	asOf := domain.DateOnly(s.now().UTC())
	for _, job := range s.jobs {
		if ctx.Err() != nil {
			return
		}
		runLogger := s.logger.With(slog.String("job", job.Name), slog.String("run_id", uuid.NewString()))
		runCtx := middleware.WithLogger(ctx, runLogger)

		result, err := job.Run(runCtx, asOf)
		if err != nil {
			runLogger.Error("Batch job failed", slog.String("error", err.Error()))
			s.notify(runCtx, domain.Notification{
				Subject:  fmt.Sprintf("Batch job %s failed", job.Name),
				Body:     err.Error(),
				Severity: "error",
				Data:     map[string]any{"job": job.Name, "asOf": asOf.Format(time.DateOnly)},
			})
			continue
		}

		runLogger.Info("Batch job finished",
			slog.Int("processed", result.Processed),
			slog.Int("succeeded", result.Succeeded),
			slog.Int("failed", result.Failed))
		if result.Failed > 0 {
			s.notify(runCtx, domain.Notification{
				Subject:  fmt.Sprintf("Batch job %s: %d of %d items failed", job.Name, result.Failed, result.Processed),
				Severity: "warning",
				Data:     map[string]any{"job": job.Name, "asOf": asOf.Format(time.DateOnly), "failures": result.Failures},
			})
		}
	}
}

func (s *Scheduler) notify(ctx context.Context, n domain.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendNotification(ctx, n); err != nil {
		middleware.GetLoggerFromCtx(ctx).Warn("Failed to send batch notification", slog.String("error", err.Error()))
	}
}
