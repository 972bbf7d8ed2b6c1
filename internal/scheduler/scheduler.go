// Package scheduler runs the periodic maintenance jobs on a cron schedule.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"eventbooking/internal/domain"
)

// jobTimeout bounds one maintenance run.
const jobTimeout = 5 * time.Minute

// Scheduler triggers MaintenanceService jobs.
type Scheduler struct {
	cron        *cron.Cron
	spec        string
	maintenance domain.MaintenanceService
	logger      *slog.Logger
}

// New creates a scheduler that runs the maintenance jobs on spec (standard five-field
// cron syntax or descriptors such as "@hourly").
func New(maintenance domain.MaintenanceService, spec string, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		spec:        spec,
		maintenance: maintenance,
		logger:      logger,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		s.RunOnce(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "schedule", s.spec, "jobs", len(s.cron.Entries()))
	return nil
}

// Stop waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// RunOnce runs every maintenance job. A failing job is logged and does not stop the others.
func (s *Scheduler) RunOnce(ctx context.Context) {
	if n, err := s.maintenance.RepairEventTimes(ctx); err != nil {
		s.logger.ErrorContext(ctx, "failed to repair event times", "error", err)
	} else if n > 0 {
		s.logger.InfoContext(ctx, "repaired event end times", "count", n)
	}

	if n, err := s.maintenance.PurgeStaleExternalEvents(ctx); err != nil {
		s.logger.ErrorContext(ctx, "failed to purge external events", "error", err)
	} else if n > 0 {
		s.logger.InfoContext(ctx, "purged stale external events", "count", n)
	}
}
