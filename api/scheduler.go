/*
scheduler.go - Automated late-fee sweep scheduler

PURPOSE:
  Runs the late-fee sweep on a cron schedule so overdue installments pick
  up fees without manual triggering. The sweep itself is idempotent per
  day (fees are overwritten, not accrued), so overlapping or repeated runs
  are harmless.

CONFIGURATION:
  - Schedule: cron expression, default "@daily"
  - Enabled:  whether the scheduler starts (default true)

SEE ALSO:
  - plan/sweep.go: the sweep itself
  - handlers.go: RunSweep endpoint (manual trigger)
*/
package api

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/warp/installment-engine/plan"
)

// SweepScheduler runs the late-fee sweep on a cron schedule.
type SweepScheduler struct {
	Sweep    *plan.LateFeeSweep
	Runs     SweepRunStore // optional, records completed runs
	Schedule string
	Enabled  bool
	Log      *logrus.Logger

	cron *cron.Cron
}

// NewSweepScheduler creates a daily scheduler.
func NewSweepScheduler(sweep *plan.LateFeeSweep, runs SweepRunStore) *SweepScheduler {
	return &SweepScheduler{
		Sweep:    sweep,
		Runs:     runs,
		Schedule: "@daily",
		Enabled:  true,
		Log:      logrus.StandardLogger(),
	}
}

// Start registers the cron entry and begins running in the background.
func (s *SweepScheduler) Start() error {
	if !s.Enabled {
		s.Log.Info("sweep scheduler disabled, not starting")
		return nil
	}

	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.Schedule, s.runOnce); err != nil {
		return err
	}
	s.cron.Start()
	s.Log.WithField("schedule", s.Schedule).Info("sweep scheduler started")
	return nil
}

// Stop halts the scheduler, waiting for a running sweep to finish.
func (s *SweepScheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.Log.Info("sweep scheduler stopped")
	}
}

// RunNow triggers an immediate sweep (admin/testing).
func (s *SweepScheduler) RunNow() {
	s.runOnce()
}

func (s *SweepScheduler) runOnce() {
	ctx := context.Background()
	report, err := s.Sweep.Run(ctx)
	if err != nil {
		s.Log.WithError(err).Error("scheduled sweep failed")
		return
	}
	if s.Runs != nil {
		if err := s.Runs.SaveSweepRun(ctx, report); err != nil {
			s.Log.WithError(err).Warn("failed to record sweep run")
		}
	}
}
