/*
sweep.go - Batch late-fee recomputation over all active plans

PURPOSE:
  Walks every ACTIVE plan, recomputes late fees and reconciles. Plans are
  independent aggregates, so distinct plans are processed concurrently by
  a bounded worker pool; each plan is still mutated under its own
  single-writer lock inside Engine.ApplyLateFees.

FAILURE MODEL:
  Per-plan, continue-on-error. One plan failing (conflict, store error)
  never aborts the batch; failures are collected into the report.
*/
package plan

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SweepFailure records one plan that could not be processed.
type SweepFailure struct {
	PlanID PlanID `json:"plan_id"`
	Err    string `json:"error"`
}

// SweepReport summarizes one sweep run.
type SweepReport struct {
	RunID       string         `json:"run_id"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt time.Time      `json:"completed_at"`
	PlansSeen    int            `json:"plans_seen"`
	PlansChanged int            `json:"plans_with_fee_changes"`
	FeesChanged  int            `json:"installments_changed"`
	Failures    []SweepFailure `json:"failures,omitempty"`
}

// SweepRun is the persisted audit record of one completed sweep.
type SweepRun struct {
	ID           string    `json:"id"`
	StartedAt    time.Time `json:"started_at"`
	CompletedAt  time.Time `json:"completed_at"`
	PlansSeen    int       `json:"plans_seen"`
	PlansChanged int       `json:"plans_changed"`
	FeesChanged  int       `json:"fees_changed"`
	Failures     int       `json:"failures"`
}

// LateFeeSweep batch-applies late fees across plans.
type LateFeeSweep struct {
	Engine  *Engine
	Workers int
	Log     *logrus.Logger
}

func NewLateFeeSweep(engine *Engine) *LateFeeSweep {
	return &LateFeeSweep{Engine: engine, Workers: 4, Log: logrus.StandardLogger()}
}

// Run processes every ACTIVE plan once and returns the report.
func (s *LateFeeSweep) Run(ctx context.Context) (SweepReport, error) {
	report := SweepReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}

	ids, err := s.Engine.Store.ListPlansByStatus(ctx, PlanActive)
	if err != nil {
		return report, err
	}
	report.PlansSeen = len(ids)

	workers := s.Workers
	if workers < 1 {
		workers = 1
	}

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		jobs = make(chan PlanID)
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				changed, err := s.Engine.ApplyLateFees(ctx, id)
				mu.Lock()
				if err != nil {
					report.Failures = append(report.Failures, SweepFailure{PlanID: id, Err: err.Error()})
				} else if changed > 0 {
					report.PlansChanged++
					report.FeesChanged += changed
				}
				mu.Unlock()
				if err != nil {
					s.log().WithFields(logrus.Fields{
						"run_id":  report.RunID,
						"plan_id": id,
					}).WithError(err).Warn("late fee sweep: plan failed")
				}
			}
		}()
	}

	for _, id := range ids {
		jobs <- id
	}
	close(jobs)
	wg.Wait()

	report.CompletedAt = time.Now().UTC()
	s.log().WithFields(logrus.Fields{
		"run_id":   report.RunID,
		"plans":    report.PlansSeen,
		"changed":  report.FeesChanged,
		"failures": len(report.Failures),
	}).Info("late fee sweep completed")
	return report, nil
}

func (s *LateFeeSweep) log() *logrus.Logger {
	if s.Log != nil {
		return s.Log
	}
	return logrus.StandardLogger()
}
