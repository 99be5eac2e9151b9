/*
store.go - Persistence boundary for plan aggregates

PURPOSE:
  Defines the interface between the engine and whatever persists plans.
  The engine mutates in-memory aggregates; stores load and save them.
  Transactional semantics belong to the store.

SINGLE-WRITER DISCIPLINE:
  Installment mutation followed by reconciliation is not atomic from the
  engine's point of view, so every mutation of a given plan must be
  serialized. WithPlan is the contract for that: load, mutate, save under
  a per-plan critical section (row lock, mutex, or optimistic version
  check). SavePlan implementations compare the aggregate's Version against
  the stored one and return ErrConflict on mismatch; callers retry against
  a fresh read.

IMPLEMENTATIONS:
  - plan/store: in-memory, per-plan mutex (tests, dev)
  - store/sqlite: SQLite with an optimistic version column
*/
package plan

import "context"

// PlanStore handles persistence of PaymentPlan aggregates. Plans are never
// deleted; cancellation is a status, not a removal.
type PlanStore interface {
	// GetPlan returns a copy of the aggregate, ErrPlanNotFound if missing.
	GetPlan(ctx context.Context, id PlanID) (*PaymentPlan, error)

	// SavePlan persists the aggregate and its installments. Returns
	// ErrConflict when the stored version has moved past p.Version.
	SavePlan(ctx context.Context, p *PaymentPlan) error

	// ListPlans returns all plans, newest first.
	ListPlans(ctx context.Context) ([]*PaymentPlan, error)

	// ListPlansByStatus returns plan ids in the given status. The sweep
	// works from ids so each plan is re-read under its own lock.
	ListPlansByStatus(ctx context.Context, status PlanStatus) ([]PlanID, error)
}

// LockingStore extends PlanStore with the single-writer helper.
type LockingStore interface {
	PlanStore

	// WithPlan loads the plan, runs fn against it, and saves it, all
	// while holding the plan's write lock. If fn errors, nothing is saved.
	WithPlan(ctx context.Context, id PlanID, fn func(*PaymentPlan) error) error
}
