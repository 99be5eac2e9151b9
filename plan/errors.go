/*
errors.go - Centralized error types for the installment engine

PURPOSE:
  All engine error types in one place. Expected business conditions come
  back as errors that callers match with errors.Is; only programmer errors
  (invalid enum values reaching the engine) panic.

ERROR CATEGORIES:
  1. Input errors      - non-positive amounts, bad installment counts
  2. Lookup errors     - plan/installment not found (store-side)
  3. Transition errors - illegal state machine moves
  4. Conflict errors   - optimistic locking, surfaced by stores

SEE ALSO:
  - lifecycle.go: raises InvalidTransitionError
  - store.go:     stores return ErrPlanNotFound / ErrConflict
*/
package plan

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidAmount is returned when a payment amount is zero or negative.
	ErrInvalidAmount = errors.New("payment amount must be positive")

	// ErrInvalidInstallmentCount is returned by the builder when the
	// requested installment count is below one.
	ErrInvalidInstallmentCount = errors.New("installment count must be at least 1")

	// ErrPlanNotFound is returned by stores when no plan matches the id.
	ErrPlanNotFound = errors.New("payment plan not found")

	// ErrInstallmentNotFound is returned when an installment number does not
	// exist within a plan.
	ErrInstallmentNotFound = errors.New("installment not found")

	// ErrInvalidTransition is the sentinel wrapped by InvalidTransitionError.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInstallmentSettled is returned when paying or waiving an
	// installment already in a terminal status.
	ErrInstallmentSettled = errors.New("installment is settled")

	// ErrConflict is returned by stores when an optimistic version check
	// fails. Retry against a fresh read.
	ErrConflict = errors.New("concurrent modification detected")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// InvalidTransitionError reports an illegal plan status transition.
type InvalidTransitionError struct {
	PlanID PlanID
	From   PlanStatus
	Op     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s plan %s in status %s", e.Op, e.PlanID, e.From)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// InstallmentStateError reports an operation against a terminal installment.
type InstallmentStateError struct {
	PlanID PlanID
	Number int
	Status InstallmentStatus
	Op     string
}

func (e *InstallmentStateError) Error() string {
	return fmt.Sprintf("cannot %s installment %d of plan %s in status %s",
		e.Op, e.Number, e.PlanID, e.Status)
}

func (e *InstallmentStateError) Unwrap() error { return ErrInstallmentSettled }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is due to invalid caller input or
// an illegal operation, as opposed to infrastructure failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidInstallmentCount) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrInstallmentSettled)
}

// IsNotFound reports whether the error indicates a missing aggregate.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPlanNotFound) || errors.Is(err, ErrInstallmentNotFound)
}

// IsRetryable reports whether the operation might succeed against a fresh
// read of the plan.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}
