/*
builder.go - Caller-facing plan construction

PURPOSE:
  PlanBuilder is the validated entry point for creating plans. The raw
  engine keeps its legacy tolerances (N <= 0 generates nothing, silently);
  the builder is where new callers get real validation: at least one
  installment, non-negative amounts, down payment within the total.

  Built plans start in DRAFT with an empty schedule. Activation generates
  the schedule.
*/
package plan

import (
	"fmt"

	"github.com/google/uuid"
)

// PlanSpec carries the caller's terms for a new plan.
type PlanSpec struct {
	PlanNumber  string
	CustomerRef string
	InvoiceRef  string

	StartDate   Date
	TotalAmount Money
	DownPayment Money

	NumberOfInstallments int
	Frequency            Frequency
	InterestRate         Money

	LateFeePolicy   LateFeePolicy
	LateFeeValue    Money
	GracePeriodDays int

	RemainderPolicy RemainderPolicy
}

// NewPlan validates the spec and returns a DRAFT plan.
func NewPlan(spec PlanSpec) (*PaymentPlan, error) {
	if spec.NumberOfInstallments < 1 {
		return nil, ErrInvalidInstallmentCount
	}
	if !spec.Frequency.Valid() {
		return nil, fmt.Errorf("invalid frequency %q", spec.Frequency)
	}
	if spec.TotalAmount.IsNegative() || spec.DownPayment.IsNegative() {
		return nil, fmt.Errorf("%w: amounts must not be negative", ErrInvalidAmount)
	}
	if spec.DownPayment.GreaterThan(spec.TotalAmount) {
		return nil, fmt.Errorf("%w: down payment exceeds total", ErrInvalidAmount)
	}
	if spec.InterestRate.IsNegative() {
		return nil, fmt.Errorf("%w: interest rate must not be negative", ErrInvalidAmount)
	}
	if spec.LateFeePolicy == "" {
		spec.LateFeePolicy = LateFeeNone
	}
	if !spec.LateFeePolicy.Valid() {
		return nil, fmt.Errorf("invalid late fee policy %q", spec.LateFeePolicy)
	}
	if spec.GracePeriodDays < 0 {
		return nil, fmt.Errorf("grace period must not be negative, got %d", spec.GracePeriodDays)
	}
	if spec.RemainderPolicy == "" {
		spec.RemainderPolicy = RemainderDiscard
	}
	if !spec.RemainderPolicy.Valid() {
		return nil, fmt.Errorf("invalid remainder policy %q", spec.RemainderPolicy)
	}
	if spec.StartDate.IsZero() {
		return nil, fmt.Errorf("start date is required")
	}

	planNumber := spec.PlanNumber
	if planNumber == "" {
		planNumber = "PP-" + uuid.NewString()[:8]
	}

	return &PaymentPlan{
		ID:                   PlanID(uuid.NewString()),
		PlanNumber:           planNumber,
		CustomerRef:          spec.CustomerRef,
		InvoiceRef:           spec.InvoiceRef,
		StartDate:            spec.StartDate,
		TotalAmount:          spec.TotalAmount.Round(),
		DownPayment:          spec.DownPayment.Round(),
		FinancedAmount:       spec.TotalAmount.Sub(spec.DownPayment).Round(),
		NumberOfInstallments: spec.NumberOfInstallments,
		Frequency:            spec.Frequency,
		InterestMethod:       InterestSimple,
		InterestRate:         spec.InterestRate,
		LateFeePolicy:        spec.LateFeePolicy,
		LateFeeValue:         spec.LateFeeValue,
		GracePeriodDays:      spec.GracePeriodDays,
		RemainderPolicy:      spec.RemainderPolicy,
		Status:               PlanDraft,
		TotalPaid:            ZeroMoney,
		TotalRemaining:       ZeroMoney,
		TotalLateFees:        ZeroMoney,
	}, nil
}
