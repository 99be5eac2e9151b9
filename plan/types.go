/*
Package plan implements the installment payment-plan engine.

PURPOSE:
  Given a financed amount, the engine produces a deterministic amortization
  schedule, applies payments against it, recomputes late fees, and keeps the
  plan- and installment-level state machines consistent. The engine is pure
  computation over in-memory aggregates; persistence is a caller concern
  behind the PlanStore interface.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: fixed-point monetary amount (money.go)
  - PaymentPlan: aggregate root, exclusively owns its Installments
  - Installment: one scheduled payment with its own status lifecycle
  - Frequency / LateFeePolicy / statuses: closed enum types

OWNERSHIP:
  A PaymentPlan owns its Installments as a slice. External code addresses an
  installment only by (PlanID, InstallmentNumber); there are no free-floating
  installment references.

SEE ALSO:
  - schedule.go:  due-date and principal generation
  - payment.go:   applying payments to installments
  - lifecycle.go: plan state machine
  - reconcile.go: aggregate totals recomputation
*/
package plan

// =============================================================================
// IDENTIFIERS
// =============================================================================

type PlanID string

// =============================================================================
// ENUMS - Closed status and policy sets
// =============================================================================

type PlanStatus string

const (
	PlanDraft     PlanStatus = "DRAFT"
	PlanActive    PlanStatus = "ACTIVE"
	PlanCompleted PlanStatus = "COMPLETED"
	PlanCancelled PlanStatus = "CANCELLED"
	PlanOnHold    PlanStatus = "ON_HOLD"
	PlanDefaulted PlanStatus = "DEFAULTED"
)

func (s PlanStatus) Valid() bool {
	switch s {
	case PlanDraft, PlanActive, PlanCompleted, PlanCancelled, PlanOnHold, PlanDefaulted:
		return true
	}
	return false
}

// Terminal reports whether no further plan transitions are legal.
func (s PlanStatus) Terminal() bool {
	return s == PlanCompleted || s == PlanCancelled
}

type InstallmentStatus string

const (
	InstallmentPending       InstallmentStatus = "PENDING"
	InstallmentPartiallyPaid InstallmentStatus = "PARTIALLY_PAID"
	InstallmentPaid          InstallmentStatus = "PAID"
	InstallmentCancelled     InstallmentStatus = "CANCELLED"
	InstallmentWaived        InstallmentStatus = "WAIVED"
)

func (s InstallmentStatus) Valid() bool {
	switch s {
	case InstallmentPending, InstallmentPartiallyPaid, InstallmentPaid,
		InstallmentCancelled, InstallmentWaived:
		return true
	}
	return false
}

// Terminal reports whether the installment can never change again.
// PAID, CANCELLED and WAIVED are all terminal.
func (s InstallmentStatus) Terminal() bool {
	return s == InstallmentPaid || s == InstallmentCancelled || s == InstallmentWaived
}

type Frequency string

const (
	FrequencyDaily      Frequency = "DAILY"
	FrequencyWeekly     Frequency = "WEEKLY"
	FrequencyBiweekly   Frequency = "BIWEEKLY"
	FrequencyMonthly    Frequency = "MONTHLY"
	FrequencyQuarterly  Frequency = "QUARTERLY"
	FrequencySemiannual Frequency = "SEMIANNUAL"
	FrequencyAnnual     Frequency = "ANNUAL"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly,
		FrequencyQuarterly, FrequencySemiannual, FrequencyAnnual:
		return true
	}
	return false
}

type LateFeePolicy string

const (
	LateFeeNone        LateFeePolicy = "NONE"
	LateFeeFixed       LateFeePolicy = "FIXED"
	LateFeePercentage  LateFeePolicy = "PERCENTAGE"
	LateFeeCompounding LateFeePolicy = "COMPOUNDING"
)

func (p LateFeePolicy) Valid() bool {
	switch p {
	case LateFeeNone, LateFeeFixed, LateFeePercentage, LateFeeCompounding:
		return true
	}
	return false
}

// InterestMethod names the interest allocation policy. Only simple/flat
// interest is implemented; the enum exists so a reducing-balance method is
// an explicit new value rather than a silent behavior change.
type InterestMethod string

const (
	InterestSimple InterestMethod = "SIMPLE"
)

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "CASH"
	PaymentCard     PaymentMethod = "CARD"
	PaymentTransfer PaymentMethod = "TRANSFER"
	PaymentOther    PaymentMethod = "OTHER"
)

// =============================================================================
// INSTALLMENT
// =============================================================================

// Installment is one scheduled payment within a plan. Identity is
// (plan, Number); Number increases monotonically from 1.
type Installment struct {
	Number          int
	DueDate         Date
	PrincipalAmount Money
	InterestAmount  Money
	LateFee         Money
	TotalAmount     Money // principal + interest + lateFee
	AmountPaid      Money
	RemainingAmount Money // max(0, TotalAmount - AmountPaid)
	Status          InstallmentStatus

	// Payment metadata, set on the most recent payment.
	PaymentDate      *Date
	PaymentMethod    PaymentMethod
	PaymentReference string
}

// Overdue is the derived predicate: not settled and past due. It is never
// stored as a status.
func (ins *Installment) Overdue(today Date) bool {
	if ins.Status.Terminal() {
		return false
	}
	return today.After(ins.DueDate)
}

// DaysOverdue returns 0 when not overdue.
func (ins *Installment) DaysOverdue(today Date) int {
	if !ins.Overdue(today) {
		return 0
	}
	return DaysBetween(ins.DueDate, today)
}

// recalcTotals rebuilds TotalAmount and RemainingAmount after a change to
// any component amount.
func (ins *Installment) recalcTotals() {
	ins.TotalAmount = ins.PrincipalAmount.Add(ins.InterestAmount).Add(ins.LateFee).Round()
	ins.RemainingAmount = ins.TotalAmount.Sub(ins.AmountPaid).Round().ClampZero()
}

// =============================================================================
// PAYMENT PLAN - Aggregate root
// =============================================================================

type PaymentPlan struct {
	ID         PlanID
	PlanNumber string

	// Opaque foreign keys; not owned by this engine.
	CustomerRef string
	InvoiceRef  string

	StartDate Date
	EndDate   Date

	TotalAmount    Money
	DownPayment    Money
	FinancedAmount Money // TotalAmount - DownPayment

	NumberOfInstallments int
	Frequency            Frequency

	InterestMethod InterestMethod
	InterestRate   Money // annual rate in percent, e.g. 12.50
	TotalInterest  Money

	LateFeePolicy   LateFeePolicy
	LateFeeValue    Money
	GracePeriodDays int

	RemainderPolicy RemainderPolicy

	Status      PlanStatus
	CompletedAt *Date

	// Aggregated totals, recomputed by Reconcile. Never hand-edited.
	TotalPaid     Money
	TotalRemaining Money
	TotalLateFees Money

	Installments []Installment

	// Version supports the store's optimistic concurrency check.
	Version int
}

// InstallmentByNumber returns a pointer into the owned slice, or nil.
// Callers must reconcile after mutating through it.
func (p *PaymentPlan) InstallmentByNumber(n int) *Installment {
	for i := range p.Installments {
		if p.Installments[i].Number == n {
			return &p.Installments[i]
		}
	}
	return nil
}
