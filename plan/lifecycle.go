/*
lifecycle.go - Plan state machine

PURPOSE:
  Governs PaymentPlan status transitions. Legal moves:

    DRAFT  --Activate--> ACTIVE   (generates schedule iff empty)
    DRAFT  --Cancel----> CANCELLED
    ACTIVE --Cancel----> CANCELLED (cascades onto PENDING installments)
    ACTIVE --Hold------> ON_HOLD
    ON_HOLD --Resume---> ACTIVE
    ACTIVE/ON_HOLD --MarkDefaulted--> DEFAULTED (external hook only)

  COMPLETED is reached only through Reconcile, never directly. DEFAULTED is
  never assigned by engine-internal logic; MarkDefaulted exists for the
  caller's business rules.

CANCEL CASCADE:
  Cancelling marks every still-PENDING installment CANCELLED. Installments
  carrying payment history (PARTIALLY_PAID, PAID) are left untouched.
*/
package plan

// Lifecycle drives plan-level transitions.
type Lifecycle struct {
	Schedule ScheduleGenerator
}

// Activate moves a DRAFT plan to ACTIVE, generating the schedule if it is
// currently empty. Re-activating a non-DRAFT plan is an error; the schedule
// guard alone makes repeated generation a no-op.
func (l Lifecycle) Activate(p *PaymentPlan) error {
	if p.Status != PlanDraft {
		return &InvalidTransitionError{PlanID: p.ID, From: p.Status, Op: "activate"}
	}
	if err := l.Schedule.Generate(p); err != nil {
		return err
	}
	p.Status = PlanActive
	return nil
}

// Cancel terminates a DRAFT or ACTIVE plan. Soft-terminal: the plan and its
// paid history survive, only PENDING installments cascade to CANCELLED.
func (l Lifecycle) Cancel(p *PaymentPlan) error {
	if p.Status != PlanDraft && p.Status != PlanActive {
		return &InvalidTransitionError{PlanID: p.ID, From: p.Status, Op: "cancel"}
	}
	for i := range p.Installments {
		if p.Installments[i].Status == InstallmentPending {
			p.Installments[i].Status = InstallmentCancelled
		}
	}
	p.Status = PlanCancelled
	return nil
}

// Hold suspends an ACTIVE plan. Caller-managed; the engine never holds a
// plan on its own.
func (l Lifecycle) Hold(p *PaymentPlan) error {
	if p.Status != PlanActive {
		return &InvalidTransitionError{PlanID: p.ID, From: p.Status, Op: "hold"}
	}
	p.Status = PlanOnHold
	return nil
}

// Resume returns an ON_HOLD plan to ACTIVE.
func (l Lifecycle) Resume(p *PaymentPlan) error {
	if p.Status != PlanOnHold {
		return &InvalidTransitionError{PlanID: p.ID, From: p.Status, Op: "resume"}
	}
	p.Status = PlanActive
	return nil
}

// MarkDefaulted is the external hook for business rules outside this
// engine. Nothing inside the engine calls it.
func (l Lifecycle) MarkDefaulted(p *PaymentPlan) error {
	if p.Status != PlanActive && p.Status != PlanOnHold {
		return &InvalidTransitionError{PlanID: p.ID, From: p.Status, Op: "default"}
	}
	p.Status = PlanDefaulted
	return nil
}

// WaiveInstallment terminally waives one PENDING or PARTIALLY_PAID
// installment. The caller reconciles afterward; waiving can complete a
// plan since the waived remainder no longer counts against it.
func (l Lifecycle) WaiveInstallment(p *PaymentPlan, number int) error {
	ins := p.InstallmentByNumber(number)
	if ins == nil {
		return ErrInstallmentNotFound
	}
	if ins.Status.Terminal() {
		return &InstallmentStateError{PlanID: p.ID, Number: number, Status: ins.Status, Op: "waive"}
	}
	ins.Status = InstallmentWaived
	return nil
}
