/*
service.go - Engine facade over store-backed plan operations

PURPOSE:
  Engine ties the pieces together for callers that hold a LockingStore:
  every mutating operation is load -> mutate -> reconcile -> save inside
  the store's per-plan critical section. Handlers and the sweep go through
  Engine rather than composing the parts themselves.
*/
package plan

import "context"

// Engine is the store-backed service surface of the installment engine.
type Engine struct {
	Store     LockingStore
	Clock     Clock
	Lifecycle Lifecycle
	Payments  PaymentApplier
	Fees      LateFeeCalculator
}

func NewEngine(store LockingStore, clock Clock) *Engine {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Engine{Store: store, Clock: clock}
}

func (e *Engine) reconciler() ReconciliationEngine {
	return ReconciliationEngine{Clock: e.Clock}
}

// CreatePlan validates the spec and persists a DRAFT plan.
func (e *Engine) CreatePlan(ctx context.Context, spec PlanSpec) (*PaymentPlan, error) {
	p, err := NewPlan(spec)
	if err != nil {
		return nil, err
	}
	if err := e.Store.SavePlan(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetPlan returns a copy of the aggregate.
func (e *Engine) GetPlan(ctx context.Context, id PlanID) (*PaymentPlan, error) {
	return e.Store.GetPlan(ctx, id)
}

// Activate transitions DRAFT -> ACTIVE, generating the schedule once.
func (e *Engine) Activate(ctx context.Context, id PlanID) error {
	return e.Store.WithPlan(ctx, id, func(p *PaymentPlan) error {
		if err := e.Lifecycle.Activate(p); err != nil {
			return err
		}
		e.reconciler().Reconcile(p)
		return nil
	})
}

// Cancel terminates the plan and cascades onto PENDING installments.
func (e *Engine) Cancel(ctx context.Context, id PlanID) error {
	return e.Store.WithPlan(ctx, id, func(p *PaymentPlan) error {
		if err := e.Lifecycle.Cancel(p); err != nil {
			return err
		}
		e.reconciler().Reconcile(p)
		return nil
	})
}

// Hold suspends an ACTIVE plan.
func (e *Engine) Hold(ctx context.Context, id PlanID) error {
	return e.Store.WithPlan(ctx, id, e.Lifecycle.Hold)
}

// Resume reactivates an ON_HOLD plan.
func (e *Engine) Resume(ctx context.Context, id PlanID) error {
	return e.Store.WithPlan(ctx, id, e.Lifecycle.Resume)
}

// MarkDefaulted is the caller-driven hook; never invoked internally.
func (e *Engine) MarkDefaulted(ctx context.Context, id PlanID) error {
	return e.Store.WithPlan(ctx, id, e.Lifecycle.MarkDefaulted)
}

// RecordPayment applies a payment to one installment and reconciles the
// plan. The returned result reports clamped overpayment, if any.
func (e *Engine) RecordPayment(ctx context.Context, id PlanID, number int, amount Money, method PaymentMethod, reference string) (PaymentResult, error) {
	var result PaymentResult
	err := e.Store.WithPlan(ctx, id, func(p *PaymentPlan) error {
		ins := p.InstallmentByNumber(number)
		if ins == nil {
			return ErrInstallmentNotFound
		}
		res, err := e.Payments.Apply(p.ID, ins, amount, e.Clock.Today(), method, reference)
		if err != nil {
			return err
		}
		result = res
		e.reconciler().Reconcile(p)
		return nil
	})
	return result, err
}

// WaiveInstallment terminally waives one installment and reconciles.
func (e *Engine) WaiveInstallment(ctx context.Context, id PlanID, number int) error {
	return e.Store.WithPlan(ctx, id, func(p *PaymentPlan) error {
		if err := e.Lifecycle.WaiveInstallment(p, number); err != nil {
			return err
		}
		e.reconciler().Reconcile(p)
		return nil
	})
}

// ApplyLateFees recomputes fees on every non-terminal installment of one
// plan and reconciles. Returns the number of installments whose fee
// changed. Idempotent within a day: the fee is overwritten, not accrued.
func (e *Engine) ApplyLateFees(ctx context.Context, id PlanID) (int, error) {
	changed := 0
	err := e.Store.WithPlan(ctx, id, func(p *PaymentPlan) error {
		if p.Status != PlanActive {
			return nil
		}
		today := e.Clock.Today()
		for i := range p.Installments {
			if e.Fees.ApplyLateFee(&p.Installments[i], p.LateFeePolicy, p.LateFeeValue, p.GracePeriodDays, today) {
				changed++
			}
		}
		e.reconciler().Reconcile(p)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}
