/*
reconcile.go - Plan aggregate recomputation

PURPOSE:
  Recomputes totalPaid, totalRemaining and totalLateFees from the
  authoritative installment list and drives the ACTIVE -> COMPLETED
  transition. Pure with respect to its inputs: same plan in, same totals
  out, no hidden state.

CONTRACT:
  Call after every installment mutation (payment, waive, fee application,
  cancel). Remaining is summed over non-terminal installments only, so
  cancelled and waived remainders do not keep a plan open.
*/
package plan

// ReconciliationEngine recomputes plan-level aggregates.
type ReconciliationEngine struct {
	Clock Clock
}

// Reconcile rebuilds the plan's totals. When nothing remains outstanding
// and the plan has at least one installment, an ACTIVE or ON_HOLD plan
// moves to COMPLETED with a completion timestamp.
func (r ReconciliationEngine) Reconcile(p *PaymentPlan) {
	totalPaid := ZeroMoney
	totalRemaining := ZeroMoney
	totalLateFees := ZeroMoney

	for i := range p.Installments {
		ins := &p.Installments[i]
		totalPaid = totalPaid.Add(ins.AmountPaid)
		totalLateFees = totalLateFees.Add(ins.LateFee)
		switch ins.Status {
		case InstallmentCancelled, InstallmentWaived:
			// Remainder forgiven.
		default:
			totalRemaining = totalRemaining.Add(ins.RemainingAmount)
		}
	}

	p.TotalPaid = totalPaid.Round()
	p.TotalRemaining = totalRemaining.Round()
	p.TotalLateFees = totalLateFees.Round()

	settled := !p.TotalRemaining.IsPositive() && len(p.Installments) > 0
	if settled && (p.Status == PlanActive || p.Status == PlanOnHold) {
		p.Status = PlanCompleted
		today := r.today()
		p.CompletedAt = &today
	}
}

func (r ReconciliationEngine) today() Date {
	if r.Clock != nil {
		return r.Clock.Today()
	}
	return SystemClock{}.Today()
}
