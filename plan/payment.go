/*
payment.go - Applying payments to installments

PURPOSE:
  PaymentApplier mutates exactly one installment per payment and drives its
  status machine (PENDING -> PARTIALLY_PAID -> PAID). It never touches the
  parent plan's aggregates; the caller reconciles afterward.

OVERPAYMENT:
  An amount above the remaining balance is accepted. The excess is clamped
  away (remaining floors at zero) rather than rolled into the next
  installment; the result reports the absorbed excess so callers can
  surface it.
*/
package plan

// PaymentResult reports the outcome of a single payment application.
type PaymentResult struct {
	Number         int
	Applied        Money
	ExcessAbsorbed Money
	Remaining      Money
	Status         InstallmentStatus
}

// PaymentApplier applies monetary payments to installments.
type PaymentApplier struct{}

// Apply records a payment against one installment.
//
// Fails with ErrInvalidAmount when amount <= 0 and with
// InstallmentStateError when the installment is terminal. On success the
// installment's paid/remaining amounts and status are updated and the
// payment metadata is stamped.
func (PaymentApplier) Apply(planID PlanID, ins *Installment, amount Money, date Date, method PaymentMethod, reference string) (PaymentResult, error) {
	if !amount.IsPositive() {
		return PaymentResult{}, ErrInvalidAmount
	}
	if ins.Status.Terminal() {
		return PaymentResult{}, &InstallmentStateError{
			PlanID: planID,
			Number: ins.Number,
			Status: ins.Status,
			Op:     "pay",
		}
	}

	before := ins.RemainingAmount

	ins.AmountPaid = ins.AmountPaid.Add(amount).Round()
	ins.RemainingAmount = ins.TotalAmount.Sub(ins.AmountPaid).Round().ClampZero()

	switch {
	case ins.RemainingAmount.IsZero():
		ins.Status = InstallmentPaid
	case ins.AmountPaid.IsPositive() && ins.AmountPaid.LessThan(ins.TotalAmount):
		ins.Status = InstallmentPartiallyPaid
	}

	d := date
	ins.PaymentDate = &d
	ins.PaymentMethod = method
	ins.PaymentReference = reference

	excess := amount.Sub(before).ClampZero()
	return PaymentResult{
		Number:         ins.Number,
		Applied:        amount,
		ExcessAbsorbed: excess,
		Remaining:      ins.RemainingAmount,
		Status:         ins.Status,
	}, nil
}
