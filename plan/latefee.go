/*
latefee.go - Late fee computation

PURPOSE:
  Computes the late fee owed on a single installment given the plan's fee
  policy, grace period and the injected "today".

OVERWRITE, NOT ACCRUE:
  ApplyLateFee replaces the installment's LateFee with the freshly computed
  value for the current daysOverdue. Running a sweep twice on the same day
  therefore yields the same fee, never a doubled one. TotalAmount and
  RemainingAmount follow from the new fee.

POLICIES:
  NONE        -> 0
  FIXED       -> feeValue, independent of amount and days
  PERCENTAGE  -> remaining * feeValue/100
  COMPOUNDING -> remaining * (feeValue/365/100) * daysOverdue
                 (simple daily-rate multiplication despite the name; the
                 formula is contractual)
*/
package plan

import "github.com/shopspring/decimal"

var daysPerYear = decimal.NewFromInt(365)

// LateFeeCalculator computes per-installment late fees.
type LateFeeCalculator struct{}

// Compute returns the fee owed as of today. Zero unless the installment is
// overdue (derived predicate) and past the grace period.
func (LateFeeCalculator) Compute(ins *Installment, policy LateFeePolicy, feeValue Money, gracePeriodDays int, today Date) Money {
	daysOverdue := ins.DaysOverdue(today)
	if daysOverdue <= gracePeriodDays {
		return ZeroMoney
	}

	// Base the fee on what is owed before any previously applied fee, so
	// recomputation does not feed fees back into themselves.
	owed := ins.PrincipalAmount.Add(ins.InterestAmount).Sub(ins.AmountPaid).ClampZero()

	switch policy {
	case LateFeeNone:
		return ZeroMoney
	case LateFeeFixed:
		return feeValue.Round()
	case LateFeePercentage:
		return owed.Mul(feeValue.Decimal().Div(hundred)).Round()
	case LateFeeCompounding:
		dailyRate := feeValue.Decimal().Div(daysPerYear).Div(hundred)
		return owed.Mul(dailyRate).Mul(decimal.NewFromInt(int64(daysOverdue))).Round()
	default:
		panic("unknown late fee policy: " + string(policy))
	}
}

// ApplyLateFee recomputes and overwrites the fee on one installment,
// rebuilding its totals. Returns true when the stored fee changed.
func (c LateFeeCalculator) ApplyLateFee(ins *Installment, policy LateFeePolicy, feeValue Money, gracePeriodDays int, today Date) bool {
	if ins.Status.Terminal() {
		return false
	}
	fee := c.Compute(ins, policy, feeValue, gracePeriodDays, today)
	if fee.Equal(ins.LateFee) {
		return false
	}
	ins.LateFee = fee
	ins.recalcTotals()
	return true
}
