/*
schedule.go - Amortization schedule generation

PURPOSE:
  Turns (financed amount, count, frequency, start date, interest rate) into
  the ordered installment list. Generation is deterministic and idempotent:
  a plan that already has installments is left untouched.

DUE-DATE MATH:
  Every month-based frequency goes through Date.AddMonths with its total
  month offset computed from the start date, never by stepping from the
  previous due date. Stepping would compound the day clamp (Jan 31 -> Feb 29
  -> Mar 29); offsetting from the start keeps Mar 31. Day-based frequencies
  add fixed day counts.

ROUNDING:
  Principal and interest per installment are financed/N and interest/N
  rounded to two digits. By default the division remainder is NOT assigned
  to the last installment; that matches the historical behavior this engine
  replaces. RemainderLastInstallment opts into absorption for new plans.

SEE ALSO:
  - interest.go:  total interest computation
  - calendar.go:  AddMonths clamping
*/
package plan

import "github.com/shopspring/decimal"

// RemainderPolicy controls where the rounding remainder of financed/N goes.
type RemainderPolicy string

const (
	// RemainderDiscard preserves the legacy drift: every installment gets
	// the rounded quotient and the residual cents are unassigned.
	RemainderDiscard RemainderPolicy = "DISCARD"

	// RemainderLastInstallment assigns the residual to the final
	// installment so that principal sums exactly to the financed amount.
	RemainderLastInstallment RemainderPolicy = "LAST_INSTALLMENT"
)

func (p RemainderPolicy) Valid() bool {
	return p == RemainderDiscard || p == RemainderLastInstallment
}

// ScheduleGenerator builds installment schedules onto plans.
type ScheduleGenerator struct{}

// Generate populates plan.Installments and plan.EndDate.
//
// Contract:
//   - N <= 0 generates nothing and returns nil (legacy behavior; the
//     builder is where new callers get N >= 1 validation).
//   - A non-empty schedule is a no-op, making activation idempotent.
func (g ScheduleGenerator) Generate(p *PaymentPlan) error {
	if len(p.Installments) > 0 {
		return nil
	}
	n := p.NumberOfInstallments
	if n <= 0 {
		return nil
	}

	nDec := decimal.NewFromInt(int64(n))
	principalEach := p.FinancedAmount.Div(nDec).Round()

	alloc := InterestAllocator{}
	totalInterest, interestEach := alloc.Allocate(p.FinancedAmount, p.InterestRate, n)
	p.TotalInterest = totalInterest

	p.Installments = make([]Installment, 0, n)
	for i := 0; i < n; i++ {
		principal := principalEach
		if i == n-1 && p.RemainderPolicy == RemainderLastInstallment {
			assigned := principalEach.Mul(decimal.NewFromInt(int64(n - 1)))
			principal = p.FinancedAmount.Sub(assigned).Round()
		}

		ins := Installment{
			Number:          i + 1,
			DueDate:         dueDateAt(p.StartDate, p.Frequency, i),
			PrincipalAmount: principal,
			InterestAmount:  interestEach,
			LateFee:         ZeroMoney,
			AmountPaid:      ZeroMoney,
			Status:          InstallmentPending,
		}
		ins.recalcTotals()
		p.Installments = append(p.Installments, ins)
	}

	p.EndDate = p.Installments[n-1].DueDate
	return nil
}

// dueDateAt computes the due date for zero-based installment index i.
// Month-based frequencies are total offsets from the start date; the
// quarterly due date at index i equals the monthly due date at index i*3.
func dueDateAt(start Date, freq Frequency, i int) Date {
	switch freq {
	case FrequencyDaily:
		return start.AddDays(i + 1)
	case FrequencyWeekly:
		return start.AddDays((i + 1) * 7)
	case FrequencyBiweekly:
		return start.AddDays((i + 1) * 14)
	case FrequencyMonthly:
		return start.AddMonths(i + 1)
	case FrequencyQuarterly:
		return start.AddMonths((i + 1) * 3)
	case FrequencySemiannual:
		return start.AddMonths((i + 1) * 6)
	case FrequencyAnnual:
		return start.AddMonths((i + 1) * 12)
	default:
		// Enum is closed; reaching here is a programmer error.
		panic("unknown frequency: " + string(freq))
	}
}
