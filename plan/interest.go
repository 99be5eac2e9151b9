package plan

import "github.com/shopspring/decimal"

// =============================================================================
// INTEREST ALLOCATOR - Flat/simple interest, identical per installment
// =============================================================================

// InterestAllocator computes total and per-installment interest using the
// simple/flat policy: totalInterest = financed * rate/100, split evenly.
// This is deliberately NOT a reducing-balance amortization table; that
// would be a new InterestMethod value, not a change here.
type InterestAllocator struct{}

var hundred = decimal.NewFromInt(100)

// Allocate returns (totalInterest, interestPerInstallment), both rounded
// to two digits. n must be positive; callers guard that.
func (InterestAllocator) Allocate(financed Money, annualRatePercent Money, n int) (Money, Money) {
	total := financed.Mul(annualRatePercent.Decimal().Div(hundred)).Round()
	each := total.Div(decimal.NewFromInt(int64(n))).Round()
	return total, each
}
