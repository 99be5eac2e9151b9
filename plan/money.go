package plan

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Fixed-point monetary amount (scale 2, round half-up)
// =============================================================================

// Money is a currency-less monetary amount. All arithmetic stays in
// decimal space; Round() pins results to two fractional digits with
// half-up rounding. Never constructed from float64 in engine code paths
// that feed invariants.
type Money struct {
	value decimal.Decimal
}

var ZeroMoney = Money{value: decimal.Zero}

func NewMoney(value decimal.Decimal) Money {
	return Money{value: value}
}

func NewMoneyFromInt(units int64) Money {
	return Money{value: decimal.NewFromInt(units)}
}

// NewMoneyFromString parses a decimal string like "1234.56".
func NewMoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid money amount %q: %w", s, err)
	}
	return Money{value: d}, nil
}

// MustMoney parses a decimal string and panics on malformed input.
// For constants and tests only.
func MustMoney(s string) Money {
	m, err := NewMoneyFromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Decimal() decimal.Decimal { return m.value }

func (m Money) Add(o Money) Money           { return Money{value: m.value.Add(o.value)} }
func (m Money) Sub(o Money) Money           { return Money{value: m.value.Sub(o.value)} }
func (m Money) Mul(d decimal.Decimal) Money { return Money{value: m.value.Mul(d)} }
func (m Money) Div(d decimal.Decimal) Money { return Money{value: m.value.Div(d)} }
func (m Money) Neg() Money                  { return Money{value: m.value.Neg()} }

// Round pins the amount to two fractional digits, half-up.
func (m Money) Round() Money { return Money{value: m.value.Round(2)} }

func (m Money) IsZero() bool     { return m.value.IsZero() }
func (m Money) IsNegative() bool { return m.value.IsNegative() }
func (m Money) IsPositive() bool { return m.value.IsPositive() }

func (m Money) Equal(o Money) bool       { return m.value.Equal(o.value) }
func (m Money) GreaterThan(o Money) bool { return m.value.GreaterThan(o.value) }
func (m Money) LessThan(o Money) bool    { return m.value.LessThan(o.value) }

func (m Money) Min(o Money) Money {
	if m.LessThan(o) {
		return m
	}
	return o
}

func (m Money) Max(o Money) Money {
	if m.GreaterThan(o) {
		return m
	}
	return o
}

// ClampZero floors the amount at zero. Used for remaining balances.
func (m Money) ClampZero() Money {
	if m.IsNegative() {
		return ZeroMoney
	}
	return m
}

// String renders with two fractional digits ("50.00").
func (m Money) String() string { return m.value.StringFixed(2) }

// MarshalJSON / UnmarshalJSON serialize as a JSON string with two
// fractional digits, so DTO round trips are exact.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.value.StringFixed(2) + `"`), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid money amount %q: %w", s, err)
	}
	m.value = d
	return nil
}
