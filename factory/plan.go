/*
Package factory provides JSON to Go plan-template conversion.

PURPOSE:
  Converts JSON plan templates into plan.PlanSpec values. Finance staff can
  define installment products ("12 months monthly, 12% flat, fixed late
  fee") as data; the factory validates and fills defaults so callers only
  supply the per-sale fields (amounts, dates, references).

JSON SCHEMA:
  {
    "name": "standard-12m",
    "number_of_installments": 12,
    "frequency": "MONTHLY",
    "interest_rate": "12.00",
    "late_fee_policy": "FIXED",
    "late_fee_value": "50.00",
    "grace_period_days": 5,
    "remainder_policy": "DISCARD"
  }

SEE ALSO:
  - plan/builder.go: PlanSpec validation
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/warp/installment-engine/plan"
)

// TemplateJSON is the JSON representation of a plan product.
type TemplateJSON struct {
	Name                 string `json:"name"`
	NumberOfInstallments int    `json:"number_of_installments"`
	Frequency            string `json:"frequency"`
	InterestRate         string `json:"interest_rate,omitempty"`
	LateFeePolicy        string `json:"late_fee_policy,omitempty"`
	LateFeeValue         string `json:"late_fee_value,omitempty"`
	GracePeriodDays      int    `json:"grace_period_days,omitempty"`
	RemainderPolicy      string `json:"remainder_policy,omitempty"`
}

// Sale carries the per-sale fields merged onto a template.
type Sale struct {
	PlanNumber  string
	CustomerRef string
	InvoiceRef  string
	StartDate   plan.Date
	TotalAmount plan.Money
	DownPayment plan.Money
}

// PlanFactory converts JSON templates into plan specs.
type PlanFactory struct{}

func NewPlanFactory() *PlanFactory {
	return &PlanFactory{}
}

// ParseTemplate parses a JSON template string.
func (f *PlanFactory) ParseTemplate(jsonStr string) (TemplateJSON, error) {
	var tj TemplateJSON
	if err := json.Unmarshal([]byte(jsonStr), &tj); err != nil {
		return tj, fmt.Errorf("failed to parse plan template JSON: %w", err)
	}
	if tj.Name == "" {
		return tj, fmt.Errorf("plan template requires a name")
	}
	if tj.NumberOfInstallments < 1 {
		return tj, plan.ErrInvalidInstallmentCount
	}
	if !plan.Frequency(tj.Frequency).Valid() {
		return tj, fmt.Errorf("invalid frequency %q in template %s", tj.Frequency, tj.Name)
	}
	return tj, nil
}

// Spec merges a template with the per-sale fields into a validated-ready
// PlanSpec. Missing money fields default to zero; missing policies default
// inside plan.NewPlan.
func (f *PlanFactory) Spec(tj TemplateJSON, sale Sale) (plan.PlanSpec, error) {
	spec := plan.PlanSpec{
		PlanNumber:           sale.PlanNumber,
		CustomerRef:          sale.CustomerRef,
		InvoiceRef:           sale.InvoiceRef,
		StartDate:            sale.StartDate,
		TotalAmount:          sale.TotalAmount,
		DownPayment:          sale.DownPayment,
		NumberOfInstallments: tj.NumberOfInstallments,
		Frequency:            plan.Frequency(tj.Frequency),
		LateFeePolicy:        plan.LateFeePolicy(tj.LateFeePolicy),
		GracePeriodDays:      tj.GracePeriodDays,
		RemainderPolicy:      plan.RemainderPolicy(tj.RemainderPolicy),
	}

	var err error
	if spec.InterestRate, err = moneyOrZero(tj.InterestRate); err != nil {
		return spec, fmt.Errorf("template %s: %w", tj.Name, err)
	}
	if spec.LateFeeValue, err = moneyOrZero(tj.LateFeeValue); err != nil {
		return spec, fmt.Errorf("template %s: %w", tj.Name, err)
	}
	return spec, nil
}

func moneyOrZero(s string) (plan.Money, error) {
	if s == "" {
		return plan.ZeroMoney, nil
	}
	return plan.NewMoneyFromString(s)
}

// =============================================================================
// BUILT-IN TEMPLATES
// =============================================================================

// StandardMonthlyJSON returns a monthly template with flat interest and a
// fixed late fee.
func StandardMonthlyJSON(name string, months int, ratePercent, lateFee string, graceDays int) string {
	b, _ := json.Marshal(TemplateJSON{
		Name:                 name,
		NumberOfInstallments: months,
		Frequency:            string(plan.FrequencyMonthly),
		InterestRate:         ratePercent,
		LateFeePolicy:        string(plan.LateFeeFixed),
		LateFeeValue:         lateFee,
		GracePeriodDays:      graceDays,
	})
	return string(b)
}

// InterestFreeWeeklyJSON returns a weekly, zero-interest template with no
// late fees. Layaway-style products.
func InterestFreeWeeklyJSON(name string, weeks int) string {
	b, _ := json.Marshal(TemplateJSON{
		Name:                 name,
		NumberOfInstallments: weeks,
		Frequency:            string(plan.FrequencyWeekly),
		LateFeePolicy:        string(plan.LateFeeNone),
	})
	return string(b)
}
