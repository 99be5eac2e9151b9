/*
dto.go - Request/response types for the HTTP API

PURPOSE:
  Wire-level shapes, decoupled from the engine's aggregates. Responses are
  plan.PlanSnapshot (already the engine's read-only DTO); requests carry
  money as decimal strings and dates as "2006-01-02".
*/
package api

import (
	"fmt"

	"github.com/warp/installment-engine/plan"
)

// CreatePlanRequest creates a plan from explicit terms.
type CreatePlanRequest struct {
	PlanNumber           string `json:"plan_number,omitempty"`
	CustomerRef          string `json:"customer_ref,omitempty"`
	InvoiceRef           string `json:"invoice_ref,omitempty"`
	StartDate            string `json:"start_date"`
	TotalAmount          string `json:"total_amount"`
	DownPayment          string `json:"down_payment,omitempty"`
	NumberOfInstallments int    `json:"number_of_installments"`
	Frequency            string `json:"frequency"`
	InterestRate         string `json:"interest_rate,omitempty"`
	LateFeePolicy        string `json:"late_fee_policy,omitempty"`
	LateFeeValue         string `json:"late_fee_value,omitempty"`
	GracePeriodDays      int    `json:"grace_period_days,omitempty"`
	RemainderPolicy      string `json:"remainder_policy,omitempty"`
}

// ToSpec converts the wire request into a PlanSpec.
func (r CreatePlanRequest) ToSpec() (plan.PlanSpec, error) {
	spec := plan.PlanSpec{
		PlanNumber:           r.PlanNumber,
		CustomerRef:          r.CustomerRef,
		InvoiceRef:           r.InvoiceRef,
		NumberOfInstallments: r.NumberOfInstallments,
		Frequency:            plan.Frequency(r.Frequency),
		LateFeePolicy:        plan.LateFeePolicy(r.LateFeePolicy),
		GracePeriodDays:      r.GracePeriodDays,
		RemainderPolicy:      plan.RemainderPolicy(r.RemainderPolicy),
	}

	var err error
	if spec.StartDate, err = plan.ParseDate(r.StartDate); err != nil {
		return spec, err
	}
	if spec.TotalAmount, err = parseMoney(r.TotalAmount, "total_amount"); err != nil {
		return spec, err
	}
	if spec.DownPayment, err = parseMoneyOrZero(r.DownPayment, "down_payment"); err != nil {
		return spec, err
	}
	if spec.InterestRate, err = parseMoneyOrZero(r.InterestRate, "interest_rate"); err != nil {
		return spec, err
	}
	if spec.LateFeeValue, err = parseMoneyOrZero(r.LateFeeValue, "late_fee_value"); err != nil {
		return spec, err
	}
	return spec, nil
}

// CreateFromTemplateRequest creates a plan from a stored template plus the
// per-sale fields.
type CreateFromTemplateRequest struct {
	Template    string `json:"template"` // template JSON, see factory package
	PlanNumber  string `json:"plan_number,omitempty"`
	CustomerRef string `json:"customer_ref,omitempty"`
	InvoiceRef  string `json:"invoice_ref,omitempty"`
	StartDate   string `json:"start_date"`
	TotalAmount string `json:"total_amount"`
	DownPayment string `json:"down_payment,omitempty"`
}

// RecordPaymentRequest applies a payment to one installment.
type RecordPaymentRequest struct {
	Amount    string `json:"amount"`
	Method    string `json:"method,omitempty"`
	Reference string `json:"reference,omitempty"`
}

// PaymentResponse reports the applied payment.
type PaymentResponse struct {
	InstallmentNumber int                    `json:"installment_number"`
	Applied           plan.Money             `json:"applied"`
	ExcessAbsorbed    plan.Money             `json:"excess_absorbed"`
	Remaining         plan.Money             `json:"remaining"`
	Status            plan.InstallmentStatus `json:"status"`
	Plan              plan.PlanSnapshot      `json:"plan"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

func parseMoney(s, field string) (plan.Money, error) {
	if s == "" {
		return plan.ZeroMoney, fmt.Errorf("%s is required", field)
	}
	return plan.NewMoneyFromString(s)
}

func parseMoneyOrZero(s, field string) (plan.Money, error) {
	if s == "" {
		return plan.ZeroMoney, nil
	}
	m, err := plan.NewMoneyFromString(s)
	if err != nil {
		return plan.ZeroMoney, fmt.Errorf("%s: %w", field, err)
	}
	return m, nil
}
