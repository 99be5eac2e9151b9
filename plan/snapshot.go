/*
snapshot.go - Serializable plan representation

PURPOSE:
  PlanSnapshot is the flat, JSON-taggable form of a PaymentPlan. Consumers
  (REST handlers, statement renderers, the SQLite store) read snapshots;
  they never hold mutable references into the aggregate. Snapshot/Restore
  round-trips every business field exactly.
*/
package plan

// InstallmentSnapshot is the DTO form of one installment.
type InstallmentSnapshot struct {
	Number           int               `json:"number"`
	DueDate          Date              `json:"due_date"`
	PrincipalAmount  Money             `json:"principal_amount"`
	InterestAmount   Money             `json:"interest_amount"`
	LateFee          Money             `json:"late_fee"`
	TotalAmount      Money             `json:"total_amount"`
	AmountPaid       Money             `json:"amount_paid"`
	RemainingAmount  Money             `json:"remaining_amount"`
	Status           InstallmentStatus `json:"status"`
	PaymentDate      *Date             `json:"payment_date,omitempty"`
	PaymentMethod    PaymentMethod     `json:"payment_method,omitempty"`
	PaymentReference string            `json:"payment_reference,omitempty"`
}

// PlanSnapshot is the DTO form of a PaymentPlan.
type PlanSnapshot struct {
	ID                   PlanID                `json:"id"`
	PlanNumber           string                `json:"plan_number"`
	CustomerRef          string                `json:"customer_ref,omitempty"`
	InvoiceRef           string                `json:"invoice_ref,omitempty"`
	StartDate            Date                  `json:"start_date"`
	EndDate              Date                  `json:"end_date"`
	TotalAmount          Money                 `json:"total_amount"`
	DownPayment          Money                 `json:"down_payment"`
	FinancedAmount       Money                 `json:"financed_amount"`
	NumberOfInstallments int                   `json:"number_of_installments"`
	Frequency            Frequency             `json:"frequency"`
	InterestMethod       InterestMethod        `json:"interest_method"`
	InterestRate         Money                 `json:"interest_rate"`
	TotalInterest        Money                 `json:"total_interest"`
	LateFeePolicy        LateFeePolicy         `json:"late_fee_policy"`
	LateFeeValue         Money                 `json:"late_fee_value"`
	GracePeriodDays      int                   `json:"grace_period_days"`
	RemainderPolicy      RemainderPolicy       `json:"remainder_policy"`
	Status               PlanStatus            `json:"status"`
	CompletedAt          *Date                 `json:"completed_at,omitempty"`
	TotalPaid            Money                 `json:"total_paid"`
	TotalRemaining       Money                 `json:"total_remaining"`
	TotalLateFees        Money                 `json:"total_late_fees"`
	Installments         []InstallmentSnapshot `json:"installments"`
	Version              int                   `json:"version"`
}

// Snapshot produces the DTO form. The installment slice is copied; the
// snapshot shares nothing mutable with the aggregate.
func (p *PaymentPlan) Snapshot() PlanSnapshot {
	installments := make([]InstallmentSnapshot, 0, len(p.Installments))
	for i := range p.Installments {
		ins := &p.Installments[i]
		snap := InstallmentSnapshot{
			Number:           ins.Number,
			DueDate:          ins.DueDate,
			PrincipalAmount:  ins.PrincipalAmount,
			InterestAmount:   ins.InterestAmount,
			LateFee:          ins.LateFee,
			TotalAmount:      ins.TotalAmount,
			AmountPaid:       ins.AmountPaid,
			RemainingAmount:  ins.RemainingAmount,
			Status:           ins.Status,
			PaymentMethod:    ins.PaymentMethod,
			PaymentReference: ins.PaymentReference,
		}
		if ins.PaymentDate != nil {
			d := *ins.PaymentDate
			snap.PaymentDate = &d
		}
		installments = append(installments, snap)
	}

	snap := PlanSnapshot{
		ID:                   p.ID,
		PlanNumber:           p.PlanNumber,
		CustomerRef:          p.CustomerRef,
		InvoiceRef:           p.InvoiceRef,
		StartDate:            p.StartDate,
		EndDate:              p.EndDate,
		TotalAmount:          p.TotalAmount,
		DownPayment:          p.DownPayment,
		FinancedAmount:       p.FinancedAmount,
		NumberOfInstallments: p.NumberOfInstallments,
		Frequency:            p.Frequency,
		InterestMethod:       p.InterestMethod,
		InterestRate:         p.InterestRate,
		TotalInterest:        p.TotalInterest,
		LateFeePolicy:        p.LateFeePolicy,
		LateFeeValue:         p.LateFeeValue,
		GracePeriodDays:      p.GracePeriodDays,
		RemainderPolicy:      p.RemainderPolicy,
		Status:               p.Status,
		TotalPaid:            p.TotalPaid,
		TotalRemaining:       p.TotalRemaining,
		TotalLateFees:        p.TotalLateFees,
		Installments:         installments,
		Version:              p.Version,
	}
	if p.CompletedAt != nil {
		d := *p.CompletedAt
		snap.CompletedAt = &d
	}
	return snap
}

// Restore rebuilds an aggregate from its DTO form.
func Restore(s PlanSnapshot) *PaymentPlan {
	installments := make([]Installment, 0, len(s.Installments))
	for _, snap := range s.Installments {
		ins := Installment{
			Number:           snap.Number,
			DueDate:          snap.DueDate,
			PrincipalAmount:  snap.PrincipalAmount,
			InterestAmount:   snap.InterestAmount,
			LateFee:          snap.LateFee,
			TotalAmount:      snap.TotalAmount,
			AmountPaid:       snap.AmountPaid,
			RemainingAmount:  snap.RemainingAmount,
			Status:           snap.Status,
			PaymentMethod:    snap.PaymentMethod,
			PaymentReference: snap.PaymentReference,
		}
		if snap.PaymentDate != nil {
			d := *snap.PaymentDate
			ins.PaymentDate = &d
		}
		installments = append(installments, ins)
	}

	p := &PaymentPlan{
		ID:                   s.ID,
		PlanNumber:           s.PlanNumber,
		CustomerRef:          s.CustomerRef,
		InvoiceRef:           s.InvoiceRef,
		StartDate:            s.StartDate,
		EndDate:              s.EndDate,
		TotalAmount:          s.TotalAmount,
		DownPayment:          s.DownPayment,
		FinancedAmount:       s.FinancedAmount,
		NumberOfInstallments: s.NumberOfInstallments,
		Frequency:            s.Frequency,
		InterestMethod:       s.InterestMethod,
		InterestRate:         s.InterestRate,
		TotalInterest:        s.TotalInterest,
		LateFeePolicy:        s.LateFeePolicy,
		LateFeeValue:         s.LateFeeValue,
		GracePeriodDays:      s.GracePeriodDays,
		RemainderPolicy:      s.RemainderPolicy,
		Status:               s.Status,
		TotalPaid:            s.TotalPaid,
		TotalRemaining:       s.TotalRemaining,
		TotalLateFees:        s.TotalLateFees,
		Installments:         installments,
		Version:              s.Version,
	}
	if s.CompletedAt != nil {
		d := *s.CompletedAt
		p.CompletedAt = &d
	}
	return p
}
