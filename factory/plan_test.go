package factory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/installment-engine/factory"
	"github.com/warp/installment-engine/plan"
)

// =============================================================================
// TEMPLATE PARSING
// =============================================================================

func TestParseTemplate(t *testing.T) {
	f := factory.NewPlanFactory()

	tj, err := f.ParseTemplate(factory.StandardMonthlyJSON("standard-12m", 12, "12.00", "50.00", 5))
	require.NoError(t, err)
	assert.Equal(t, "standard-12m", tj.Name)
	assert.Equal(t, 12, tj.NumberOfInstallments)
	assert.Equal(t, string(plan.FrequencyMonthly), tj.Frequency)
	assert.Equal(t, string(plan.LateFeeFixed), tj.LateFeePolicy)
	assert.Equal(t, 5, tj.GracePeriodDays)
}

func TestParseTemplate_Rejections(t *testing.T) {
	f := factory.NewPlanFactory()

	cases := []struct {
		name string
		json string
	}{
		{"malformed json", `{not json`},
		{"missing name", `{"number_of_installments": 12, "frequency": "MONTHLY"}`},
		{"zero installments", `{"name": "x", "number_of_installments": 0, "frequency": "MONTHLY"}`},
		{"bad frequency", `{"name": "x", "number_of_installments": 12, "frequency": "FORTNIGHTLY"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.ParseTemplate(tc.json)
			assert.Error(t, err)
		})
	}
}

// =============================================================================
// TEMPLATE TO SPEC MERGE
// =============================================================================

func TestSpec_MergesTemplateAndSale(t *testing.T) {
	f := factory.NewPlanFactory()
	tj, err := f.ParseTemplate(factory.StandardMonthlyJSON("standard-6m", 6, "10.00", "25.00", 3))
	require.NoError(t, err)

	start := plan.NewDate(2024, time.March, 1)
	spec, err := f.Spec(tj, factory.Sale{
		PlanNumber:  "PP-2024-07",
		CustomerRef: "cust-9",
		InvoiceRef:  "inv-9",
		StartDate:   start,
		TotalAmount: plan.MustMoney("600.00"),
		DownPayment: plan.MustMoney("60.00"),
	})
	require.NoError(t, err)

	assert.Equal(t, "PP-2024-07", spec.PlanNumber)
	assert.Equal(t, 6, spec.NumberOfInstallments)
	assert.Equal(t, plan.FrequencyMonthly, spec.Frequency)
	assert.True(t, spec.InterestRate.Equal(plan.MustMoney("10.00")))
	assert.Equal(t, plan.LateFeeFixed, spec.LateFeePolicy)
	assert.True(t, spec.LateFeeValue.Equal(plan.MustMoney("25.00")))
	assert.Equal(t, 3, spec.GracePeriodDays)

	// The merged spec builds a valid plan.
	p, err := plan.NewPlan(spec)
	require.NoError(t, err)
	assert.True(t, p.FinancedAmount.Equal(plan.MustMoney("540.00")))
	assert.Equal(t, "cust-9", p.CustomerRef)
}

func TestSpec_InterestFreeTemplateDefaults(t *testing.T) {
	f := factory.NewPlanFactory()
	tj, err := f.ParseTemplate(factory.InterestFreeWeeklyJSON("layaway-8w", 8))
	require.NoError(t, err)

	spec, err := f.Spec(tj, factory.Sale{
		StartDate:   plan.NewDate(2024, time.March, 1),
		TotalAmount: plan.MustMoney("240.00"),
	})
	require.NoError(t, err)

	assert.True(t, spec.InterestRate.IsZero())
	assert.Equal(t, plan.LateFeeNone, spec.LateFeePolicy)
	assert.Equal(t, plan.FrequencyWeekly, spec.Frequency)

	p, err := plan.NewPlan(spec)
	require.NoError(t, err)
	require.NoError(t, plan.Lifecycle{}.Activate(p))
	require.Len(t, p.Installments, 8)
	assert.True(t, p.Installments[0].TotalAmount.Equal(plan.MustMoney("30.00")))
	assert.True(t, p.TotalInterest.IsZero())
}
