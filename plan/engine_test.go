package plan_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/installment-engine/plan"
	"github.com/warp/installment-engine/plan/store"
)

// newTestEngine wires an engine over the in-memory store with a fixed clock.
func newTestEngine(t *testing.T, today plan.Date) *plan.Engine {
	t.Helper()
	return plan.NewEngine(store.NewMemory(), plan.FixedClock{Date: today})
}

// baseSpec is a 1200.00 / 3 monthly installments / no interest plan
// starting 2024-01-15.
func baseSpec() plan.PlanSpec {
	return plan.PlanSpec{
		PlanNumber:           "PP-E2E",
		CustomerRef:          "cust-1",
		StartDate:            plan.NewDate(2024, time.January, 15),
		TotalAmount:          plan.MustMoney("1200.00"),
		NumberOfInstallments: 3,
		Frequency:            plan.FrequencyMonthly,
	}
}

// =============================================================================
// END TO END - create, activate, pay to completion
// =============================================================================

func TestEngine_PayToCompletion(t *testing.T) {
	ctx := context.Background()
	today := plan.NewDate(2024, time.February, 1)
	engine := newTestEngine(t, today)

	// GIVEN a created and activated plan
	created, err := engine.CreatePlan(ctx, baseSpec())
	require.NoError(t, err)
	require.Equal(t, plan.PlanDraft, created.Status)
	require.NoError(t, engine.Activate(ctx, created.ID))

	p, err := engine.GetPlan(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, plan.PlanActive, p.Status)
	require.Len(t, p.Installments, 3)
	require.True(t, p.TotalRemaining.Equal(plan.MustMoney("1200.00")))

	// WHEN each installment is paid exactly
	for number := 1; number <= 3; number++ {
		before, err := engine.GetPlan(ctx, created.ID)
		require.NoError(t, err)

		result, err := engine.RecordPayment(ctx, created.ID, number,
			plan.MustMoney("400.00"), plan.PaymentCard, "txn")
		require.NoError(t, err)
		assert.Equal(t, plan.InstallmentPaid, result.Status)
		assert.True(t, result.Remaining.IsZero())

		// THEN the plan's remaining drops by exactly the amount paid
		after, err := engine.GetPlan(ctx, created.ID)
		require.NoError(t, err)
		drop := before.TotalRemaining.Sub(after.TotalRemaining)
		assert.True(t, drop.Equal(plan.MustMoney("400.00")), "remaining dropped by %s", drop)
	}

	// AND the plan completes with a timestamp
	final, err := engine.GetPlan(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.PlanCompleted, final.Status)
	require.NotNil(t, final.CompletedAt)
	assert.True(t, final.CompletedAt.Equal(today))
	assert.True(t, final.TotalPaid.Equal(plan.MustMoney("1200.00")))
	assert.True(t, final.TotalRemaining.IsZero())
}

func TestEngine_OverpaymentClamped(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, plan.NewDate(2024, time.February, 1))

	created, err := engine.CreatePlan(ctx, baseSpec())
	require.NoError(t, err)
	require.NoError(t, engine.Activate(ctx, created.ID))

	result, err := engine.RecordPayment(ctx, created.ID, 1,
		plan.MustMoney("500.00"), plan.PaymentTransfer, "")
	require.NoError(t, err)

	assert.Equal(t, plan.InstallmentPaid, result.Status)
	assert.True(t, result.ExcessAbsorbed.Equal(plan.MustMoney("100.00")))

	// The excess does not bleed into other installments.
	p, err := engine.GetPlan(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, p.Installments[1].RemainingAmount.Equal(plan.MustMoney("400.00")))
	assert.True(t, p.TotalRemaining.Equal(plan.MustMoney("800.00")))
}

// =============================================================================
// LIFECYCLE THROUGH THE ENGINE
// =============================================================================

func TestEngine_CancelPreservesPaymentHistory(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, plan.NewDate(2024, time.February, 1))

	created, err := engine.CreatePlan(ctx, baseSpec())
	require.NoError(t, err)
	require.NoError(t, engine.Activate(ctx, created.ID))

	_, err = engine.RecordPayment(ctx, created.ID, 1, plan.MustMoney("100.00"), plan.PaymentCash, "")
	require.NoError(t, err)
	require.NoError(t, engine.Cancel(ctx, created.ID))

	p, err := engine.GetPlan(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.PlanCancelled, p.Status)
	assert.Equal(t, plan.InstallmentPartiallyPaid, p.Installments[0].Status)
	assert.Equal(t, plan.InstallmentCancelled, p.Installments[1].Status)
	assert.Equal(t, plan.InstallmentCancelled, p.Installments[2].Status)
	assert.True(t, p.TotalPaid.Equal(plan.MustMoney("100.00")))

	// No further payments on a cancelled installment.
	_, err = engine.RecordPayment(ctx, created.ID, 2, plan.MustMoney("50.00"), plan.PaymentCash, "")
	assert.ErrorIs(t, err, plan.ErrInstallmentSettled)
}

func TestEngine_WaiveCompletesPlan(t *testing.T) {
	ctx := context.Background()
	today := plan.NewDate(2024, time.March, 1)
	engine := newTestEngine(t, today)

	created, err := engine.CreatePlan(ctx, baseSpec())
	require.NoError(t, err)
	require.NoError(t, engine.Activate(ctx, created.ID))

	_, err = engine.RecordPayment(ctx, created.ID, 1, plan.MustMoney("400.00"), plan.PaymentCash, "")
	require.NoError(t, err)
	_, err = engine.RecordPayment(ctx, created.ID, 2, plan.MustMoney("400.00"), plan.PaymentCash, "")
	require.NoError(t, err)
	require.NoError(t, engine.WaiveInstallment(ctx, created.ID, 3))

	p, err := engine.GetPlan(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.PlanCompleted, p.Status)
	assert.Equal(t, plan.InstallmentWaived, p.Installments[2].Status)
}

func TestEngine_HoldResumeDefault(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, plan.NewDate(2024, time.February, 1))

	created, err := engine.CreatePlan(ctx, baseSpec())
	require.NoError(t, err)
	require.NoError(t, engine.Activate(ctx, created.ID))

	require.NoError(t, engine.Hold(ctx, created.ID))
	p, _ := engine.GetPlan(ctx, created.ID)
	assert.Equal(t, plan.PlanOnHold, p.Status)

	require.NoError(t, engine.Resume(ctx, created.ID))
	require.NoError(t, engine.MarkDefaulted(ctx, created.ID))
	p, _ = engine.GetPlan(ctx, created.ID)
	assert.Equal(t, plan.PlanDefaulted, p.Status)
}

func TestEngine_ValidationAndLookupErrors(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, plan.NewDate(2024, time.February, 1))

	// Bad specs never reach the store.
	bad := baseSpec()
	bad.NumberOfInstallments = 0
	_, err := engine.CreatePlan(ctx, bad)
	assert.ErrorIs(t, err, plan.ErrInvalidInstallmentCount)

	bad = baseSpec()
	bad.DownPayment = plan.MustMoney("2000.00")
	_, err = engine.CreatePlan(ctx, bad)
	assert.ErrorIs(t, err, plan.ErrInvalidAmount)

	// Missing aggregates.
	assert.ErrorIs(t, engine.Activate(ctx, "missing"), plan.ErrPlanNotFound)
	_, err = engine.RecordPayment(ctx, "missing", 1, plan.MustMoney("1.00"), plan.PaymentCash, "")
	assert.ErrorIs(t, err, plan.ErrPlanNotFound)

	created, err := engine.CreatePlan(ctx, baseSpec())
	require.NoError(t, err)
	require.NoError(t, engine.Activate(ctx, created.ID))
	_, err = engine.RecordPayment(ctx, created.ID, 99, plan.MustMoney("1.00"), plan.PaymentCash, "")
	assert.ErrorIs(t, err, plan.ErrInstallmentNotFound)
}

// =============================================================================
// LATE FEES THROUGH THE ENGINE
// =============================================================================

func TestEngine_ApplyLateFeesIsIdempotentPerDay(t *testing.T) {
	ctx := context.Background()
	// Both installments of a Jan 1 plan are past due by mid-March.
	today := plan.NewDate(2024, time.March, 15)
	engine := newTestEngine(t, today)

	spec := baseSpec()
	spec.StartDate = plan.NewDate(2024, time.January, 1)
	spec.NumberOfInstallments = 2
	spec.LateFeePolicy = plan.LateFeeFixed
	spec.LateFeeValue = plan.MustMoney("50.00")
	spec.GracePeriodDays = 5

	created, err := engine.CreatePlan(ctx, spec)
	require.NoError(t, err)
	require.NoError(t, engine.Activate(ctx, created.ID))

	// First run fees both installments.
	changed, err := engine.ApplyLateFees(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	p, err := engine.GetPlan(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, p.TotalLateFees.Equal(plan.MustMoney("100.00")))
	assert.True(t, p.Installments[0].LateFee.Equal(plan.MustMoney("50.00")))

	// Second run on the same day changes nothing.
	changed, err = engine.ApplyLateFees(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, changed)

	p, err = engine.GetPlan(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, p.TotalLateFees.Equal(plan.MustMoney("100.00")), "fees must not double")
}

func TestEngine_ApplyLateFeesSkipsInactivePlans(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, plan.NewDate(2024, time.March, 15))

	spec := baseSpec()
	spec.LateFeePolicy = plan.LateFeeFixed
	spec.LateFeeValue = plan.MustMoney("50.00")
	created, err := engine.CreatePlan(ctx, spec)
	require.NoError(t, err)

	// Still DRAFT: nothing to fee.
	changed, err := engine.ApplyLateFees(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, changed)
}
