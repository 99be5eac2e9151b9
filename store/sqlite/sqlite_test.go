package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/installment-engine/plan"
	"github.com/warp/installment-engine/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.New(filepath.Join(t.TempDir(), "plans.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newActivatedPlan(t *testing.T, s *sqlite.Store) plan.PlanID {
	t.Helper()

	p, err := plan.NewPlan(plan.PlanSpec{
		PlanNumber:           "PP-SQL",
		CustomerRef:          "cust-7",
		InvoiceRef:           "inv-7",
		StartDate:            plan.NewDate(2024, time.January, 31),
		TotalAmount:          plan.MustMoney("1000.00"),
		NumberOfInstallments: 2,
		Frequency:            plan.FrequencyMonthly,
		InterestRate:         plan.MustMoney("12"),
		LateFeePolicy:        plan.LateFeeFixed,
		LateFeeValue:         plan.MustMoney("50.00"),
		GracePeriodDays:      5,
	})
	require.NoError(t, err)
	require.NoError(t, plan.Lifecycle{}.Activate(p))
	require.NoError(t, s.SavePlan(context.Background(), p))
	return p.ID
}

// =============================================================================
// PLAN PERSISTENCE
// =============================================================================

func TestSQLite_PlanRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	id := newActivatedPlan(t, s)

	loaded, err := s.GetPlan(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, "PP-SQL", loaded.PlanNumber)
	assert.Equal(t, "cust-7", loaded.CustomerRef)
	assert.Equal(t, plan.PlanActive, loaded.Status)
	assert.Equal(t, plan.FrequencyMonthly, loaded.Frequency)
	assert.Equal(t, plan.InterestSimple, loaded.InterestMethod)
	assert.Equal(t, plan.LateFeeFixed, loaded.LateFeePolicy)
	assert.Equal(t, 5, loaded.GracePeriodDays)
	assert.True(t, loaded.TotalAmount.Equal(plan.MustMoney("1000.00")))
	assert.True(t, loaded.TotalInterest.Equal(plan.MustMoney("120.00")))
	assert.True(t, loaded.StartDate.Equal(plan.NewDate(2024, time.January, 31)))
	assert.Nil(t, loaded.CompletedAt)

	// Installments come back ordered with the leap-clamped due dates.
	require.Len(t, loaded.Installments, 2)
	assert.Equal(t, "2024-02-29", loaded.Installments[0].DueDate.String())
	assert.Equal(t, "2024-03-31", loaded.Installments[1].DueDate.String())
	assert.Equal(t, plan.InstallmentPending, loaded.Installments[0].Status)
	assert.True(t, loaded.Installments[0].PrincipalAmount.Equal(plan.MustMoney("500.00")))
	assert.Nil(t, loaded.Installments[0].PaymentDate)
}

func TestSQLite_PaymentMetadataSurvives(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	id := newActivatedPlan(t, s)
	payDate := plan.NewDate(2024, time.February, 20)

	require.NoError(t, s.WithPlan(ctx, id, func(p *plan.PaymentPlan) error {
		_, err := plan.PaymentApplier{}.Apply(p.ID, &p.Installments[0],
			plan.MustMoney("200.00"), payDate, plan.PaymentCard, "txn-55")
		if err != nil {
			return err
		}
		plan.ReconciliationEngine{}.Reconcile(p)
		return nil
	}))

	loaded, err := s.GetPlan(ctx, id)
	require.NoError(t, err)

	first := loaded.Installments[0]
	assert.Equal(t, plan.InstallmentPartiallyPaid, first.Status)
	assert.True(t, first.AmountPaid.Equal(plan.MustMoney("200.00")))
	require.NotNil(t, first.PaymentDate)
	assert.True(t, first.PaymentDate.Equal(payDate))
	assert.Equal(t, plan.PaymentCard, first.PaymentMethod)
	assert.Equal(t, "txn-55", first.PaymentReference)
	assert.True(t, loaded.TotalPaid.Equal(plan.MustMoney("200.00")))
}

func TestSQLite_GetMissingPlan(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetPlan(context.Background(), "missing")
	assert.ErrorIs(t, err, plan.ErrPlanNotFound)
}

// =============================================================================
// OPTIMISTIC CONCURRENCY
// =============================================================================

func TestSQLite_SaveDetectsVersionConflict(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	id := newActivatedPlan(t, s)

	a, err := s.GetPlan(ctx, id)
	require.NoError(t, err)
	b, err := s.GetPlan(ctx, id)
	require.NoError(t, err)

	a.CustomerRef = "writer-a"
	require.NoError(t, s.SavePlan(ctx, a))

	b.CustomerRef = "writer-b"
	assert.ErrorIs(t, s.SavePlan(ctx, b), plan.ErrConflict)

	stored, err := s.GetPlan(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "writer-a", stored.CustomerRef)
}

func TestSQLite_SaveBumpsVersion(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	id := newActivatedPlan(t, s)

	p, err := s.GetPlan(ctx, id)
	require.NoError(t, err)
	v := p.Version
	require.NoError(t, s.SavePlan(ctx, p))
	assert.Equal(t, v+1, p.Version)

	reloaded, err := s.GetPlan(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, p.Version, reloaded.Version)
}

// =============================================================================
// LISTING
// =============================================================================

func TestSQLite_ListPlansByStatus(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	activeID := newActivatedPlan(t, s)

	draft, err := plan.NewPlan(plan.PlanSpec{
		PlanNumber:           "PP-DRAFT",
		StartDate:            plan.NewDate(2024, time.January, 1),
		TotalAmount:          plan.MustMoney("100.00"),
		NumberOfInstallments: 1,
		Frequency:            plan.FrequencyWeekly,
	})
	require.NoError(t, err)
	require.NoError(t, s.SavePlan(ctx, draft))

	active, err := s.ListPlansByStatus(ctx, plan.PlanActive)
	require.NoError(t, err)
	assert.Equal(t, []plan.PlanID{activeID}, active)

	all, err := s.ListPlans(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// =============================================================================
// SWEEP RUN RECORDS
// =============================================================================

func TestSQLite_SweepRunAudit(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	started := time.Date(2024, time.June, 1, 3, 0, 0, 0, time.UTC)
	report := plan.SweepReport{
		RunID:        "run-1",
		StartedAt:    started,
		CompletedAt:  started.Add(2 * time.Second),
		PlansSeen:    10,
		PlansChanged: 3,
		FeesChanged:  7,
		Failures:     []plan.SweepFailure{{PlanID: "p1", Err: "boom"}},
	}
	require.NoError(t, s.SaveSweepRun(ctx, report))

	runs, err := s.ListSweepRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, 10, runs[0].PlansSeen)
	assert.Equal(t, 3, runs[0].PlansChanged)
	assert.Equal(t, 7, runs[0].FeesChanged)
	assert.Equal(t, 1, runs[0].Failures)
	assert.True(t, runs[0].StartedAt.Equal(started))
}
