package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/installment-engine/plan"
	"github.com/warp/installment-engine/plan/store"
)

func newStoredPlan(t *testing.T, mem *store.Memory, planNumber string) plan.PlanID {
	t.Helper()

	p, err := plan.NewPlan(plan.PlanSpec{
		PlanNumber:           planNumber,
		StartDate:            plan.NewDate(2024, time.January, 15),
		TotalAmount:          plan.MustMoney("900.00"),
		NumberOfInstallments: 3,
		Frequency:            plan.FrequencyMonthly,
	})
	require.NoError(t, err)
	require.NoError(t, mem.SavePlan(context.Background(), p))
	return p.ID
}

// =============================================================================
// MEMORY STORE
// =============================================================================

func TestMemory_GetReturnsIsolatedCopies(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	id := newStoredPlan(t, mem, "PP-1")

	first, err := mem.GetPlan(ctx, id)
	require.NoError(t, err)

	// Mutating the returned aggregate must not leak into the store.
	first.Status = plan.PlanCancelled
	first.PlanNumber = "tampered"

	second, err := mem.GetPlan(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, plan.PlanDraft, second.Status)
	assert.Equal(t, "PP-1", second.PlanNumber)
}

func TestMemory_GetMissingPlan(t *testing.T) {
	mem := store.NewMemory()
	_, err := mem.GetPlan(context.Background(), "nope")
	assert.ErrorIs(t, err, plan.ErrPlanNotFound)
}

func TestMemory_SaveDetectsVersionConflict(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	id := newStoredPlan(t, mem, "PP-1")

	// Two readers load the same version.
	a, err := mem.GetPlan(ctx, id)
	require.NoError(t, err)
	b, err := mem.GetPlan(ctx, id)
	require.NoError(t, err)

	// First writer wins.
	a.CustomerRef = "writer-a"
	require.NoError(t, mem.SavePlan(ctx, a))

	// Second writer is stale.
	b.CustomerRef = "writer-b"
	err = mem.SavePlan(ctx, b)
	assert.ErrorIs(t, err, plan.ErrConflict)

	stored, err := mem.GetPlan(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "writer-a", stored.CustomerRef)
}

func TestMemory_SaveBumpsVersion(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	id := newStoredPlan(t, mem, "PP-1")

	p, err := mem.GetPlan(ctx, id)
	require.NoError(t, err)
	v := p.Version
	require.NoError(t, mem.SavePlan(ctx, p))
	assert.Equal(t, v+1, p.Version)
}

func TestMemory_ListPlansNewestFirst(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	newStoredPlan(t, mem, "PP-old")
	newStoredPlan(t, mem, "PP-new")

	plans, err := mem.ListPlans(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "PP-new", plans[0].PlanNumber)
	assert.Equal(t, "PP-old", plans[1].PlanNumber)
}

func TestMemory_ListPlansByStatus(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	draftID := newStoredPlan(t, mem, "PP-draft")
	activeID := newStoredPlan(t, mem, "PP-active")

	require.NoError(t, mem.WithPlan(ctx, activeID, func(p *plan.PaymentPlan) error {
		return plan.Lifecycle{}.Activate(p)
	}))

	active, err := mem.ListPlansByStatus(ctx, plan.PlanActive)
	require.NoError(t, err)
	assert.Equal(t, []plan.PlanID{activeID}, active)

	drafts, err := mem.ListPlansByStatus(ctx, plan.PlanDraft)
	require.NoError(t, err)
	assert.Equal(t, []plan.PlanID{draftID}, drafts)
}

func TestMemory_WithPlanPersistsOnSuccessOnly(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	id := newStoredPlan(t, mem, "PP-1")

	require.NoError(t, mem.WithPlan(ctx, id, func(p *plan.PaymentPlan) error {
		p.CustomerRef = "updated"
		return nil
	}))
	p, err := mem.GetPlan(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "updated", p.CustomerRef)

	// A failing fn leaves the stored plan untouched.
	boom := assert.AnError
	err = mem.WithPlan(ctx, id, func(p *plan.PaymentPlan) error {
		p.CustomerRef = "discarded"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	p, err = mem.GetPlan(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "updated", p.CustomerRef)

	assert.ErrorIs(t, mem.WithPlan(ctx, "missing", func(*plan.PaymentPlan) error { return nil }),
		plan.ErrPlanNotFound)
}
