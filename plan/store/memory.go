// Package store provides PlanStore implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/installment-engine/plan"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps plan aggregates in memory. Aggregates are copied on the way
// in and out (via snapshots), so callers never share mutable state with the
// store. Each plan has its own lock; WithPlan serializes writers per plan
// while distinct plans proceed concurrently.
type Memory struct {
	mu    sync.RWMutex
	plans map[plan.PlanID]plan.PlanSnapshot
	locks map[plan.PlanID]*sync.Mutex
	order []plan.PlanID
}

func NewMemory() *Memory {
	return &Memory{
		plans: make(map[plan.PlanID]plan.PlanSnapshot),
		locks: make(map[plan.PlanID]*sync.Mutex),
	}
}

func (m *Memory) GetPlan(_ context.Context, id plan.PlanID) (*plan.PaymentPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.plans[id]
	if !ok {
		return nil, plan.ErrPlanNotFound
	}
	return plan.Restore(snap), nil
}

func (m *Memory) SavePlan(_ context.Context, p *plan.PaymentPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked(p)
}

func (m *Memory) saveLocked(p *plan.PaymentPlan) error {
	existing, ok := m.plans[p.ID]
	if ok && existing.Version != p.Version {
		return plan.ErrConflict
	}
	if !ok {
		m.order = append(m.order, p.ID)
		m.locks[p.ID] = &sync.Mutex{}
	}
	p.Version++
	m.plans[p.ID] = p.Snapshot()
	return nil
}

func (m *Memory) ListPlans(_ context.Context) ([]*plan.PaymentPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*plan.PaymentPlan, 0, len(m.order))
	// Newest first.
	for i := len(m.order) - 1; i >= 0; i-- {
		result = append(result, plan.Restore(m.plans[m.order[i]]))
	}
	return result, nil
}

func (m *Memory) ListPlansByStatus(_ context.Context, status plan.PlanStatus) ([]plan.PlanID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []plan.PlanID
	for id, snap := range m.plans {
		if snap.Status == status {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// WithPlan runs fn on a working copy under the plan's own lock and saves
// the result. On error nothing is persisted.
func (m *Memory) WithPlan(ctx context.Context, id plan.PlanID, fn func(*plan.PaymentPlan) error) error {
	m.mu.RLock()
	lock, ok := m.locks[id]
	m.mu.RUnlock()
	if !ok {
		return plan.ErrPlanNotFound
	}

	lock.Lock()
	defer lock.Unlock()

	p, err := m.GetPlan(ctx, id)
	if err != nil {
		return err
	}
	if err := fn(p); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked(p)
}
