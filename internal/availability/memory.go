package availability

import (
	"context"
	"sync"
)

// MemoryRepository is an in-memory schedule store for tests and the demo
// seeder.
type MemoryRepository struct {
	mu         sync.RWMutex
	weekly     map[string][]WeeklyRule
	exceptions map[string][]ExceptionRule
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty in-memory schedule store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		weekly:     make(map[string][]WeeklyRule),
		exceptions: make(map[string][]ExceptionRule),
	}
}

func (m *MemoryRepository) GetWeeklyRules(ctx context.Context, tenantID, providerID string) ([]WeeklyRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rules := m.weekly[scheduleKey(tenantID, providerID)]
	out := make([]WeeklyRule, len(rules))
	copy(out, rules)
	return out, nil
}

func (m *MemoryRepository) PutWeeklyRules(ctx context.Context, tenantID, providerID string, rules []WeeklyRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]WeeklyRule, len(rules))
	copy(cp, rules)
	m.weekly[scheduleKey(tenantID, providerID)] = cp
	return nil
}

func (m *MemoryRepository) GetExceptions(ctx context.Context, tenantID, providerID string) ([]ExceptionRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	exceptions := m.exceptions[scheduleKey(tenantID, providerID)]
	out := make([]ExceptionRule, len(exceptions))
	copy(out, exceptions)
	return out, nil
}

func (m *MemoryRepository) PutExceptions(ctx context.Context, tenantID, providerID string, exceptions []ExceptionRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]ExceptionRule, len(exceptions))
	copy(cp, exceptions)
	m.exceptions[scheduleKey(tenantID, providerID)] = cp
	return nil
}
