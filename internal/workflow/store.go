package workflow

import (
	"context"
	"sort"
	"sync"

	"github.com/turnoflow/booking-platform/internal/domain"
)

// WorkflowStore persists workflow definitions.
type WorkflowStore interface {
	List(ctx context.Context, tenantID string) ([]Workflow, error)
	Get(ctx context.Context, tenantID, workflowID string) (*Workflow, error)
	Put(ctx context.Context, w *Workflow) error
	Delete(ctx context.Context, tenantID, workflowID string) error
}

// ConversationStore persists conversation state.
type ConversationStore interface {
	Get(ctx context.Context, tenantID, conversationID string) (*Conversation, error)
	Put(ctx context.Context, c *Conversation) error
}

// MemoryWorkflowStore is an in-memory WorkflowStore for tests and the seeder.
type MemoryWorkflowStore struct {
	mu    sync.RWMutex
	items map[string]map[string]*Workflow
}

var _ WorkflowStore = (*MemoryWorkflowStore)(nil)

// NewMemoryWorkflowStore creates an empty workflow store.
func NewMemoryWorkflowStore() *MemoryWorkflowStore {
	return &MemoryWorkflowStore{items: make(map[string]map[string]*Workflow)}
}

func (m *MemoryWorkflowStore) List(ctx context.Context, tenantID string) ([]Workflow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Workflow, 0, len(m.items[tenantID]))
	for _, w := range m.items[tenantID] {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryWorkflowStore) Get(ctx context.Context, tenantID, workflowID string) (*Workflow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.items[tenantID][workflowID]
	if !ok {
		return nil, domain.NewNotFound("workflow", workflowID)
	}
	cp := *w
	return &cp, nil
}

func (m *MemoryWorkflowStore) Put(ctx context.Context, w *Workflow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items[w.TenantID] == nil {
		m.items[w.TenantID] = make(map[string]*Workflow)
	}
	cp := *w
	m.items[w.TenantID][w.ID] = &cp
	return nil
}

func (m *MemoryWorkflowStore) Delete(ctx context.Context, tenantID, workflowID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[tenantID][workflowID]; !ok {
		return domain.NewNotFound("workflow", workflowID)
	}
	delete(m.items[tenantID], workflowID)
	return nil
}

// MemoryConversationStore is an in-memory ConversationStore.
type MemoryConversationStore struct {
	mu    sync.RWMutex
	items map[string]*Conversation // tenantID#conversationID
}

var _ ConversationStore = (*MemoryConversationStore)(nil)

// NewMemoryConversationStore creates an empty conversation store.
func NewMemoryConversationStore() *MemoryConversationStore {
	return &MemoryConversationStore{items: make(map[string]*Conversation)}
}

func convKey(tenantID, conversationID string) string {
	return tenantID + "#" + conversationID
}

func (m *MemoryConversationStore) Get(ctx context.Context, tenantID, conversationID string) (*Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.items[convKey(tenantID, conversationID)]
	if !ok {
		return nil, domain.NewNotFound("conversation", conversationID)
	}
	cp := *c
	return &cp, nil
}

func (m *MemoryConversationStore) Put(ctx context.Context, c *Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.items[convKey(c.TenantID, c.ID)] = &cp
	return nil
}
