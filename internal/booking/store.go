package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/turnoflow/booking-platform/internal/domain"
)

// Store persists bookings. CreateIfAbsent must fail with domain.ErrConflict
// when a booking already exists for the same (tenant, provider, start time);
// that precondition is the authoritative double-booking guard.
type Store interface {
	CreateIfAbsent(ctx context.Context, b *Booking) error
	Get(ctx context.Context, tenantID, bookingID string) (*Booking, error)
	Update(ctx context.Context, b *Booking) error
	ListByProviderBetween(ctx context.Context, tenantID, providerID string, from, to time.Time) ([]Booking, error)
	ListByCustomerEmail(ctx context.Context, tenantID, email string) ([]Booking, error)
	GetByConversation(ctx context.Context, tenantID, conversationID string) (*Booking, error)
}

type slotKey struct {
	tenantID   string
	providerID string
	start      string
}

// MemoryStore is an in-memory Store for tests and the demo seeder. Its
// CreateIfAbsent holds the same conditional-insert contract as the DynamoDB
// store, including under concurrent callers.
type MemoryStore struct {
	mu     sync.Mutex
	byID   map[string]*Booking // tenantID#bookingID
	bySlot map[slotKey]string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory booking store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[string]*Booking),
		bySlot: make(map[slotKey]string),
	}
}

func (m *MemoryStore) idKey(tenantID, bookingID string) string {
	return tenantID + "#" + bookingID
}

func (m *MemoryStore) key(b *Booking) slotKey {
	return slotKey{tenantID: b.TenantID, providerID: b.ProviderID, start: domain.FormatTime(b.StartTime)}
}

// CreateIfAbsent inserts the booking unless its slot key is taken.
func (m *MemoryStore) CreateIfAbsent(ctx context.Context, b *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := m.key(b)
	if _, taken := m.bySlot[key]; taken {
		return domain.ErrConflict
	}
	cp := *b
	m.bySlot[key] = b.ID
	m.byID[m.idKey(b.TenantID, b.ID)] = &cp
	return nil
}

// Get returns a booking by id.
func (m *MemoryStore) Get(ctx context.Context, tenantID, bookingID string) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.byID[m.idKey(tenantID, bookingID)]
	if !ok {
		return nil, domain.NewNotFound("booking", bookingID)
	}
	cp := *b
	return &cp, nil
}

// Update replaces an existing booking.
func (m *MemoryStore) Update(ctx context.Context, b *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[m.idKey(b.TenantID, b.ID)]; !ok {
		return domain.NewNotFound("booking", b.ID)
	}
	cp := *b
	m.byID[m.idKey(b.TenantID, b.ID)] = &cp
	return nil
}

// ListByProviderBetween returns the provider's bookings whose interval touches
// [from, to), ordered by start time.
func (m *MemoryStore) ListByProviderBetween(ctx context.Context, tenantID, providerID string, from, to time.Time) ([]Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Booking
	for _, b := range m.byID {
		if b.TenantID != tenantID || b.ProviderID != providerID {
			continue
		}
		if b.Overlaps(from, to) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

// ListByCustomerEmail returns the customer's bookings, newest first.
func (m *MemoryStore) ListByCustomerEmail(ctx context.Context, tenantID, email string) ([]Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	normalized := domain.NormalizeEmail(email)
	var out []Booking
	for _, b := range m.byID {
		if b.TenantID == tenantID && domain.NormalizeEmail(b.Customer.Email) == normalized {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

// GetByConversation returns the booking created from a chat conversation.
func (m *MemoryStore) GetByConversation(ctx context.Context, tenantID, conversationID string) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.byID {
		if b.TenantID == tenantID && b.ConversationID == conversationID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, domain.NewNotFound("booking", conversationID)
}
