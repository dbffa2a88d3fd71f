package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/turnoflow/booking-platform/internal/domain"
)

// TenantRepository loads tenant accounts.
type TenantRepository interface {
	Get(ctx context.Context, tenantID string) (*Tenant, error)
}

// ServiceRepository loads the bookable services of a tenant.
type ServiceRepository interface {
	Get(ctx context.Context, tenantID, serviceID string) (*Service, error)
	ListActive(ctx context.Context, tenantID string) ([]Service, error)
}

// ProviderRepository loads the providers of a tenant.
type ProviderRepository interface {
	Get(ctx context.Context, tenantID, providerID string) (*Provider, error)
	ListActive(ctx context.Context, tenantID string) ([]Provider, error)
	ListByService(ctx context.Context, tenantID, serviceID string) ([]Provider, error)
}

// FAQRepository loads the FAQ entries of a tenant.
type FAQRepository interface {
	ListActive(ctx context.Context, tenantID string) ([]FAQ, error)
}

// MemoryStore is an in-memory catalog used by tests and the demo seeder.
// The Tenants/Services/Providers/FAQs views expose it through the repository
// interfaces.
type MemoryStore struct {
	mu        sync.RWMutex
	tenants   map[string]*Tenant
	services  map[string]map[string]*Service
	providers map[string]map[string]*Provider
	faqs      map[string]map[string]*FAQ
}

// NewMemoryStore creates an empty in-memory catalog.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tenants:   make(map[string]*Tenant),
		services:  make(map[string]map[string]*Service),
		providers: make(map[string]map[string]*Provider),
		faqs:      make(map[string]map[string]*FAQ),
	}
}

// PutTenant inserts or replaces a tenant.
func (m *MemoryStore) PutTenant(t Tenant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tenants[t.ID] = &t
}

// PutService inserts or replaces a service.
func (m *MemoryStore) PutService(s Service) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.services[s.TenantID] == nil {
		m.services[s.TenantID] = make(map[string]*Service)
	}
	m.services[s.TenantID][s.ID] = &s
}

// PutProvider inserts or replaces a provider.
func (m *MemoryStore) PutProvider(p Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.providers[p.TenantID] == nil {
		m.providers[p.TenantID] = make(map[string]*Provider)
	}
	m.providers[p.TenantID][p.ID] = &p
}

// PutFAQ inserts or replaces an FAQ entry.
func (m *MemoryStore) PutFAQ(f FAQ) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.faqs[f.TenantID] == nil {
		m.faqs[f.TenantID] = make(map[string]*FAQ)
	}
	m.faqs[f.TenantID][f.ID] = &f
}

// Tenants returns the store as a TenantRepository.
func (m *MemoryStore) Tenants() TenantRepository { return memTenants{m} }

// Services returns the store as a ServiceRepository.
func (m *MemoryStore) Services() ServiceRepository { return memServices{m} }

// Providers returns the store as a ProviderRepository.
func (m *MemoryStore) Providers() ProviderRepository { return memProviders{m} }

// FAQs returns the store as an FAQRepository.
func (m *MemoryStore) FAQs() FAQRepository { return memFAQs{m} }

type memTenants struct{ store *MemoryStore }

var _ TenantRepository = memTenants{}

func (v memTenants) Get(ctx context.Context, tenantID string) (*Tenant, error) {
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	t, ok := v.store.tenants[tenantID]
	if !ok {
		return nil, domain.NewNotFound("tenant", tenantID)
	}
	cp := *t
	return &cp, nil
}

type memServices struct{ store *MemoryStore }

var _ ServiceRepository = memServices{}

func (v memServices) Get(ctx context.Context, tenantID, serviceID string) (*Service, error) {
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	s, ok := v.store.services[tenantID][serviceID]
	if !ok {
		return nil, domain.NewNotFound("service", serviceID)
	}
	cp := *s
	return &cp, nil
}

func (v memServices) ListActive(ctx context.Context, tenantID string) ([]Service, error) {
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	out := make([]Service, 0, len(v.store.services[tenantID]))
	for _, s := range v.store.services[tenantID] {
		if s.Active {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type memProviders struct{ store *MemoryStore }

var _ ProviderRepository = memProviders{}

func (v memProviders) Get(ctx context.Context, tenantID, providerID string) (*Provider, error) {
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	p, ok := v.store.providers[tenantID][providerID]
	if !ok {
		return nil, domain.NewNotFound("provider", providerID)
	}
	cp := *p
	return &cp, nil
}

func (v memProviders) ListActive(ctx context.Context, tenantID string) ([]Provider, error) {
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	out := make([]Provider, 0, len(v.store.providers[tenantID]))
	for _, p := range v.store.providers[tenantID] {
		if p.Active {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (v memProviders) ListByService(ctx context.Context, tenantID, serviceID string) ([]Provider, error) {
	all, err := v.ListActive(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]Provider, 0, len(all))
	for _, p := range all {
		if p.Offers(serviceID) {
			out = append(out, p)
		}
	}
	return out, nil
}

type memFAQs struct{ store *MemoryStore }

var _ FAQRepository = memFAQs{}

func (v memFAQs) ListActive(ctx context.Context, tenantID string) ([]FAQ, error) {
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	out := make([]FAQ, 0, len(v.store.faqs[tenantID]))
	for _, f := range v.store.faqs[tenantID] {
		if f.Active {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Question < out[j].Question })
	return out, nil
}
