// Package catalog holds the tenant-scoped business catalog: tenants, bookable
// services, the providers who perform them, and FAQ entries surfaced in chat.
package catalog

import "time"

// TenantStatus is the lifecycle state of a tenant account.
type TenantStatus string

const (
	TenantActive    TenantStatus = "ACTIVE"
	TenantSuspended TenantStatus = "SUSPENDED"
	TenantTrial     TenantStatus = "TRIAL"
	TenantCancelled TenantStatus = "CANCELLED"
)

// TenantPlan is the subscription plan of a tenant account.
type TenantPlan string

const (
	PlanFree       TenantPlan = "FREE"
	PlanPro        TenantPlan = "PRO"
	PlanEnterprise TenantPlan = "ENTERPRISE"
)

// Tenant is a customer account owning a catalog and its bookings.
type Tenant struct {
	ID           string            `json:"tenant_id" dynamodbav:"tenantId"`
	Name         string            `json:"name" dynamodbav:"name"`
	Slug         string            `json:"slug" dynamodbav:"slug"`
	Status       TenantStatus      `json:"status" dynamodbav:"status"`
	Plan         TenantPlan        `json:"plan" dynamodbav:"plan"`
	OwnerUserID  string            `json:"owner_user_id" dynamodbav:"ownerUserId"`
	BillingEmail string            `json:"billing_email" dynamodbav:"billingEmail"`
	Settings     map[string]string `json:"settings,omitempty" dynamodbav:"settings,omitempty"`
	CreatedAt    time.Time         `json:"created_at" dynamodbav:"createdAt"`
}

// IsActive reports whether the tenant account is in good standing.
func (t *Tenant) IsActive() bool {
	return t.Status == TenantActive
}

// CanCreateBooking reports whether bookings may be created for this tenant.
// Only active accounts book; trial and suspended accounts browse but not book.
func (t *Tenant) CanCreateBooking() bool {
	return t.IsActive()
}

// Service is a bookable offering with a fixed duration and price.
type Service struct {
	ID              string `json:"service_id" dynamodbav:"serviceId"`
	TenantID        string `json:"tenant_id" dynamodbav:"tenantId"`
	Name            string `json:"name" dynamodbav:"name"`
	Description     string `json:"description,omitempty" dynamodbav:"description,omitempty"`
	Category        string `json:"category" dynamodbav:"category"`
	DurationMinutes int    `json:"duration_minutes" dynamodbav:"durationMinutes"`
	PriceCents      int64  `json:"price_cents" dynamodbav:"priceCents"`
	Currency        string `json:"currency" dynamodbav:"currency"`
	Active          bool   `json:"active" dynamodbav:"active"`
}

// Bookable reports whether the service can currently be booked.
func (s *Service) Bookable() bool {
	return s.Active && s.DurationMinutes > 0
}

// Provider is a professional who performs one or more services.
type Provider struct {
	ID         string   `json:"provider_id" dynamodbav:"providerId"`
	TenantID   string   `json:"tenant_id" dynamodbav:"tenantId"`
	Name       string   `json:"name" dynamodbav:"name"`
	Bio        string   `json:"bio,omitempty" dynamodbav:"bio,omitempty"`
	ServiceIDs []string `json:"service_ids" dynamodbav:"serviceIds"`
	Timezone   string   `json:"timezone" dynamodbav:"timezone"`
	Active     bool     `json:"active" dynamodbav:"active"`
}

// Offers reports whether the provider performs the given service.
func (p *Provider) Offers(serviceID string) bool {
	if !p.Active {
		return false
	}
	for _, id := range p.ServiceIDs {
		if id == serviceID {
			return true
		}
	}
	return false
}

// FAQ is a question/answer pair surfaced by the chat agent.
type FAQ struct {
	ID       string `json:"faq_id" dynamodbav:"faqId"`
	TenantID string `json:"tenant_id" dynamodbav:"tenantId"`
	Question string `json:"question" dynamodbav:"question"`
	Answer   string `json:"answer" dynamodbav:"answer"`
	Active   bool   `json:"active" dynamodbav:"active"`
}
