// Package booking creates and manages appointments. Double-booking is
// prevented by a conditional write on the (tenant, provider, start time) key:
// the application-level overlap pre-check only makes the common case fail
// early, the storage precondition is the guard that holds under races.
package booking

import (
	"fmt"
	"time"

	"github.com/turnoflow/booking-platform/internal/domain"
)

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusNoShow    Status = "NO_SHOW"
)

// PaymentStatus tracks the payment side of a booking.
type PaymentStatus string

const (
	PaymentNone    PaymentStatus = "NONE"
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
)

// Customer is the contact information captured at booking time.
type Customer struct {
	ID    string `json:"customer_id" dynamodbav:"customerId"`
	Name  string `json:"name" dynamodbav:"name"`
	Email string `json:"email" dynamodbav:"email"`
	Phone string `json:"phone,omitempty" dynamodbav:"phone,omitempty"`
}

// Booking is an appointment for one provider, service and time interval.
type Booking struct {
	ID              string        `json:"booking_id" dynamodbav:"bookingId"`
	TenantID        string        `json:"tenant_id" dynamodbav:"tenantId"`
	ServiceID       string        `json:"service_id" dynamodbav:"serviceId"`
	ProviderID      string        `json:"provider_id" dynamodbav:"providerId"`
	Customer        Customer      `json:"customer" dynamodbav:"customer"`
	StartTime       time.Time     `json:"start_time" dynamodbav:"startTime"`
	EndTime         time.Time     `json:"end_time" dynamodbav:"endTime"`
	Status          Status        `json:"status" dynamodbav:"status"`
	PaymentStatus   PaymentStatus `json:"payment_status" dynamodbav:"paymentStatus"`
	PaymentIntentID string        `json:"payment_intent_id,omitempty" dynamodbav:"paymentIntentId,omitempty"`
	TotalCents      int64         `json:"total_cents" dynamodbav:"totalCents"`
	Currency        string        `json:"currency" dynamodbav:"currency"`
	ConversationID  string        `json:"conversation_id,omitempty" dynamodbav:"conversationId,omitempty"`
	Notes           string        `json:"notes,omitempty" dynamodbav:"notes,omitempty"`
	CreatedAt       time.Time     `json:"created_at" dynamodbav:"createdAt"`
	UpdatedAt       time.Time     `json:"updated_at" dynamodbav:"updatedAt"`
}

// IsActive reports whether the booking still occupies its slot. Only active
// bookings block availability.
func (b *Booking) IsActive() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// Overlaps reports whether two bookings share any instant, half-open on both.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && start.Before(b.EndTime)
}

// Confirm moves PENDING to CONFIRMED.
func (b *Booking) Confirm() error {
	if b.Status != StatusPending {
		return domain.NewValidation("status", fmt.Sprintf("cannot confirm booking in status %s", b.Status))
	}
	b.Status = StatusConfirmed
	return nil
}

// Cancel moves PENDING or CONFIRMED to CANCELLED.
func (b *Booking) Cancel() error {
	if b.Status != StatusPending && b.Status != StatusConfirmed {
		return domain.NewValidation("status", fmt.Sprintf("cannot cancel booking in status %s", b.Status))
	}
	b.Status = StatusCancelled
	return nil
}

// MarkNoShow moves CONFIRMED to NO_SHOW.
func (b *Booking) MarkNoShow() error {
	if b.Status != StatusConfirmed {
		return domain.NewValidation("status", fmt.Sprintf("cannot mark no-show for booking in status %s", b.Status))
	}
	b.Status = StatusNoShow
	return nil
}

// CreateRequest carries the inputs to Service.Create.
type CreateRequest struct {
	TenantID       string    `json:"tenant_id"`
	ServiceID      string    `json:"service_id"`
	ProviderID     string    `json:"provider_id"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	ClientName     string    `json:"client_name"`
	ClientEmail    string    `json:"client_email"`
	ClientPhone    string    `json:"client_phone,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	ConversationID string    `json:"conversation_id,omitempty"`
}

// Validate checks request shape before any repository work.
func (r CreateRequest) Validate() error {
	if r.TenantID == "" {
		return domain.NewValidation("tenant_id", "required")
	}
	if r.ServiceID == "" {
		return domain.NewValidation("service_id", "required")
	}
	if r.ProviderID == "" {
		return domain.NewValidation("provider_id", "required")
	}
	if r.ClientName == "" {
		return domain.NewValidation("client_name", "required")
	}
	if r.ClientEmail == "" {
		return domain.NewValidation("client_email", "required")
	}
	if r.StartTime.IsZero() || r.EndTime.IsZero() {
		return domain.NewValidation("start_time", "start and end are required")
	}
	if !r.EndTime.After(r.StartTime) {
		return domain.NewValidation("end_time", "end must be after start")
	}
	return nil
}
