package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turnoflow/booking-platform/internal/domain"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		apply   func(*Booking) error
		want    Status
		wantErr bool
	}{
		{"confirm pending", StatusPending, (*Booking).Confirm, StatusConfirmed, false},
		{"confirm confirmed", StatusConfirmed, (*Booking).Confirm, StatusConfirmed, true},
		{"confirm cancelled", StatusCancelled, (*Booking).Confirm, StatusCancelled, true},
		{"cancel pending", StatusPending, (*Booking).Cancel, StatusCancelled, false},
		{"cancel confirmed", StatusConfirmed, (*Booking).Cancel, StatusCancelled, false},
		{"cancel cancelled", StatusCancelled, (*Booking).Cancel, StatusCancelled, true},
		{"no-show confirmed", StatusConfirmed, (*Booking).MarkNoShow, StatusNoShow, false},
		{"no-show pending", StatusPending, (*Booking).MarkNoShow, StatusPending, true},
		{"no-show no-show", StatusNoShow, (*Booking).MarkNoShow, StatusNoShow, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Booking{Status: tt.from}
			err := tt.apply(b)
			if tt.wantErr {
				assert.True(t, domain.IsValidation(err))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, b.Status)
		})
	}
}

func TestIsActive(t *testing.T) {
	assert.True(t, (&Booking{Status: StatusPending}).IsActive())
	assert.True(t, (&Booking{Status: StatusConfirmed}).IsActive())
	assert.False(t, (&Booking{Status: StatusCancelled}).IsActive())
	assert.False(t, (&Booking{Status: StatusNoShow}).IsActive())
}

func TestOverlapsIsHalfOpen(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	b := &Booking{StartTime: base, EndTime: base.Add(30 * time.Minute)}

	assert.True(t, b.Overlaps(base.Add(15*time.Minute), base.Add(45*time.Minute)))
	assert.True(t, b.Overlaps(base.Add(-15*time.Minute), base.Add(15*time.Minute)))
	// Back-to-back intervals share an endpoint, not an instant.
	assert.False(t, b.Overlaps(base.Add(30*time.Minute), base.Add(60*time.Minute)))
	assert.False(t, b.Overlaps(base.Add(-30*time.Minute), base))
}

func TestCreateRequestValidate(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	valid := CreateRequest{
		TenantID:    "tnt_1",
		ServiceID:   "svc_1",
		ProviderID:  "prv_1",
		StartTime:   start,
		EndTime:     start.Add(30 * time.Minute),
		ClientName:  "María García",
		ClientEmail: "maria@example.com",
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*CreateRequest)
	}{
		{"missing tenant", func(r *CreateRequest) { r.TenantID = "" }},
		{"missing service", func(r *CreateRequest) { r.ServiceID = "" }},
		{"missing provider", func(r *CreateRequest) { r.ProviderID = "" }},
		{"missing name", func(r *CreateRequest) { r.ClientName = "" }},
		{"missing email", func(r *CreateRequest) { r.ClientEmail = "" }},
		{"zero start", func(r *CreateRequest) { r.StartTime = time.Time{} }},
		{"end before start", func(r *CreateRequest) { r.EndTime = r.StartTime.Add(-time.Minute) }},
		{"end equals start", func(r *CreateRequest) { r.EndTime = r.StartTime }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			assert.True(t, domain.IsValidation(req.Validate()))
		})
	}
}
