// Package events appends booking lifecycle events to a Postgres ledger.
// The ledger is an audit trail, not a source of truth: writers treat failures
// as log-and-continue.
package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types recorded by the booking service.
const (
	TypeBookingCreated   = "booking_created"
	TypeBookingConfirmed = "booking_confirmed"
	TypeBookingCancelled = "booking_cancelled"
	TypeBookingNoShow    = "booking_no_show"
)

// Event is one ledger row.
type Event struct {
	ID        uuid.UUID         `json:"id"`
	Type      string            `json:"type"`
	TenantID  string            `json:"tenant_id"`
	BookingID string            `json:"booking_id"`
	Payload   map[string]string `json:"payload,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Ledger persists booking events to PostgreSQL.
type Ledger struct {
	db *sql.DB
}

// NewLedger creates a ledger over the given database. A nil db yields a nil
// ledger; the nil receiver is safe and turns writes into no-ops so the ledger
// stays optional at runtime.
func NewLedger(db *sql.DB) *Ledger {
	if db == nil {
		return nil
	}
	return &Ledger{db: db}
}

// Insert appends one event. The id and timestamp are assigned here when unset.
func (l *Ledger) Insert(ctx context.Context, evt Event) error {
	if l == nil || l.db == nil {
		return nil
	}
	if evt.Type == "" || evt.TenantID == "" || evt.BookingID == "" {
		return fmt.Errorf("events: type, tenant_id and booking_id are required")
	}
	if evt.ID == uuid.Nil {
		evt.ID = uuid.New()
	}
	if evt.CreatedAt.IsZero() {
		evt.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		return fmt.Errorf("events: marshal payload: %w", err)
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO booking_events (id, event_type, tenant_id, booking_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		evt.ID, evt.Type, evt.TenantID, evt.BookingID, payload, evt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("events: insert event: %w", err)
	}
	return nil
}

// ListByBooking returns the events of one booking, oldest first.
func (l *Ledger) ListByBooking(ctx context.Context, tenantID, bookingID string) ([]Event, error) {
	if l == nil || l.db == nil {
		return nil, nil
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, event_type, tenant_id, booking_id, payload, created_at
		FROM booking_events
		WHERE tenant_id = $1 AND booking_id = $2
		ORDER BY created_at ASC`,
		tenantID, bookingID,
	)
	if err != nil {
		return nil, fmt.Errorf("events: query events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var evt Event
		var payload []byte
		if err := rows.Scan(&evt.ID, &evt.Type, &evt.TenantID, &evt.BookingID, &payload, &evt.CreatedAt); err != nil {
			return nil, fmt.Errorf("events: scan event: %w", err)
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &evt.Payload); err != nil {
				return nil, fmt.Errorf("events: decode payload: %w", err)
			}
		}
		out = append(out, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("events: iterate events: %w", err)
	}
	return out, nil
}
