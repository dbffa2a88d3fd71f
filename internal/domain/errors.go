// Package domain holds the error taxonomy and identity helpers shared by the
// booking, availability and workflow packages.
package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is the base error for entity lookups. Use NotFoundError to
	// carry the entity kind and id; callers match with errors.Is(err, ErrNotFound).
	ErrNotFound = errors.New("not found")

	// ErrSlotUnavailable reports that a requested time slot cannot be booked.
	// This is the only conflict-shaped error surfaced to callers.
	ErrSlotUnavailable = errors.New("slot unavailable")

	// ErrConflict reports that a storage-level conditional write lost a race.
	// The booking service translates it to ErrSlotUnavailable before returning;
	// it must never reach a handler or a chat response.
	ErrConflict = errors.New("conflict")

	// ErrTenantInactive reports that the tenant account cannot create bookings.
	ErrTenantInactive = errors.New("tenant inactive")

	// ErrServiceUnavailable reports a service that exists but cannot be booked.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrProviderUnavailable reports a provider that exists but cannot take the
	// requested booking (inactive, or does not offer the service).
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// NotFoundError identifies which entity a failed lookup was for.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s %s", e.Entity, ErrNotFound)
	}
	return fmt.Sprintf("%s %s %s", e.Entity, e.ID, ErrNotFound)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFound builds a NotFoundError for the given entity kind and id.
func NewNotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ValidationError reports invalid input or an illegal state transition.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NewValidation builds a ValidationError for the given field.
func NewValidation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
