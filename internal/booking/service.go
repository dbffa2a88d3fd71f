package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/turnoflow/booking-platform/internal/availability"
	"github.com/turnoflow/booking-platform/internal/catalog"
	"github.com/turnoflow/booking-platform/internal/domain"
	"github.com/turnoflow/booking-platform/internal/events"
	"github.com/turnoflow/booking-platform/internal/observability/metrics"
	"github.com/turnoflow/booking-platform/internal/payments"
	"github.com/turnoflow/booking-platform/pkg/logging"
)

// Notifier sends the customer-facing confirmation for a new booking.
// Implementations enqueue and return quickly; delivery happens elsewhere.
type Notifier interface {
	BookingConfirmation(ctx context.Context, b *Booking, serviceName, providerName string) error
}

// Config wires the booking service.
type Config struct {
	Tenants   catalog.TenantRepository
	Services  catalog.ServiceRepository
	Providers catalog.ProviderRepository
	Store     Store

	// Optional collaborators. All of them are best-effort: a nil value or a
	// failure never blocks booking creation.
	Payments payments.Gateway
	Ledger   *events.Ledger
	Notifier Notifier
	Metrics  *metrics.BookingMetrics

	Logger *logging.Logger
	Now    func() time.Time
}

// Service creates and manages bookings.
type Service struct {
	tenants   catalog.TenantRepository
	services  catalog.ServiceRepository
	providers catalog.ProviderRepository
	store     Store
	payments  payments.Gateway
	ledger    *events.Ledger
	notifier  Notifier
	metrics   *metrics.BookingMetrics
	logger    *logging.Logger
	now       func() time.Time
}

// NewService builds a booking service from its configuration.
func NewService(cfg Config) *Service {
	if cfg.Tenants == nil {
		panic("booking: tenant repository cannot be nil")
	}
	if cfg.Services == nil {
		panic("booking: service repository cannot be nil")
	}
	if cfg.Providers == nil {
		panic("booking: provider repository cannot be nil")
	}
	if cfg.Store == nil {
		panic("booking: store cannot be nil")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		tenants:   cfg.Tenants,
		services:  cfg.Services,
		providers: cfg.Providers,
		store:     cfg.Store,
		payments:  cfg.Payments,
		ledger:    cfg.Ledger,
		notifier:  cfg.Notifier,
		metrics:   cfg.Metrics,
		logger:    logger,
		now:       now,
	}
}

// Create validates the request against the catalog, rejects slots that are
// already taken, and persists the booking behind the store's conditional
// insert. A lost race surfaces as domain.ErrSlotUnavailable, the same error
// the advisory pre-check returns, so callers see one conflict shape.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Booking, error) {
	started := s.now()
	b, err := s.create(ctx, req)
	s.metrics.ObserveCreateLatency(s.now().Sub(started).Seconds())
	if err != nil {
		if errors.Is(err, domain.ErrSlotUnavailable) {
			s.metrics.ObserveCreated("conflict")
		} else {
			s.metrics.ObserveCreated("error")
		}
		return nil, err
	}
	s.metrics.ObserveCreated("ok")
	return b, nil
}

func (s *Service) create(ctx context.Context, req CreateRequest) (*Booking, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tenant, err := s.tenants.Get(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}
	if !tenant.CanCreateBooking() {
		return nil, domain.ErrTenantInactive
	}

	svc, err := s.services.Get(ctx, req.TenantID, req.ServiceID)
	if err != nil {
		return nil, err
	}
	if !svc.Bookable() {
		return nil, domain.ErrServiceUnavailable
	}

	provider, err := s.providers.Get(ctx, req.TenantID, req.ProviderID)
	if err != nil {
		return nil, err
	}
	if !provider.Offers(req.ServiceID) {
		return nil, domain.ErrProviderUnavailable
	}

	duration := req.EndTime.Sub(req.StartTime)
	if duration != time.Duration(svc.DurationMinutes)*time.Minute {
		return nil, domain.NewValidation("end_time",
			fmt.Sprintf("interval must match the service duration of %d minutes", svc.DurationMinutes))
	}
	if !req.StartTime.After(s.now()) {
		return nil, domain.NewValidation("start_time", "must be in the future")
	}

	if err := s.checkSlotFree(ctx, req); err != nil {
		return nil, err
	}

	paymentStatus := PaymentNone
	if svc.PriceCents > 0 {
		paymentStatus = PaymentPending
	}

	nowUTC := s.now().UTC()
	b := &Booking{
		ID:         domain.NewID("bkg"),
		TenantID:   req.TenantID,
		ServiceID:  req.ServiceID,
		ProviderID: req.ProviderID,
		Customer: Customer{
			ID:    domain.CustomerIDFromEmail(req.ClientEmail),
			Name:  req.ClientName,
			Email: domain.NormalizeEmail(req.ClientEmail),
			Phone: req.ClientPhone,
		},
		StartTime:      req.StartTime.UTC(),
		EndTime:        req.EndTime.UTC(),
		Status:         StatusPending,
		PaymentStatus:  paymentStatus,
		TotalCents:     svc.PriceCents,
		Currency:       svc.Currency,
		ConversationID: req.ConversationID,
		Notes:          req.Notes,
		CreatedAt:      nowUTC,
		UpdatedAt:      nowUTC,
	}

	if err := s.store.CreateIfAbsent(ctx, b); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			s.metrics.ObserveConflict()
			s.logger.Warn("booking slot lost to concurrent writer",
				slog.String("tenant_id", b.TenantID),
				slog.String("provider_id", b.ProviderID),
				slog.Time("start_time", b.StartTime))
			return nil, domain.ErrSlotUnavailable
		}
		return nil, err
	}

	s.preparePayment(ctx, b, svc)
	s.recordEvent(ctx, events.TypeBookingCreated, b, map[string]string{
		"service_id":  b.ServiceID,
		"provider_id": b.ProviderID,
		"start_time":  domain.FormatTime(b.StartTime),
	})
	s.notifyConfirmation(ctx, b, svc.Name, provider.Name)

	s.logger.Info("booking created",
		slog.String("booking_id", b.ID),
		slog.String("tenant_id", b.TenantID),
		slog.String("provider_id", b.ProviderID),
		slog.Time("start_time", b.StartTime))
	return b, nil
}

// checkSlotFree is the advisory overlap pre-check over the civil day of the
// requested start. It catches the common conflict before the write; the
// conditional insert remains the guard that holds under races.
func (s *Service) checkSlotFree(ctx context.Context, req CreateRequest) error {
	dayStart := req.StartTime.UTC().Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)
	existing, err := s.store.ListByProviderBetween(ctx, req.TenantID, req.ProviderID, dayStart, dayEnd)
	if err != nil {
		return fmt.Errorf("booking: list existing bookings: %w", err)
	}
	for i := range existing {
		if existing[i].IsActive() && existing[i].Overlaps(req.StartTime, req.EndTime) {
			return domain.ErrSlotUnavailable
		}
	}
	return nil
}

func (s *Service) preparePayment(ctx context.Context, b *Booking, svc *catalog.Service) {
	if s.payments == nil || svc.PriceCents <= 0 {
		return
	}
	intent, err := s.payments.CreatePaymentIntent(ctx, payments.IntentRequest{
		AmountCents: svc.PriceCents,
		Currency:    svc.Currency,
		Metadata: map[string]string{
			"booking_id": b.ID,
			"tenant_id":  b.TenantID,
			"service_id": b.ServiceID,
		},
	})
	if err != nil {
		s.logger.Error("payment intent creation failed",
			slog.String("booking_id", b.ID),
			slog.String("error", err.Error()))
		return
	}
	b.PaymentIntentID = intent.PaymentID
	if err := s.store.Update(ctx, b); err != nil {
		s.logger.Error("persisting payment intent on booking failed",
			slog.String("booking_id", b.ID),
			slog.String("error", err.Error()))
	}
}

func (s *Service) recordEvent(ctx context.Context, eventType string, b *Booking, payload map[string]string) {
	if err := s.ledger.Insert(ctx, events.Event{
		Type:      eventType,
		TenantID:  b.TenantID,
		BookingID: b.ID,
		Payload:   payload,
	}); err != nil {
		s.logger.Error("booking event insert failed",
			slog.String("booking_id", b.ID),
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
	}
}

func (s *Service) notifyConfirmation(ctx context.Context, b *Booking, serviceName, providerName string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.BookingConfirmation(ctx, b, serviceName, providerName); err != nil {
		s.logger.Error("booking confirmation notification failed",
			slog.String("booking_id", b.ID),
			slog.String("error", err.Error()))
	}
}

// Get returns one booking by id.
func (s *Service) Get(ctx context.Context, tenantID, bookingID string) (*Booking, error) {
	return s.store.Get(ctx, tenantID, bookingID)
}

// GetByConversation returns the booking created from a chat conversation.
func (s *Service) GetByConversation(ctx context.Context, tenantID, conversationID string) (*Booking, error) {
	return s.store.GetByConversation(ctx, tenantID, conversationID)
}

// ListByProvider returns the provider's bookings overlapping [from, to).
func (s *Service) ListByProvider(ctx context.Context, tenantID, providerID string, from, to time.Time) ([]Booking, error) {
	return s.store.ListByProviderBetween(ctx, tenantID, providerID, from, to)
}

// ListByCustomerEmail returns the customer's bookings.
func (s *Service) ListByCustomerEmail(ctx context.Context, tenantID, email string) ([]Booking, error) {
	return s.store.ListByCustomerEmail(ctx, tenantID, email)
}

var _ availability.BookingSource = (*Service)(nil)

// ListOccupied returns the provider's active booking intervals touching
// [from, to). Cancelled and no-show bookings free their slot.
func (s *Service) ListOccupied(ctx context.Context, tenantID, providerID string, from, to time.Time) ([]availability.Interval, error) {
	bookings, err := s.store.ListByProviderBetween(ctx, tenantID, providerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("booking: list occupied: %w", err)
	}
	out := make([]availability.Interval, 0, len(bookings))
	for i := range bookings {
		if !bookings[i].IsActive() {
			continue
		}
		out = append(out, availability.Interval{Start: bookings[i].StartTime, End: bookings[i].EndTime})
	}
	return out, nil
}

// Confirm transitions a booking to CONFIRMED.
func (s *Service) Confirm(ctx context.Context, tenantID, bookingID string) (*Booking, error) {
	return s.transition(ctx, tenantID, bookingID, events.TypeBookingConfirmed, (*Booking).Confirm)
}

// Cancel transitions a booking to CANCELLED.
func (s *Service) Cancel(ctx context.Context, tenantID, bookingID string) (*Booking, error) {
	return s.transition(ctx, tenantID, bookingID, events.TypeBookingCancelled, (*Booking).Cancel)
}

// MarkNoShow transitions a confirmed booking to NO_SHOW.
func (s *Service) MarkNoShow(ctx context.Context, tenantID, bookingID string) (*Booking, error) {
	return s.transition(ctx, tenantID, bookingID, events.TypeBookingNoShow, (*Booking).MarkNoShow)
}

func (s *Service) transition(ctx context.Context, tenantID, bookingID, eventType string, apply func(*Booking) error) (*Booking, error) {
	b, err := s.store.Get(ctx, tenantID, bookingID)
	if err != nil {
		return nil, err
	}
	previous := b.Status
	if err := apply(b); err != nil {
		return nil, err
	}
	b.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, b); err != nil {
		return nil, err
	}
	s.recordEvent(ctx, eventType, b, map[string]string{
		"from_status": string(previous),
		"to_status":   string(b.Status),
	})
	s.logger.Info("booking status changed",
		slog.String("booking_id", b.ID),
		slog.String("from", string(previous)),
		slog.String("to", string(b.Status)))
	return b, nil
}
