package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/turnoflow/booking-platform/internal/catalog"
	"github.com/turnoflow/booking-platform/internal/domain"
	"github.com/turnoflow/booking-platform/pkg/logging"
)

// Repository stores provider schedules. Weekly rules and exceptions are
// written as whole sets; partial updates are not supported.
type Repository interface {
	GetWeeklyRules(ctx context.Context, tenantID, providerID string) ([]WeeklyRule, error)
	PutWeeklyRules(ctx context.Context, tenantID, providerID string, rules []WeeklyRule) error
	GetExceptions(ctx context.Context, tenantID, providerID string) ([]ExceptionRule, error)
	PutExceptions(ctx context.Context, tenantID, providerID string, exceptions []ExceptionRule) error
}

// Interval is an occupied half-open period [Start, End) on a provider's
// calendar.
type Interval struct {
	Start time.Time
	End   time.Time
}

// BookingSource lists the active bookings of a provider so slot queries can
// subtract them. Implemented by the booking service.
type BookingSource interface {
	ListOccupied(ctx context.Context, tenantID, providerID string, from, to time.Time) ([]Interval, error)
}

// Service answers slot queries and manages provider schedules. Queries are
// read-only: nothing is reserved by looking at availability.
type Service struct {
	services  catalog.ServiceRepository
	providers catalog.ProviderRepository
	repo      Repository
	bookings  BookingSource
	interval  int
	logger    *logging.Logger
	now       func() time.Time
}

// Config wires a Service.
type Config struct {
	Services  catalog.ServiceRepository
	Providers catalog.ProviderRepository
	Repo      Repository
	// Bookings feeds the occupancy filter. Nil skips the filter, which is
	// only acceptable in tests that assert on raw generation.
	Bookings BookingSource
	// SlotIntervalMinutes is the default candidate cadence; zero means
	// DefaultSlotInterval.
	SlotIntervalMinutes int
	Logger              *logging.Logger
	Now                 func() time.Time
}

// NewService builds the availability service.
func NewService(cfg Config) *Service {
	if cfg.Services == nil {
		panic("availability: service repository cannot be nil")
	}
	if cfg.Providers == nil {
		panic("availability: provider repository cannot be nil")
	}
	if cfg.Repo == nil {
		panic("availability: schedule repository cannot be nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	interval := cfg.SlotIntervalMinutes
	if interval <= 0 {
		interval = DefaultSlotInterval
	}
	return &Service{
		services:  cfg.Services,
		providers: cfg.Providers,
		repo:      cfg.Repo,
		bookings:  cfg.Bookings,
		interval:  interval,
		logger:    cfg.Logger,
		now:       cfg.Now,
	}
}

// SlotQuery asks for the open slots of one provider for one service.
type SlotQuery struct {
	TenantID   string
	ServiceID  string
	ProviderID string
	From       time.Time
	To         time.Time
	// IntervalMinutes overrides the service-wide cadence for this query.
	IntervalMinutes int
}

// GetAvailableSlots validates the service and provider, generates candidate
// slots and subtracts the provider's existing bookings. Lookup failures
// surface before availability checks: an unknown service is reported as not
// found even when the provider is also missing.
func (s *Service) GetAvailableSlots(ctx context.Context, q SlotQuery) ([]Slot, error) {
	svc, err := s.services.Get(ctx, q.TenantID, q.ServiceID)
	if err != nil {
		return nil, err
	}
	if !svc.Bookable() {
		return nil, fmt.Errorf("availability: service %s: %w", q.ServiceID, domain.ErrServiceUnavailable)
	}

	provider, err := s.providers.Get(ctx, q.TenantID, q.ProviderID)
	if err != nil {
		return nil, err
	}
	if !provider.Offers(q.ServiceID) {
		return nil, fmt.Errorf("availability: provider %s: %w", q.ProviderID, domain.ErrProviderUnavailable)
	}

	weekly, err := s.repo.GetWeeklyRules(ctx, q.TenantID, q.ProviderID)
	if err != nil {
		return nil, fmt.Errorf("availability: load weekly rules: %w", err)
	}
	exceptions, err := s.repo.GetExceptions(ctx, q.TenantID, q.ProviderID)
	if err != nil {
		return nil, fmt.Errorf("availability: load exceptions: %w", err)
	}

	interval := q.IntervalMinutes
	if interval <= 0 {
		interval = s.interval
	}
	slots := GenerateSlots(weekly, exceptions, SlotRequest{
		ProviderID:      q.ProviderID,
		ServiceID:       q.ServiceID,
		DurationMinutes: svc.DurationMinutes,
		IntervalMinutes: interval,
		From:            q.From,
		To:              q.To,
	}, s.now())

	if s.bookings != nil && len(slots) > 0 {
		occupied, err := s.bookings.ListOccupied(ctx, q.TenantID, q.ProviderID, slots[0].Start, slots[len(slots)-1].End)
		if err != nil {
			return nil, fmt.Errorf("availability: load bookings: %w", err)
		}
		slots = filterOccupied(slots, occupied)
	}

	s.logger.Debug("slots generated",
		"tenant_id", q.TenantID,
		"provider_id", q.ProviderID,
		"service_id", q.ServiceID,
		"count", len(slots),
	)
	return slots, nil
}

// filterOccupied drops the candidates overlapping an occupied interval. Both
// sides are half-open, so back-to-back appointments do not collide.
func filterOccupied(slots []Slot, occupied []Interval) []Slot {
	if len(occupied) == 0 {
		return slots
	}
	out := slots[:0]
	for _, slot := range slots {
		taken := false
		for _, iv := range occupied {
			if slot.Start.Before(iv.End) && iv.Start.Before(slot.End) {
				taken = true
				break
			}
		}
		if !taken {
			out = append(out, slot)
		}
	}
	return out
}

// SetWeeklyRules replaces the weekly schedule of a provider.
func (s *Service) SetWeeklyRules(ctx context.Context, tenantID, providerID string, rules []WeeklyRule) error {
	if _, err := s.providers.Get(ctx, tenantID, providerID); err != nil {
		return err
	}
	for i := range rules {
		rules[i].TenantID = tenantID
		rules[i].ProviderID = providerID
		if err := rules[i].Validate(); err != nil {
			return err
		}
	}
	if err := s.repo.PutWeeklyRules(ctx, tenantID, providerID, rules); err != nil {
		return fmt.Errorf("availability: save weekly rules: %w", err)
	}
	s.logger.Info("weekly schedule updated", "tenant_id", tenantID, "provider_id", providerID, "days", len(rules))
	return nil
}

// GetWeeklyRules returns the weekly schedule of a provider.
func (s *Service) GetWeeklyRules(ctx context.Context, tenantID, providerID string) ([]WeeklyRule, error) {
	if _, err := s.providers.Get(ctx, tenantID, providerID); err != nil {
		return nil, err
	}
	rules, err := s.repo.GetWeeklyRules(ctx, tenantID, providerID)
	if err != nil {
		return nil, fmt.Errorf("availability: load weekly rules: %w", err)
	}
	return rules, nil
}

// SetExceptions replaces the date exceptions of a provider.
func (s *Service) SetExceptions(ctx context.Context, tenantID, providerID string, exceptions []ExceptionRule) error {
	if _, err := s.providers.Get(ctx, tenantID, providerID); err != nil {
		return err
	}
	for _, exc := range exceptions {
		if err := exc.Validate(); err != nil {
			return err
		}
	}
	if err := s.repo.PutExceptions(ctx, tenantID, providerID, exceptions); err != nil {
		return fmt.Errorf("availability: save exceptions: %w", err)
	}
	s.logger.Info("exceptions updated", "tenant_id", tenantID, "provider_id", providerID, "dates", len(exceptions))
	return nil
}

// GetExceptions returns the date exceptions of a provider.
func (s *Service) GetExceptions(ctx context.Context, tenantID, providerID string) ([]ExceptionRule, error) {
	if _, err := s.providers.Get(ctx, tenantID, providerID); err != nil {
		return nil, err
	}
	exceptions, err := s.repo.GetExceptions(ctx, tenantID, providerID)
	if err != nil {
		return nil, fmt.Errorf("availability: load exceptions: %w", err)
	}
	return exceptions, nil
}
