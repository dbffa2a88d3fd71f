package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turnoflow/booking-platform/internal/catalog"
	"github.com/turnoflow/booking-platform/internal/domain"
)

type stubOccupancy struct {
	intervals []Interval
	err       error
}

func (s *stubOccupancy) ListOccupied(ctx context.Context, tenantID, providerID string, from, to time.Time) ([]Interval, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.intervals, nil
}

func fixtureService(t *testing.T) (*Service, *MemoryRepository) {
	svc, repo, _ := fixtureServiceWithBookings(t)
	return svc, repo
}

func fixtureServiceWithBookings(t *testing.T) (*Service, *MemoryRepository, *stubOccupancy) {
	t.Helper()

	store := catalog.NewMemoryStore()
	store.PutTenant(catalog.Tenant{ID: "tnt_1", Status: catalog.TenantActive})
	store.PutService(catalog.Service{ID: "svc_cut", TenantID: "tnt_1", Name: "Corte", DurationMinutes: 30, Active: true})
	store.PutService(catalog.Service{ID: "svc_off", TenantID: "tnt_1", Name: "Viejo", DurationMinutes: 45, Active: false})
	store.PutService(catalog.Service{ID: "svc_nails", TenantID: "tnt_1", Name: "Manicura", DurationMinutes: 45, Active: true})
	store.PutProvider(catalog.Provider{ID: "prv_ana", TenantID: "tnt_1", Name: "Ana", ServiceIDs: []string{"svc_cut"}, Active: true})
	store.PutProvider(catalog.Provider{ID: "prv_off", TenantID: "tnt_1", Name: "Benito", ServiceIDs: []string{"svc_cut"}, Active: false})

	repo := NewMemoryRepository()
	occupancy := &stubOccupancy{}
	svc := NewService(Config{
		Services:  store.Services(),
		Providers: store.Providers(),
		Repo:      repo,
		Bookings:  occupancy,
		Now:       func() time.Time { return frozenNow },
	})
	return svc, repo, occupancy
}

func TestGetAvailableSlots_HappyPath(t *testing.T) {
	svc, repo := fixtureService(t)
	require.NoError(t, repo.PutWeeklyRules(context.Background(), "tnt_1", "prv_ana", []WeeklyRule{
		{DayOfWeek: Monday, Ranges: []TimeRange{{Start: "09:00", End: "10:00"}}},
	}))

	slots, err := svc.GetAvailableSlots(context.Background(), SlotQuery{
		TenantID:        "tnt_1",
		ServiceID:       "svc_cut",
		ProviderID:      "prv_ana",
		From:            nextMonday,
		To:              nextMonday,
		IntervalMinutes: 30,
	})
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "prv_ana", slots[0].ProviderID)
	assert.Equal(t, "svc_cut", slots[0].ServiceID)
}

func TestGetAvailableSlots_BookedSlotsAreNotOffered(t *testing.T) {
	svc, repo, occupancy := fixtureServiceWithBookings(t)
	require.NoError(t, repo.PutWeeklyRules(context.Background(), "tnt_1", "prv_ana", []WeeklyRule{
		{DayOfWeek: Monday, Ranges: []TimeRange{{Start: "09:00", End: "10:30"}}},
	}))
	// 09:00-09:30 is taken; the 09:30 and 10:00 starts stay free because the
	// intervals are half-open.
	occupancy.intervals = []Interval{
		{Start: nextMonday.Add(9 * time.Hour), End: nextMonday.Add(9*time.Hour + 30*time.Minute)},
	}

	slots, err := svc.GetAvailableSlots(context.Background(), SlotQuery{
		TenantID:        "tnt_1",
		ServiceID:       "svc_cut",
		ProviderID:      "prv_ana",
		From:            nextMonday,
		To:              nextMonday,
		IntervalMinutes: 30,
	})
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, nextMonday.Add(9*time.Hour+30*time.Minute), slots[0].Start)
	assert.Equal(t, nextMonday.Add(10*time.Hour), slots[1].Start)
}

func TestGetAvailableSlots_PartialOverlapBlocksCandidate(t *testing.T) {
	svc, repo, occupancy := fixtureServiceWithBookings(t)
	require.NoError(t, repo.PutWeeklyRules(context.Background(), "tnt_1", "prv_ana", []WeeklyRule{
		{DayOfWeek: Monday, Ranges: []TimeRange{{Start: "09:00", End: "10:00"}}},
	}))
	// A booking straddling 09:15-09:45 knocks out both half-hour candidates.
	occupancy.intervals = []Interval{
		{Start: nextMonday.Add(9*time.Hour + 15*time.Minute), End: nextMonday.Add(9*time.Hour + 45*time.Minute)},
	}

	slots, err := svc.GetAvailableSlots(context.Background(), SlotQuery{
		TenantID:        "tnt_1",
		ServiceID:       "svc_cut",
		ProviderID:      "prv_ana",
		From:            nextMonday,
		To:              nextMonday,
		IntervalMinutes: 30,
	})
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestGetAvailableSlots_BookingLookupFailurePropagates(t *testing.T) {
	svc, repo, occupancy := fixtureServiceWithBookings(t)
	require.NoError(t, repo.PutWeeklyRules(context.Background(), "tnt_1", "prv_ana", []WeeklyRule{
		{DayOfWeek: Monday, Ranges: []TimeRange{{Start: "09:00", End: "10:00"}}},
	}))
	occupancy.err = errors.New("table offline")

	_, err := svc.GetAvailableSlots(context.Background(), SlotQuery{
		TenantID: "tnt_1", ServiceID: "svc_cut", ProviderID: "prv_ana",
		From: nextMonday, To: nextMonday,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load bookings")
}

func TestGetAvailableSlots_ValidationOrder(t *testing.T) {
	svc, _ := fixtureService(t)
	ctx := context.Background()

	t.Run("unknown service reported before provider problems", func(t *testing.T) {
		// Provider is also unknown; the service lookup must fail first.
		_, err := svc.GetAvailableSlots(ctx, SlotQuery{
			TenantID: "tnt_1", ServiceID: "svc_ghost", ProviderID: "prv_ghost",
			From: nextMonday, To: nextMonday,
		})
		var nf *domain.NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, "service", nf.Entity)
	})

	t.Run("inactive service reported before provider lookup", func(t *testing.T) {
		_, err := svc.GetAvailableSlots(ctx, SlotQuery{
			TenantID: "tnt_1", ServiceID: "svc_off", ProviderID: "prv_ghost",
			From: nextMonday, To: nextMonday,
		})
		assert.True(t, errors.Is(err, domain.ErrServiceUnavailable))
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := svc.GetAvailableSlots(ctx, SlotQuery{
			TenantID: "tnt_1", ServiceID: "svc_cut", ProviderID: "prv_ghost",
			From: nextMonday, To: nextMonday,
		})
		var nf *domain.NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, "provider", nf.Entity)
	})

	t.Run("inactive provider", func(t *testing.T) {
		_, err := svc.GetAvailableSlots(ctx, SlotQuery{
			TenantID: "tnt_1", ServiceID: "svc_cut", ProviderID: "prv_off",
			From: nextMonday, To: nextMonday,
		})
		assert.True(t, errors.Is(err, domain.ErrProviderUnavailable))
	})

	t.Run("provider does not offer the service", func(t *testing.T) {
		// Ana is active but only does haircuts.
		_, err := svc.GetAvailableSlots(ctx, SlotQuery{
			TenantID: "tnt_1", ServiceID: "svc_nails", ProviderID: "prv_ana",
			From: nextMonday, To: nextMonday,
		})
		assert.True(t, errors.Is(err, domain.ErrProviderUnavailable))
	})
}

func TestGetAvailableSlots_NoScheduleMeansNoSlots(t *testing.T) {
	svc, _ := fixtureService(t)

	slots, err := svc.GetAvailableSlots(context.Background(), SlotQuery{
		TenantID: "tnt_1", ServiceID: "svc_cut", ProviderID: "prv_ana",
		From: nextMonday, To: nextMonday,
	})
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestSetWeeklyRules_Validation(t *testing.T) {
	svc, repo := fixtureService(t)
	ctx := context.Background()

	err := svc.SetWeeklyRules(ctx, "tnt_1", "prv_ana", []WeeklyRule{
		{DayOfWeek: "LUNES", Ranges: []TimeRange{{Start: "09:00", End: "10:00"}}},
	})
	assert.True(t, domain.IsValidation(err), "unknown day name must be rejected")

	err = svc.SetWeeklyRules(ctx, "tnt_1", "prv_ana", []WeeklyRule{
		{DayOfWeek: Monday, Ranges: []TimeRange{{Start: "10:00", End: "09:00"}}},
	})
	assert.True(t, domain.IsValidation(err), "inverted range must be rejected at write time")

	err = svc.SetWeeklyRules(ctx, "tnt_1", "prv_ana", []WeeklyRule{
		{DayOfWeek: Monday, Ranges: []TimeRange{{Start: "09:00", End: "13:00"}}, Breaks: []TimeRange{{Start: "11:00", End: "11:30"}}},
	})
	require.NoError(t, err)

	rules, err := repo.GetWeeklyRules(ctx, "tnt_1", "prv_ana")
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "tnt_1", rules[0].TenantID, "tenant id is stamped onto stored rules")
}

func TestSetExceptions_Validation(t *testing.T) {
	svc, repo := fixtureService(t)
	ctx := context.Background()

	err := svc.SetExceptions(ctx, "tnt_1", "prv_ana", []ExceptionRule{{Date: "02-03-2026"}})
	assert.True(t, domain.IsValidation(err), "dates must be YYYY-MM-DD")

	err = svc.SetExceptions(ctx, "tnt_1", "prv_ana", []ExceptionRule{
		{Date: "2026-03-02", Ranges: []TimeRange{{Start: "10:00", End: "12:00"}}},
		{Date: "2026-03-03"},
	})
	require.NoError(t, err)

	exceptions, err := repo.GetExceptions(ctx, "tnt_1", "prv_ana")
	require.NoError(t, err)
	assert.Len(t, exceptions, 2)
}

func TestScheduleOpsRequireKnownProvider(t *testing.T) {
	svc, _ := fixtureService(t)
	ctx := context.Background()

	_, err := svc.GetWeeklyRules(ctx, "tnt_1", "prv_ghost")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	err = svc.SetExceptions(ctx, "tnt_1", "prv_ghost", nil)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
