package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turnoflow/booking-platform/internal/catalog"
	"github.com/turnoflow/booking-platform/internal/domain"
	"github.com/turnoflow/booking-platform/internal/payments"
)

var frozenNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (n *recordingNotifier) BookingConfirmation(ctx context.Context, b *Booking, serviceName, providerName string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, b.ID)
	return n.err
}

func fixtureCatalog() *catalog.MemoryStore {
	store := catalog.NewMemoryStore()
	store.PutTenant(catalog.Tenant{ID: "tnt_1", Name: "Salón Luna", Status: catalog.TenantActive})
	store.PutTenant(catalog.Tenant{ID: "tnt_trial", Name: "Trial Shop", Status: catalog.TenantTrial})
	store.PutService(catalog.Service{
		ID: "svc_cut", TenantID: "tnt_1", Name: "Corte de pelo",
		DurationMinutes: 30, PriceCents: 2500, Currency: "EUR", Active: true,
	})
	store.PutService(catalog.Service{
		ID: "svc_free", TenantID: "tnt_1", Name: "Consulta",
		DurationMinutes: 15, PriceCents: 0, Currency: "EUR", Active: true,
	})
	store.PutService(catalog.Service{ID: "svc_off", TenantID: "tnt_1", Name: "Retirado", DurationMinutes: 45, Active: false})
	store.PutProvider(catalog.Provider{
		ID: "prv_ana", TenantID: "tnt_1", Name: "Ana",
		ServiceIDs: []string{"svc_cut", "svc_free"}, Active: true,
	})
	store.PutProvider(catalog.Provider{ID: "prv_luis", TenantID: "tnt_1", Name: "Luis", ServiceIDs: []string{"svc_free"}, Active: true})
	return store
}

func fixtureBookingService(t *testing.T) (*Service, *MemoryStore, *payments.FakeGateway, *recordingNotifier) {
	t.Helper()
	store := NewMemoryStore()
	gateway := payments.NewFakeGateway()
	notifier := &recordingNotifier{}
	cat := fixtureCatalog()
	svc := NewService(Config{
		Tenants:   cat.Tenants(),
		Services:  cat.Services(),
		Providers: cat.Providers(),
		Store:     store,
		Payments:  gateway,
		Notifier:  notifier,
		Now:       func() time.Time { return frozenNow },
	})
	return svc, store, gateway, notifier
}

func validRequest() CreateRequest {
	start := frozenNow.Add(24 * time.Hour)
	return CreateRequest{
		TenantID:    "tnt_1",
		ServiceID:   "svc_cut",
		ProviderID:  "prv_ana",
		StartTime:   start,
		EndTime:     start.Add(30 * time.Minute),
		ClientName:  "María García",
		ClientEmail: "Maria@Example.com ",
	}
}

func TestCreate_HappyPath(t *testing.T) {
	svc, store, gateway, notifier := fixtureBookingService(t)

	b, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, StatusPending, b.Status)
	assert.Equal(t, "maria@example.com", b.Customer.Email, "email is normalized")
	assert.Equal(t, domain.CustomerIDFromEmail("maria@example.com"), b.Customer.ID)
	assert.Equal(t, int64(2500), b.TotalCents)
	assert.Equal(t, "EUR", b.Currency)

	// Paid service gets a payment intent attached.
	assert.Equal(t, PaymentPending, b.PaymentStatus)
	assert.NotEmpty(t, b.PaymentIntentID)
	require.Len(t, gateway.Intents(), 1)
	assert.Equal(t, b.ID, gateway.Intents()[0].Metadata["booking_id"])

	assert.Equal(t, []string{b.ID}, notifier.calls)

	stored, err := store.Get(context.Background(), "tnt_1", b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.PaymentIntentID, stored.PaymentIntentID, "intent id persisted")
}

func TestCreate_FreeServiceSkipsPayment(t *testing.T) {
	svc, _, gateway, _ := fixtureBookingService(t)

	req := validRequest()
	req.ServiceID = "svc_free"
	req.EndTime = req.StartTime.Add(15 * time.Minute)

	b, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, PaymentNone, b.PaymentStatus)
	assert.Empty(t, gateway.Intents())
}

func TestCreate_ValidationOrder(t *testing.T) {
	svc, _, _, _ := fixtureBookingService(t)
	ctx := context.Background()

	t.Run("trial tenant cannot book", func(t *testing.T) {
		req := validRequest()
		req.TenantID = "tnt_trial"
		_, err := svc.Create(ctx, req)
		assert.True(t, errors.Is(err, domain.ErrTenantInactive))
	})

	t.Run("inactive service", func(t *testing.T) {
		req := validRequest()
		req.ServiceID = "svc_off"
		req.EndTime = req.StartTime.Add(45 * time.Minute)
		_, err := svc.Create(ctx, req)
		assert.True(t, errors.Is(err, domain.ErrServiceUnavailable))
	})

	t.Run("provider does not offer the service", func(t *testing.T) {
		req := validRequest()
		req.ProviderID = "prv_luis"
		_, err := svc.Create(ctx, req)
		assert.True(t, errors.Is(err, domain.ErrProviderUnavailable))
	})

	t.Run("interval must match service duration", func(t *testing.T) {
		req := validRequest()
		req.EndTime = req.StartTime.Add(45 * time.Minute)
		_, err := svc.Create(ctx, req)
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("start must be in the future", func(t *testing.T) {
		req := validRequest()
		req.StartTime = frozenNow.Add(-time.Hour)
		req.EndTime = req.StartTime.Add(30 * time.Minute)
		_, err := svc.Create(ctx, req)
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("unknown tenant", func(t *testing.T) {
		req := validRequest()
		req.TenantID = "tnt_ghost"
		_, err := svc.Create(ctx, req)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})
}

func TestCreate_OverlapRejected(t *testing.T) {
	svc, _, _, _ := fixtureBookingService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)

	t.Run("same slot", func(t *testing.T) {
		_, err := svc.Create(ctx, validRequest())
		assert.True(t, errors.Is(err, domain.ErrSlotUnavailable))
	})

	t.Run("partially overlapping slot", func(t *testing.T) {
		req := validRequest()
		req.StartTime = req.StartTime.Add(15 * time.Minute)
		req.EndTime = req.StartTime.Add(30 * time.Minute)
		_, err := svc.Create(ctx, req)
		assert.True(t, errors.Is(err, domain.ErrSlotUnavailable))
	})

	t.Run("back-to-back slot is fine", func(t *testing.T) {
		req := validRequest()
		req.StartTime = req.StartTime.Add(30 * time.Minute)
		req.EndTime = req.StartTime.Add(30 * time.Minute)
		_, err := svc.Create(ctx, req)
		assert.NoError(t, err)
	})

	t.Run("other provider unaffected", func(t *testing.T) {
		req := validRequest()
		req.ServiceID = "svc_free"
		req.ProviderID = "prv_luis"
		req.StartTime = req.StartTime.Add(2 * time.Hour)
		req.EndTime = req.StartTime.Add(15 * time.Minute)
		_, err := svc.Create(ctx, req)
		assert.NoError(t, err)
	})
}

func TestCreate_ConcurrentWritersOneWinner(t *testing.T) {
	svc, store, _, _ := fixtureBookingService(t)

	const writers = 20
	var wg sync.WaitGroup
	results := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := validRequest()
			req.ClientEmail = fmt.Sprintf("cliente%d@example.com", i)
			_, err := svc.Create(context.Background(), req)
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, domain.ErrSlotUnavailable):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes, "exactly one writer wins the slot")
	assert.Equal(t, writers-1, conflicts)

	day := validRequest().StartTime.Truncate(24 * time.Hour)
	stored, err := store.ListByProviderBetween(context.Background(), "tnt_1", "prv_ana", day, day.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

type conflictingStore struct {
	*MemoryStore
}

func (s *conflictingStore) CreateIfAbsent(ctx context.Context, b *Booking) error {
	return domain.ErrConflict
}

func TestCreate_StorageConflictNeverLeaks(t *testing.T) {
	cat := fixtureCatalog()
	svc := NewService(Config{
		Tenants:   cat.Tenants(),
		Services:  cat.Services(),
		Providers: cat.Providers(),
		Store:     &conflictingStore{MemoryStore: NewMemoryStore()},
		Now:       func() time.Time { return frozenNow },
	})

	_, err := svc.Create(context.Background(), validRequest())
	assert.True(t, errors.Is(err, domain.ErrSlotUnavailable))
	assert.False(t, errors.Is(err, domain.ErrConflict), "storage conflict is translated before returning")
}

func TestCreate_PaymentFailureKeepsBooking(t *testing.T) {
	svc, store, gateway, _ := fixtureBookingService(t)
	gateway.FailWith(errors.New("stripe down"))

	b, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err, "payment is best-effort")
	assert.Equal(t, PaymentPending, b.PaymentStatus, "paid service stays pending without an intent")
	assert.Empty(t, b.PaymentIntentID)

	_, err = store.Get(context.Background(), "tnt_1", b.ID)
	assert.NoError(t, err)
}

func TestCreate_NotifierFailureKeepsBooking(t *testing.T) {
	svc, _, _, notifier := fixtureBookingService(t)
	notifier.err = errors.New("smtp down")

	_, err := svc.Create(context.Background(), validRequest())
	assert.NoError(t, err)
}

func TestLifecycleTransitions(t *testing.T) {
	svc, _, _, _ := fixtureBookingService(t)
	ctx := context.Background()

	b, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)

	confirmed, err := svc.Confirm(ctx, "tnt_1", b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)

	_, err = svc.Confirm(ctx, "tnt_1", b.ID)
	assert.True(t, domain.IsValidation(err), "double confirm rejected")

	noShow, err := svc.MarkNoShow(ctx, "tnt_1", b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusNoShow, noShow.Status)

	_, err = svc.Cancel(ctx, "tnt_1", b.ID)
	assert.True(t, domain.IsValidation(err), "terminal booking cannot be cancelled")
}

func TestCancelledBookingKeepsItsStorageKey(t *testing.T) {
	svc, _, _, _ := fixtureBookingService(t)
	ctx := context.Background()

	b, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, "tnt_1", b.ID)
	require.NoError(t, err)

	// The advisory pre-check ignores cancelled bookings, but the storage key
	// (tenant, provider, start) stays occupied by the cancelled record, so the
	// conditional insert still rejects a same-key retry.
	req := validRequest()
	req.ClientEmail = "otra@example.com"
	_, err = svc.Create(ctx, req)
	assert.True(t, errors.Is(err, domain.ErrSlotUnavailable))
}

func TestQueries(t *testing.T) {
	svc, _, _, _ := fixtureBookingService(t)
	ctx := context.Background()

	req := validRequest()
	req.ConversationID = "conv_42"
	b, err := svc.Create(ctx, req)
	require.NoError(t, err)

	byConv, err := svc.GetByConversation(ctx, "tnt_1", "conv_42")
	require.NoError(t, err)
	assert.Equal(t, b.ID, byConv.ID)

	byEmail, err := svc.ListByCustomerEmail(ctx, "tnt_1", "MARIA@example.com")
	require.NoError(t, err)
	require.Len(t, byEmail, 1, "email lookup is case-insensitive")

	_, err = svc.Get(ctx, "tnt_1", "bkg_ghost")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestListOccupiedSkipsCancelledBookings(t *testing.T) {
	svc, _, _, _ := fixtureBookingService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)

	second := validRequest()
	second.StartTime = first.StartTime.Add(time.Hour)
	second.EndTime = second.StartTime.Add(30 * time.Minute)
	cancelled, err := svc.Create(ctx, second)
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, "tnt_1", cancelled.ID)
	require.NoError(t, err)

	occupied, err := svc.ListOccupied(ctx, "tnt_1", "prv_ana",
		first.StartTime.Add(-time.Hour), first.StartTime.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, occupied, 1, "a cancelled booking frees its slot")
	assert.Equal(t, first.StartTime, occupied[0].Start)
	assert.Equal(t, first.EndTime, occupied[0].End)
}
