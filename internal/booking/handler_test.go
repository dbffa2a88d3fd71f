package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turnoflow/booking-platform/internal/domain"
	"github.com/turnoflow/booking-platform/internal/tenancy"
)

func testRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if tenantID := req.Header.Get("X-Tenant-Id"); tenantID != "" {
				req = req.WithContext(tenancy.WithTenantID(req.Context(), tenantID))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Post("/bookings", h.Create)
	r.Get("/bookings", h.List)
	r.Get("/bookings/{bookingID}", h.Get)
	r.Post("/bookings/{bookingID}/confirm", h.Confirm)
	return r
}

func createPayload() string {
	start := frozenNow.Add(24 * time.Hour)
	return fmt.Sprintf(`{
		"service_id": "svc_cut",
		"provider_id": "prv_ana",
		"start_time": %q,
		"end_time": %q,
		"client_name": "María García",
		"client_email": "maria@example.com"
	}`, domain.FormatTime(start), domain.FormatTime(start.Add(30*time.Minute)))
}

func TestHandlerCreate(t *testing.T) {
	svc, _, _, _ := fixtureBookingService(t)
	router := testRouter(NewHandler(svc, nil))

	t.Run("created", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(createPayload()))
		req.Header.Set("X-Tenant-Id", "tnt_1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var got Booking
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, StatusPending, got.Status)
		assert.NotEmpty(t, got.ID)
	})

	t.Run("conflict maps to 409", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(createPayload()))
		req.Header.Set("X-Tenant-Id", "tnt_1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("missing tenant header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(createPayload()))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad timestamp", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/bookings",
			strings.NewReader(`{"service_id":"svc_cut","provider_id":"prv_ana","start_time":"mañana","end_time":"pasado","client_name":"Ana","client_email":"a@b.c"}`))
		req.Header.Set("X-Tenant-Id", "tnt_1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandlerGetAndConfirm(t *testing.T) {
	svc, _, _, _ := fixtureBookingService(t)
	router := testRouter(NewHandler(svc, nil))

	b, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	t.Run("get", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/bookings/"+b.ID, nil)
		req.Header.Set("X-Tenant-Id", "tnt_1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/bookings/bkg_ghost", nil)
		req.Header.Set("X-Tenant-Id", "tnt_1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("confirm", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/bookings/"+b.ID+"/confirm", nil)
		req.Header.Set("X-Tenant-Id", "tnt_1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var got Booking
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, StatusConfirmed, got.Status)
	})

	t.Run("double confirm is 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/bookings/"+b.ID+"/confirm", nil)
		req.Header.Set("X-Tenant-Id", "tnt_1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandlerListByEmail(t *testing.T) {
	svc, _, _, _ := fixtureBookingService(t)
	router := testRouter(NewHandler(svc, nil))

	_, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/bookings?email=maria@example.com", nil)
	req.Header.Set("X-Tenant-Id", "tnt_1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Bookings []Booking `json:"bookings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got.Bookings, 1)
}
