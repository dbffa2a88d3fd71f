package booking

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/turnoflow/booking-platform/internal/domain"
	"github.com/turnoflow/booking-platform/internal/tenancy"
	"github.com/turnoflow/booking-platform/pkg/logging"
)

// Handler exposes the booking API over HTTP.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates the booking HTTP handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if service == nil {
		panic("booking: service cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

type createBody struct {
	ServiceID      string `json:"service_id"`
	ProviderID     string `json:"provider_id"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	ClientName     string `json:"client_name"`
	ClientEmail    string `json:"client_email"`
	ClientPhone    string `json:"client_phone"`
	Notes          string `json:"notes"`
	ConversationID string `json:"conversation_id"`
}

// Create handles POST /bookings.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusBadRequest, "tenant id is required")
		return
	}

	var body createBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	start, err := domain.ParseTime(body.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start_time must be RFC3339")
		return
	}
	end, err := domain.ParseTime(body.EndTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end_time must be RFC3339")
		return
	}

	b, err := h.service.Create(r.Context(), CreateRequest{
		TenantID:       tenantID,
		ServiceID:      body.ServiceID,
		ProviderID:     body.ProviderID,
		StartTime:      start,
		EndTime:        end,
		ClientName:     body.ClientName,
		ClientEmail:    body.ClientEmail,
		ClientPhone:    body.ClientPhone,
		Notes:          body.Notes,
		ConversationID: body.ConversationID,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// Get handles GET /bookings/{bookingID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := tenancy.TenantIDFromContext(r.Context())
	b, err := h.service.Get(r.Context(), tenantID, chi.URLParam(r, "bookingID"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// List handles GET /bookings with either provider_id+from+to or email filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := tenancy.TenantIDFromContext(r.Context())
	q := r.URL.Query()

	if convID := q.Get("conversation_id"); convID != "" {
		b, err := h.service.GetByConversation(r.Context(), tenantID, convID)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"bookings": []*Booking{b}})
		return
	}

	if email := q.Get("email"); email != "" {
		out, err := h.service.ListByCustomerEmail(r.Context(), tenantID, email)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"bookings": out})
		return
	}

	providerID := q.Get("provider_id")
	if providerID == "" {
		writeError(w, http.StatusBadRequest, "provider_id or email is required")
		return
	}
	from, err := domain.ParseTime(q.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "from must be RFC3339")
		return
	}
	var to time.Time
	if raw := q.Get("to"); raw != "" {
		if to, err = domain.ParseTime(raw); err != nil {
			writeError(w, http.StatusBadRequest, "to must be RFC3339")
			return
		}
	} else {
		to = from.Add(7 * 24 * time.Hour)
	}

	out, err := h.service.ListByProvider(r.Context(), tenantID, providerID, from, to)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": out})
}

// GetByConversation handles GET /bookings/conversation/{conversationID}.
func (h *Handler) GetByConversation(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := tenancy.TenantIDFromContext(r.Context())
	b, err := h.service.GetByConversation(r.Context(), tenantID, chi.URLParam(r, "conversationID"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// Confirm handles POST /bookings/{bookingID}/confirm.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.applyTransition(w, r, h.service.Confirm)
}

// Cancel handles POST /bookings/{bookingID}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.applyTransition(w, r, h.service.Cancel)
}

// MarkNoShow handles POST /bookings/{bookingID}/no-show.
func (h *Handler) MarkNoShow(w http.ResponseWriter, r *http.Request) {
	h.applyTransition(w, r, h.service.MarkNoShow)
}

func (h *Handler) applyTransition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, tenantID, bookingID string) (*Booking, error)) {
	tenantID, _ := tenancy.TenantIDFromContext(r.Context())
	b, err := op(r.Context(), tenantID, chi.URLParam(r, "bookingID"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrSlotUnavailable):
		writeError(w, http.StatusConflict, "the requested slot is no longer available")
	case errors.Is(err, domain.ErrTenantInactive):
		writeError(w, http.StatusForbidden, "tenant cannot create bookings")
	case errors.Is(err, domain.ErrServiceUnavailable), errors.Is(err, domain.ErrProviderUnavailable):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.Error("booking request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
