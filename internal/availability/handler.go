package availability

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/turnoflow/booking-platform/internal/domain"
	"github.com/turnoflow/booking-platform/internal/tenancy"
	"github.com/turnoflow/booking-platform/pkg/logging"
)

// Handler exposes slot queries and schedule management over HTTP.
type Handler struct {
	service *Service
	logger  *logging.Logger
	now     func() time.Time
}

// NewHandler creates the availability HTTP handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if service == nil {
		panic("availability: service cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger, now: time.Now}
}

// GetSlots handles GET /availability/slots. The window defaults to the next
// seven days when from/to are omitted.
func (h *Handler) GetSlots(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusBadRequest, "tenant id is required")
		return
	}
	q := r.URL.Query()

	serviceID := q.Get("service_id")
	providerID := q.Get("provider_id")
	if serviceID == "" || providerID == "" {
		writeError(w, http.StatusBadRequest, "service_id and provider_id are required")
		return
	}

	from := h.now().UTC()
	if raw := q.Get("from"); raw != "" {
		parsed, err := domain.ParseTime(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "from must be RFC3339")
			return
		}
		from = parsed
	}
	to := from.Add(7 * 24 * time.Hour)
	if raw := q.Get("to"); raw != "" {
		parsed, err := domain.ParseTime(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "to must be RFC3339")
			return
		}
		to = parsed
	}

	interval := 0
	if raw := q.Get("interval"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "interval must be a positive number of minutes")
			return
		}
		interval = parsed
	}

	slots, err := h.service.GetAvailableSlots(r.Context(), SlotQuery{
		TenantID:        tenantID,
		ServiceID:       serviceID,
		ProviderID:      providerID,
		From:            from,
		To:              to,
		IntervalMinutes: interval,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if slots == nil {
		slots = []Slot{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": slots})
}

// GetSchedule handles GET /availability/providers/{providerID}/schedule.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := tenancy.TenantIDFromContext(r.Context())
	rules, err := h.service.GetWeeklyRules(r.Context(), tenantID, chi.URLParam(r, "providerID"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if rules == nil {
		rules = []WeeklyRule{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"weekly_rules": rules})
}

// PutSchedule handles PUT /availability/providers/{providerID}/schedule. The
// body replaces the full weekly schedule.
func (h *Handler) PutSchedule(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := tenancy.TenantIDFromContext(r.Context())
	var body struct {
		WeeklyRules []WeeklyRule `json:"weekly_rules"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	providerID := chi.URLParam(r, "providerID")
	if err := h.service.SetWeeklyRules(r.Context(), tenantID, providerID, body.WeeklyRules); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"weekly_rules": body.WeeklyRules})
}

// GetExceptions handles GET /availability/providers/{providerID}/exceptions.
func (h *Handler) GetExceptions(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := tenancy.TenantIDFromContext(r.Context())
	exceptions, err := h.service.GetExceptions(r.Context(), tenantID, chi.URLParam(r, "providerID"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if exceptions == nil {
		exceptions = []ExceptionRule{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"exceptions": exceptions})
}

// PutExceptions handles PUT /availability/providers/{providerID}/exceptions.
// The body replaces the full exception list.
func (h *Handler) PutExceptions(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := tenancy.TenantIDFromContext(r.Context())
	var body struct {
		Exceptions []ExceptionRule `json:"exceptions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	providerID := chi.URLParam(r, "providerID")
	if err := h.service.SetExceptions(r.Context(), tenantID, providerID, body.Exceptions); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"exceptions": body.Exceptions})
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrServiceUnavailable), errors.Is(err, domain.ErrProviderUnavailable):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.Error("availability request failed", "error", err)
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
