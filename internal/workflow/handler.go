package workflow

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/turnoflow/booking-platform/internal/domain"
	"github.com/turnoflow/booking-platform/internal/tenancy"
	"github.com/turnoflow/booking-platform/pkg/logging"
)

// Handler exposes the chat endpoint and workflow administration over HTTP.
type Handler struct {
	engine  *Engine
	manager *Manager
	logger  *logging.Logger
}

// NewHandler creates the workflow HTTP handler.
func NewHandler(engine *Engine, manager *Manager, logger *logging.Logger) *Handler {
	if engine == nil {
		panic("workflow: engine cannot be nil")
	}
	if manager == nil {
		panic("workflow: manager cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{engine: engine, manager: manager, logger: logger}
}

// HandleMessage handles POST /chat/message: one user turn in and one
// response envelope out.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusBadRequest, "tenant id is required")
		return
	}

	var msg Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.engine.HandleMessage(r.Context(), tenantID, msg)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"conversation_id": result.Conversation.ID,
		"current_step_id": result.Conversation.CurrentStepID,
		"response":        result.Response,
	})
}

// List handles GET /workflows.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := tenancy.TenantIDFromContext(r.Context())
	workflows, err := h.manager.List(r.Context(), tenantID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"workflows": workflows})
}

// Get handles GET /workflows/{workflowID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := tenancy.TenantIDFromContext(r.Context())
	wf, err := h.manager.Get(r.Context(), tenantID, chi.URLParam(r, "workflowID"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wf)
}

// Create handles POST /workflows.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := tenancy.TenantIDFromContext(r.Context())
	var wf Workflow
	if err := json.NewDecoder(r.Body).Decode(&wf); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	wf.TenantID = tenantID
	created, err := h.manager.Create(r.Context(), &wf)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Update handles PUT /workflows/{workflowID}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := tenancy.TenantIDFromContext(r.Context())
	var wf Workflow
	if err := json.NewDecoder(r.Body).Decode(&wf); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	wf.TenantID = tenantID
	wf.ID = chi.URLParam(r, "workflowID")
	updated, err := h.manager.Update(r.Context(), &wf)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /workflows/{workflowID}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := tenancy.TenantIDFromContext(r.Context())
	if err := h.manager.Delete(r.Context(), tenantID, chi.URLParam(r, "workflowID")); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EnsureDefault handles POST /workflows/default: installs the standard
// booking flow for the tenant if it has none.
func (h *Handler) EnsureDefault(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := tenancy.TenantIDFromContext(r.Context())
	wf, err := h.manager.EnsureDefault(r.Context(), tenantID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wf)
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("workflow request failed", "error", err)
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
