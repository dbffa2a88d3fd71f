package workflow

import (
	"context"
	"time"

	"github.com/turnoflow/booking-platform/internal/domain"
	"github.com/turnoflow/booking-platform/pkg/logging"
)

// Manager owns workflow definitions: CRUD plus provisioning the default
// booking flow for new tenants.
type Manager struct {
	store  WorkflowStore
	logger *logging.Logger
	now    func() time.Time
}

// NewManager builds a Manager. The store is required.
func NewManager(store WorkflowStore, logger *logging.Logger, now func() time.Time) *Manager {
	if store == nil {
		panic("workflow: workflow store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Manager{store: store, logger: logger, now: now}
}

// List returns all workflows of a tenant.
func (m *Manager) List(ctx context.Context, tenantID string) ([]Workflow, error) {
	return m.store.List(ctx, tenantID)
}

// Get returns one workflow.
func (m *Manager) Get(ctx context.Context, tenantID, workflowID string) (*Workflow, error) {
	return m.store.Get(ctx, tenantID, workflowID)
}

// Create validates and stores a new workflow, assigning its id.
func (m *Manager) Create(ctx context.Context, w *Workflow) (*Workflow, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	nowUTC := m.now().UTC()
	w.ID = domain.NewID("wf")
	w.CreatedAt = nowUTC
	w.UpdatedAt = nowUTC
	if err := m.store.Put(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// Update replaces an existing workflow definition. Running conversations keep
// their step pointers; a pointer into a removed step surfaces as a flow error
// on the next turn.
func (m *Manager) Update(ctx context.Context, w *Workflow) (*Workflow, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	existing, err := m.store.Get(ctx, w.TenantID, w.ID)
	if err != nil {
		return nil, err
	}
	w.CreatedAt = existing.CreatedAt
	w.UpdatedAt = m.now().UTC()
	if err := m.store.Put(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// Delete removes a workflow definition.
func (m *Manager) Delete(ctx context.Context, tenantID, workflowID string) error {
	return m.store.Delete(ctx, tenantID, workflowID)
}

// EnsureDefault installs the standard booking flow for a tenant that has no
// workflows yet. It is idempotent: when any workflow already exists the first
// active one is returned untouched.
func (m *Manager) EnsureDefault(ctx context.Context, tenantID string) (*Workflow, error) {
	existing, err := m.store.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	for i := range existing {
		if existing[i].Active {
			return &existing[i], nil
		}
	}
	if len(existing) > 0 {
		return &existing[0], nil
	}

	w := DefaultWorkflow(tenantID, m.now().UTC())
	if err := m.store.Put(ctx, w); err != nil {
		return nil, err
	}
	m.logger.Info("default workflow installed", "tenant_id", tenantID, "workflow_id", w.ID)
	return w, nil
}

// DefaultWorkflow is the standard booking flow: a dynamic entry menu that
// branches into booking by service, browsing by provider, or FAQs, with the
// two booking branches converging on the timeslot step.
func DefaultWorkflow(tenantID string, now time.Time) *Workflow {
	return &Workflow{
		ID:          domain.NewID("wf"),
		TenantID:    tenantID,
		Name:        "Flujo de reservas",
		EntryStepID: "start",
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
		Steps: map[string]Step{
			"start": {
				ID:   "start",
				Type: StepDynamicOptions,
				Content: map[string]any{
					"text":    "¡Hola! 👋 Bienvenido a nuestro sistema de reservas. ¿En qué puedo ayudarte hoy?",
					"sources": []any{"SERVICES", "PROVIDERS", "FAQS"},
					"options_mapping": map[string]any{
						"SERVICES": map[string]any{
							"value": "flow_booking",
							"label": "Reservar un servicio",
							"next":  "search_service",
						},
						"PROVIDERS": map[string]any{
							"value": "flow_providers",
							"label": "Ver profesionales",
							"next":  "list_providers_all",
						},
						"FAQS": map[string]any{
							"value": "flow_faqs",
							"label": "Preguntas frecuentes",
							"next":  "show_faqs",
						},
					},
				},
			},
			"search_service": {
				ID:      "search_service",
				Type:    StepTool,
				Content: map[string]any{"tool": "searchServices"},
				Next:    "list_providers_filtered",
			},
			"list_providers_filtered": {
				ID:      "list_providers_filtered",
				Type:    StepTool,
				Content: map[string]any{"tool": "listProviders"},
				Next:    "select_timeslot",
			},
			"list_providers_all": {
				ID:      "list_providers_all",
				Type:    StepTool,
				Content: map[string]any{"tool": "listProviders"},
				Next:    "select_service_for_provider",
			},
			"select_service_for_provider": {
				ID:      "select_service_for_provider",
				Type:    StepTool,
				Content: map[string]any{"tool": "searchServices"},
				Next:    "select_timeslot",
			},
			"select_timeslot": {
				ID:      "select_timeslot",
				Type:    StepTool,
				Content: map[string]any{"tool": "checkAvailability"},
				Next:    "request_contact_info",
			},
			"request_contact_info": {
				ID:      "request_contact_info",
				Type:    StepMessage,
				Content: map[string]any{"text": "Para finalizar, necesito tus datos de contacto."},
				Next:    "collect_contact_info",
			},
			"collect_contact_info": {
				ID:      "collect_contact_info",
				Type:    StepTool,
				Content: map[string]any{"tool": "collectContactInfo"},
				Next:    "confirm_booking",
			},
			"confirm_booking": {
				ID:      "confirm_booking",
				Type:    StepTool,
				Content: map[string]any{"tool": "confirmBooking"},
				Next:    "booking_success",
			},
			"booking_success": {
				ID:      "booking_success",
				Type:    StepMessage,
				Content: map[string]any{"text": "¡Gracias por tu reserva! Te esperamos."},
			},
			"show_faqs": {
				ID:      "show_faqs",
				Type:    StepTool,
				Content: map[string]any{"tool": "showFAQs"},
			},
		},
	}
}
