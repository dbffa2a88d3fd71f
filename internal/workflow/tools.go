package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/turnoflow/booking-platform/internal/availability"
	"github.com/turnoflow/booking-platform/internal/booking"
	"github.com/turnoflow/booking-platform/internal/catalog"
	"github.com/turnoflow/booking-platform/internal/domain"
)

// Input is one user turn: the raw text plus the optional structured value a
// widget sends for option selections.
type Input struct {
	Text  string
	Value string
}

// ToolContext is the per-turn state handed to a tool. Tools mutate the
// conversation context directly; the engine persists it after the turn.
type ToolContext struct {
	TenantID     string
	Conversation *Conversation
	Step         Step
	Workflow     *Workflow
}

// Tool is one named capability a TOOL step can invoke. Render produces the
// step's prompt; Consume handles the user's answer. Both return the id of the
// next step ("" = stay). Errors are caught at the engine boundary.
type Tool interface {
	Render(ctx context.Context, tc *ToolContext) (*Response, string, error)
	Consume(ctx context.Context, tc *ToolContext, in Input) (*Response, string, error)
}

// SlotFinder is the slice of the availability service the tools need.
type SlotFinder interface {
	GetAvailableSlots(ctx context.Context, q availability.SlotQuery) ([]availability.Slot, error)
}

// BookingCreator is the slice of the booking service the tools need.
type BookingCreator interface {
	Create(ctx context.Context, req booking.CreateRequest) (*booking.Booking, error)
}

// Registry maps tool names from step content to implementations.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry builds the standard tool set.
func NewRegistry(
	services catalog.ServiceRepository,
	providers catalog.ProviderRepository,
	faqs catalog.FAQRepository,
	slots SlotFinder,
	bookings BookingCreator,
	now func() time.Time,
) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{tools: map[string]Tool{
		"searchServices":     &searchServicesTool{services: services},
		"listProviders":      &listProvidersTool{providers: providers},
		"checkAvailability":  &checkAvailabilityTool{slots: slots, now: now},
		"collectContactInfo": &collectContactInfoTool{},
		"confirmBooking":     &confirmBookingTool{services: services, bookings: bookings},
		"showFAQs":           &showFAQsTool{faqs: faqs},
	}}
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// fuzzyMatch is a case-insensitive substring match in both directions, so
// "corte" matches "Corte de pelo" and "quiero el corte de pelo" matches too.
func fuzzyMatch(input, candidate string) bool {
	a := strings.ToLower(strings.TrimSpace(input))
	b := strings.ToLower(strings.TrimSpace(candidate))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

type searchServicesTool struct {
	services catalog.ServiceRepository
}

func (t *searchServicesTool) Render(ctx context.Context, tc *ToolContext) (*Response, string, error) {
	services, err := t.services.ListActive(ctx, tc.TenantID)
	if err != nil {
		return nil, "", err
	}
	if len(services) == 0 {
		return nil, "", domain.NewValidation("services", "no hay servicios disponibles")
	}
	return ServiceOptions("", services), "", nil
}

func (t *searchServicesTool) Consume(ctx context.Context, tc *ToolContext, in Input) (*Response, string, error) {
	services, err := t.services.ListActive(ctx, tc.TenantID)
	if err != nil {
		return nil, "", err
	}
	for _, s := range services {
		if (in.Value != "" && in.Value == s.ID) || fuzzyMatch(in.Text, s.Name) {
			tc.Conversation.Context.ServiceID = s.ID
			tc.Conversation.Context.ServiceName = s.Name
			return nil, tc.Step.Next, nil
		}
	}
	feedback := fmt.Sprintf("Disculpa, no encontré un servicio relacionado con '%s'.\nPor favor selecciona una de las opciones:", in.Text)
	return ServiceOptions(feedback, services), "", nil
}

type listProvidersTool struct {
	providers catalog.ProviderRepository
}

func (t *listProvidersTool) list(ctx context.Context, tc *ToolContext) ([]catalog.Provider, error) {
	if serviceID := tc.Conversation.Context.ServiceID; serviceID != "" {
		return t.providers.ListByService(ctx, tc.TenantID, serviceID)
	}
	return t.providers.ListActive(ctx, tc.TenantID)
}

func (t *listProvidersTool) Render(ctx context.Context, tc *ToolContext) (*Response, string, error) {
	providers, err := t.list(ctx, tc)
	if err != nil {
		return nil, "", err
	}
	if len(providers) == 0 {
		return nil, "", domain.NewValidation("providers", "no hay profesionales disponibles para este servicio")
	}
	return ProviderOptions("", providers), "", nil
}

func (t *listProvidersTool) Consume(ctx context.Context, tc *ToolContext, in Input) (*Response, string, error) {
	providers, err := t.list(ctx, tc)
	if err != nil {
		return nil, "", err
	}
	for _, p := range providers {
		if (in.Value != "" && in.Value == p.ID) || fuzzyMatch(in.Text, p.Name) {
			tc.Conversation.Context.ProviderID = p.ID
			tc.Conversation.Context.ProviderName = p.Name
			return nil, tc.Step.Next, nil
		}
	}
	feedback := fmt.Sprintf("No encontré un profesional llamado '%s'. Por favor selecciona uno de la lista:", in.Text)
	return ProviderOptions(feedback, providers), "", nil
}

type checkAvailabilityTool struct {
	slots SlotFinder
	now   func() time.Time
}

func (t *checkAvailabilityTool) Render(ctx context.Context, tc *ToolContext) (*Response, string, error) {
	cc := tc.Conversation.Context
	if cc.ServiceID == "" || cc.ProviderID == "" {
		return nil, "", domain.NewValidation("context", "primero debes elegir un servicio y un profesional")
	}
	from := t.now().UTC()
	slots, err := t.slots.GetAvailableSlots(ctx, availability.SlotQuery{
		TenantID:   tc.TenantID,
		ServiceID:  cc.ServiceID,
		ProviderID: cc.ProviderID,
		From:       from,
		To:         from.Add(7 * 24 * time.Hour),
	})
	if err != nil {
		return nil, "", err
	}
	if len(slots) == 0 {
		return NoAvailability(), "", nil
	}
	return Calendar(slots), "", nil
}

// looksLikeISO is the cheap shape check for slot input: a date-time separator
// plus enough characters to be more than a bare date.
func looksLikeISO(s string) bool {
	return strings.Contains(s, "T") && len(s) > 10
}

func (t *checkAvailabilityTool) Consume(ctx context.Context, tc *ToolContext, in Input) (*Response, string, error) {
	candidate := in.Value
	if candidate == "" {
		candidate = strings.TrimSpace(in.Text)
	}

	switch strings.ToLower(strings.TrimSpace(in.Text)) {
	case "cambiar profesional":
		return nil, t.providerStep(tc.Workflow), nil
	case "volver a empezar":
		return nil, tc.Workflow.EntryStepID, nil
	}

	if looksLikeISO(candidate) {
		tc.Conversation.Context.SelectedSlot = candidate
		return nil, tc.Step.Next, nil
	}
	return t.renderAgain(ctx, tc)
}

func (t *checkAvailabilityTool) renderAgain(ctx context.Context, tc *ToolContext) (*Response, string, error) {
	resp, _, err := t.Render(ctx, tc)
	return resp, "", err
}

// providerStep finds the provider re-selection step in the current workflow.
func (t *checkAvailabilityTool) providerStep(w *Workflow) string {
	for id, step := range w.Steps {
		if step.Type == StepTool && step.ToolName() == "listProviders" {
			return id
		}
	}
	return w.EntryStepID
}

type collectContactInfoTool struct{}

func (t *collectContactInfoTool) Render(ctx context.Context, tc *ToolContext) (*Response, string, error) {
	return ContactForm(t.prompt(tc.Conversation.Context)), "", nil
}

// Consume fills at most one contact field per message, highest priority
// first: email (contains "@"), then phone (8+ digits forming the majority of
// the non-space characters), then name. Advances only when all three are set.
func (t *collectContactInfoTool) Consume(ctx context.Context, tc *ToolContext, in Input) (*Response, string, error) {
	text := strings.TrimSpace(in.Text)
	cc := &tc.Conversation.Context

	switch {
	case cc.ClientEmail == "" && strings.Contains(text, "@"):
		cc.ClientEmail = text
	case cc.ClientPhone == "" && looksLikePhone(text):
		cc.ClientPhone = text
	case cc.ClientName == "" && text != "":
		cc.ClientName = text
	}

	if cc.HasContactInfo() {
		return nil, tc.Step.Next, nil
	}
	return ContactForm(t.prompt(*cc)), "", nil
}

func (t *collectContactInfoTool) prompt(cc Context) string {
	switch {
	case cc.ClientName == "":
		return "Para finalizar, necesito tus datos de contacto. ¿Cuál es tu nombre completo?"
	case cc.ClientEmail == "":
		return fmt.Sprintf("Gracias %s. ¿Cuál es tu email?", cc.ClientName)
	case cc.ClientPhone == "":
		return "Perfecto. Por último, ¿cuál es tu teléfono?"
	default:
		return ""
	}
}

func looksLikePhone(s string) bool {
	digits, other := 0, 0
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits++
		case unicode.IsSpace(r):
		default:
			other++
		}
	}
	return digits >= 8 && digits > other
}

type confirmBookingTool struct {
	services catalog.ServiceRepository
	bookings BookingCreator
}

// Render creates the booking from the collected context. The step can be
// entered again after a failed save or by a custom graph cycling back, so an
// already-set bookingId short-circuits to the success reply instead of
// creating a second booking.
func (t *confirmBookingTool) Render(ctx context.Context, tc *ToolContext) (*Response, string, error) {
	cc := &tc.Conversation.Context
	if cc.BookingID != "" {
		return BookingSuccess(cc.BookingID, cc.ClientEmail), tc.Step.Next, nil
	}
	if cc.ServiceID == "" || cc.ProviderID == "" || cc.SelectedSlot == "" {
		return nil, "", domain.NewValidation("context", "faltan datos de la reserva (servicio, profesional u horario)")
	}
	if !cc.HasContactInfo() {
		return nil, "", domain.NewValidation("context", "faltan datos de contacto")
	}

	start, err := domain.ParseTime(cc.SelectedSlot)
	if err != nil {
		return nil, "", domain.NewValidation("selectedSlot", "el horario seleccionado no es válido")
	}
	svc, err := t.services.Get(ctx, tc.TenantID, cc.ServiceID)
	if err != nil {
		return nil, "", err
	}

	b, err := t.bookings.Create(ctx, booking.CreateRequest{
		TenantID:       tc.TenantID,
		ServiceID:      cc.ServiceID,
		ProviderID:     cc.ProviderID,
		StartTime:      start,
		EndTime:        start.Add(time.Duration(svc.DurationMinutes) * time.Minute),
		ClientName:     cc.ClientName,
		ClientEmail:    cc.ClientEmail,
		ClientPhone:    cc.ClientPhone,
		ConversationID: tc.Conversation.ID,
	})
	if err != nil {
		if errors.Is(err, domain.ErrSlotUnavailable) {
			return SlotTaken(), t.timeslotStep(tc.Workflow), nil
		}
		return nil, "", err
	}

	cc.BookingID = b.ID
	return BookingSuccess(b.ID, b.Customer.Email), tc.Step.Next, nil
}

func (t *confirmBookingTool) Consume(ctx context.Context, tc *ToolContext, in Input) (*Response, string, error) {
	return t.Render(ctx, tc)
}

func (t *confirmBookingTool) timeslotStep(w *Workflow) string {
	for id, step := range w.Steps {
		if step.Type == StepTool && step.ToolName() == "checkAvailability" {
			return id
		}
	}
	return w.EntryStepID
}

type showFAQsTool struct {
	faqs catalog.FAQRepository
}

func (t *showFAQsTool) Render(ctx context.Context, tc *ToolContext) (*Response, string, error) {
	faqs, err := t.faqs.ListActive(ctx, tc.TenantID)
	if err != nil {
		return nil, "", err
	}
	if len(faqs) == 0 {
		return &Response{Type: TypeText, Text: "Por el momento no tenemos preguntas frecuentes publicadas."}, "", nil
	}
	var sb strings.Builder
	sb.WriteString("Preguntas frecuentes:\n")
	for _, f := range faqs {
		fmt.Fprintf(&sb, "\n❓ %s\n%s\n", f.Question, f.Answer)
	}
	return &Response{Type: TypeText, Text: sb.String()}, "", nil
}

func (t *showFAQsTool) Consume(ctx context.Context, tc *ToolContext, in Input) (*Response, string, error) {
	return nil, tc.Workflow.EntryStepID, nil
}
