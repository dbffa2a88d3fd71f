package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/turnoflow/booking-platform/internal/catalog"
	"github.com/turnoflow/booking-platform/internal/domain"
	"github.com/turnoflow/booking-platform/internal/observability/metrics"
	"github.com/turnoflow/booking-platform/pkg/logging"
)

// maxRenderDepth bounds the render chain so cyclic graphs cannot spin the
// engine forever.
const maxRenderDepth = 8

// resetPhrases jump the conversation back to the entry step from anywhere.
var resetPhrases = map[string]struct{}{
	"hola":             {},
	"menu":             {},
	"menú":             {},
	"inicio":           {},
	"volver":           {},
	"empezar":          {},
	"volver a empezar": {},
}

// Message is one inbound chat turn.
type Message struct {
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
	Value          string `json:"value,omitempty"`
}

// Result is the outcome of one turn.
type Result struct {
	Conversation *Conversation `json:"conversation"`
	Response     *Response     `json:"response"`
}

// EngineConfig wires the workflow engine.
type EngineConfig struct {
	Workflows     WorkflowStore
	Conversations ConversationStore
	Registry      *Registry
	Services      catalog.ServiceRepository
	Providers     catalog.ProviderRepository
	FAQs          catalog.FAQRepository
	Metrics       *metrics.ChatMetrics
	Logger        *logging.Logger
	Now           func() time.Time
}

// Engine executes workflow graphs, one user message per turn.
type Engine struct {
	workflows WorkflowStore
	convs     ConversationStore
	registry  *Registry
	services  catalog.ServiceRepository
	providers catalog.ProviderRepository
	faqs      catalog.FAQRepository
	metrics   *metrics.ChatMetrics
	logger    *logging.Logger
	now       func() time.Time
}

// NewEngine builds the engine from its configuration.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Workflows == nil {
		panic("workflow: workflow store cannot be nil")
	}
	if cfg.Conversations == nil {
		panic("workflow: conversation store cannot be nil")
	}
	if cfg.Registry == nil {
		panic("workflow: tool registry cannot be nil")
	}
	if cfg.Services == nil || cfg.Providers == nil || cfg.FAQs == nil {
		panic("workflow: catalog repositories cannot be nil")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		workflows: cfg.Workflows,
		convs:     cfg.Conversations,
		registry:  cfg.Registry,
		services:  cfg.Services,
		providers: cfg.Providers,
		faqs:      cfg.FAQs,
		metrics:   cfg.Metrics,
		logger:    logger,
		now:       now,
	}
}

// HandleMessage runs one turn: load (or start) the conversation, consume the
// input with the current step, then render the step the flow lands on. The
// conversation is persisted only when the turn succeeds; any tool or
// repository failure leaves the stored state untouched and returns the
// generic flow-error response.
func (e *Engine) HandleMessage(ctx context.Context, tenantID string, msg Message) (*Result, error) {
	started := e.now()
	result, err := e.handle(ctx, tenantID, msg)
	e.metrics.ObserveTurnLatency(e.now().Sub(started).Seconds())
	return result, err
}

func (e *Engine) handle(ctx context.Context, tenantID string, msg Message) (*Result, error) {
	if tenantID == "" {
		return nil, domain.NewValidation("tenant_id", "required")
	}

	conv, isNew, err := e.loadOrCreate(ctx, tenantID, msg.ConversationID)
	if err != nil {
		return nil, err
	}

	wf, err := e.workflows.Get(ctx, tenantID, conv.WorkflowID)
	if err != nil {
		return nil, err
	}

	tc := &ToolContext{TenantID: tenantID, Conversation: conv, Workflow: wf}

	if isNew || isResetPhrase(msg.Text) {
		if !isNew {
			conv.Reset(wf.EntryStepID)
			e.metrics.ObserveMessage("", "reset")
		}
		return e.renderAndSave(ctx, tc, nil)
	}

	step, ok := wf.Steps[conv.CurrentStepID]
	if !ok {
		// Corrupt step pointer: answer with a flow error, leave the stored
		// conversation exactly as it was.
		e.logger.Warn("conversation points at a missing step",
			"tenant_id", tenantID,
			"conversation_id", conv.ID,
			"step_id", conv.CurrentStepID)
		e.metrics.ObserveMessage("", "corrupt_step")
		return &Result{Conversation: conv, Response: FlowError("la conversación quedó en un estado desconocido")}, nil
	}
	tc.Step = step

	resp, nextID, err := e.consume(ctx, tc, step, Input{Text: msg.Text, Value: msg.Value})
	if err != nil {
		return e.flowError(tenantID, conv, step, err), nil
	}

	if nextID != "" {
		conv.CurrentStepID = nextID
		e.metrics.ObserveMessage(string(step.Type), "advanced")
		// A consume response accompanying a transition (confirmBooking's
		// confirmation or retry prompt) leads the rendered reply.
		return e.renderAndSave(ctx, tc, resp)
	}

	e.metrics.ObserveMessage(string(step.Type), "re_rendered")
	if resp == nil {
		// Step produced neither a transition nor a prompt; show it again.
		return e.renderAndSave(ctx, tc, nil)
	}
	if err := e.save(ctx, conv); err != nil {
		return nil, err
	}
	return &Result{Conversation: conv, Response: resp}, nil
}

func (e *Engine) loadOrCreate(ctx context.Context, tenantID, conversationID string) (*Conversation, bool, error) {
	if conversationID != "" {
		conv, err := e.convs.Get(ctx, tenantID, conversationID)
		if err == nil {
			return conv, false, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, false, err
		}
	}

	wf, err := e.activeWorkflow(ctx, tenantID)
	if err != nil {
		return nil, false, err
	}
	id := conversationID
	if id == "" {
		id = domain.NewID("conv")
	}
	nowUTC := e.now().UTC()
	return &Conversation{
		ID:            id,
		TenantID:      tenantID,
		WorkflowID:    wf.ID,
		CurrentStepID: wf.EntryStepID,
		CreatedAt:     nowUTC,
		UpdatedAt:     nowUTC,
	}, true, nil
}

func (e *Engine) activeWorkflow(ctx context.Context, tenantID string) (*Workflow, error) {
	all, err := e.workflows.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Active {
			return &all[i], nil
		}
	}
	return nil, domain.NewNotFound("workflow", tenantID)
}

// consume feeds the user's input to the current step and returns the next
// step id ("" = no transition) plus an optional immediate response.
func (e *Engine) consume(ctx context.Context, tc *ToolContext, step Step, in Input) (*Response, string, error) {
	switch step.Type {
	case StepMessage:
		return nil, step.Next, nil
	case StepQuestion:
		return e.consumeQuestion(tc, step, in)
	case StepDynamicOptions:
		return e.consumeDynamicOptions(step, in)
	case StepTool:
		tool, ok := e.registry.Lookup(step.ToolName())
		if !ok {
			return nil, "", fmt.Errorf("workflow: unknown tool %q", step.ToolName())
		}
		return tool.Consume(ctx, tc, in)
	default:
		return nil, "", fmt.Errorf("workflow: unknown step type %q", step.Type)
	}
}

func (e *Engine) consumeQuestion(tc *ToolContext, step Step, in Input) (*Response, string, error) {
	options := stepOptions(step)
	saveAs, _ := step.Content["save_as"].(string)

	if len(options) == 0 {
		// Free-text question: store the answer and move on.
		text := strings.TrimSpace(in.Text)
		if text == "" {
			return renderQuestion(step), "", nil
		}
		if saveAs != "" {
			tc.Conversation.Context.Set(saveAs, text)
		}
		return nil, step.Next, nil
	}

	for _, opt := range options {
		if (in.Value != "" && in.Value == opt.value) || fuzzyMatch(in.Text, opt.label) {
			if saveAs != "" {
				tc.Conversation.Context.Set(saveAs, opt.value)
			}
			next := opt.next
			if next == "" {
				next = step.Next
			}
			return nil, next, nil
		}
	}
	return renderQuestion(step), "", nil
}

func (e *Engine) consumeDynamicOptions(step Step, in Input) (*Response, string, error) {
	for _, entry := range optionsMapping(step) {
		if (in.Value != "" && in.Value == entry.value) ||
			(entry.label != "" && fuzzyMatch(in.Text, entry.label)) ||
			strings.EqualFold(strings.TrimSpace(in.Text), entry.value) {
			return nil, entry.next, nil
		}
	}
	return nil, "", nil
}

// renderAndSave renders the chain from the conversation's current step and
// persists the conversation. A non-nil seed response is composed ahead of the
// rendered steps.
func (e *Engine) renderAndSave(ctx context.Context, tc *ToolContext, seed *Response) (*Result, error) {
	resp, err := e.renderChain(ctx, tc, seed)
	if err != nil {
		return e.flowError(tc.TenantID, tc.Conversation, tc.Step, err), nil
	}
	if err := e.save(ctx, tc.Conversation); err != nil {
		return nil, err
	}
	return &Result{Conversation: tc.Conversation, Response: resp}, nil
}

// renderChain renders the current step, following MESSAGE auto-advances and
// TOOL next-overrides up to maxRenderDepth, and composes the collected texts
// into one response. The seed, when present, contributes its text and rich
// payload the same way an intermediate tool render does.
func (e *Engine) renderChain(ctx context.Context, tc *ToolContext, seed *Response) (*Response, error) {
	var texts []string
	var rich *Response
	if seed != nil {
		if seed.Type != TypeText {
			rich = seed
		}
		if seed.Text != "" {
			texts = append(texts, seed.Text)
		}
	}

	for depth := 0; depth < maxRenderDepth; depth++ {
		step, ok := tc.Workflow.Steps[tc.Conversation.CurrentStepID]
		if !ok {
			return nil, domain.NewNotFound("step", tc.Conversation.CurrentStepID)
		}
		tc.Step = step

		switch step.Type {
		case StepMessage:
			if text := step.Text(); text != "" {
				texts = append(texts, text)
			}
			if step.Next == "" {
				return composeResponse(texts, nil, rich), nil
			}
			tc.Conversation.CurrentStepID = step.Next

		case StepQuestion:
			return composeResponse(texts, renderQuestion(step), rich), nil

		case StepDynamicOptions:
			resp, err := e.renderDynamicOptions(ctx, tc, step)
			if err != nil {
				return nil, err
			}
			return composeResponse(texts, resp, rich), nil

		case StepTool:
			tool, ok := e.registry.Lookup(step.ToolName())
			if !ok {
				return nil, fmt.Errorf("workflow: unknown tool %q", step.ToolName())
			}
			resp, next, err := tool.Render(ctx, tc)
			if err != nil {
				return nil, err
			}
			if next == "" {
				return composeResponse(texts, resp, rich), nil
			}
			if resp != nil {
				if resp.Type != TypeText {
					rich = resp
				}
				if resp.Text != "" {
					texts = append(texts, resp.Text)
				}
			}
			tc.Conversation.CurrentStepID = next

		default:
			return nil, fmt.Errorf("workflow: unknown step type %q", step.Type)
		}
	}
	return nil, fmt.Errorf("workflow: render chain exceeded %d steps, the graph likely cycles", maxRenderDepth)
}

// renderDynamicOptions builds the entry-point menu from the sources that
// actually have data; an empty source never renders a dead option.
func (e *Engine) renderDynamicOptions(ctx context.Context, tc *ToolContext, step Step) (*Response, error) {
	var opts []Option
	for _, entry := range optionsMapping(step) {
		nonEmpty, err := e.sourceHasData(ctx, tc.TenantID, entry.source)
		if err != nil {
			return nil, err
		}
		if !nonEmpty {
			continue
		}
		label := entry.label
		if label == "" {
			label = defaultSourceLabel(entry.source)
		}
		opts = append(opts, Option{Value: entry.value, Label: label})
	}

	text := step.Text()
	if text == "" {
		text = Greeting().Text
	}
	if len(opts) == 0 {
		return &Response{Type: TypeText, Text: text}, nil
	}
	return &Response{Type: TypeOptions, Text: text, Options: opts}, nil
}

func (e *Engine) sourceHasData(ctx context.Context, tenantID, source string) (bool, error) {
	switch source {
	case "SERVICES":
		items, err := e.services.ListActive(ctx, tenantID)
		return len(items) > 0, err
	case "PROVIDERS":
		items, err := e.providers.ListActive(ctx, tenantID)
		return len(items) > 0, err
	case "FAQS":
		items, err := e.faqs.ListActive(ctx, tenantID)
		return len(items) > 0, err
	default:
		return false, nil
	}
}

func defaultSourceLabel(source string) string {
	switch source {
	case "SERVICES":
		return "Reservar un servicio"
	case "PROVIDERS":
		return "Ver profesionales"
	case "FAQS":
		return "Preguntas frecuentes"
	default:
		return source
	}
}

func (e *Engine) flowError(tenantID string, conv *Conversation, step Step, err error) *Result {
	e.logger.Error("chat turn failed",
		"tenant_id", tenantID,
		"conversation_id", conv.ID,
		"step_id", conv.CurrentStepID,
		"error", err.Error())
	e.metrics.ObserveMessage(string(step.Type), "error")

	reason := "inténtalo de nuevo en unos minutos"
	if domain.IsValidation(err) {
		reason = err.Error()
	}
	return &Result{Conversation: conv, Response: FlowError(reason)}
}

func (e *Engine) save(ctx context.Context, conv *Conversation) error {
	conv.UpdatedAt = e.now().UTC()
	if err := e.convs.Put(ctx, conv); err != nil {
		return fmt.Errorf("workflow: save conversation: %w", err)
	}
	return nil
}

func isResetPhrase(text string) bool {
	_, ok := resetPhrases[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

func renderQuestion(step Step) *Response {
	options := stepOptions(step)
	if len(options) == 0 {
		return &Response{Type: TypeText, Text: step.Text()}
	}
	opts := make([]Option, 0, len(options))
	for _, o := range options {
		opts = append(opts, Option{Value: o.value, Label: o.label})
	}
	return &Response{Type: TypeOptions, Text: step.Text(), Options: opts}
}

func composeResponse(texts []string, last *Response, rich *Response) *Response {
	if last == nil {
		last = &Response{Type: TypeText}
	}
	if last.Text != "" {
		texts = append(texts, last.Text)
	}
	out := *last
	if out.Type == TypeText && rich != nil {
		out = *rich
	}
	out.Text = strings.Join(texts, "\n\n")
	return &out
}

// stepOption is one decoded QUESTION option.
type stepOption struct {
	value string
	label string
	next  string
}

func stepOptions(step Step) []stepOption {
	raw, _ := step.Content["options"].([]any)
	out := make([]stepOption, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		var o stepOption
		o.value, _ = m["value"].(string)
		o.label, _ = m["label"].(string)
		o.next, _ = m["next"].(string)
		if o.value == "" && o.label == "" {
			continue
		}
		out = append(out, o)
	}
	return out
}

// mappingEntry is one decoded DYNAMIC_OPTIONS source mapping.
type mappingEntry struct {
	source string
	value  string
	label  string
	next   string
}

// optionsMapping decodes options_mapping preserving the canonical source
// order so menus render deterministically.
func optionsMapping(step Step) []mappingEntry {
	raw, _ := step.Content["options_mapping"].(map[string]any)
	out := make([]mappingEntry, 0, len(raw))
	for _, source := range []string{"SERVICES", "PROVIDERS", "FAQS"} {
		m, ok := raw[source].(map[string]any)
		if !ok {
			continue
		}
		entry := mappingEntry{source: source}
		entry.value, _ = m["value"].(string)
		entry.label, _ = m["label"].(string)
		entry.next, _ = m["next"].(string)
		out = append(out, entry)
	}
	return out
}
