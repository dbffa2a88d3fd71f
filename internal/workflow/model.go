// Package workflow runs JSON-defined conversational flows. A workflow is a
// graph of steps; a conversation is a cursor into that graph plus the data
// collected so far. The engine consumes one user message per turn, lets the
// current step decide the transition, then renders the step it lands on.
package workflow

import (
	"time"

	"github.com/turnoflow/booking-platform/internal/domain"
)

// StepType selects the input/render behavior of a step.
type StepType string

const (
	StepMessage        StepType = "MESSAGE"
	StepQuestion       StepType = "QUESTION"
	StepTool           StepType = "TOOL"
	StepDynamicOptions StepType = "DYNAMIC_OPTIONS"
)

// Step is one node of a workflow graph. Content carries the type-specific
// payload: "text" and "options" for questions, "tool" for tool steps,
// "sources" and "options_mapping" for dynamic options.
type Step struct {
	ID      string         `json:"step_id" dynamodbav:"stepId"`
	Type    StepType       `json:"type" dynamodbav:"type"`
	Content map[string]any `json:"content,omitempty" dynamodbav:"content,omitempty"`
	Next    string         `json:"next,omitempty" dynamodbav:"next,omitempty"`
}

// Text returns the step's "text" content entry.
func (s Step) Text() string {
	if s.Content == nil {
		return ""
	}
	text, _ := s.Content["text"].(string)
	return text
}

// ToolName returns the step's "tool" content entry.
func (s Step) ToolName() string {
	if s.Content == nil {
		return ""
	}
	name, _ := s.Content["tool"].(string)
	return name
}

// Workflow is a named step graph. Graphs may contain cycles; no reachability
// validation happens at save time.
type Workflow struct {
	ID          string          `json:"workflow_id" dynamodbav:"workflowId"`
	TenantID    string          `json:"tenant_id" dynamodbav:"tenantId"`
	Name        string          `json:"name" dynamodbav:"name"`
	EntryStepID string          `json:"entry_step_id" dynamodbav:"entryStepId"`
	Steps       map[string]Step `json:"steps" dynamodbav:"steps"`
	Active      bool            `json:"active" dynamodbav:"active"`
	CreatedAt   time.Time       `json:"created_at" dynamodbav:"createdAt"`
	UpdatedAt   time.Time       `json:"updated_at" dynamodbav:"updatedAt"`
}

// Validate checks the minimal shape a workflow must have to be executable.
func (w *Workflow) Validate() error {
	if w.Name == "" {
		return domain.NewValidation("name", "required")
	}
	if len(w.Steps) == 0 {
		return domain.NewValidation("steps", "at least one step is required")
	}
	entry := w.EntryStepID
	if entry == "" {
		return domain.NewValidation("entry_step_id", "required")
	}
	if _, ok := w.Steps[entry]; !ok {
		return domain.NewValidation("entry_step_id", "entry step must exist in steps")
	}
	for id, step := range w.Steps {
		switch step.Type {
		case StepMessage, StepQuestion, StepTool, StepDynamicOptions:
		default:
			return domain.NewValidation("steps", "step "+id+" has unknown type "+string(step.Type))
		}
	}
	return nil
}

// Context is the data a conversation has collected. The well-known fields
// drive the booking tools; Extra is the escape hatch for custom steps.
type Context struct {
	ServiceID    string            `json:"serviceId,omitempty" dynamodbav:"serviceId,omitempty"`
	ServiceName  string            `json:"serviceName,omitempty" dynamodbav:"serviceName,omitempty"`
	ProviderID   string            `json:"providerId,omitempty" dynamodbav:"providerId,omitempty"`
	ProviderName string            `json:"providerName,omitempty" dynamodbav:"providerName,omitempty"`
	SelectedSlot string            `json:"selectedSlot,omitempty" dynamodbav:"selectedSlot,omitempty"`
	ClientName   string            `json:"clientName,omitempty" dynamodbav:"clientName,omitempty"`
	ClientEmail  string            `json:"clientEmail,omitempty" dynamodbav:"clientEmail,omitempty"`
	ClientPhone  string            `json:"clientPhone,omitempty" dynamodbav:"clientPhone,omitempty"`
	BookingID    string            `json:"bookingId,omitempty" dynamodbav:"bookingId,omitempty"`
	Extra        map[string]string `json:"extra,omitempty" dynamodbav:"extra,omitempty"`
}

// Set stores a value under a well-known key, falling back to Extra.
func (c *Context) Set(key, value string) {
	switch key {
	case "serviceId":
		c.ServiceID = value
	case "serviceName":
		c.ServiceName = value
	case "providerId":
		c.ProviderID = value
	case "providerName":
		c.ProviderName = value
	case "selectedSlot":
		c.SelectedSlot = value
	case "clientName":
		c.ClientName = value
	case "clientEmail":
		c.ClientEmail = value
	case "clientPhone":
		c.ClientPhone = value
	case "bookingId":
		c.BookingID = value
	default:
		if c.Extra == nil {
			c.Extra = make(map[string]string)
		}
		c.Extra[key] = value
	}
}

// HasContactInfo reports whether name, email and phone are all collected.
func (c *Context) HasContactInfo() bool {
	return c.ClientName != "" && c.ClientEmail != "" && c.ClientPhone != ""
}

// Conversation is one user's traversal of a workflow.
type Conversation struct {
	ID            string    `json:"conversation_id" dynamodbav:"conversationId"`
	TenantID      string    `json:"tenant_id" dynamodbav:"tenantId"`
	WorkflowID    string    `json:"workflow_id" dynamodbav:"workflowId"`
	CurrentStepID string    `json:"current_step_id" dynamodbav:"currentStepId"`
	Context       Context   `json:"context" dynamodbav:"context"`
	CreatedAt     time.Time `json:"created_at" dynamodbav:"createdAt"`
	UpdatedAt     time.Time `json:"updated_at" dynamodbav:"updatedAt"`
}

// Reset jumps back to the entry step and drops everything collected so far.
func (c *Conversation) Reset(entryStepID string) {
	c.CurrentStepID = entryStepID
	c.Context = Context{}
}
