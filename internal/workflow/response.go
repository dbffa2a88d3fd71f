package workflow

import (
	"fmt"

	"github.com/turnoflow/booking-platform/internal/availability"
	"github.com/turnoflow/booking-platform/internal/catalog"
	"github.com/turnoflow/booking-platform/internal/domain"
)

// Response envelope types.
const (
	TypeText         = "text"
	TypeOptions      = "options"
	TypeCalendar     = "calendar"
	TypeForm         = "form"
	TypeConfirmation = "confirmation"
	TypeSuccess      = "success"
	TypeError        = "error"
)

// Option is a selectable item. Value is the structured input the widget sends
// back; Label is what the user sees.
type Option struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// SlotView is one bookable slot in a calendar response.
type SlotView struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// FormField describes one input of a form response.
type FormField struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// Response is the chat envelope returned for every turn.
type Response struct {
	Type         string            `json:"type"`
	Text         string            `json:"text,omitempty"`
	Options      []Option          `json:"options,omitempty"`
	Slots        []SlotView        `json:"slots,omitempty"`
	Fields       []FormField       `json:"fields,omitempty"`
	Details      map[string]string `json:"details,omitempty"`
	QuickReplies []Option          `json:"quick_replies,omitempty"`
}

// Greeting welcomes a new conversation.
func Greeting() *Response {
	return &Response{
		Type: TypeText,
		Text: "¡Hola! 👋 Bienvenido a nuestro sistema de reservas. ¿En qué puedo ayudarte hoy?",
	}
}

// ServiceOptions lists bookable services.
func ServiceOptions(text string, services []catalog.Service) *Response {
	if text == "" {
		text = "Perfecto. ¿Qué servicio específico deseas?"
	}
	opts := make([]Option, 0, len(services))
	for _, s := range services {
		opts = append(opts, Option{
			Value:       s.ID,
			Label:       fmt.Sprintf("%s - $%d (%d min)", s.Name, s.PriceCents/100, s.DurationMinutes),
			Description: s.Description,
		})
	}
	return &Response{Type: TypeOptions, Text: text, Options: opts}
}

// ProviderOptions lists providers.
func ProviderOptions(text string, providers []catalog.Provider) *Response {
	if text == "" {
		text = "¿Con qué profesional te gustaría agendar?"
	}
	opts := make([]Option, 0, len(providers))
	for _, p := range providers {
		opts = append(opts, Option{Value: p.ID, Label: p.Name, Description: p.Bio})
	}
	return &Response{Type: TypeOptions, Text: text, Options: opts}
}

// Calendar lists available slots with the escape quick replies.
func Calendar(slots []availability.Slot) *Response {
	views := make([]SlotView, 0, len(slots))
	for _, s := range slots {
		views = append(views, SlotView{Start: domain.FormatTime(s.Start), End: domain.FormatTime(s.End)})
	}
	return &Response{
		Type:  TypeCalendar,
		Text:  "¿Cuándo te gustaría tu cita?",
		Slots: views,
		QuickReplies: []Option{
			{Label: "Cambiar profesional", Value: "cambiar profesional"},
			{Label: "Volver a empezar", Value: "volver a empezar"},
		},
	}
}

// NoAvailability is returned when a provider has no open slots.
func NoAvailability() *Response {
	return &Response{
		Type: TypeText,
		Text: "Lo siento, no hay disponibilidad para este profesional en las próximas semanas. ¿Te gustaría elegir otro profesional?",
		QuickReplies: []Option{
			{Label: "Elegir otro profesional", Value: "cambiar profesional"},
			{Label: "Volver al inicio", Value: "volver a empezar"},
		},
	}
}

// ContactForm asks for the customer's contact details.
func ContactForm(text string) *Response {
	if text == "" {
		text = "Para finalizar, necesito tus datos de contacto."
	}
	return &Response{
		Type: TypeForm,
		Text: text,
		Fields: []FormField{
			{Name: "clientName", Label: "Nombre completo", Type: "text", Required: true},
			{Name: "clientEmail", Label: "Email", Type: "email", Required: true},
			{Name: "clientPhone", Label: "Teléfono", Type: "tel", Required: true},
		},
	}
}

// BookingSuccess announces the created booking.
func BookingSuccess(bookingID, clientEmail string) *Response {
	return &Response{
		Type: TypeSuccess,
		Text: fmt.Sprintf("¡Reserva confirmada! 🎉\n\nTu número de reserva es: %s\n\nTe hemos enviado un email de confirmación a %s", bookingID, clientEmail),
		Details: map[string]string{
			"bookingId":   bookingID,
			"clientEmail": clientEmail,
		},
	}
}

// FlowError is the generic Spanish error envelope with the retry/restart
// quick replies. Every tool or engine failure surfaces through it.
func FlowError(reason string) *Response {
	return &Response{
		Type: TypeError,
		Text: fmt.Sprintf("Lo siento, ocurrió un error: %s", reason),
		QuickReplies: []Option{
			{Label: "Reintentar", Value: "reintentar"},
			{Label: "Volver al inicio", Value: "volver a empezar"},
		},
	}
}

// SlotTaken prompts for a different slot after a booking conflict.
func SlotTaken() *Response {
	return &Response{
		Type: TypeError,
		Text: "Lo siento, ese horario acaba de ser reservado por otra persona. Por favor elige otro horario.",
		QuickReplies: []Option{
			{Label: "Ver horarios", Value: "reintentar"},
			{Label: "Volver al inicio", Value: "volver a empezar"},
		},
	}
}
