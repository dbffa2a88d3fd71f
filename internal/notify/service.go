package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/turnoflow/booking-platform/internal/booking"
	"github.com/turnoflow/booking-platform/pkg/logging"
)

// Service turns booking events into customer emails. With a queue configured
// the email is enqueued and delivered by the dispatcher; without one it is
// sent inline.
type Service struct {
	email  EmailSender
	queue  Queue
	logger *logging.Logger
}

var _ booking.Notifier = (*Service)(nil)

// NewService creates the notification service. The email sender is required;
// the queue is optional.
func NewService(email EmailSender, queue Queue, logger *logging.Logger) *Service {
	if email == nil {
		panic("notify: email sender cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, queue: queue, logger: logger}
}

// BookingConfirmation emails the customer that their booking was registered.
func (s *Service) BookingConfirmation(ctx context.Context, b *booking.Booking, serviceName, providerName string) error {
	if b == nil {
		return fmt.Errorf("notify: booking cannot be nil")
	}
	if b.Customer.Email == "" {
		s.logger.Debug("booking has no customer email, skipping confirmation", "booking_id", b.ID)
		return nil
	}

	msg := confirmationEmail(b, serviceName, providerName)

	if s.queue != nil {
		payload, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("notify: marshal confirmation job: %w", err)
		}
		if err := s.queue.Send(ctx, string(payload)); err != nil {
			return fmt.Errorf("notify: enqueue confirmation: %w", err)
		}
		s.logger.Info("booking confirmation enqueued", "booking_id", b.ID, "to", msg.To)
		return nil
	}

	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: send confirmation: %w", err)
	}
	s.logger.Info("booking confirmation sent", "booking_id", b.ID, "to", msg.To)
	return nil
}

func confirmationEmail(b *booking.Booking, serviceName, providerName string) EmailMessage {
	when := b.StartTime.Format("02/01/2006 a las 15:04")

	body := fmt.Sprintf(`Hola %s,

Hemos registrado tu reserva. Estos son los detalles:

Servicio: %s
Profesional: %s
Fecha: %s
Número de reserva: %s

Si necesitas cambiar o cancelar tu cita, responde a este correo.

El equipo de TurnoFlow`,
		b.Customer.Name, serviceName, providerName, when, b.ID)

	html := fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 600px;">
<h2 style="color: #2563eb;">Reserva registrada</h2>
<p>Hola <strong>%s</strong>, hemos registrado tu reserva.</p>
<table style="border-collapse: collapse; margin: 20px 0;">
  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Servicio:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>
  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Profesional:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>
  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Fecha:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>
  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Reserva:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>
</table>
<p>Si necesitas cambiar o cancelar tu cita, responde a este correo.</p>
<p style="color: #6b7280; font-size: 12px; margin-top: 20px;">El equipo de TurnoFlow</p>
</div>`,
		b.Customer.Name, serviceName, providerName, when, b.ID)

	return EmailMessage{
		To:      b.Customer.Email,
		ToName:  b.Customer.Name,
		Subject: fmt.Sprintf("Confirmación de tu reserva %s", b.ID),
		Body:    body,
		HTML:    html,
	}
}
