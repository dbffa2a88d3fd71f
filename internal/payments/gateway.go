// Package payments creates payment intents for bookings with a nonzero price.
// Intent creation is best-effort: the booking service logs failures and keeps
// the booking, so implementations must never be load-bearing for correctness.
package payments

import "context"

// IntentRequest describes the charge to prepare.
type IntentRequest struct {
	AmountCents int64
	Currency    string
	Metadata    map[string]string
}

// Intent is the created payment intent. ClientSecret is handed to the widget
// so the customer can complete payment client-side.
type Intent struct {
	PaymentID    string
	ClientSecret string
}

// Gateway creates payment intents.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error)
}
