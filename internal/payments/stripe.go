package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/turnoflow/booking-platform/pkg/logging"
)

var stripeTracer = otel.Tracer("booking.internal.payments.stripe")

// StripeGateway creates Stripe Payment Intents over the raw HTTP API.
type StripeGateway struct {
	secretKey  string
	baseURL    string
	apiVersion string
	httpClient *http.Client
	logger     *logging.Logger
	dryRun     bool
}

var _ Gateway = (*StripeGateway)(nil)

// NewStripeGateway creates a Stripe payment-intent gateway.
func NewStripeGateway(secretKey string, logger *logging.Logger) *StripeGateway {
	if logger == nil {
		logger = logging.Default()
	}
	return &StripeGateway{
		secretKey:  secretKey,
		baseURL:    "https://api.stripe.com",
		apiVersion: "2024-12-18.acacia",
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// WithBaseURL overrides the Stripe API base URL (for testing).
func (g *StripeGateway) WithBaseURL(baseURL string) *StripeGateway {
	if baseURL != "" {
		g.baseURL = strings.TrimRight(baseURL, "/")
	}
	return g
}

// WithDryRun enables dry-run mode (returns fake intents without calling Stripe).
func (g *StripeGateway) WithDryRun(enabled bool) *StripeGateway {
	g.dryRun = enabled
	return g
}

// CreatePaymentIntent calls POST /v1/payment_intents.
func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	ctx, span := stripeTracer.Start(ctx, "stripe.create_payment_intent")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("booking.amount_cents", req.AmountCents),
		attribute.String("booking.currency", req.Currency),
	)

	if req.AmountCents <= 0 {
		return nil, fmt.Errorf("payments: amount must be positive, got %d", req.AmountCents)
	}
	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "usd"
	}

	if g.dryRun {
		fakeID := "pi_dryrun_" + uuid.New().String()[:8]
		g.logger.Info("stripe dry run: skipping payment intent creation",
			"amount_cents", req.AmountCents, "currency", currency)
		return &Intent{
			PaymentID:    fakeID,
			ClientSecret: fakeID + "_secret",
		}, nil
	}

	form := url.Values{}
	form.Set("amount", fmt.Sprintf("%d", req.AmountCents))
	form.Set("currency", currency)
	form.Set("automatic_payment_methods[enabled]", "true")

	keys := make([]string, 0, len(req.Metadata))
	for k := range req.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		form.Set(fmt.Sprintf("metadata[%s]", k), req.Metadata[k])
	}

	apiURL := g.baseURL + "/v1/payment_intents"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("payments: stripe request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.secretKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Stripe-Version", g.apiVersion)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("payments: stripe http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("payments: stripe api status %d: %s", resp.StatusCode, string(body))
	}

	var parsed stripePaymentIntent
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("payments: stripe decode: %w", err)
	}
	if parsed.ID == "" {
		return nil, fmt.Errorf("payments: stripe response missing intent id")
	}

	return &Intent{
		PaymentID:    parsed.ID,
		ClientSecret: parsed.ClientSecret,
	}, nil
}

// stripePaymentIntent is the subset of Stripe's Payment Intent we need.
type stripePaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}
