package payments

import (
	"context"
	"fmt"
	"sync"
)

// FakeGateway records intents in memory. Used by tests and the demo wiring.
type FakeGateway struct {
	mu      sync.Mutex
	intents []IntentRequest
	failErr error
}

var _ Gateway = (*FakeGateway)(nil)

// NewFakeGateway creates an empty in-memory gateway.
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{}
}

// FailWith makes every subsequent CreatePaymentIntent call return err.
func (g *FakeGateway) FailWith(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failErr = err
}

// CreatePaymentIntent records the request and returns a deterministic intent.
func (g *FakeGateway) CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failErr != nil {
		return nil, g.failErr
	}
	g.intents = append(g.intents, req)
	id := fmt.Sprintf("pi_fake_%04d", len(g.intents))
	return &Intent{PaymentID: id, ClientSecret: id + "_secret"}, nil
}

// Intents returns a copy of the recorded requests.
func (g *FakeGateway) Intents() []IntentRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]IntentRequest, len(g.intents))
	copy(out, g.intents)
	return out
}
