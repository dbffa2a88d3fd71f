package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripeGatewayCreatesIntent(t *testing.T) {
	var gotForm map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/payment_intents", r.URL.Path)
		require.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id":            "pi_123",
			"client_secret": "pi_123_secret_abc",
		})
	}))
	defer server.Close()

	gw := NewStripeGateway("sk_test_123", nil).WithBaseURL(server.URL)
	intent, err := gw.CreatePaymentIntent(context.Background(), IntentRequest{
		AmountCents: 4500,
		Currency:    "CLP",
		Metadata:    map[string]string{"booking_id": "bkg_1", "tenant_id": "tnt_1"},
	})

	require.NoError(t, err)
	assert.Equal(t, "pi_123", intent.PaymentID)
	assert.Equal(t, "pi_123_secret_abc", intent.ClientSecret)
	assert.Equal(t, "4500", gotForm["amount"][0])
	assert.Equal(t, "clp", gotForm["currency"][0])
	assert.Equal(t, "bkg_1", gotForm["metadata[booking_id]"][0])
	assert.Equal(t, "tnt_1", gotForm["metadata[tenant_id]"][0])
}

func TestStripeGatewayAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"message":"card declined"}}`))
	}))
	defer server.Close()

	gw := NewStripeGateway("sk_test_123", nil).WithBaseURL(server.URL)
	_, err := gw.CreatePaymentIntent(context.Background(), IntentRequest{AmountCents: 100})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 402")
}

func TestStripeGatewayRejectsNonPositiveAmount(t *testing.T) {
	gw := NewStripeGateway("sk_test_123", nil)
	_, err := gw.CreatePaymentIntent(context.Background(), IntentRequest{AmountCents: 0})
	require.Error(t, err)
}

func TestStripeGatewayDryRun(t *testing.T) {
	gw := NewStripeGateway("", nil).WithDryRun(true)
	intent, err := gw.CreatePaymentIntent(context.Background(), IntentRequest{AmountCents: 100})

	require.NoError(t, err)
	assert.Contains(t, intent.PaymentID, "pi_dryrun_")
	assert.NotEmpty(t, intent.ClientSecret)
}

func TestFakeGatewayRecordsIntents(t *testing.T) {
	gw := NewFakeGateway()

	first, err := gw.CreatePaymentIntent(context.Background(), IntentRequest{AmountCents: 100})
	require.NoError(t, err)
	second, err := gw.CreatePaymentIntent(context.Background(), IntentRequest{AmountCents: 200})
	require.NoError(t, err)

	assert.Equal(t, "pi_fake_0001", first.PaymentID)
	assert.Equal(t, "pi_fake_0002", second.PaymentID)
	assert.Len(t, gw.Intents(), 2)
}
