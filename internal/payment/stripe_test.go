package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateIntent_Succeeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/payment_intents", r.URL.Path)
		require.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseForm())
		require.Equal(t, "1900", r.PostForm.Get("amount"))
		require.Equal(t, "usd", r.PostForm.Get("currency"))
		require.Equal(t, "order-1", r.PostForm.Get("metadata[orderId]"))
		require.Equal(t, "LUM-20260828-001", r.PostForm.Get("metadata[orderNumber]"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pi_123","client_secret":"pi_123_secret","status":"requires_payment_method"}`))
	}))
	defer srv.Close()

	g := NewStripeGateway(srv.URL, "sk_test_123", srv.Client())

	intent, err := g.CreateIntent(context.Background(), CreateIntentRequest{
		AmountCents: 1900,
		Currency:    "usd",
		OrderID:     "order-1",
		OrderNumber: "LUM-20260828-001",
	})
	require.NoError(t, err)
	require.Equal(t, "pi_123", intent.ID)
	require.Equal(t, "pi_123_secret", intent.ClientSecret)
	require.Equal(t, IntentStatusRequiresPayment, intent.Status)
}

func TestRetrieveIntent_Succeeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/v1/payment_intents/pi_123", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pi_123","status":"succeeded"}`))
	}))
	defer srv.Close()

	g := NewStripeGateway(srv.URL, "sk_test_123", srv.Client())

	intent, err := g.RetrieveIntent(context.Background(), "pi_123")
	require.NoError(t, err)
	require.Equal(t, IntentStatusSucceeded, intent.Status)
}

func TestRetrieveIntent_CarriesLastError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pi_123","status":"requires_payment_method","last_payment_error":{"message":"card declined"}}`))
	}))
	defer srv.Close()

	g := NewStripeGateway(srv.URL, "sk_test_123", srv.Client())

	intent, err := g.RetrieveIntent(context.Background(), "pi_123")
	require.NoError(t, err)
	require.Equal(t, "card declined", intent.LastError)
}

func TestCreateIntent_APIErrorWrapsErrGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"message":"Your card was declined."}}`))
	}))
	defer srv.Close()

	g := NewStripeGateway(srv.URL, "sk_test_123", srv.Client())

	intent, err := g.CreateIntent(context.Background(), CreateIntentRequest{AmountCents: 100, Currency: "usd"})
	require.Nil(t, intent)
	require.ErrorIs(t, err, ErrGateway)
	require.Contains(t, err.Error(), "Your card was declined.")
}

func TestCreateIntent_GatewayDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	g := NewStripeGateway(srv.URL, "sk_test_123", nil)

	intent, err := g.CreateIntent(context.Background(), CreateIntentRequest{AmountCents: 100, Currency: "usd"})
	require.Nil(t, intent)
	require.ErrorIs(t, err, ErrGateway)
}
