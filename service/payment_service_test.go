package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"dishdash/config"
	"dishdash/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateIntentRejectsTinyAmounts(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	svc := NewPaymentService(config.Config{PaymentAPIURL: srv.URL}, logger.New("test", "error"))
	_, err := svc.CreateIntent(context.Background(), 0.25, "ORD-20260831-0001", 1)
	assert.ErrorIs(t, err, ErrAmountTooSmall)
	assert.False(t, called, "the provider must never see a sub-minimum amount")
}

func TestCreateIntent(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"client_secret": "pi_secret_123"})
	}))
	defer srv.Close()

	svc := NewPaymentService(config.Config{PaymentAPIURL: srv.URL, PaymentAPIKey: "sk-test"}, logger.New("test", "error"))
	intent, err := svc.CreateIntent(context.Background(), 40.14, "ORD-20260831-0007", 9)
	require.NoError(t, err)

	assert.Equal(t, "pi_secret_123", intent.ClientSecret)
	assert.NotEmpty(t, intent.IdempotencyKey)
	// Dollars are converted to integer cents for the provider.
	assert.Equal(t, float64(4014), got["amount_cents"])
	assert.Equal(t, "ORD-20260831-0007", got["order_number"])
}

func TestCreateIntentProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	svc := NewPaymentService(config.Config{PaymentAPIURL: srv.URL}, logger.New("test", "error"))
	_, err := svc.CreateIntent(context.Background(), 20.00, "ORD-20260831-0008", 9)
	assert.Error(t, err)
}
