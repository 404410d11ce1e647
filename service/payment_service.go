package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"dishdash/config"
	"dishdash/pkg/logger"
	"dishdash/pkg/pricing"

	"github.com/google/uuid"
)

type PaymentIntent struct {
	ClientSecret   string `json:"client_secret"`
	IdempotencyKey string `json:"idempotency_key"`
}

type PaymentService interface {
	// CreateIntent asks the payment provider for a client secret the
	// storefront's card element can confirm. Amounts below the
	// provider's $0.50 floor are rejected before any network call.
	CreateIntent(ctx context.Context, amountUSD float64, orderNumber string, customerID int64) (*PaymentIntent, error)
}

type paymentService struct {
	apiURL string
	apiKey string
	client *http.Client
	log    logger.ILogger
}

func NewPaymentService(cfg config.Config, log logger.ILogger) PaymentService {
	return &paymentService{
		apiURL: cfg.PaymentAPIURL,
		apiKey: cfg.PaymentAPIKey,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

func (s *paymentService) CreateIntent(ctx context.Context, amountUSD float64, orderNumber string, customerID int64) (*PaymentIntent, error) {
	if amountUSD < pricing.MinChargeAmount {
		return nil, ErrAmountTooSmall
	}

	key := uuid.NewString()
	payload, err := json.Marshal(map[string]interface{}{
		"amount_cents":    int64(math.Round(amountUSD * 100)),
		"currency":        "usd",
		"order_number":    orderNumber,
		"customer_id":     customerID,
		"idempotency_key": key,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Error("payment intent request failed", logger.String("order", orderNumber), logger.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		s.log.Error("payment provider rejected intent",
			logger.String("order", orderNumber),
			logger.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("payment provider returned status %d", resp.StatusCode)
	}

	var out struct {
		ClientSecret string `json:"client_secret"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}

	return &PaymentIntent{ClientSecret: out.ClientSecret, IdempotencyKey: key}, nil
}
