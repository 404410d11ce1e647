package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dishdash/config"
	"dishdash/pkg/logger"
	"dishdash/pkg/models"
	"dishdash/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubServices struct {
	promos service.PromotionService
}

func (s *stubServices) User() service.UserService           { return nil }
func (s *stubServices) Order() service.OrderService         { return nil }
func (s *stubServices) Promotion() service.PromotionService { return s.promos }
func (s *stubServices) Payment() service.PaymentService     { return nil }

type stubPromos struct {
	promo *models.Promotion
	err   error
}

func (s *stubPromos) Validate(_ context.Context, _ string, _ float64) (*models.Promotion, error) {
	return s.promo, s.err
}

func (s *stubPromos) Redeem(_ context.Context, _ string, _ float64) (*models.Promotion, error) {
	return s.promo, s.err
}

func (s *stubPromos) Create(_ context.Context, p *models.Promotion) (*models.Promotion, error) {
	return p, nil
}

func (s *stubPromos) Update(_ context.Context, p *models.Promotion) (*models.Promotion, error) {
	return p, nil
}

func (s *stubPromos) GetAll(_ context.Context) ([]*models.Promotion, error) { return nil, nil }
func (s *stubPromos) Delete(_ context.Context, _ int64) error               { return nil }

func newPromoServer(promos service.PromotionService) *Server {
	gin.SetMode(gin.TestMode)
	return NewServer(&stubServices{promos: promos}, nil, nil, config.Config{JWTSecret: "test-secret"}, logger.New("test", "error"))
}

func postValidate(t *testing.T, srv *Server, body map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/promotions/validate", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestValidatePromoPreviewUsesSubtotalBase(t *testing.T) {
	srv := newPromoServer(&stubPromos{promo: &models.Promotion{
		Code:         "SAVE10",
		DiscountType: models.DiscountTypePercentage,
		Value:        10,
		ValidFrom:    time.Now().Add(-time.Hour),
		ValidUntil:   time.Now().Add(time.Hour),
		Active:       true,
	}})

	// The preview discount matches what the submission-time quote will
	// compute: the percentage applies to the subtotal, not subtotal+fee.
	w := postValidate(t, srv, map[string]interface{}{
		"code":         "SAVE10",
		"order_amount": 40.99,
		"subtotal":     36.00,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Code     string  `json:"code"`
		Discount float64 `json:"discount"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "SAVE10", resp.Code)
	assert.Equal(t, 3.60, resp.Discount)
}

func TestValidatePromoMinOrderRejection(t *testing.T) {
	srv := newPromoServer(&stubPromos{err: &service.MinOrderError{Min: 30.00}})

	w := postValidate(t, srv, map[string]interface{}{
		"code":         "BIGSPEND",
		"order_amount": 25.00,
		"subtotal":     21.01,
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "$30.00")
}
