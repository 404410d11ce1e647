package pricing

import (
	"testing"
	"time"

	"dishdash/pkg/models"

	"github.com/stretchr/testify/assert"
)

func TestDeliveryFeeTierBoundaries(t *testing.T) {
	tests := []struct {
		distance float64
		want     float64
	}{
		{0, 3.99},
		{3.0, 3.99},
		{3.01, 3.99 + 0.01*0.50},
		{5.0, 4.99},
		{10.0, 7.49},
		{10.01, 7.49 + 0.01*0.75},
		{12.0, 8.99},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, DeliveryFee(models.OrderTypeDelivery, tt.distance), 0.001, "distance %.2f", tt.distance)
	}
}

func TestPickupHasNoDeliveryFee(t *testing.T) {
	assert.Zero(t, DeliveryFee(models.OrderTypePickup, 0))
	assert.Zero(t, DeliveryFee(models.OrderTypePickup, 25))
}

func TestPromoDiscount(t *testing.T) {
	cap := 5.0
	tests := []struct {
		name  string
		promo *models.Promotion
		base  float64
		want  float64
	}{
		{"nil promo", nil, 100, 0},
		{"percentage", &models.Promotion{DiscountType: models.DiscountTypePercentage, Value: 10}, 36, 3.60},
		{"percentage capped", &models.Promotion{DiscountType: models.DiscountTypePercentage, Value: 20, MaxDiscount: &cap}, 100, 5.00},
		{"fixed", &models.Promotion{DiscountType: models.DiscountTypeFixed, Value: 7.5}, 40, 7.50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PromoDiscount(tt.promo, tt.base), 0.001)
		})
	}
}

func TestQuoteDeliveryWithPromo(t *testing.T) {
	// $36.00 subtotal, 5 miles, SAVE10 (10% off, no cap).
	promo := &models.Promotion{
		Code:         "SAVE10",
		DiscountType: models.DiscountTypePercentage,
		Value:        10,
		ValidFrom:    time.Now().Add(-time.Hour),
		ValidUntil:   time.Now().Add(time.Hour),
		Active:       true,
	}
	b := Quote(QuoteInput{
		Subtotal:      36.00,
		OrderType:     models.OrderTypeDelivery,
		DistanceMiles: 5,
		DistanceKnown: true,
		Promo:         promo,
		TaxRate:       0.0735,
	})
	assert.InDelta(t, 4.99, b.DeliveryFee, 0.001)
	assert.InDelta(t, 3.60, b.Discount, 0.001)
	assert.InDelta(t, 2.75, b.Tax, 0.001)
	assert.InDelta(t, 40.14, b.Total, 0.001)
}

func TestQuotePickupNoPromo(t *testing.T) {
	b := Quote(QuoteInput{
		Subtotal:  18.00,
		OrderType: models.OrderTypePickup,
		TaxRate:   0.0735,
	})
	assert.Zero(t, b.DeliveryFee)
	assert.InDelta(t, 1.32, b.Tax, 0.001)
	assert.InDelta(t, 19.32, b.Total, 0.001)
}

func TestQuoteIsPure(t *testing.T) {
	in := QuoteInput{
		Subtotal:      42.50,
		Tip:           3,
		OrderType:     models.OrderTypeDelivery,
		DistanceMiles: 7.3,
		DistanceKnown: true,
		TaxRate:       0.0635,
	}
	assert.Equal(t, Quote(in), Quote(in))
}

func TestQuoteComponentSumInvariant(t *testing.T) {
	b := Quote(QuoteInput{
		Subtotal:      23.17,
		Tip:           2.83,
		OrderType:     models.OrderTypeDelivery,
		DistanceMiles: 8.4,
		DistanceKnown: true,
		Promo:         &models.Promotion{DiscountType: models.DiscountTypeFixed, Value: 4},
		TaxRate:       0.0635,
	})
	assert.InDelta(t, b.Subtotal+b.DeliveryFee+b.Tax+b.Tip-b.Discount, b.Total, 0.001)
}

func TestQuoteUnknownDistanceUsesDefault(t *testing.T) {
	b := Quote(QuoteInput{
		Subtotal:        20,
		OrderType:       models.OrderTypeDelivery,
		DistanceKnown:   false,
		DefaultDistance: 3.0,
		TaxRate:         0.0735,
	})
	assert.True(t, b.DistanceAssumed)
	assert.InDelta(t, 3.99, b.DeliveryFee, 0.001)
}

func TestQuoteDiscountClamped(t *testing.T) {
	b := Quote(QuoteInput{
		Subtotal:  5,
		OrderType: models.OrderTypePickup,
		Promo:     &models.Promotion{DiscountType: models.DiscountTypeFixed, Value: 50},
		TaxRate:   0.0735,
	})
	assert.InDelta(t, 5.00, b.Discount, 0.001)
	assert.GreaterOrEqual(t, b.Total, 0.0)
}
