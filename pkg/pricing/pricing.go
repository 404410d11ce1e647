// Package pricing computes the checkout breakdown. Everything here is a
// pure function of its inputs; the tax rate and fallback distance come
// from configuration.
package pricing

import (
	"math"

	"dishdash/pkg/models"
)

const (
	baseFee      = 3.99
	midTierRate  = 0.50
	farTierFee   = 7.49
	farTierRate  = 0.75
	midTierMiles = 3.0
	farTierMiles = 10.0
)

// MinChargeAmount is the smallest amount the payment provider accepts.
const MinChargeAmount = 0.50

type QuoteInput struct {
	Subtotal      float64
	Tip           float64
	OrderType     string
	DistanceMiles float64
	// DistanceKnown is false when geolocation failed; the default
	// distance is applied and flagged on the breakdown.
	DistanceKnown   bool
	DefaultDistance float64
	Promo           *models.Promotion
	TaxRate         float64
}

type Breakdown struct {
	Subtotal        float64 `json:"subtotal"`
	DeliveryFee     float64 `json:"delivery_fee"`
	Tax             float64 `json:"tax"`
	Tip             float64 `json:"tip"`
	Discount        float64 `json:"discount"`
	Total           float64 `json:"total"`
	DistanceMiles   float64 `json:"distance_miles"`
	DistanceAssumed bool    `json:"distance_assumed"`
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// DeliveryFee is tiered by travel distance. Pickup orders are always
// free. The result is exact; rounding to cents happens in Quote.
func DeliveryFee(orderType string, distanceMiles float64) float64 {
	if orderType != models.OrderTypeDelivery {
		return 0
	}
	d := distanceMiles
	switch {
	case d <= midTierMiles:
		return baseFee
	case d <= farTierMiles:
		return baseFee + (d-midTierMiles)*midTierRate
	default:
		return farTierFee + (d-farTierMiles)*farTierRate
	}
}

// PromoDiscount computes the raw discount a promotion yields on the
// given base amount. It does not check applicability; that is the
// promotion service's job.
func PromoDiscount(p *models.Promotion, base float64) float64 {
	if p == nil {
		return 0
	}
	switch p.DiscountType {
	case models.DiscountTypePercentage:
		d := base * p.Value / 100
		if p.MaxDiscount != nil && d > *p.MaxDiscount {
			d = *p.MaxDiscount
		}
		return Round2(d)
	case models.DiscountTypeFixed:
		return Round2(p.Value)
	}
	return 0
}

// Quote prices an order. Each component is rounded to cents before the
// total is taken so total == subtotal + fee + tax + tip - discount holds
// exactly on the returned values. The discount is clamped so the total
// never goes negative.
func Quote(in QuoteInput) Breakdown {
	distance := in.DistanceMiles
	assumed := false
	if in.OrderType == models.OrderTypeDelivery && !in.DistanceKnown {
		distance = in.DefaultDistance
		assumed = true
	}

	subtotal := Round2(in.Subtotal)
	fee := Round2(DeliveryFee(in.OrderType, distance))
	discount := PromoDiscount(in.Promo, subtotal)
	if discount > subtotal+fee {
		discount = subtotal + fee
	}
	tax := Round2((subtotal + fee - discount) * in.TaxRate)
	tip := Round2(in.Tip)
	total := Round2(subtotal + fee + tax + tip - discount)
	if total < 0 {
		total = 0
	}

	return Breakdown{
		Subtotal:        subtotal,
		DeliveryFee:     fee,
		Tax:             tax,
		Tip:             tip,
		Discount:        discount,
		Total:           total,
		DistanceMiles:   distance,
		DistanceAssumed: assumed,
	}
}
