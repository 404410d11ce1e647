package models

import "time"

const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

type Promotion struct {
	ID           int64      `json:"id"`
	Code         string     `json:"code"`
	DiscountType string     `json:"discount_type"`
	Value        float64    `json:"value"`
	MinOrder     *float64   `json:"min_order,omitempty"`
	MaxDiscount  *float64   `json:"max_discount,omitempty"`
	ValidFrom    time.Time  `json:"valid_from"`
	ValidUntil   time.Time  `json:"valid_until"`
	UsageLimit   *int       `json:"usage_limit,omitempty"`
	UsedCount    int        `json:"used_count"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}
