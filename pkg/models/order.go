package models

import "time"

const (
	OrderTypeDelivery = "delivery"
	OrderTypePickup   = "pickup"

	PaymentMethodCard = "card"
	PaymentMethodCash = "cash"

	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

type Order struct {
	ID              int64       `json:"id"`
	Number          string      `json:"number"`
	UserID          int64       `json:"user_id"`
	CustomerName    string      `json:"customer_name"`
	CustomerEmail   string      `json:"customer_email"`
	CustomerPhone   string      `json:"customer_phone"`
	Type            string      `json:"type"`
	DeliveryAddress *string     `json:"delivery_address,omitempty"`
	Items           []OrderItem `json:"items"`

	Subtotal    float64 `json:"subtotal"`
	DeliveryFee float64 `json:"delivery_fee"`
	Tax         float64 `json:"tax"`
	Tip         float64 `json:"tip"`
	Discount    float64 `json:"discount"`
	Total       float64 `json:"total"`
	PromoCode   *string `json:"promo_code,omitempty"`

	DistanceMiles   float64 `json:"distance_miles"`
	DistanceAssumed bool    `json:"distance_assumed"`

	PaymentMethod string `json:"payment_method"`
	PaymentStatus string `json:"payment_status"`

	Status   string `json:"status"`
	DriverID *int64 `json:"driver_id,omitempty"`

	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	PreparingAt *time.Time `json:"preparing_at,omitempty"`
	ReadyAt     *time.Time `json:"ready_at,omitempty"`
	PickedUpAt  *time.Time `json:"picked_up_at,omitempty"`
	OnTheWayAt  *time.Time `json:"on_the_way_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type OrderItem struct {
	ID           int64        `json:"id"`
	OrderID      int64        `json:"order_id"`
	MealID       int64        `json:"meal_id"`
	Name         string       `json:"name"`
	UnitPrice    float64      `json:"unit_price"`
	Quantity     int          `json:"quantity"`
	Extras       []OrderExtra `json:"extras,omitempty"`
	Instructions *string      `json:"instructions,omitempty"`
}

type OrderExtra struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type OrderStatusLog struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"order_id"`
	Status    string    `json:"status"`
	ChangedBy string    `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
}
