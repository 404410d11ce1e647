package models

import "time"

type Notification struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	OrderID   int64     `json:"order_id"`
	EmailSent bool      `json:"email_sent"`
	PushSent  bool      `json:"push_sent"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationJob is the fan-out unit published to the queue on every
// qualifying status transition. It carries everything the worker needs
// so delivery never has to re-read the order.
type NotificationJob struct {
	OrderID         int64   `json:"order_id"`
	OrderNumber     string  `json:"order_number"`
	Status          string  `json:"status"`
	UserID          int64   `json:"user_id"`
	CustomerName    string  `json:"customer_name"`
	CustomerEmail   string  `json:"customer_email"`
	EmailOptOut     bool    `json:"email_opt_out"`
	PushToken       string  `json:"push_token,omitempty"`
	OrderType       string  `json:"order_type"`
	DeliveryAddress *string `json:"delivery_address,omitempty"`

	// Driver assignment jobs target the driver instead of the customer.
	DriverID        *int64 `json:"driver_id,omitempty"`
	DriverUserID    int64  `json:"driver_user_id,omitempty"`
	DriverPushToken string `json:"driver_push_token,omitempty"`
}
