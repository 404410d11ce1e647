// Package lifecycle is the single source of truth for order status
// progression. Every status comparison in the system goes through the
// tables here instead of ad-hoc string checks.
package lifecycle

import (
	"fmt"
	"strings"
)

type Status string

const (
	StatusReceived  Status = "received"
	StatusConfirmed Status = "confirmed"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusPickedUp  Status = "picked up"
	StatusOnTheWay  Status = "on the way"
	StatusDelivered Status = "delivered"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ReadyForPickupAlias is accepted on input and normalized to StatusReady.
const ReadyForPickupAlias = "ready for pickup"

var all = map[Status]bool{
	StatusReceived:  true,
	StatusConfirmed: true,
	StatusPreparing: true,
	StatusReady:     true,
	StatusPickedUp:  true,
	StatusOnTheWay:  true,
	StatusDelivered: true,
	StatusCompleted: true,
	StatusCancelled: true,
}

// Normalize lowercases, trims and resolves aliases. Unknown values are
// rejected so only canonical statuses ever reach storage.
func Normalize(s string) (Status, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == ReadyForPickupAlias {
		v = string(StatusReady)
	}
	st := Status(v)
	if !all[st] {
		return "", fmt.Errorf("unknown order status %q", s)
	}
	return st, nil
}

func IsTerminal(s Status) bool {
	return s == StatusCompleted || s == StatusCancelled
}

// AllowedNext returns the legal next statuses for an order in the given
// status. Pickup orders skip "on the way"/"delivered"; delivery orders
// skip "picked up". A received order must be confirmed or cancelled
// before anything else. Cancellation is legal from any non-terminal
// status.
func AllowedNext(current Status, orderType string) []Status {
	var next []Status
	switch current {
	case StatusReceived:
		next = []Status{StatusConfirmed}
	case StatusConfirmed:
		next = []Status{StatusPreparing}
	case StatusPreparing:
		next = []Status{StatusReady}
	case StatusReady:
		if orderType == "pickup" {
			next = []Status{StatusPickedUp}
		} else {
			next = []Status{StatusOnTheWay}
		}
	case StatusPickedUp:
		next = []Status{StatusCompleted}
	case StatusOnTheWay:
		next = []Status{StatusDelivered}
	case StatusDelivered:
		next = []Status{StatusCompleted}
	default:
		return nil
	}
	return append(next, StatusCancelled)
}

func CanTransition(current, next Status, orderType string) bool {
	for _, s := range AllowedNext(current, orderType) {
		if s == next {
			return true
		}
	}
	return false
}

// IsNotifiable reports whether entering the status triggers the customer
// notification fan-out. This is the minimum contract set; confirmed,
// on the way, completed and cancelled do not fan out.
func IsNotifiable(s Status) bool {
	switch s {
	case StatusReceived, StatusPreparing, StatusReady, StatusPickedUp, StatusDelivered:
		return true
	}
	return false
}

// TimestampColumn maps a status to the orders column that records when
// the status was first entered. Received has no column; created_at
// already covers it.
func TimestampColumn(s Status) string {
	switch s {
	case StatusConfirmed:
		return "confirmed_at"
	case StatusPreparing:
		return "preparing_at"
	case StatusReady:
		return "ready_at"
	case StatusPickedUp:
		return "picked_up_at"
	case StatusOnTheWay:
		return "on_the_way_at"
	case StatusDelivered:
		return "delivered_at"
	case StatusCompleted:
		return "completed_at"
	case StatusCancelled:
		return "cancelled_at"
	}
	return ""
}

// Title is the customer-facing headline used for in-app, push and email
// notifications.
func Title(s Status) string {
	switch s {
	case StatusReceived:
		return "Order Received"
	case StatusPreparing:
		return "Order Being Prepared"
	case StatusReady:
		return "Order Ready"
	case StatusPickedUp:
		return "Order Picked Up"
	case StatusDelivered:
		return "Order Delivered"
	}
	return ""
}
