package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")

	ErrPromoNotFound     = errors.New("promo code not found")
	ErrPromoInactive     = errors.New("promo code is inactive")
	ErrPromoNotStarted   = errors.New("promo code is not active yet")
	ErrPromoExpired      = errors.New("promo code has expired")
	ErrPromoLimitReached = errors.New("promo code usage limit reached")

	ErrAmountTooSmall    = errors.New("amount is below the minimum chargeable amount of $0.50")
	ErrDriverNotApproved = errors.New("driver is not approved")

	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ValidationError names the offending field so the client can show a
// specific, actionable message.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// MinOrderError carries the exact threshold for message interpolation.
type MinOrderError struct {
	Min float64
}

func (e *MinOrderError) Error() string {
	return fmt.Sprintf("order must be at least $%.2f to use this code", e.Min)
}

// TransitionError reports an illegal status move.
type TransitionError struct {
	From, To string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot change order status from %q to %q", e.From, e.To)
}
