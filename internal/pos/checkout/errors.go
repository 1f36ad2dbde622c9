package checkout

import (
	"errors"
	"fmt"
)

// Redirect tells the caller which screen should follow a rejected checkout
type Redirect string

const (
	RedirectNone   Redirect = ""
	RedirectTables Redirect = "tables"
)

var (
	// ErrInFlight is returned when an order is placed while another placement is running
	ErrInFlight = errors.New("an order is already being placed")

	// ErrPaymentCancelled is returned when the guest closes the payment widget.
	// It is informational; nothing was charged and nothing changed.
	ErrPaymentCancelled = errors.New("payment cancelled")
)

// ValidationError is a precondition failure detected before any network call
type ValidationError struct {
	Field    string
	Message  string
	Redirect Redirect
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// PaymentAuthorizationError wraps a gateway failure: script load, order creation or verification
type PaymentAuthorizationError struct {
	Err error
}

func (e *PaymentAuthorizationError) Error() string {
	return fmt.Sprintf("payment authorization failed: %v", e.Err)
}

func (e *PaymentAuthorizationError) Unwrap() error { return e.Err }

// OrderSubmissionError wraps a rejected or failed order create call
type OrderSubmissionError struct {
	Err error
}

func (e *OrderSubmissionError) Error() string {
	return fmt.Sprintf("order submission failed: %v", e.Err)
}

func (e *OrderSubmissionError) Unwrap() error { return e.Err }

// TableSyncError means the order exists but its table could not be marked booked
type TableSyncError struct {
	TableID string
	OrderID string
	Err     error
}

func (e *TableSyncError) Error() string {
	return fmt.Sprintf("table %s not marked booked for order %s: %v", e.TableID, e.OrderID, e.Err)
}

func (e *TableSyncError) Unwrap() error { return e.Err }
