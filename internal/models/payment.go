package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus mirrors the gateway's view of a payment
type PaymentStatus string

const (
	PaymentCreated  PaymentStatus = "created"
	PaymentCaptured PaymentStatus = "captured"
	PaymentFailed   PaymentStatus = "failed"
)

// Payment is one gateway transaction
type Payment struct {
	ID          string          `json:"id"`
	PaymentID   string          `json:"paymentId,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	AmountMinor int64           `json:"amountMinor"`
	Currency    string          `json:"currency"`
	Status      PaymentStatus   `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// GatewayOrder is what the terminal hands to the payment widget
type GatewayOrder struct {
	ID       string        `json:"id"`
	Amount   int64         `json:"amount"`
	Currency string        `json:"currency"`
	Status   PaymentStatus `json:"status"`
	KeyID    string        `json:"keyId"`
}

// CreatePaymentOrderRequest is the body of POST /api/payment/create-order
type CreatePaymentOrderRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// Validate validates the create payment order request
func (req *CreatePaymentOrderRequest) Validate() error {
	if !req.Amount.IsPositive() {
		return ValidationError{Field: "amount", Message: "amount must be positive"}
	}
	return nil
}

// VerifyPaymentRequest is the gateway callback forwarded by the terminal
type VerifyPaymentRequest struct {
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	GatewaySignature string `json:"gateway_signature"`
}

// Validate validates the verify payment request
func (req *VerifyPaymentRequest) Validate() error {
	if req.GatewayOrderID == "" {
		return ValidationError{Field: "gateway_order_id", Message: "gateway order id is required"}
	}
	if req.GatewayPaymentID == "" {
		return ValidationError{Field: "gateway_payment_id", Message: "gateway payment id is required"}
	}
	if req.GatewaySignature == "" {
		return ValidationError{Field: "gateway_signature", Message: "gateway signature is required"}
	}
	return nil
}

// VerifyPaymentResponse reports the outcome of verification
type VerifyPaymentResponse struct {
	Success bool `json:"success"`
}
