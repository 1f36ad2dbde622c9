// Package gateway authorizes online payments through the hosted payment widget.
//
// The flow is: open a gateway order on the backend, let the guest pay in the widget,
// then have the backend verify the widget's signed callback.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"restro-pos/internal/logger"
	"restro-pos/internal/models"
	"restro-pos/internal/pos/checkout"
)

// ErrDismissed is returned by a Widget when the guest closes it without paying
var ErrDismissed = errors.New("payment widget dismissed")

// ErrVerificationFailed means the backend rejected the callback signature
var ErrVerificationFailed = errors.New("payment verification failed")

// PaymentAPI is the part of the backend the adapter needs
type PaymentAPI interface {
	CreatePaymentOrder(ctx context.Context, amount decimal.Decimal) (*models.GatewayOrder, error)
	VerifyPayment(ctx context.Context, req *models.VerifyPaymentRequest) (*models.VerifyPaymentResponse, error)
}

// Prefill is what the widget shows the guest before they pay
type Prefill struct {
	Order       models.GatewayOrder
	Description string
	Name        string
	Contact     string
}

// Callback is the signed result the widget hands back on success
type Callback struct {
	PaymentID string
	Signature string
}

// Widget is the guest-facing payment UI
type Widget interface {
	Open(ctx context.Context, prefill Prefill) (Callback, error)
}

// Adapter implements checkout.Authorizer
type Adapter struct {
	api    PaymentAPI
	widget Widget
	logger *logger.Logger
}

var _ checkout.Authorizer = (*Adapter)(nil)

func New(api PaymentAPI, widget Widget, log *logger.Logger) *Adapter {
	return &Adapter{api: api, widget: widget, logger: log}
}

// Authorize runs one payment and returns the proof to attach to the order
func (a *Adapter) Authorize(ctx context.Context, charge checkout.Charge) (*models.PaymentData, error) {
	requestID := logger.GenerateRequestID()

	order, err := a.api.CreatePaymentOrder(ctx, charge.Amount)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway order: %w", err)
	}

	a.logger.Debug("gateway_order_created", "Gateway order opened", requestID, map[string]interface{}{
		"gateway_order_id": order.ID,
		"amount_minor":     order.Amount,
		"currency":         order.Currency,
	})

	cb, err := a.widget.Open(ctx, Prefill{
		Order:       *order,
		Description: charge.Description,
		Name:        charge.CustomerName,
		Contact:     charge.CustomerPhone,
	})
	if errors.Is(err, ErrDismissed) {
		return nil, checkout.ErrPaymentCancelled
	}
	if err != nil {
		return nil, fmt.Errorf("payment widget failed: %w", err)
	}

	resp, err := a.api.VerifyPayment(ctx, &models.VerifyPaymentRequest{
		GatewayOrderID:   order.ID,
		GatewayPaymentID: cb.PaymentID,
		GatewaySignature: cb.Signature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to verify payment: %w", err)
	}
	if !resp.Success {
		a.logger.Warn("payment_verification_rejected", "Backend rejected payment signature", requestID, map[string]interface{}{
			"gateway_order_id":   order.ID,
			"gateway_payment_id": cb.PaymentID,
		})
		return nil, ErrVerificationFailed
	}

	return &models.PaymentData{
		GatewayOrderID:   order.ID,
		GatewayPaymentID: cb.PaymentID,
	}, nil
}
