package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"restro-pos/internal/config"
	"restro-pos/internal/database"
	"restro-pos/internal/logger"
	"restro-pos/internal/models"
)

type Store interface {
	Create(ctx context.Context, p *models.Payment) (*models.Payment, error)
	Get(ctx context.Context, id string) (*models.Payment, error)
	// UpdateStatus only moves a payment that is still open
	UpdateStatus(ctx context.Context, id string, status models.PaymentStatus, paymentID string) (*models.Payment, error)
	List(ctx context.Context) ([]models.Payment, error)
}

// Service issues gateway orders and verifies the signatures the gateway hands back
type Service struct {
	store  Store
	cfg    config.GatewayConfig
	logger *logger.Logger
}

func NewService(store Store, cfg config.GatewayConfig, log *logger.Logger) *Service {
	return &Service{store: store, cfg: cfg, logger: log}
}

// Signature is the gateway's callback signature: hex HMAC-SHA256 of "orderID|paymentID"
func Signature(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// CreateOrder registers a gateway order for amount, expressed to the widget in minor units
func (s *Service) CreateOrder(ctx context.Context, req *models.CreatePaymentOrderRequest, requestID string) (*models.GatewayOrder, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	amount := req.Amount.Round(2)
	p, err := s.store.Create(ctx, &models.Payment{
		ID:          "order_" + uuid.NewString(),
		Amount:      amount,
		AmountMinor: amount.Shift(2).IntPart(),
		Currency:    s.cfg.Currency,
		Status:      models.PaymentCreated,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store payment order: %w", err)
	}

	s.logger.Info("payment_order_created", "Gateway order created", requestID, map[string]interface{}{
		"gateway_order_id": p.ID,
		"amount_minor":     p.AmountMinor,
		"currency":         p.Currency,
	})
	return &models.GatewayOrder{
		ID:       p.ID,
		Amount:   p.AmountMinor,
		Currency: p.Currency,
		Status:   p.Status,
		KeyID:    s.cfg.KeyID,
	}, nil
}

// VerifyPayment checks the callback signature and records the outcome on the payment.
// A bad signature is not an error: it marks the payment failed and reports success=false.
// A captured payment stays captured whatever later callbacks say.
func (s *Service) VerifyPayment(ctx context.Context, req *models.VerifyPaymentRequest, requestID string) (*models.VerifyPaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	expected := Signature(s.cfg.KeySecret, req.GatewayOrderID, req.GatewayPaymentID)
	ok := hmac.Equal([]byte(expected), []byte(req.GatewaySignature))

	status := models.PaymentCaptured
	if !ok {
		status = models.PaymentFailed
	}

	details := map[string]interface{}{
		"gateway_order_id":   req.GatewayOrderID,
		"gateway_payment_id": req.GatewayPaymentID,
	}

	_, err := s.store.UpdateStatus(ctx, req.GatewayOrderID, status, req.GatewayPaymentID)
	if errors.Is(err, database.ErrNotFound) {
		current, getErr := s.store.Get(ctx, req.GatewayOrderID)
		if getErr != nil {
			return nil, getErr
		}
		details["status"] = string(current.Status)
		s.logger.Warn("payment_already_settled", "Payment already settled, status left unchanged", requestID, details)
		return &models.VerifyPaymentResponse{
			Success: ok && current.Status == models.PaymentCaptured && current.PaymentID == req.GatewayPaymentID,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	if ok {
		s.logger.Info("payment_verified", "Payment signature verified", requestID, details)
	} else {
		s.logger.Warn("payment_verification_failed", "Payment signature mismatch", requestID, details)
	}
	return &models.VerifyPaymentResponse{Success: ok}, nil
}

func (s *Service) ListPayments(ctx context.Context) ([]models.Payment, error) {
	return s.store.List(ctx)
}
