package order

import (
	"context"
	"errors"
	"fmt"

	"restro-pos/internal/database"
	"restro-pos/internal/logger"
	"restro-pos/internal/models"
)

// ErrInvalidTransition is returned when a status change skips or reverses the lifecycle
var ErrInvalidTransition = fmt.Errorf("invalid status transition: %w", database.ErrConflict)

// Store persists orders
type Store interface {
	Create(ctx context.Context, req *models.CreateOrderRequest, idempotencyKey string) (*models.Order, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*models.Order, error)
	Get(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context, status models.OrderStatus) ([]models.Order, error)
	// UpdateStatus moves the order from one status to another and fails with
	// database.ErrNotFound if it is no longer in from
	UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus) (*models.Order, error)
}

// EventPublisher sends floor events
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event interface{}) error
}

// Service implements the order endpoints
type Service struct {
	store     Store
	publisher EventPublisher
	logger    *logger.Logger
}

// NewService creates an order service; publisher may be nil
func NewService(store Store, publisher EventPublisher, log *logger.Logger) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		logger:    log,
	}
}

// CreateOrder validates and stores a new order. With an idempotency key the first
// order stored under that key is returned on every repeat, and created is false.
func (s *Service) CreateOrder(ctx context.Context, req *models.CreateOrderRequest, idempotencyKey, requestID string) (order *models.Order, created bool, err error) {
	if req.OrderStatus == "" {
		req.OrderStatus = models.StatusInProgress
	}
	if err := req.Validate(); err != nil {
		return nil, false, err
	}

	if idempotencyKey != "" {
		existing, err := s.store.GetByIdempotencyKey(ctx, idempotencyKey)
		switch {
		case err == nil:
			s.logger.Info("order_replayed", "Returning order stored under idempotency key", requestID, map[string]interface{}{
				"order_id": existing.ID,
			})
			return existing, false, nil
		case !errors.Is(err, database.ErrNotFound):
			return nil, false, fmt.Errorf("failed to look up idempotency key: %w", err)
		}
	}

	order, err = s.store.Create(ctx, req, idempotencyKey)
	if err != nil {
		// a concurrent request with the same key won the insert
		if idempotencyKey != "" && errors.Is(err, database.ErrConflict) {
			if existing, getErr := s.store.GetByIdempotencyKey(ctx, idempotencyKey); getErr == nil {
				return existing, false, nil
			}
		}
		return nil, false, fmt.Errorf("failed to store order: %w", err)
	}

	s.logger.Info("order_created", "Order created", requestID, map[string]interface{}{
		"order_id":       order.ID,
		"table_id":       order.TableID,
		"items":          len(order.Items),
		"total_with_tax": order.Bills.TotalWithTax.StringFixed(2),
		"payment_method": string(order.PaymentMethod),
	})
	s.publish(ctx, models.EventOrderCreated, models.NewOrderEventMessage(models.EventOrderCreated, order, ""), requestID)
	return order, true, nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return s.store.Get(ctx, id)
}

// ListOrders returns all orders, newest first, optionally filtered by status
func (s *Service) ListOrders(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	if status != "" && !status.IsValid() {
		return nil, models.ValidationError{Field: "status", Message: "status must be one of: In Progress, Ready, Completed"}
	}
	return s.store.List(ctx, status)
}

// UpdateStatus advances an order exactly one step: In Progress -> Ready -> Completed
func (s *Service) UpdateStatus(ctx context.Context, id string, req *models.UpdateOrderStatusRequest, requestID string) (*models.Order, error) {
	if !req.OrderStatus.IsValid() {
		return nil, models.ValidationError{Field: "orderStatus", Message: "status must be one of: In Progress, Ready, Completed"}
	}

	current, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(current.OrderStatus, req.OrderStatus) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current.OrderStatus, req.OrderStatus)
	}

	updated, err := s.store.UpdateStatus(ctx, id, current.OrderStatus, req.OrderStatus)
	if errors.Is(err, database.ErrNotFound) {
		// someone else moved it first
		return nil, fmt.Errorf("%w: order changed concurrently", ErrInvalidTransition)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("order_status_updated", "Order status updated", requestID, map[string]interface{}{
		"order_id":   id,
		"old_status": string(current.OrderStatus),
		"new_status": string(updated.OrderStatus),
	})
	s.publish(ctx, models.EventOrderUpdated, models.NewOrderEventMessage(models.EventOrderUpdated, updated, current.OrderStatus), requestID)
	return updated, nil
}

// publish is best effort; a broker outage never fails the request
func (s *Service) publish(ctx context.Context, key string, event interface{}, requestID string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, key, event); err != nil {
		s.logger.Error("event_publish_failed", "Failed to publish order event", requestID, err, map[string]interface{}{
			"routing_key": key,
		})
	}
}
