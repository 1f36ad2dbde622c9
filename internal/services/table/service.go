package table

import (
	"context"
	"errors"
	"fmt"

	"restro-pos/internal/database"
	"restro-pos/internal/logger"
	"restro-pos/internal/models"
)

// ErrBookingRejected is returned when a table cannot be booked for the requested order
var ErrBookingRejected = fmt.Errorf("table booking rejected: %w", database.ErrConflict)

// Store persists dining tables
type Store interface {
	List(ctx context.Context) ([]models.Table, error)
	Get(ctx context.Context, id string) (*models.Table, error)
	Create(ctx context.Context, req *models.CreateTableRequest) (*models.Table, error)
	Update(ctx context.Context, id string, req *models.UpdateTableRequest) (*models.Table, error)
	Delete(ctx context.Context, id string) error
}

// EventPublisher sends floor events
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event interface{}) error
}

type Service struct {
	store     Store
	publisher EventPublisher
	logger    *logger.Logger
}

// NewService creates a table service; publisher may be nil
func NewService(store Store, publisher EventPublisher, log *logger.Logger) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		logger:    log,
	}
}

func (s *Service) ListTables(ctx context.Context) ([]models.Table, error) {
	return s.store.List(ctx)
}

func (s *Service) CreateTable(ctx context.Context, req *models.CreateTableRequest, requestID string) (*models.Table, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	t, err := s.store.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create table %d: %w", req.TableNo, err)
	}
	s.logger.Info("table_created", fmt.Sprintf("Table %d added", t.TableNo), requestID, map[string]interface{}{
		"table_id": t.ID,
		"seats":    t.Seats,
	})
	return t, nil
}

// UpdateTable books or releases a table. Releasing always drops the order reference.
func (s *Service) UpdateTable(ctx context.Context, id string, req *models.UpdateTableRequest, requestID string) (*models.Table, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Status == models.TableAvailable {
		req.OrderID = nil
	}

	if req.Status == models.TableBooked {
		current, err := s.store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.Status == models.TableBooked && current.CurrentOrderID != nil && *current.CurrentOrderID != *req.OrderID {
			s.logger.Warn("table_booking_rejected", fmt.Sprintf("Table %d already holds another order", current.TableNo), requestID, map[string]interface{}{
				"table_id":      current.ID,
				"current_order": *current.CurrentOrderID,
				"order_id":      *req.OrderID,
			})
			return nil, fmt.Errorf("%w: table %d holds order %s", ErrBookingRejected, current.TableNo, *current.CurrentOrderID)
		}
	}

	t, err := s.store.Update(ctx, id, req)
	if errors.Is(err, database.ErrNotFound) && req.Status == models.TableBooked {
		// the table exists, so the store's booking guard refused it
		return nil, fmt.Errorf("%w: table changed concurrently or order %s is completed", ErrBookingRejected, *req.OrderID)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("table_updated", fmt.Sprintf("Table %d is now %s", t.TableNo, t.Status), requestID, map[string]interface{}{
		"table_id": t.ID,
		"status":   string(t.Status),
	})
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, models.EventTableUpdated, models.NewTableEventMessage(t)); err != nil {
			s.logger.Error("event_publish_failed", "Failed to publish table event", requestID, err, map[string]interface{}{
				"routing_key": models.EventTableUpdated,
			})
		}
	}
	return t, nil
}

func (s *Service) DeleteTable(ctx context.Context, id, requestID string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("table_deleted", "Table removed", requestID, map[string]interface{}{"table_id": id})
	return nil
}
