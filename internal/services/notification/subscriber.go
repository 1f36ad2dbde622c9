package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"restro-pos/internal/logger"
	"restro-pos/internal/messaging"
	"restro-pos/internal/models"
)

// Consumer delivers queue messages to a handler until ctx is done
type Consumer interface {
	StartConsuming(ctx context.Context, handler messaging.MessageHandler) error
	Close() error
}

// Subscriber prints floor notifications for order and table events
type Subscriber struct {
	consumer Consumer
	out      io.Writer
	logger   *logger.Logger
}

// NewSubscriber creates a subscriber that writes notifications to out
func NewSubscriber(consumer Consumer, out io.Writer, log *logger.Logger) *Subscriber {
	return &Subscriber{
		consumer: consumer,
		out:      out,
		logger:   log,
	}
}

// Start consumes until ctx is cancelled, then closes the consumer
func (s *Subscriber) Start(ctx context.Context) error {
	requestID := logger.GenerateRequestID()
	s.logger.Info("service_started", "Notification subscriber started", requestID, nil)

	err := s.consumer.StartConsuming(ctx, s.Handle)

	s.logger.Info("graceful_shutdown", "Stopping notification subscriber", requestID, nil)
	if closeErr := s.consumer.Close(); closeErr != nil {
		s.logger.Error("consumer_close_failed", "Failed to close consumer", requestID, closeErr, nil)
	}
	return err
}

// Handle decodes one event and prints it. Undecodable bodies are poison and are dropped.
func (s *Subscriber) Handle(ctx context.Context, routingKey string, body []byte) error {
	var line string
	switch {
	case strings.HasPrefix(routingKey, "order."):
		var ev models.OrderEventMessage
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("%w: order event: %v", messaging.ErrPoison, err)
		}
		line = FormatOrderEvent(&ev)
	case strings.HasPrefix(routingKey, "table."):
		var ev models.TableEventMessage
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("%w: table event: %v", messaging.ErrPoison, err)
		}
		line = FormatTableEvent(&ev)
	default:
		return fmt.Errorf("%w: unknown routing key %q", messaging.ErrPoison, routingKey)
	}

	if _, err := fmt.Fprintln(s.out, line); err != nil {
		return err
	}
	s.logger.Debug("notification_displayed", line, "", map[string]interface{}{
		"routing_key": routingKey,
	})
	return nil
}

// FormatOrderEvent renders an order event as one line for the floor display
func FormatOrderEvent(ev *models.OrderEventMessage) string {
	ts := ev.Timestamp.Local().Format("15:04:05")
	ref := shortRef(ev.OrderID)

	if ev.Event == models.EventOrderCreated {
		return fmt.Sprintf("[%s] New order %s for %s, total %s", ts, ref, ev.CustomerName, ev.TotalWithTax)
	}
	switch ev.NewStatus {
	case models.StatusReady:
		return fmt.Sprintf("[%s] Order %s for %s is ready to serve", ts, ref, ev.CustomerName)
	case models.StatusCompleted:
		return fmt.Sprintf("[%s] Order %s for %s is completed", ts, ref, ev.CustomerName)
	}
	return fmt.Sprintf("[%s] Order %s moved from %s to %s", ts, ref, ev.OldStatus, ev.NewStatus)
}

// FormatTableEvent renders a table event as one line for the floor display
func FormatTableEvent(ev *models.TableEventMessage) string {
	ts := ev.Timestamp.Local().Format("15:04:05")
	if ev.Status == models.TableBooked && ev.OrderID != nil {
		return fmt.Sprintf("[%s] Table %d booked for order %s", ts, ev.TableNo, shortRef(*ev.OrderID))
	}
	return fmt.Sprintf("[%s] Table %d is %s", ts, ev.TableNo, strings.ToLower(string(ev.Status)))
}

func shortRef(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
