package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"restro-pos/internal/logger"
)

// Publisher sends floor events to the pos_events exchange
type Publisher struct {
	conn   *Connection
	logger *logger.Logger
}

func NewPublisher(conn *Connection, log *logger.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: log,
	}
}

// Publish marshals event as JSON and publishes it persistently under routingKey
func (p *Publisher) Publish(ctx context.Context, routingKey string, event interface{}) error {
	if p.conn.IsClosed() {
		if err := p.conn.Reconnect(); err != nil {
			return fmt.Errorf("failed to reconnect: %w", err)
		}
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.conn.Channel().PublishWithContext(ctx,
		EventsExchange, // exchange
		routingKey,     // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		p.logger.Error("message_publish_failed", "Failed to publish event", "", err, map[string]interface{}{
			"exchange":    EventsExchange,
			"routing_key": routingKey,
		})
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("message_published", "Published event", "", map[string]interface{}{
		"exchange":     EventsExchange,
		"routing_key":  routingKey,
		"message_size": len(body),
	})
	return nil
}
