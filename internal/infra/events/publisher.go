// Package events publishes sale lifecycle events to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/boddenberg/comissoes-bfa/internal/domain"
)

// routingKeys are bound to the queue so every sale event lands there.
var routingKeys = []string{
	domain.EventSaleCreated,
	domain.EventSaleUpdated,
	domain.EventSaleDeleted,
	domain.EventSaleInstallmentUpdated,
}

// AMQPPublisher publishes JSON events to a durable direct exchange using
// the event type as routing key.
type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *zap.Logger
}

// NewAMQP dials url and declares the exchange, the queue and its bindings.
func NewAMQP(url, exchange, queue string, logger *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	p := &AMQPPublisher{conn: conn, channel: channel, exchange: exchange, logger: logger}
	if err := p.setup(queue); err != nil {
		p.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	return p, nil
}

func (p *AMQPPublisher) setup(queue string) error {
	if err := p.channel.ExchangeDeclare(p.exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if queue == "" {
		return nil
	}
	if _, err := p.channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	for _, rk := range routingKeys {
		if err := p.channel.QueueBind(queue, rk, p.exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue to %s: %w", rk, err)
		}
	}
	return nil
}

// Publish sends evt as a persistent message.
func (p *AMQPPublisher) Publish(ctx context.Context, evt domain.Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(ctx, p.exchange, evt.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    evt.ID,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", evt.Type, err)
	}

	p.logger.Debug("events: published",
		zap.String("type", evt.Type),
		zap.String("entity_id", evt.EntityID),
		zap.String("exchange", p.exchange),
	)
	return nil
}

func (p *AMQPPublisher) Name() string { return "rabbitmq" }

// Check fails once the broker connection dropped.
func (p *AMQPPublisher) Check(_ context.Context) error {
	if p.conn == nil || p.conn.IsClosed() {
		return fmt.Errorf("amqp connection closed")
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Nop discards events. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, domain.Event) error { return nil }
