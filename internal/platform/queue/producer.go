// Package queue publishes ledger events to a RabbitMQ topic exchange.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	portssvc "github.com/ChangoHQ/chango_backend/internal/core/ports/services"
	"github.com/rabbitmq/amqp091-go"
)

// EventProducer holds the RabbitMQ connection and channel for publishing.
// Publish is called from the post-commit notification goroutines, so the
// channel field is guarded for concurrent use.
type EventProducer struct {
	conn     *amqp091.Connection
	exchange string
	logger   *slog.Logger

	mu      sync.Mutex
	channel *amqp091.Channel
}

var _ portssvc.EventPublisher = (*EventProducer)(nil)

// NewEventProducer connects to RabbitMQ and declares the durable topic
// exchange events are published to. Dialing is bounded so startup cannot
// hang on an unreachable broker.
func NewEventProducer(amqpURL, exchange string, logger *slog.Logger) (*EventProducer, error) {
	conn, err := amqp091.DialConfig(amqpURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, fmt.Errorf("failed to dial AMQP broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open AMQP channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	return &EventProducer{conn: conn, channel: ch, exchange: exchange, logger: logger}, nil
}

// Publish sends one JSON message to the exchange under the routing key. A
// failed publish is retried once on a fresh channel.
func (p *EventProducer) Publish(ctx context.Context, routingKey string, body interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal event body: %w", err)
	}

	msg := amqp091.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now(),
		Body:        jsonBody,
	}

	p.mu.Lock()
	ch := p.channel
	p.mu.Unlock()
	if ch == nil {
		return fmt.Errorf("producer is closed")
	}

	err = ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg)
	if err == nil {
		return nil
	}

	p.logger.Warn("AMQP publish failed, reopening channel",
		slog.String("routing_key", routingKey),
		slog.String("error", err.Error()))

	fresh, chErr := p.conn.Channel()
	if chErr != nil {
		return fmt.Errorf("failed to reopen AMQP channel: %w", chErr)
	}

	// Concurrent publishers may race to replace a broken channel; keep the
	// first replacement and close the loser.
	p.mu.Lock()
	if p.channel == ch {
		p.channel = fresh
		p.mu.Unlock()
		ch.Close()
	} else {
		replacement := p.channel
		p.mu.Unlock()
		fresh.Close()
		if replacement == nil {
			return fmt.Errorf("producer is closed")
		}
		fresh = replacement
	}

	if err := fresh.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish to %s/%s: %w", p.exchange, routingKey, err)
	}
	return nil
}

// Close shuts down the channel and connection.
func (p *EventProducer) Close() {
	p.mu.Lock()
	ch := p.channel
	p.channel = nil
	p.mu.Unlock()
	if ch != nil {
		ch.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

// NoopProducer is used when no broker is configured or the broker is
// unreachable at startup. Publishes are logged and dropped.
type NoopProducer struct {
	Logger *slog.Logger
}

var _ portssvc.EventPublisher = (*NoopProducer)(nil)

func (p *NoopProducer) Publish(ctx context.Context, routingKey string, body interface{}) error {
	if p.Logger != nil {
		p.Logger.Debug("Event publish skipped, no broker configured", slog.String("routing_key", routingKey))
	}
	return nil
}

func (p *NoopProducer) Close() {}
