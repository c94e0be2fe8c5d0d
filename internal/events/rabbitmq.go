package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// RabbitMQPublisher publishes events as JSON to a durable queue and can consume them back.
type RabbitMQPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	logger  *zap.Logger

	mu sync.Mutex // amqp.Channel is not safe for concurrent publishing
	wg sync.WaitGroup
}

// RabbitMQConfig contains options for creating a RabbitMQPublisher.
type RabbitMQConfig struct {
	URL   string
	Queue string
}

// NewRabbitMQPublisher dials the broker, opens a channel and declares the queue.
func NewRabbitMQPublisher(cfg RabbitMQConfig, logger *zap.Logger) (*RabbitMQPublisher, error) {
	if cfg.Queue == "" {
		return nil, errors.New("rabbitmq: queue name is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		cfg.Queue, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", cfg.Queue, err)
	}

	logger.Info("Connected to RabbitMQ", zap.String("queue", cfg.Queue))
	return &RabbitMQPublisher{conn: conn, channel: ch, queue: cfg.Queue, logger: logger}, nil
}

// Publish sends the event as a persistent JSON message.
func (p *RabbitMQPublisher) Publish(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.Publish(
		"",      // exchange
		p.queue, // routing key (queue name)
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         e.Type,
			MessageId:    e.ID,
			Timestamp:    e.OccurredAt,
			Body:         body,
			DeliveryMode: amqp.Persistent,
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", e.Type, err)
	}
	return nil
}

// Consume delivers queued events to handler until ctx is cancelled. Messages are
// acked after the handler returns; handler errors nack without requeue so a poison
// message cannot loop forever.
func (p *RabbitMQPublisher) Consume(ctx context.Context, handler Handler) error {
	msgs, err := p.channel.Consume(
		p.queue, // queue
		"",      // consumer
		false,   // auto-ack
		false,   // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return fmt.Errorf("failed to register a consumer for queue %s: %w", p.queue, err)
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-msgs:
				if !ok {
					return
				}
				p.handleDelivery(ctx, d, handler)
			}
		}
	}()

	p.logger.Info("Consuming events", zap.String("queue", p.queue))
	return nil
}

func (p *RabbitMQPublisher) handleDelivery(ctx context.Context, d amqp.Delivery, handler Handler) {
	var e Event
	if err := json.Unmarshal(d.Body, &e); err != nil {
		p.logger.Error("Dropping malformed event", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}
	if err := handler(ctx, e); err != nil {
		p.logger.Warn("Event handler failed", zap.String("type", e.Type), zap.String("id", e.ID), zap.Error(err))
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

// Close closes the channel and connection and waits for the consumer goroutine.
func (p *RabbitMQPublisher) Close() error {
	var lastErr error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			lastErr = err
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			lastErr = err
		}
	}
	p.wg.Wait()
	return lastErr
}
