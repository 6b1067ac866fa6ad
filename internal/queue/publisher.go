package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/skillsenselab/scribeq/internal/logger"
)

// Publisher places job references on the exchange, routed by engine name.
type Publisher struct {
	channel *amqp.Channel
	cfg     Config
	log     *logger.Logger
}

// NewPublisher opens a channel and declares the durable topic exchange.
func NewPublisher(conn *amqp.Connection, cfg Config, log *logger.Logger) (*Publisher, error) {
	cfg.ApplyDefaults()

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("queue: open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		cfg.Exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("queue: declare exchange %q: %w", cfg.Exchange, err)
	}

	return &Publisher{
		channel: ch,
		cfg:     cfg,
		log:     log.WithComponent("queue.publisher"),
	}, nil
}

// Publish sends one job reference, retrying with exponential backoff.
// The routing key is the engine name, so only workers consuming that
// engine's queue receive the delivery.
func (p *Publisher) Publish(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("queue: marshal message: %w", err)
	}

	var lastErr error
	backoff := p.cfg.PublishBackoff

	for attempt := 1; attempt <= p.cfg.PublishAttempts; attempt++ {
		lastErr = p.channel.PublishWithContext(ctx,
			p.cfg.Exchange,
			msg.Engine,
			false, // mandatory
			false, // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Body:         body,
			},
		)
		if lastErr == nil {
			return nil
		}

		if attempt == p.cfg.PublishAttempts {
			break
		}
		p.log.Warn("publish failed, retrying", logger.Fields(
			"job_id", msg.JobID, "attempt", attempt, "error", lastErr.Error()))

		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			return fmt.Errorf("queue: publish canceled: %w", ctx.Err())
		}
	}

	return fmt.Errorf("queue: publish job %s: %w", msg.JobID, lastErr)
}

// Close closes the publisher channel.
func (p *Publisher) Close() error {
	return p.channel.Close()
}
