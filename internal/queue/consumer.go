package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/skillsenselab/scribeq/internal/logger"
)

// Handler processes one delivered job reference. A returned error means
// the job could not be resolved at the infrastructure level (store
// unreachable, or the run cut short by shutdown) and the delivery is
// requeued; job-level failures are written to the job record and the
// delivery is acked.
type Handler interface {
	Handle(ctx context.Context, msg Message) error
}

// Consumer drains one engine's queue, one delivery at a time. Prefetch is
// pinned to 1: the engine binary saturates the compute device, so a
// worker never holds more than one unacked job.
type Consumer struct {
	channel *amqp.Channel
	queue   string
	engine  string
	handler Handler
	log     *logger.Logger
}

// NewConsumer opens a channel, declares the engine's durable queue, binds
// it to the exchange by engine name, and sets prefetch 1.
func NewConsumer(conn *amqp.Connection, cfg Config, engine string, handler Handler, log *logger.Logger) (*Consumer, error) {
	cfg.ApplyDefaults()

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("queue: open channel: %w", err)
	}

	name := queueName(cfg.Exchange, engine)
	if _, err := ch.QueueDeclare(
		name,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("queue: declare queue %q: %w", name, err)
	}

	if err := ch.QueueBind(name, engine, cfg.Exchange, false, nil); err != nil {
		return nil, fmt.Errorf("queue: bind queue %q: %w", name, err)
	}

	if err := ch.Qos(1, 0, false); err != nil {
		return nil, fmt.Errorf("queue: set qos: %w", err)
	}

	return &Consumer{
		channel: ch,
		queue:   name,
		engine:  engine,
		handler: handler,
		log:     log.WithComponent("queue.consumer"),
	}, nil
}

// Start blocks consuming deliveries until the context is canceled or the
// channel closes. Deliveries are acked only after the handler returns;
// handler errors nack with requeue for at-least-once redelivery.
func (c *Consumer) Start(ctx context.Context) error {
	deliveries, err := c.channel.Consume(
		c.queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("queue: consume %q: %w", c.queue, err)
	}

	c.log.Info("consuming", logger.Fields("queue", c.queue, "engine", c.engine))

	for {
		select {
		case <-ctx.Done():
			c.log.Info("consumer shutting down", logger.Fields("queue", c.queue))
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("queue: channel closed for %q", c.queue)
			}
			c.handle(ctx, delivery)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, delivery amqp.Delivery) {
	var msg Message
	if err := json.Unmarshal(delivery.Body, &msg); err != nil {
		// Malformed payloads can never succeed; drop instead of requeue.
		c.log.WithError(err).Error("dropping malformed delivery", logger.Fields("queue", c.queue))
		_ = delivery.Nack(false, false)
		return
	}

	if err := c.handler.Handle(ctx, msg); err != nil {
		c.log.WithError(err).Error("handler failed, requeueing", logger.Fields("job_id", msg.JobID))
		_ = delivery.Nack(false, true)
		return
	}
	_ = delivery.Ack(false)
}

// Close closes the consumer channel.
func (c *Consumer) Close() error {
	return c.channel.Close()
}
