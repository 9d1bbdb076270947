package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Source is the broker side the consumer reads from.
type Source interface {
	Consume(consumerTag string) (<-chan amqp.Delivery, error)
}

// Consumer tails the activity event stream and logs each event. It is the
// read side of the Recorder: a live audit feed that works without database
// access.
type Consumer struct {
	source Source
	logger *slog.Logger
	tag    string
}

// NewConsumer creates a Consumer with the given consumer tag.
func NewConsumer(source Source, tag string, logger *slog.Logger) *Consumer {
	return &Consumer{
		source: source,
		logger: logger,
		tag:    tag,
	}
}

// Run consumes events until ctx is cancelled or the delivery channel closes.
func (c *Consumer) Run(ctx context.Context) error {
	deliveries, err := c.source.Consume(c.tag)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.logger.Info("Activity consumer started", slog.String("consumer_tag", c.tag))

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Activity consumer stopped - context canceled")
			return nil

		case delivery, ok := <-deliveries:
			if !ok {
				c.logger.Warn("RabbitMQ delivery channel closed")
				return nil
			}
			c.handle(delivery)
		}
	}
}

func (c *Consumer) handle(delivery amqp.Delivery) {
	var event Event
	if err := json.Unmarshal(delivery.Body, &event); err != nil {
		c.logger.Error("Failed to parse activity event",
			slog.String("error", err.Error()),
			slog.String("body", string(delivery.Body)),
		)
		// Malformed events are dropped, not requeued.
		if nackErr := delivery.Nack(false, false); nackErr != nil {
			c.logger.Error("Failed to NACK malformed event",
				slog.String("error", nackErr.Error()),
			)
		}
		return
	}

	attrs := []any{
		slog.String("action_type", event.ActionType),
	}
	if event.JobID != "" {
		attrs = append(attrs, slog.String("job_id", event.JobID))
	}
	if len(event.Details) > 0 {
		attrs = append(attrs, slog.Any("details", event.Details))
	}
	c.logger.Info(event.Description, attrs...)

	if err := delivery.Ack(false); err != nil {
		c.logger.Error("Failed to ACK activity event",
			slog.String("error", err.Error()),
		)
	}
}
