// Package eventbus consumes the raw event streams the finalization services
// subscribe to.
package eventbus

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Topics the finalization services consume.
const (
	// TopicExecutionEvents carries execution engine lifecycle notifications
	// and direct failure reports.
	TopicExecutionEvents = "terminus.execution.events"

	// TopicWorkflowFailed carries direct task failure reports published by
	// workflow tasks themselves.
	TopicWorkflowFailed = "terminus.workflow.failed"
)

// PayloadHandler processes one raw event payload. A nil return acknowledges
// the message; an error requeues it.
type PayloadHandler func(ctx context.Context, payload []byte) error

// Consumer subscribes a handler to a topic and drives the ack/nack cycle.
type Consumer struct {
	subscriber message.Subscriber
	logger     *slog.Logger
}

func NewConsumer(subscriber message.Subscriber, logger *slog.Logger) *Consumer {
	return &Consumer{
		subscriber: subscriber,
		logger:     logger.With("module", "eventbus"),
	}
}

// Subscribe starts consuming the topic in a background goroutine. The
// goroutine stops when the subscriber's channel closes or ctx is cancelled.
func (c *Consumer) Subscribe(ctx context.Context, topic string, handler PayloadHandler) error {
	messages, err := c.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return err
	}

	c.logger.InfoContext(ctx, "Subscribed to topic", "topic", topic)

	go func() {
		for msg := range messages {
			err := handler(ctx, msg.Payload)
			if err != nil {
				c.logger.ErrorContext(ctx, "Handler failed, requeueing message",
					"topic", topic,
					"message_id", msg.UUID,
					"error", err)

				msg.Nack()

				continue
			}

			msg.Ack()
		}
	}()

	return nil
}

func (c *Consumer) Close() error {
	return c.subscriber.Close()
}
