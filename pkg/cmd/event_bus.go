package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/terminus-flow/terminus/pkg/channels/gochannel"
	"github.com/terminus-flow/terminus/pkg/channels/kafka"
	"github.com/terminus-flow/terminus/pkg/eventbus"
	"github.com/terminus-flow/terminus/pkg/notify"
)

// NewChannel builds the consumer and notifier pair for a service on the
// configured event bus provider.
func NewChannel(provider, serviceName string, logger *slog.Logger) (*eventbus.Consumer, notify.Notifier) {
	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(watermill.NewSlogLogger(logger), serviceName)
		if err != nil {
			panic(fmt.Errorf("failed to create Kafka pub/sub: %w", err))
		}

		return eventbus.NewConsumer(sub, logger), notify.NewWatermillNotifier(pub)
	case "gochannel":
		pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
		if err != nil {
			panic(fmt.Errorf("failed to create in-memory pub/sub: %w", err))
		}

		return eventbus.NewConsumer(sub, logger), notify.NewWatermillNotifier(pub)
	default:
		panic("Unsupported event bus provider: " + provider)
	}
}
