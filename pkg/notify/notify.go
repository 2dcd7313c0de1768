// Package notify publishes enriched outcome notifications for finalized
// workflows.
package notify

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Attribute is a typed message attribute attached to a notification for
// consumer-side filtering.
type Attribute struct {
	DataType string `json:"data_type"`
	Value    string `json:"value"`
}

// StringAttribute builds a string-typed attribute.
func StringAttribute(value string) Attribute {
	return Attribute{DataType: "String", Value: value}
}

// Notifier publishes a message body with attributes to a topic.
type Notifier interface {
	Publish(ctx context.Context, topic string, body []byte, attributes map[string]Attribute) error
	Close() error
}

// WatermillNotifier implements Notifier on a watermill publisher, carrying
// attributes as message metadata.
type WatermillNotifier struct {
	publisher message.Publisher
}

func NewWatermillNotifier(publisher message.Publisher) *WatermillNotifier {
	return &WatermillNotifier{publisher: publisher}
}

func (n *WatermillNotifier) Publish(_ context.Context, topic string, body []byte, attributes map[string]Attribute) error {
	msg := message.NewMessage(watermill.NewUUID(), body)

	for name, attribute := range attributes {
		msg.Metadata.Set(name, attribute.Value)
		msg.Metadata.Set(name+":type", attribute.DataType)
	}

	return n.publisher.Publish(topic, msg)
}

func (n *WatermillNotifier) Close() error {
	return n.publisher.Close()
}
