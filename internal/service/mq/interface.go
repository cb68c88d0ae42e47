package mq

import "context"

// Message is one business message on the queue.
type Message struct {
	ID       string            // broker message id (e.g. Redis Stream ID)
	Topic    string            // e.g. "gallery_events_sale_completed"
	Key      string            // partition key (fingerprint)
	Payload  []byte            // JSON body
	Metadata map[string]string // optional metadata
}

// Producer publishes messages.
type Producer interface {
	// Publish sends one message. key selects the partition; an empty key
	// means any partition.
	Publish(ctx context.Context, topic string, key string, payload []byte) error

	// Close shuts the producer down.
	Close() error
}

// Consumer subscribes to a topic.
type Consumer interface {
	// Subscribe blocks, delivering messages to handler. A handler error
	// leaves the message un-acked for redelivery.
	Subscribe(ctx context.Context, topic string, handler func(msg *Message) error) error

	// Close shuts the consumer down.
	Close() error
}
