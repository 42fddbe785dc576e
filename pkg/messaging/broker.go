package messaging

import (
	"context"
)

// Broker is the pub/sub transport for domain events.
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Message is the envelope published on every channel.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
