package messaging

import (
	"context"
)

// Queue is a typed message queue carrying governance notifications.
type Queue[T any] interface {
	// Publish enqueues a copy of t.
	Publish(ctx context.Context, t *T) error

	// Consume blocks until a message is available or ctx is done.
	Consume(ctx context.Context) (Message[T], error)
}

// Message is a delivered queue entry.
type Message[T any] interface {
	// T returns the payload.
	T() *T

	// Ack marks the message processed.
	Ack() error

	// Nack marks the message failed, possibly redelivering it.
	Nack(err error) error
}
