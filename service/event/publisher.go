package event

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/viant/toolgate/service/messaging"
)

// Handler receives events synchronously, in publish order.
type Handler func(*Event)

type subscription struct {
	id      int
	topic   Topic
	handler Handler
}

// Bus delivers events to subscribers in registration order. Topic "" subscribes to all.
// When a queue is attached every event is also published to it.
type Bus struct {
	mux    sync.RWMutex
	subs   []subscription
	nextID int
	queue  messaging.Queue[Event]
	logger zerolog.Logger
}

// Option configures a Bus.
type Option func(b *Bus)

// WithQueue tees every published event into queue.
func WithQueue(queue messaging.Queue[Event]) Option {
	return func(b *Bus) { b.queue = queue }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(b *Bus) { b.logger = logger }
}

// NewBus creates a bus.
func NewBus(opts ...Option) *Bus {
	ret := &Bus{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Subscribe registers handler for topic and returns a function removing it.
func (b *Bus) Subscribe(topic Topic, handler Handler) func() {
	b.mux.Lock()
	defer b.mux.Unlock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, topic: topic, handler: handler})
	return func() { b.unsubscribe(id) }
}

// SubscribeAll registers handler for every topic.
func (b *Bus) SubscribeAll(handler Handler) func() {
	return b.Subscribe("", handler)
}

func (b *Bus) unsubscribe(id int) {
	b.mux.Lock()
	defer b.mux.Unlock()
	for i, sub := range b.subs {
		if sub.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers e to matching subscribers, then to the queue if any.
// A panicking handler is logged and does not stop delivery.
func (b *Bus) Publish(ctx context.Context, e *Event) error {
	if b == nil || e == nil {
		return nil
	}
	b.mux.RLock()
	subs := make([]subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.topic == "" || sub.topic == e.Topic {
			subs = append(subs, sub)
		}
	}
	b.mux.RUnlock()
	for _, sub := range subs {
		b.deliver(sub, e)
	}
	if b.queue == nil {
		return nil
	}
	if err := b.queue.Publish(ctx, e); err != nil {
		return fmt.Errorf("event: failed to enqueue %s: %w", e.Topic, err)
	}
	return nil
}

func (b *Bus) deliver(sub subscription, e *Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Warn().Str("topic", string(e.Topic)).Interface("panic", r).Msg("event handler panicked")
		}
	}()
	sub.handler(e)
}
