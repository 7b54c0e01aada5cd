package event

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"github.com/viant/toolgate/service/messaging"
)

// Listener drains a queue fed by a Bus on its own goroutine.
type Listener struct {
	queue   messaging.Queue[Event]
	handler Handler
	logger  zerolog.Logger
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

// NewListener creates a listener for queue.
func NewListener(queue messaging.Queue[Event], handler Handler, logger zerolog.Logger) *Listener {
	return &Listener{queue: queue, handler: handler, logger: logger, done: make(chan struct{})}
}

// Start consumes until ctx is done or Stop is called.
func (l *Listener) Start(ctx context.Context) {
	ctx, l.cancel = context.WithCancel(ctx)
	go func() {
		defer close(l.done)
		for {
			msg, err := l.queue.Consume(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return
				}
				l.logger.Warn().Err(err).Msg("failed to consume event")
				continue
			}
			if msg == nil {
				continue
			}
			l.handler(msg.T())
			if err = msg.Ack(); err != nil {
				l.logger.Warn().Err(err).Msg("failed to ack event")
			}
		}
	}()
}

// Stop cancels consumption and waits for the goroutine to exit.
func (l *Listener) Stop() {
	l.once.Do(func() {
		if l.cancel != nil {
			l.cancel()
			<-l.done
		}
	})
}
