package event

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/viant/toolgate/service/messaging/memory"
)

func TestBus_Subscribe(t *testing.T) {
	bus := NewBus()
	var got []string
	bus.Subscribe(RequestApproved, func(e *Event) { got = append(got, "approved:"+e.RequestID) })
	unsubscribe := bus.SubscribeAll(func(e *Event) { got = append(got, "all:"+string(e.Topic)) })

	ctx := context.Background()
	assert.NoError(t, bus.Publish(ctx, New(RequestSubmitted, "r1", nil)))
	assert.NoError(t, bus.Publish(ctx, New(RequestApproved, "r1", nil)))
	unsubscribe()
	assert.NoError(t, bus.Publish(ctx, New(RequestRejected, "r2", nil)))

	assert.EqualValues(t, []string{"all:request:submitted", "approved:r1", "all:request:approved"}, got)
}

func TestBus_PanickingHandler(t *testing.T) {
	bus := NewBus()
	delivered := false
	bus.Subscribe("", func(e *Event) { panic("boom") })
	bus.Subscribe("", func(e *Event) { delivered = true })
	assert.NoError(t, bus.Publish(context.Background(), New(WorkflowEscalated, "r1", nil)))
	assert.True(t, delivered)
}

func TestBus_QueueFanOut(t *testing.T) {
	queue := memory.NewQueue[Event](memory.DefaultConfig())
	bus := NewBus(WithQueue(queue))

	var mux sync.Mutex
	var topics []Topic
	var wg sync.WaitGroup
	wg.Add(2)
	listener := NewListener(queue, func(e *Event) {
		mux.Lock()
		topics = append(topics, e.Topic)
		mux.Unlock()
		wg.Done()
	}, zerolog.Nop())
	listener.Start(context.Background())
	defer listener.Stop()

	ctx := context.Background()
	assert.NoError(t, bus.Publish(ctx, New(RequestSubmitted, "r1", nil)))
	assert.NoError(t, bus.Publish(ctx, New(ComplianceViolation, "r1", []string{"x"}).With("level", "critical")))

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listener did not receive events")
	}
	mux.Lock()
	defer mux.Unlock()
	assert.EqualValues(t, []Topic{RequestSubmitted, ComplianceViolation}, topics)
}
