package bus

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/tinyland-inc/obridge/pkg/event"
)

// ErrBusClosed is returned when publishing to a closed EventBus.
var ErrBusClosed = errors.New("event bus closed")

// Envelope pairs an outbound event with its delivery hints.
type Envelope struct {
	Event          event.Event
	GroupTemporary bool
}

// EventBus decouples the normalization pipeline from transport delivery.
// Publishing blocks only when the buffer is full; the dispatcher drains it
// on its own goroutine.
type EventBus struct {
	events chan Envelope
	done   chan struct{}
	closed atomic.Bool
}

func NewEventBus() *EventBus {
	return &EventBus{
		events: make(chan Envelope, 256),
		done:   make(chan struct{}),
	}
}

func (b *EventBus) Publish(ctx context.Context, env Envelope) error {
	if b.closed.Load() {
		return ErrBusClosed
	}
	select {
	case b.events <- env:
		return nil
	case <-b.done:
		return ErrBusClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *EventBus) Consume(ctx context.Context) (Envelope, bool) {
	select {
	case env, ok := <-b.events:
		return env, ok
	case <-b.done:
		return Envelope{}, false
	case <-ctx.Done():
		return Envelope{}, false
	}
}

func (b *EventBus) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.done)
	}
}
