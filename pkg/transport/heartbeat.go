package transport

import (
	"context"
	"time"

	"github.com/tinyland-inc/obridge/pkg/event"
)

// Emitter matches the dispatcher's publish side.
type Emitter interface {
	Emit(ev event.Event, groupTemporary bool)
}

// Heartbeat emits a meta heartbeat event at a fixed interval so consumers
// can detect a stalled bridge.
type Heartbeat struct {
	emitter  Emitter
	interval time.Duration
}

func NewHeartbeat(emitter Emitter, interval time.Duration) *Heartbeat {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Heartbeat{emitter: emitter, interval: interval}
}

// Run ticks until the context is canceled.
func (h *Heartbeat) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.emitter.Emit(event.NewHeartbeat(h.interval.Milliseconds()), false)
		}
	}
}
