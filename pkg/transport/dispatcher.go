package transport

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/tinyland-inc/obridge/pkg/bus"
	"github.com/tinyland-inc/obridge/pkg/event"
	"github.com/tinyland-inc/obridge/pkg/logger"
)

// Dispatcher fans the outbound event stream out to every registered
// transport. It implements the pipeline's Emitter interface on the publish
// side and drains the bus on its own goroutine.
type Dispatcher struct {
	selfID int64
	bus    *bus.EventBus

	mu         sync.RWMutex
	transports []Transport

	done chan struct{}
}

func NewDispatcher(selfID int64) *Dispatcher {
	return &Dispatcher{
		selfID: selfID,
		bus:    bus.NewEventBus(),
		done:   make(chan struct{}),
	}
}

// Register adds a transport. Must be called before Run.
func (d *Dispatcher) Register(t Transport) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.transports = append(d.transports, t)
}

// Emit stamps the event with the bridge account and queues it for
// delivery. Fire-and-forget: a full buffer or closed bus is logged, never
// surfaced to the pipeline.
func (d *Dispatcher) Emit(ev event.Event, groupTemporary bool) {
	ev.SetSelfID(d.selfID)
	env := bus.Envelope{Event: ev, GroupTemporary: groupTemporary}
	if err := d.bus.Publish(context.Background(), env); err != nil {
		logger.ErrorCF("dispatch", "event dropped", map[string]any{
			"event": ev.EventName(), "error": err.Error(),
		})
	}
}

// Run drains the bus until the context is canceled or the bus closes.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)
	for {
		env, ok := d.bus.Consume(ctx)
		if !ok {
			return
		}
		d.deliver(ctx, env)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, env bus.Envelope) {
	payload, err := json.Marshal(env.Event)
	if err != nil {
		logger.ErrorCF("dispatch", "event marshal failed", map[string]any{
			"event": env.Event.EventName(), "error": err.Error(),
		})
		return
	}

	logger.DebugCF("dispatch", "delivering event", map[string]any{
		"event":           env.Event.EventName(),
		"group_temporary": env.GroupTemporary,
	})

	d.mu.RLock()
	transports := make([]Transport, len(d.transports))
	copy(transports, d.transports)
	d.mu.RUnlock()

	for _, t := range transports {
		if !t.IsRunning() {
			continue
		}
		if err := t.Push(ctx, payload); err != nil {
			logger.WarnCF("dispatch", "push failed", map[string]any{
				"transport": t.Name(), "error": err.Error(),
			})
		}
	}
}

// Close stops accepting events and waits for the drain loop to exit.
// Only valid once Run has been started.
func (d *Dispatcher) Close() {
	d.bus.Close()
	<-d.done
}
