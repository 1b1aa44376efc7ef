// Package transport delivers the outbound event stream to protocol
// consumers: a WebSocket server, reverse WebSocket clients, and HTTP POST
// reporting. Delivery is fire-and-forget; retry and ordering are consumer
// concerns.
package transport

import (
	"context"
	"sync/atomic"
)

// Transport pushes serialized events to one class of consumer.
type Transport interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Push(ctx context.Context, payload []byte) error
	IsRunning() bool
}

// BaseTransport carries the state shared by all transport implementations.
type BaseTransport struct {
	name    string
	running atomic.Bool
}

func NewBaseTransport(name string) *BaseTransport {
	return &BaseTransport{name: name}
}

func (t *BaseTransport) Name() string { return t.name }

func (t *BaseTransport) IsRunning() bool { return t.running.Load() }

func (t *BaseTransport) SetRunning(running bool) { t.running.Store(running) }
