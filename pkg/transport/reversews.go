package transport

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tinyland-inc/obridge/pkg/logger"
)

// ReverseWS maintains outbound WebSocket connections to a set of consumer
// endpoints, reconnecting when they drop. Reconnect attempts per endpoint
// are paced by a rate limiter so a dead consumer doesn't get hammered.
type ReverseWS struct {
	*BaseTransport

	urls              []string
	accessToken       string
	selfID            int64
	reconnectInterval time.Duration

	mu    sync.Mutex
	conns map[string]*wsConn

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewReverseWS(urls []string, accessToken string, selfID int64, reconnectInterval time.Duration) *ReverseWS {
	if reconnectInterval <= 0 {
		reconnectInterval = 3 * time.Second
	}
	return &ReverseWS{
		BaseTransport:     NewBaseTransport("reverse_ws"),
		urls:              urls,
		accessToken:       accessToken,
		selfID:            selfID,
		reconnectInterval: reconnectInterval,
		conns:             make(map[string]*wsConn),
	}
}

func (t *ReverseWS) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.SetRunning(true)
	for _, u := range t.urls {
		t.wg.Add(1)
		go t.maintain(runCtx, u)
	}
	return nil
}

func (t *ReverseWS) Stop(ctx context.Context) error {
	t.SetRunning(false)
	if t.cancel != nil {
		t.cancel()
	}
	t.mu.Lock()
	for u, c := range t.conns {
		c.conn.Close()
		delete(t.conns, u)
	}
	t.mu.Unlock()
	t.wg.Wait()
	return nil
}

// maintain dials one endpoint in a loop, holding the connection until it
// breaks.
func (t *ReverseWS) maintain(ctx context.Context, url string) {
	defer t.wg.Done()

	limiter := rate.NewLimiter(rate.Every(t.reconnectInterval), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		conn, err := t.dial(ctx, url)
		if err != nil {
			logger.DebugCF("transport.reverse_ws", "dial failed", map[string]any{
				"url": url, "error": err.Error(),
			})
			continue
		}

		logger.InfoCF("transport.reverse_ws", "connected", map[string]any{"url": url})
		c := &wsConn{conn: conn}
		t.mu.Lock()
		t.conns[url] = c
		t.mu.Unlock()

		if payload, err := marshalLifecycle(t.selfID); err == nil {
			c.write(payload)
		}

		// Block on reads until the connection drops; inbound frames are
		// protocol actions, which this bridge does not serve.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		t.mu.Lock()
		delete(t.conns, url)
		t.mu.Unlock()
		conn.Close()
		logger.WarnCF("transport.reverse_ws", "disconnected", map[string]any{"url": url})
	}
}

func (t *ReverseWS) dial(ctx context.Context, url string) (*websocket.Conn, error) {
	header := http.Header{}
	header.Set("X-Self-ID", strconv.FormatInt(t.selfID, 10))
	header.Set("X-Client-Role", "Universal")
	if t.accessToken != "" {
		header.Set("Authorization", "Bearer "+t.accessToken)
	}

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, url, header)
	return conn, err
}

// Push sends the payload over every live connection.
func (t *ReverseWS) Push(ctx context.Context, payload []byte) error {
	t.mu.Lock()
	conns := make([]*wsConn, 0, len(t.conns))
	for _, c := range t.conns {
		conns = append(conns, c)
	}
	t.mu.Unlock()

	for _, c := range conns {
		if err := c.write(payload); err != nil {
			logger.DebugCF("transport.reverse_ws", "write failed", map[string]any{"error": err.Error()})
		}
	}
	return nil
}
