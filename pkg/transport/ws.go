package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tinyland-inc/obridge/pkg/event"
	"github.com/tinyland-inc/obridge/pkg/logger"
)

const writeTimeout = 10 * time.Second

// WSServer accepts WebSocket consumers and pushes every outbound event to
// all of them. Consumers authenticate with the configured access token via
// the Authorization header or an access_token query parameter.
type WSServer struct {
	*BaseTransport

	host        string
	port        int
	accessToken string
	selfID      int64

	upgrader websocket.Upgrader
	server   *http.Server

	mu    sync.Mutex
	conns map[string]*wsConn
}

type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex // serializes writes
}

func NewWSServer(host string, port int, accessToken string, selfID int64) *WSServer {
	return &WSServer{
		BaseTransport: NewBaseTransport("ws"),
		host:          host,
		port:          port,
		accessToken:   accessToken,
		selfID:        selfID,
		upgrader:      websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		conns:         make(map[string]*wsConn),
	}
}

func (s *WSServer) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleUpgrade)
	mux.HandleFunc("/event", s.handleUpgrade)

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("ws listen on %s: %w", addr, err)
	}

	s.server = &http.Server{Handler: mux}
	s.SetRunning(true)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorCF("transport.ws", "server stopped", map[string]any{"error": err.Error()})
		}
	}()

	logger.InfoCF("transport.ws", "listening", map[string]any{"addr": addr})
	return nil
}

func (s *WSServer) Stop(ctx context.Context) error {
	s.SetRunning(false)
	s.mu.Lock()
	for id, c := range s.conns {
		c.conn.Close()
		delete(s.conns, id)
	}
	s.mu.Unlock()
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *WSServer) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WarnCF("transport.ws", "upgrade failed", map[string]any{"error": err.Error()})
		return
	}

	id := uuid.New().String()
	c := &wsConn{conn: conn}
	s.mu.Lock()
	s.conns[id] = c
	s.mu.Unlock()

	logger.InfoCF("transport.ws", "consumer connected", map[string]any{
		"conn_id": id, "remote": conn.RemoteAddr().String(),
	})

	if payload, err := marshalLifecycle(s.selfID); err == nil {
		c.write(payload)
	}

	// Drain the consumer side; this bridge only pushes. The read loop
	// exists to notice disconnects.
	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.conns, id)
			s.mu.Unlock()
			conn.Close()
			logger.InfoCF("transport.ws", "consumer disconnected", map[string]any{"conn_id": id})
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *WSServer) authorized(r *http.Request) bool {
	if s.accessToken == "" {
		return true
	}
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok && token == s.accessToken {
		return true
	}
	return r.URL.Query().Get("access_token") == s.accessToken
}

// Push sends the payload to every connected consumer. A failed write
// drops only that consumer's delivery; the connection reaper handles the
// rest.
func (s *WSServer) Push(ctx context.Context, payload []byte) error {
	s.mu.Lock()
	conns := make([]*wsConn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		if err := c.write(payload); err != nil {
			logger.DebugCF("transport.ws", "write failed", map[string]any{"error": err.Error()})
		}
	}
	return nil
}

func (c *wsConn) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func marshalLifecycle(selfID int64) ([]byte, error) {
	ev := event.NewLifecycle()
	ev.SetSelfID(selfID)
	return json.Marshal(ev)
}
