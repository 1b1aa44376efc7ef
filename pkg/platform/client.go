package platform

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/tinyland-inc/obridge/pkg/event"
)

// Client speaks JSON-RPC 2.0 over a local stream socket to the NT client
// core sidecar. Outgoing calls carry identity/formatter queries; incoming
// notifications carry the four batched event channels, which are handed to
// the registered Listener.
type Client struct {
	conn    net.Conn
	reader  *bufio.Reader
	writeMu sync.Mutex

	nextID     atomic.Uint64
	callbackMu sync.Mutex
	callbacks  map[uint64]chan rpcResponse

	listenerMu sync.RWMutex
	listener   Listener

	closed atomic.Bool
	done   chan struct{}
}

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type rpcResponse struct {
	Result json.RawMessage
	Err    *RPCError
}

// rpcFrame is a single inbound frame: either a response to one of our
// calls or a notification pushed by the core.
type rpcFrame struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Dial connects to the client core's unix socket.
func Dial(socketPath string) (*Client, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("dial client core: %w", err)
	}
	c := &Client{
		conn:      conn,
		reader:    bufio.NewReader(conn),
		callbacks: make(map[uint64]chan rpcResponse),
		done:      make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// SetListener registers the receiver for the core's notification channels.
func (c *Client) SetListener(l Listener) {
	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()
	c.listener = l
}

// Close shuts the connection down. In-flight calls fail.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(c.done)
	return c.conn.Close()
}

func (c *Client) call(ctx context.Context, method string, params any, result any) error {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal %s params: %w", method, err)
	}

	id := c.nextID.Add(1)
	ch := make(chan rpcResponse, 1)
	c.callbackMu.Lock()
	c.callbacks[id] = ch
	c.callbackMu.Unlock()
	defer func() {
		c.callbackMu.Lock()
		delete(c.callbacks, id)
		c.callbackMu.Unlock()
	}()

	req := rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: paramsJSON}
	if err := c.send(req); err != nil {
		return err
	}

	select {
	case resp := <-ch:
		if resp.Err != nil {
			return fmt.Errorf("%s: %w", method, resp.Err)
		}
		if result == nil || len(resp.Result) == 0 || string(resp.Result) == "null" {
			return nil
		}
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("unmarshal %s result: %w", method, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return net.ErrClosed
	}
}

func (c *Client) send(req rpcRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(data))
	if _, err := io.WriteString(c.conn, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := c.conn.Write(data); err != nil {
		return fmt.Errorf("write request: %w", err)
	}
	return nil
}

// readLoop continuously reads frames and dispatches them. Responses are
// matched to waiting callers; notifications run on their own goroutine so a
// slow batch never stalls the read loop.
func (c *Client) readLoop() {
	for {
		frame, err := c.readFrame()
		if err != nil {
			c.failPending(err)
			return
		}
		if frame.Method != "" {
			go c.dispatchNotification(frame.Method, frame.Params)
			continue
		}
		c.callbackMu.Lock()
		if ch, ok := c.callbacks[frame.ID]; ok {
			ch <- rpcResponse{Result: frame.Result, Err: frame.Error}
		}
		c.callbackMu.Unlock()
	}
}

func (c *Client) readFrame() (*rpcFrame, error) {
	var contentLength int
	for {
		line, err := c.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			if contentLength > 0 {
				break
			}
			continue
		}
		if rest, ok := strings.CutPrefix(line, "Content-Length:"); ok {
			n, err := strconv.Atoi(strings.TrimSpace(rest))
			if err != nil {
				return nil, fmt.Errorf("invalid content length %q", line)
			}
			contentLength = n
		}
	}

	buf := make([]byte, contentLength)
	if _, err := io.ReadFull(c.reader, buf); err != nil {
		return nil, err
	}
	var frame rpcFrame
	if err := json.Unmarshal(buf, &frame); err != nil {
		return nil, fmt.Errorf("parse frame: %w", err)
	}
	return &frame, nil
}

// failPending unblocks every in-flight call after the connection drops.
func (c *Client) failPending(err error) {
	rpcErr := &RPCError{Code: -1, Message: err.Error()}
	c.callbackMu.Lock()
	defer c.callbackMu.Unlock()
	for id, ch := range c.callbacks {
		ch <- rpcResponse{Err: rpcErr}
		delete(c.callbacks, id)
	}
}

func (c *Client) dispatchNotification(method string, params json.RawMessage) {
	c.listenerMu.RLock()
	l := c.listener
	c.listenerMu.RUnlock()
	if l == nil {
		return
	}

	ctx := context.Background()
	switch method {
	case "on_messages":
		var p struct {
			Messages []*RawMessage `json:"messages"`
		}
		if json.Unmarshal(params, &p) == nil {
			l.HandleMessages(ctx, p.Messages)
		}
	case "on_self_message":
		var p struct {
			Message *RawMessage `json:"message"`
		}
		if json.Unmarshal(params, &p) == nil && p.Message != nil {
			l.HandleSelfSentMessage(ctx, p.Message)
		}
	case "on_message_updates":
		var p struct {
			Messages []*RawMessage `json:"messages"`
		}
		if json.Unmarshal(params, &p) == nil {
			l.HandleMessageUpdates(ctx, p.Messages)
		}
	case "on_group_notifies":
		var p struct {
			Notifies []*GroupNotify `json:"notifies"`
		}
		if json.Unmarshal(params, &p) == nil {
			l.HandleGroupNotifies(ctx, p.Notifies)
		}
	case "on_friend_requests":
		var p struct {
			Requests []*FriendRequest `json:"requests"`
		}
		if json.Unmarshal(params, &p) == nil {
			l.HandleFriendRequests(ctx, p.Requests)
		}
	}
}

// GetUserInfo implements UserAPI.
func (c *Client) GetUserInfo(ctx context.Context, uid string) (*UserInfo, error) {
	var info UserInfo
	err := c.call(ctx, "get_user_info", map[string]string{"uid": uid}, &info)
	if err != nil {
		return nil, err
	}
	if info.Uin == 0 {
		return nil, fmt.Errorf("get_user_info: no record for %s", uid)
	}
	return &info, nil
}

// GetGroupMember implements UserAPI.
func (c *Client) GetGroupMember(ctx context.Context, groupCode, uid string) (*GroupMember, error) {
	var member GroupMember
	params := map[string]string{"group_code": groupCode, "uid": uid}
	err := c.call(ctx, "get_group_member", params, &member)
	if err != nil {
		return nil, err
	}
	if member.Uin == 0 {
		return nil, nil
	}
	return &member, nil
}

// GetFriend implements ContactAPI.
func (c *Client) GetFriend(ctx context.Context, uid string) (*FriendRecord, error) {
	var friend FriendRecord
	err := c.call(ctx, "get_friend", map[string]string{"uid": uid}, &friend)
	if err != nil {
		return nil, err
	}
	if friend.Uin == 0 {
		return nil, nil
	}
	return &friend, nil
}

// Message implements MessageFormatter.
func (c *Client) Message(ctx context.Context, msg *RawMessage, shortID int32) (*event.Message, error) {
	params := map[string]any{"message": msg, "short_id": shortID}
	var ev event.Message
	if err := c.call(ctx, "format_message", params, &ev); err != nil {
		return nil, err
	}
	if ev.MessageType == "" {
		return nil, nil
	}
	return &ev, nil
}

// FriendAdd implements MessageFormatter.
func (c *Client) FriendAdd(ctx context.Context, msg *RawMessage) (*event.FriendAddNotice, error) {
	var ev event.FriendAddNotice
	if err := c.call(ctx, "format_friend_add", map[string]any{"message": msg}, &ev); err != nil {
		return nil, err
	}
	if ev.UserID == 0 {
		return nil, nil
	}
	return &ev, nil
}

// GroupEvent implements MessageFormatter.
func (c *Client) GroupEvent(ctx context.Context, msg *RawMessage) (*event.GroupNotice, error) {
	var ev event.GroupNotice
	if err := c.call(ctx, "format_group_event", map[string]any{"message": msg}, &ev); err != nil {
		return nil, err
	}
	if ev.NoticeType == "" {
		return nil, nil
	}
	return &ev, nil
}
