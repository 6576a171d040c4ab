package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/udisondev/villagerloot/internal/host"
)

// ErrConnClosed is returned for commands pending when the connection closes.
var ErrConnClosed = errors.New("host connection closed")

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Conn is one host WebSocket connection.
// Reads happen on a single goroutine (readPump); writes are serialized by writeMu.
type Conn struct {
	ws     *websocket.Conn
	remote string

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan CommandResponseBody // requestId → waiter

	closed    chan struct{}
	closeOnce sync.Once
}

func newConn(ws *websocket.Conn) *Conn {
	return &Conn{
		ws:      ws,
		remote:  ws.RemoteAddr().String(),
		pending: make(map[string]chan CommandResponseBody),
		closed:  make(chan struct{}),
	}
}

// Close closes the socket and fails pending commands. Safe to call repeatedly.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.ws.Close()
	})
}

func (c *Conn) writeFrame(f Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("setting write deadline: %w", err)
	}
	if err := c.ws.WriteJSON(f); err != nil {
		return fmt.Errorf("writing %s frame: %w", f.Header.MessagePurpose, err)
	}
	return nil
}

// subscribe asks the host for every event in SubscribedEvents.
func (c *Conn) subscribe() error {
	for _, name := range SubscribedEvents {
		f, err := newFrame(PurposeSubscribe, SubscribeBody{EventName: name})
		if err != nil {
			return err
		}
		f.Header.EventName = name
		if err := c.writeFrame(f); err != nil {
			return fmt.Errorf("subscribing to %s: %w", name, err)
		}
	}
	return nil
}

// Command sends a command line and waits for the matching response.
// timeout <= 0 waits until ctx is done.
func (c *Conn) Command(ctx context.Context, line string, timeout time.Duration) (host.Result, error) {
	f, err := newFrame(PurposeCommandRequest, CommandRequestBody{CommandLine: line, Version: protocolVersion})
	if err != nil {
		return host.Result{}, err
	}
	id := f.Header.RequestID

	ch := make(chan CommandResponseBody, 1)
	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := c.writeFrame(f); err != nil {
		return host.Result{}, err
	}

	select {
	case resp := <-ch:
		return host.Result{StatusCode: resp.StatusCode, StatusMessage: resp.StatusMessage}, nil
	case <-c.closed:
		return host.Result{}, ErrConnClosed
	case <-ctx.Done():
		return host.Result{}, fmt.Errorf("waiting for response to %q: %w", line, ctx.Err())
	}
}

// readPump reads frames until the connection fails. Command responses are
// routed to their waiters; events go to the events channel without blocking.
func (c *Conn) readPump(events chan<- Frame) {
	defer c.Close()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var f Frame
		if err := c.ws.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("host connection read failed", "remote", c.remote, "error", err)
			}
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))

		switch f.Header.MessagePurpose {
		case PurposeCommandResponse, PurposeError:
			c.resolve(f)
		case PurposeEvent:
			select {
			case events <- f:
			default:
				// dispatcher is behind; a blocked reader would stall command responses
				slog.Warn("event queue full, dropping event",
					"event", f.Header.EventName,
					"remote", c.remote)
			}
		default:
			slog.Debug("ignoring frame", "purpose", f.Header.MessagePurpose)
		}
	}
}

func (c *Conn) resolve(f Frame) {
	var body CommandResponseBody
	if err := decodeBody(f, &body); err != nil {
		slog.Warn("bad command response", "requestId", f.Header.RequestID, "error", err)
		return
	}
	if f.Header.MessagePurpose == PurposeError && body.StatusCode == 0 {
		body.StatusCode = -1
	}

	c.mu.Lock()
	ch, ok := c.pending[f.Header.RequestID]
	c.mu.Unlock()
	if !ok {
		slog.Debug("response for unknown request", "requestId", f.Header.RequestID)
		return
	}
	select {
	case ch <- body:
	default:
		slog.Debug("duplicate response", "requestId", f.Header.RequestID)
	}
}

// pingPump keeps the connection alive until it closes.
func (c *Conn) pingPump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.closed:
			return
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				slog.Debug("ping failed", "remote", c.remote, "error", err)
				c.Close()
				return
			}
		}
	}
}
