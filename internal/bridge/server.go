package bridge

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"

	"github.com/udisondev/villagerloot/internal/config"
	"github.com/udisondev/villagerloot/internal/host"
)

// ErrNotConnected is returned by Run while no host is connected.
var ErrNotConnected = errors.New("no host connected")

// Server accepts the host WebSocket connection and runs commands on it.
// Only one host connection is active; a new one replaces the previous.
type Server struct {
	cfg      config.BridgeConfig
	upgrader websocket.Upgrader
	events   chan Frame

	mu   sync.Mutex
	conn *Conn

	wg sync.WaitGroup
}

var _ host.Runner = (*Server)(nil)

// NewServer creates a bridge server. Mount it as an http.Handler.
func NewServer(cfg config.BridgeConfig) *Server {
	size := cfg.SendQueueSize
	if size <= 0 {
		size = 256
	}
	return &Server{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// the host is not a browser
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		events: make(chan Frame, size),
	}
}

// Events returns inbound event frames, in arrival order.
func (s *Server) Events() <-chan Frame {
	return s.events
}

// Connected reports whether a host is currently connected.
func (s *Server) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// ServeHTTP authenticates and upgrades the host connection.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		slog.Warn("host connection rejected", "remote", r.RemoteAddr)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := newConn(ws)
	s.mu.Lock()
	prev := s.conn
	s.conn = c
	s.mu.Unlock()
	if prev != nil {
		slog.Info("replacing host connection", "previous", prev.remote, "remote", c.remote)
		prev.Close()
	}
	slog.Info("host connected", "remote", c.remote)

	s.wg.Go(func() {
		c.readPump(s.events)

		s.mu.Lock()
		if s.conn == c {
			s.conn = nil
		}
		s.mu.Unlock()
		slog.Info("host disconnected", "remote", c.remote)
	})
	s.wg.Go(c.pingPump)

	if err := c.subscribe(); err != nil {
		slog.Error("subscribing to host events", "remote", c.remote, "error", err)
		c.Close()
	}
}

// authorize checks "Authorization: Bearer <secret>" against the configured
// bcrypt hash. An empty hash accepts everyone.
func (s *Server) authorize(r *http.Request) bool {
	if s.cfg.SecretHash == "" {
		return true
	}
	secret, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || secret == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(s.cfg.SecretHash), []byte(secret)) == nil
}

// Run sends a command line to the connected host and waits for its status.
func (s *Server) Run(ctx context.Context, commandLine string) (host.Result, error) {
	s.mu.Lock()
	c := s.conn
	s.mu.Unlock()
	if c == nil {
		return host.Result{}, ErrNotConnected
	}
	return c.Command(ctx, commandLine, s.cfg.CommandTimeout)
}

// Close drops the host connection and waits for its goroutines.
func (s *Server) Close() {
	s.mu.Lock()
	c := s.conn
	s.conn = nil
	s.mu.Unlock()
	if c != nil {
		c.Close()
	}
	s.wg.Wait()
}
