// Package server answers the messages the host sends to the plugin: lifecycle requests
// (init, stop, plugin:emit) and game notifications (chat, join, cmd:*, chatcmd:*).
//
// Processing pipeline:
//
//	Conn.Events() → Serve (single goroutine, arrival order)
//	  → worker pool (1 worker by default: strictly ordered)
//	    → middleware chain → route lookup → handler → Conn.Send(reply) for requests
package server

import (
	"context"
	"errors"
	"fmt"
	"omegga-rpc/message"
	"omegga-rpc/middleware"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrServerClosed is returned by Serve after Shutdown.
var ErrServerClosed = errors.New("server: closed")

// Conn is the part of a transport the server needs. *transport.Transport implements it.
type Conn interface {
	Events() <-chan *message.RPCMessage
	Send(msg *message.RPCMessage) error
}

type Option func(*Server)

// WithWorkers sets how many handlers may run concurrently. Values above 1 give up the
// guarantee that messages are handled in arrival order.
func WithWorkers(n int) Option {
	return func(s *Server) { s.pool = newWorkerPool(n) }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

type prefixRoute struct {
	prefix  string
	handler middleware.HandlerFunc
}

// Server routes inbound messages to handlers and writes replies to requests.
type Server struct {
	conn   Conn
	logger *zap.Logger
	pool   *workerPool

	mu          sync.RWMutex
	routes      map[string]middleware.HandlerFunc // exact method → handler
	prefixes    []prefixRoute                     // longest prefix first
	fallback    middleware.HandlerFunc
	middlewares []middleware.Middleware
	handler     middleware.HandlerFunc // middleware(middleware(...(businessHandler)))

	shutdown atomic.Bool
	stop     chan struct{}
	stopOnce sync.Once
}

func NewServer(conn Conn, opts ...Option) *Server {
	s := &Server{
		conn:   conn,
		logger: zap.NewNop(),
		pool:   newWorkerPool(1),
		routes: make(map[string]middleware.HandlerFunc),
		stop:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle routes messages whose method equals method.
func (s *Server) Handle(method string, h middleware.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[method] = h
}

// HandlePrefix routes messages whose method starts with prefix, such as "cmd:" or
// "chatcmd:". Exact routes are tried first; among prefixes the longest match wins.
func (s *Server) HandlePrefix(prefix string, h middleware.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefixes = append(s.prefixes, prefixRoute{prefix: prefix, handler: h})
	sort.SliceStable(s.prefixes, func(i, j int) bool {
		return len(s.prefixes[i].prefix) > len(s.prefixes[j].prefix)
	})
}

// HandleFallback receives every message no route matched. Without one, unmatched
// requests are answered with MethodNotFound and unmatched notifications are dropped.
func (s *Server) HandleFallback(h middleware.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = h
}

// Register routes method to a typed function; see typedHandler for accepted shapes.
func (s *Server) Register(method string, fn any) error {
	h, err := newTypedHandler(fn)
	if err != nil {
		return fmt.Errorf("register %q: %w", method, err)
	}
	s.Handle(method, h.HandlerFunc())
	return nil
}

// Use registers a middleware. Middlewares are applied in the order they are added.
func (s *Server) Use(mw middleware.Middleware) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.middlewares = append(s.middlewares, mw)
}

// Serve consumes the connection's events until the stream ends (returns nil), ctx is
// done (returns ctx.Err()), or Shutdown is called (returns ErrServerClosed).
func (s *Server) Serve(ctx context.Context) error {
	// Build the middleware chain once, not per message.
	s.mu.Lock()
	s.handler = middleware.Chain(s.middlewares...)(s.businessHandler)
	s.mu.Unlock()

	events := s.conn.Events()
	for {
		select {
		case msg, ok := <-events:
			if !ok {
				return nil
			}
			// select picks randomly among ready cases; do not start work after Shutdown.
			if s.shutdown.Load() {
				return ErrServerClosed
			}
			if err := s.pool.Go(ctx, func() { s.handleMessage(ctx, msg) }); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stop:
			return ErrServerClosed
		}
	}
}

// Shutdown stops Serve from taking new messages and waits up to timeout for running
// handlers to finish.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.shutdown.Store(true)
	s.stopOnce.Do(func() { close(s.stop) })
	return s.pool.Wait(timeout)
}

func (s *Server) handleMessage(ctx context.Context, msg *message.RPCMessage) {
	s.mu.RLock()
	handler := s.handler
	s.mu.RUnlock()

	resp := handler(ctx, msg)
	if !msg.IsRequest() {
		return
	}

	if resp == nil {
		resp = message.Reply(msg, nil, nil)
	}
	// The reply always answers this request, whatever the handler filled in.
	resp.Kind = message.KindResponse
	resp.ID = msg.ID

	if err := s.conn.Send(resp); err != nil {
		s.logger.Warn("failed to send reply",
			zap.String("method", msg.Method),
			zap.Stringer("id", msg.ID),
			zap.Error(err))
	}
}

// businessHandler is the innermost HandlerFunc: it finds the route and runs it.
func (s *Server) businessHandler(ctx context.Context, req *message.RPCMessage) *message.RPCMessage {
	if h := s.route(req.Method); h != nil {
		return h(ctx, req)
	}

	s.logger.Debug("no handler", zap.String("method", req.Method), zap.Stringer("kind", req.Kind))
	return message.Reply(req, nil, message.NewError(message.MethodNotFound, "method not found: "+req.Method, nil))
}

func (s *Server) route(method string) middleware.HandlerFunc {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if h, ok := s.routes[method]; ok {
		return h
	}
	for _, r := range s.prefixes {
		if strings.HasPrefix(method, r.prefix) {
			return r.handler
		}
	}
	return s.fallback
}
