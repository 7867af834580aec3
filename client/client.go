// Package client is the plugin's typed view of the host API. Every method is a thin
// wrapper over one request or notification on the underlying connection.
package client

import (
	"context"
	"errors"
	"fmt"
	"omegga-rpc/message"
	"omegga-rpc/transport"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Conn is the part of a transport the client needs. *transport.Transport implements it.
type Conn interface {
	Call(ctx context.Context, method string, params, reply any) error
	Notify(method string, params any) error
	Respond(id message.ID, result any, rpcErr *message.RPCError) error
}

type Option func(*Client)

// WithTimeout bounds each Call. The connection's own timeout still applies.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithRateLimit caps outbound messages at r per second with the given burst.
// Senders wait for a token instead of failing.
func WithRateLimit(r float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(r), burst) }
}

// WithRetry reissues requests that timed out, up to maxRetries times with exponential
// backoff starting at baseDelay. Only use it for methods that are safe to run twice.
func WithRetry(maxRetries int, baseDelay time.Duration) Option {
	return func(c *Client) { c.retry = retryPolicy{maxRetries: maxRetries, baseDelay: baseDelay} }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

type Client struct {
	conn    Conn
	timeout time.Duration
	limiter *rate.Limiter // nil = unlimited
	retry   retryPolicy
	logger  *zap.Logger
}

func New(conn Conn, opts ...Option) *Client {
	c := &Client{conn: conn, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call sends a request and decodes its result into reply, applying rate limiting,
// the client timeout and the retry policy.
func (c *Client) Call(ctx context.Context, method string, params, reply any) error {
	return c.retry.do(ctx, c.logger, method, func() error {
		return c.call(ctx, method, params, reply)
	})
}

func (c *Client) call(ctx context.Context, method string, params, reply any) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	if c.timeout <= 0 {
		return c.conn.Call(ctx, method, params, reply)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	err := c.conn.Call(callCtx, method, params, reply)
	// Our own deadline firing is a timeout, not the caller's cancellation.
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w: %s after %s", transport.ErrTimeout, method, c.timeout)
	}
	return err
}

// Notify sends a notification. With WithRateLimit it blocks, without a way to cancel,
// until the limiter lets it through; use NotifyContext to bound that wait.
func (c *Client) Notify(method string, params any) error {
	return c.NotifyContext(context.Background(), method, params)
}

// NotifyContext sends a notification once the rate limiter allows it, or fails when
// ctx is done first or its deadline is too close for the limiter to allow it in time.
func (c *Client) NotifyContext(ctx context.Context, method string, params any) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	return c.conn.Notify(method, params)
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// RegisterCommands answers the host's init request with the commands this plugin handles.
func (c *Client) RegisterCommands(id message.ID, names []string) error {
	if names == nil {
		names = []string{}
	}
	return c.WriteResponse(id, map[string][]string{"registeredCommands": names}, nil)
}

// WriteResponse answers a host request. A non-nil rpcErr is sent instead of result.
func (c *Client) WriteResponse(id message.ID, result any, rpcErr *message.RPCError) error {
	return c.conn.Respond(id, result, rpcErr)
}
