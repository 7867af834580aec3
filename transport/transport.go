// Package transport implements the plugin side of the host conversation: one byte stream
// in each direction, multiplexed into independent requests, replies and notifications.
//
// Every outgoing request gets a correlation ID and an entry in the pending table before its
// bytes are written. A single goroutine (recvLoop) owns the input stream and routes each line:
// replies complete their pending entry, everything else goes to the event channel.
//
//	goroutine-1 ──Request(id=-1)──┐
//	goroutine-2 ──Request(id=-2)──┼──→ stdout ──→ host
//	goroutine-3 ──Notify──────────┘
//
//	recvLoop:  stdin ←── {"id":-2,"result":...} → pending[-2] → goroutine-2 wakes up
//	           stdin ←── {"method":"chat",...}   → Events()
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"omegga-rpc/codec"
	"omegga-rpc/message"
	"omegga-rpc/protocol"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds Receive and Call when no other timeout is configured.
const DefaultTimeout = 15 * time.Second

var (
	// ErrClosed is reported to every request still pending when the input stream ends,
	// and to requests issued afterwards.
	ErrClosed = errors.New("transport: closed")
	// ErrTimeout means no reply arrived within the bound. The request may still have run
	// on the host; reissuing it is the caller's decision.
	ErrTimeout = errors.New("transport: request timed out")
	// ErrCanceled is reported to a waiter whose request was abandoned with Awaiter.Cancel.
	ErrCanceled = errors.New("transport: request canceled")
)

type Option func(*Transport)

func WithCodec(c codec.Codec) Option {
	return func(t *Transport) { t.codec = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(t *Transport) { t.logger = l }
}

// WithTimeout sets the bound used by Awaiter.Receive and Transport.Call.
func WithTimeout(d time.Duration) Option {
	return func(t *Transport) { t.timeout = d }
}

// WithMaxLineSize bounds a single inbound line; see protocol.NewReader.
func WithMaxLineSize(n int) Option {
	return func(t *Transport) { t.maxLine = n }
}

// Transport is the correlation engine for one host connection.
type Transport struct {
	in      io.Reader
	reader  *protocol.Reader
	writer  *Writer
	codec   codec.Codec
	ids     IDAllocator
	pending *PendingTable
	events  *eventQueue
	timeout time.Duration
	maxLine int
	logger  *zap.Logger

	closeOnce sync.Once
	closeErr  error         // written once, before done is closed
	done      chan struct{} // closed when the dispatcher stopped
}

// New wires a transport over r (host → plugin) and w (plugin → host) and starts the
// dispatcher goroutine. For a real plugin these are os.Stdin and os.Stdout.
func New(r io.Reader, w io.Writer, opts ...Option) *Transport {
	t := &Transport{
		in:      r,
		codec:   codec.Default(),
		pending: NewPendingTable(),
		timeout: DefaultTimeout,
		logger:  zap.NewNop(),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.reader = protocol.NewReader(r, t.maxLine)
	t.writer = NewWriter(w, t.codec)
	t.events = newEventQueue()

	go t.recvLoop()
	return t
}

// Request sends method with params and returns an Awaiter for the reply.
//
// The pending entry is inserted before the line is written, so a reply that comes back
// immediately always finds it. If the write fails the entry is removed again.
func (t *Transport) Request(method string, params any) (*Awaiter, error) {
	id := t.ids.Next()
	req, err := message.NewRequest(id, method, params)
	if err != nil {
		return nil, err
	}

	sink := make(chan Outcome, 1)
	if err := t.pending.Insert(id, sink); err != nil {
		return nil, err
	}

	if err := t.writer.Send(req); err != nil {
		t.pending.Remove(id)
		return nil, fmt.Errorf("transport: send %s: %w", method, err)
	}

	t.logger.Debug("request sent", zap.String("method", method), zap.Stringer("id", id))
	return newAwaiter(id, sink, t.pending, t.timeout), nil
}

// RequestContext is Request with the pending entry bound to ctx: once ctx is done the
// entry is reclaimed and the Awaiter resolves with ctx.Err(), whether or not anyone waits.
func (t *Transport) RequestContext(ctx context.Context, method string, params any) (*Awaiter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	aw, err := t.Request(method, params)
	if err != nil {
		return nil, err
	}
	aw.bind(ctx)
	return aw, nil
}

// Call sends a request and waits for the reply, bounded by the transport timeout and ctx.
// A successful result is decoded into reply when reply is non-nil.
func (t *Transport) Call(ctx context.Context, method string, params, reply any) error {
	aw, err := t.Request(method, params)
	if err != nil {
		return err
	}

	result, err := aw.wait(ctx, t.timeout)
	if err != nil {
		return err
	}
	if reply == nil || result == nil {
		return nil
	}
	if err := json.Unmarshal(result, reply); err != nil {
		return fmt.Errorf("transport: decode %s result: %w", method, err)
	}
	return nil
}

// Notify sends a fire-and-forget message.
func (t *Transport) Notify(method string, params any) error {
	msg, err := message.NewNotification(method, params)
	if err != nil {
		return err
	}
	return t.writer.Send(msg)
}

// Respond answers a host request. A non-nil rpcErr is sent instead of result.
func (t *Transport) Respond(id message.ID, result any, rpcErr *message.RPCError) error {
	if rpcErr != nil {
		return t.writer.Send(message.NewErrorResponse(id, rpcErr))
	}
	msg, err := message.NewResult(id, result)
	if err != nil {
		return err
	}
	return t.writer.Send(msg)
}

// Send writes a prebuilt message.
func (t *Transport) Send(msg *message.RPCMessage) error {
	return t.writer.Send(msg)
}

// Events delivers every host-initiated request and notification in arrival order.
// The channel is closed after the input stream ends and all queued messages were received.
func (t *Transport) Events() <-chan *message.RPCMessage {
	return t.events.out
}

// Done is closed once the dispatcher stopped.
func (t *Transport) Done() <-chan struct{} {
	return t.done
}

// Err returns why the transport stopped, or nil while it is running.
// The result always wraps ErrClosed.
func (t *Transport) Err() error {
	select {
	case <-t.done:
		return t.closeErr
	default:
		return nil
	}
}

// Pending returns the number of requests waiting for a reply.
func (t *Transport) Pending() int {
	return t.pending.Len()
}

// Close stops the transport: pending requests fail with ErrClosed and the event channel
// is closed once drained. If the input implements io.Closer it is closed to unblock the
// dispatcher.
func (t *Transport) Close() error {
	var err error
	if c, ok := t.in.(io.Closer); ok {
		err = c.Close()
	}
	t.shutdown(nil)
	return err
}

// recvLoop is the only reader of the input stream. It never waits on application code:
// replies go straight to the pending table and everything else is queued.
func (t *Transport) recvLoop() {
	for {
		line, err := t.reader.ReadLine()
		if errors.Is(err, protocol.ErrLineTooLong) {
			t.logger.Warn("skipping oversized line")
			continue
		}
		if err != nil {
			t.shutdown(err)
			return
		}
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		t.dispatch(line)
	}
}

func (t *Transport) dispatch(line []byte) {
	msg, err := t.codec.Decode(line)
	if err != nil {
		// Unknown or corrupt frames are skipped; they must never end the conversation.
		t.logger.Debug("skipping undecodable line", zap.Error(err), zap.ByteString("line", clip(line)))
		return
	}

	if msg.IsResponse() {
		if !t.pending.Complete(msg.ID, outcomeOf(msg)) {
			t.logger.Debug("dropping unmatched response", zap.Stringer("id", msg.ID))
		}
		return
	}
	if !t.events.push(msg) {
		t.logger.Debug("dropping message after close", zap.String("method", msg.Method))
	}
}

func (t *Transport) shutdown(cause error) {
	t.closeOnce.Do(func() {
		if cause == nil || errors.Is(cause, io.EOF) {
			t.closeErr = ErrClosed
		} else {
			t.closeErr = fmt.Errorf("%w: %v", ErrClosed, cause)
		}
		n := t.pending.CloseAll(t.closeErr)
		t.events.close()
		t.logger.Info("transport closed", zap.Error(cause), zap.Int("failed_pending", n))
		close(t.done)
	})
}

// outcomeOf converts a reply into an Outcome. A non-null result wins over an error
// object when a malformed reply carries both.
func outcomeOf(msg *message.RPCMessage) Outcome {
	if msg.Error != nil && msg.Result == nil {
		return Outcome{Err: msg.Error}
	}
	return Outcome{Result: msg.Result}
}

func clip(line []byte) []byte {
	const max = 256
	if len(line) > max {
		return line[:max]
	}
	return line
}
