package transport

import (
	"context"
	"encoding/json"
	"omegga-rpc/message"
	"sync"
	"time"
)

// Awaiter is the handle returned by Transport.Request. It observes one request's outcome.
//
// Two wait policies are available:
//
//   - Bounded:   Receive / WaitTimeout give up after a duration and report ErrTimeout.
//   - Unbounded: Wait blocks until the reply arrives, the transport closes, or ctx is done.
//
// Giving up in any way (timeout, ctx, Cancel) removes the request from the pending table,
// so a reply that shows up later is dropped by the dispatcher instead of leaking an entry.
// A caller that stops caring about a request without waiting must call Cancel, or issue
// it with Transport.RequestContext so ctx does it.
//
// Once resolved, every further Wait returns the same result.
type Awaiter struct {
	id      message.ID
	sink    chan Outcome
	table   *PendingTable
	timeout time.Duration

	stop func() bool // unregisters the ctx hook set by bind

	mu       sync.Mutex
	resolved bool
	result   json.RawMessage
	err      error
}

func newAwaiter(id message.ID, sink chan Outcome, table *PendingTable, timeout time.Duration) *Awaiter {
	return &Awaiter{id: id, sink: sink, table: table, timeout: timeout}
}

// ID returns the correlation ID of the request.
func (a *Awaiter) ID() message.ID {
	return a.id
}

// Receive waits for the transport's default timeout (15s unless configured).
func (a *Awaiter) Receive() (json.RawMessage, error) {
	return a.wait(context.Background(), a.timeout)
}

// WaitTimeout waits at most d. A non-positive d waits without a bound.
func (a *Awaiter) WaitTimeout(d time.Duration) (json.RawMessage, error) {
	return a.wait(context.Background(), d)
}

// Wait blocks until the request resolves or ctx is done. On ctx expiry the pending
// entry is reclaimed and ctx.Err() is returned.
func (a *Awaiter) Wait(ctx context.Context) (json.RawMessage, error) {
	return a.wait(ctx, 0)
}

// Cancel abandons the request. A goroutine blocked in Wait receives ErrCanceled.
// Cancel after resolution does nothing.
func (a *Awaiter) Cancel() {
	a.cancel(ErrCanceled)
}

func (a *Awaiter) cancel(cause error) {
	if sink, ok := a.table.Remove(a.id); ok {
		sink <- Outcome{Err: cause}
	}
}

// bind cancels the request with ctx.Err() when ctx is done.
func (a *Awaiter) bind(ctx context.Context) {
	if ctx.Done() == nil {
		return
	}
	a.mu.Lock()
	a.stop = context.AfterFunc(ctx, func() { a.cancel(ctx.Err()) })
	a.mu.Unlock()
}

func (a *Awaiter) wait(ctx context.Context, d time.Duration) (json.RawMessage, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.resolved {
		return a.result, a.err
	}

	var expired <-chan time.Time
	if d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case out := <-a.sink:
		return a.settle(out)
	case <-expired:
		return a.abandon(ErrTimeout)
	case <-ctx.Done():
		return a.abandon(ctx.Err())
	}
}

// abandon reclaims the entry. If someone else already removed it, their Outcome is
// (or is about to be) in the sink and wins over the local cause.
func (a *Awaiter) abandon(cause error) (json.RawMessage, error) {
	if _, ok := a.table.Remove(a.id); !ok {
		return a.settle(<-a.sink)
	}
	return a.settle(Outcome{Err: cause})
}

func (a *Awaiter) settle(out Outcome) (json.RawMessage, error) {
	if a.stop != nil {
		a.stop()
	}
	a.resolved = true
	a.result = out.Result
	a.err = out.Err
	return a.result, a.err
}
