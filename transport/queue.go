package transport

import (
	"omegga-rpc/message"
	"sync"
)

// eventQueue is the unbounded, ordered hand-off between the dispatcher and the application.
//
// push never blocks, so a slow consumer cannot stall the read loop (and with it, the
// correlation of replies). A single pump goroutine moves messages to the out channel in
// the order they were pushed.
type eventQueue struct {
	mu     sync.Mutex
	items  []*message.RPCMessage
	closed bool
	wake   chan struct{}
	out    chan *message.RPCMessage
}

func newEventQueue() *eventQueue {
	q := &eventQueue{
		wake: make(chan struct{}, 1),
		out:  make(chan *message.RPCMessage),
	}
	go q.pump()
	return q
}

// push reports false when the queue is already closed and msg was dropped.
func (q *eventQueue) push(msg *message.RPCMessage) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, msg)
	q.mu.Unlock()
	q.signal()
	return true
}

// close lets the pump drain what is queued and then close out.
func (q *eventQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

func (q *eventQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *eventQueue) pump() {
	defer close(q.out)
	for {
		q.mu.Lock()
		batch := q.items
		q.items = nil
		closed := q.closed
		q.mu.Unlock()

		for _, msg := range batch {
			q.out <- msg
		}
		if len(batch) == 0 {
			if closed {
				return
			}
			<-q.wake
		}
	}
}
