package transport

import (
	"encoding/json"
	"fmt"
	"omegga-rpc/message"
	"sync"
)

// Outcome is what a pending request resolves to: a result, or an error.
// Err is a *message.RPCError for a remote failure, or ErrTimeout / ErrClosed / ErrCanceled /
// a context error for local ones.
type Outcome struct {
	Result json.RawMessage
	Err    error
}

// PendingTable maps in-flight correlation IDs to the sink their Awaiter reads from.
//
// Every sink has a buffer of one and receives exactly one Outcome: whichever of
// Complete, Remove's caller, or CloseAll takes the entry out of the map owns the send.
// Sends happen under the lock, so once an entry is gone its Outcome is already buffered.
type PendingTable struct {
	mu      sync.Mutex
	entries map[message.ID]chan<- Outcome
	closed  error // non-nil once CloseAll ran; further inserts fail with it
}

func NewPendingTable() *PendingTable {
	return &PendingTable{entries: make(map[message.ID]chan<- Outcome)}
}

// Insert registers sink under id. It returns the close error if the table was shut down.
// Inserting an id that is already present is a programming error and panics.
func (p *PendingTable) Insert(id message.ID, sink chan<- Outcome) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed != nil {
		return p.closed
	}
	if _, dup := p.entries[id]; dup {
		panic(fmt.Sprintf("transport: correlation id %s is already pending", id))
	}
	p.entries[id] = sink
	return nil
}

// Complete resolves and removes the entry for id. It reports false when no entry exists,
// which is normal for a reply that arrives after its request timed out or was canceled.
func (p *PendingTable) Complete(id message.ID, out Outcome) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	sink, ok := p.entries[id]
	if !ok {
		return false
	}
	delete(p.entries, id)
	sink <- out // buffered, never blocks
	return true
}

// Remove takes the entry for id out of the table without resolving it.
// The caller becomes responsible for delivering an Outcome to the returned sink.
func (p *PendingTable) Remove(id message.ID) (chan<- Outcome, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sink, ok := p.entries[id]
	if ok {
		delete(p.entries, id)
	}
	return sink, ok
}

// CloseAll resolves every entry with err and rejects later inserts. It returns how many
// entries were resolved. Calling it again is a no-op.
func (p *PendingTable) CloseAll(err error) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed != nil {
		return 0
	}
	p.closed = err
	n := len(p.entries)
	for id, sink := range p.entries {
		sink <- Outcome{Err: err}
		delete(p.entries, id)
	}
	return n
}

// Len returns the number of in-flight requests.
func (p *PendingTable) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
