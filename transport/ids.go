package transport

import (
	"omegga-rpc/message"
	"sync/atomic"
)

// IDAllocator hands out correlation IDs for outgoing requests.
//
// IDs start at -1 and count down. The host numbers its own requests from zero upward,
// so the two ID spaces never overlap and a reply can always be told apart from a
// host-initiated request. That split is a contract with the host, not something checked here.
//
// Wraparound after 2^63 requests is not handled.
type IDAllocator struct {
	last atomic.Int64
}

// Next returns a fresh ID. Safe for concurrent use; no two calls return the same value.
func (a *IDAllocator) Next() message.ID {
	return message.IntID(a.last.Add(-1))
}
