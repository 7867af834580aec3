// Package message defines the JSON-RPC envelope exchanged between a plugin and its host.
//
// RPCMessage is the in-memory form of every line on the wire. It is a closed union of
// three shapes, selected by Kind:
//
//   - Request:      ID + Method + Params. The peer must answer with a Response carrying the same ID.
//   - Response:     ID + Result or Error. Answers a Request we (or the peer) sent earlier.
//   - Notification: Method + Params. No ID, no reply.
//
// The codec package turns RPCMessage into one line of JSON and back.
package message

import (
	"encoding/json"
	"fmt"
)

// Version is the protocol tag written into every outgoing message.
const Version = "2.0"

// Kind selects which variant of the union an RPCMessage holds.
type Kind uint8

const (
	KindRequest      Kind = iota // Peer expects a Response with the same ID
	KindResponse                 // Reply to an earlier Request
	KindNotification             // Fire-and-forget, no ID
)

func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindResponse:
		return "response"
	case KindNotification:
		return "notification"
	default:
		return fmt.Sprintf("kind(%d)", k)
	}
}

// RPCMessage carries a single request, response, or notification.
//
// Optional structured values (Params, Result, Error.Data) are kept as raw JSON.
// A nil value means "absent or null"; the codec never produces a literal "null" RawMessage.
type RPCMessage struct {
	Kind   Kind
	ID     ID              // Zero for notifications
	Method string          // Requests and notifications only
	Params json.RawMessage // Requests and notifications only
	Result json.RawMessage // Responses only
	Error  *RPCError       // Responses only; non-nil marks a remote failure
}

// NewRequest builds a request. params is marshaled with encoding/json; nil becomes null.
func NewRequest(id ID, method string, params any) (*RPCMessage, error) {
	raw, err := Raw(params)
	if err != nil {
		return nil, fmt.Errorf("message: encode params for %q: %w", method, err)
	}
	return &RPCMessage{Kind: KindRequest, ID: id, Method: method, Params: raw}, nil
}

// NewNotification builds a notification. params is marshaled with encoding/json; nil becomes null.
func NewNotification(method string, params any) (*RPCMessage, error) {
	raw, err := Raw(params)
	if err != nil {
		return nil, fmt.Errorf("message: encode params for %q: %w", method, err)
	}
	return &RPCMessage{Kind: KindNotification, Method: method, Params: raw}, nil
}

// NewResult builds a successful response to the request with the given id.
func NewResult(id ID, result any) (*RPCMessage, error) {
	raw, err := Raw(result)
	if err != nil {
		return nil, fmt.Errorf("message: encode result for %s: %w", id, err)
	}
	return &RPCMessage{Kind: KindResponse, ID: id, Result: raw}, nil
}

// NewErrorResponse builds a failed response to the request with the given id.
func NewErrorResponse(id ID, rpcErr *RPCError) *RPCMessage {
	return &RPCMessage{Kind: KindResponse, ID: id, Error: rpcErr}
}

// IsRequest reports whether the peer expects an answer to m.
func (m *RPCMessage) IsRequest() bool { return m.Kind == KindRequest }

// IsResponse reports whether m answers an earlier request.
func (m *RPCMessage) IsResponse() bool { return m.Kind == KindResponse }

// IsNotification reports whether m is fire-and-forget.
func (m *RPCMessage) IsNotification() bool { return m.Kind == KindNotification }

// Raw marshals v into a RawMessage. nil, a JSON null, and an empty RawMessage all map to nil.
func Raw(v any) (json.RawMessage, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return Normalize(val), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Normalize(b), nil
}

// Normalize maps an empty or null RawMessage to nil so that absent and null compare equal.
func Normalize(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return raw
}
