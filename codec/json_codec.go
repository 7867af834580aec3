package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"omegga-rpc/message"
)

// JSONCodec reads and writes the JSON-RPC 2.0 envelope used by the host.
//
// Decoding is structural because the wire union carries no tag. The precedence is:
//
//  1. "result" or a non-null "error" member  → Response
//  2. "id" and "method"                      → Request
//  3. "method"                               → Notification
//  4. "id" only                              → Response (permissive; matched like any reply)
//
// A frame carrying id, method and result is therefore a Response. A null "id" counts as absent.
type JSONCodec struct{}

type wireRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      message.ID      `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type wireNotification struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type wireResponse struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      message.ID        `json:"id"`
	Result  *json.RawMessage  `json:"result,omitempty"`
	Error   *message.RPCError `json:"error,omitempty"`
}

var errNewline = errors.New("codec: encoded message contains a newline")

func (c *JSONCodec) Encode(msg *message.RPCMessage) ([]byte, error) {
	var v any
	switch msg.Kind {
	case message.KindRequest:
		v = wireRequest{JSONRPC: message.Version, ID: msg.ID, Method: msg.Method, Params: msg.Params}
	case message.KindNotification:
		v = wireNotification{JSONRPC: message.Version, Method: msg.Method, Params: msg.Params}
	case message.KindResponse:
		resp := wireResponse{JSONRPC: message.Version, ID: msg.ID, Error: msg.Error}
		// A success always carries "result", even when it is null.
		if msg.Error == nil || msg.Result != nil {
			result := msg.Result
			resp.Result = &result
		}
		v = resp
	default:
		return nil, fmt.Errorf("codec: cannot encode %s", msg.Kind)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if bytes.IndexByte(data, '\n') >= 0 {
		return nil, errNewline
	}
	return data, nil
}

func (c *JSONCodec) Decode(line []byte) (*message.RPCMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	rawID, hasID := present(fields, "id")
	rawMethod, hasMethod := present(fields, "method")
	rawResult, hasResult := fields["result"]
	rawError, hasError := present(fields, "error")

	msg := &message.RPCMessage{}
	if hasID {
		if err := json.Unmarshal(rawID, &msg.ID); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnrecognized, err)
		}
	}

	switch {
	case hasResult || hasError:
		msg.Kind = message.KindResponse
		msg.Result = message.Normalize(rawResult)
		if hasError {
			msg.Error = new(message.RPCError)
			if err := json.Unmarshal(rawError, msg.Error); err != nil {
				return nil, fmt.Errorf("%w: bad error object: %v", ErrUnrecognized, err)
			}
		}
		return msg, nil

	case hasMethod:
		if err := json.Unmarshal(rawMethod, &msg.Method); err != nil {
			return nil, fmt.Errorf("%w: method must be a string", ErrUnrecognized)
		}
		msg.Params = message.Normalize(fields["params"])
		if hasID {
			msg.Kind = message.KindRequest
		} else {
			msg.Kind = message.KindNotification
		}
		return msg, nil

	case hasID:
		msg.Kind = message.KindResponse
		return msg, nil
	}

	return nil, ErrUnrecognized
}

// present looks up key and treats a JSON null the same as a missing member.
func present(fields map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	raw, ok := fields[key]
	if !ok || message.Normalize(raw) == nil {
		return nil, false
	}
	return raw, true
}
