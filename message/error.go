package message

import (
	"encoding/json"
	"fmt"
)

// Standard JSON-RPC error codes.
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
)

// RPCError is the error object carried by a failed Response.
// It implements error so a remote failure can be returned and matched with errors.As.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// NewError builds an RPCError with optional data. data is marshaled with encoding/json.
func NewError(code int, msg string, data any) *RPCError {
	raw, err := Raw(data)
	if err != nil {
		raw = nil
	}
	return &RPCError{Code: code, Message: msg, Data: raw}
}

func (e *RPCError) Error() string {
	if len(e.Data) > 0 {
		return fmt.Sprintf("rpc error %d: %s (%s)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// UnmarshalJSON requires the code and message members and normalizes a null data member.
func (e *RPCError) UnmarshalJSON(data []byte) error {
	var wire struct {
		Code    *int            `json:"code"`
		Message *string         `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.Code == nil || wire.Message == nil {
		return fmt.Errorf("error object needs code and message: %s", data)
	}
	e.Code = *wire.Code
	e.Message = *wire.Message
	e.Data = Normalize(wire.Data)
	return nil
}
