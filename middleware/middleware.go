// Package middleware wraps handlers for messages the host sends to the plugin.
//
// A HandlerFunc receives a request or a notification and returns the response to send.
// For notifications the return value is ignored and may be nil.
package middleware

import (
	"context"
	"omegga-rpc/message"
)

// Error codes in the implementation-defined server range.
const (
	CodeRateLimited = -32001
	CodeTimeout     = -32002
)

type HandlerFunc func(ctx context.Context, req *message.RPCMessage) *message.RPCMessage

type Middleware func(next HandlerFunc) HandlerFunc

// Chain composes middlewares so that the first one is outermost:
// Chain(A, B, C)(h) runs A → B → C → h.
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

func errorReply(req *message.RPCMessage, code int, msg string) *message.RPCMessage {
	return message.Reply(req, nil, message.NewError(code, msg, nil))
}
