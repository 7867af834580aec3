package events

import (
	"context"
	"omegga-rpc/message"
	"omegga-rpc/middleware"
)

// HandlerFunc handles one typed event. For Init, Stop and PluginEmit the return values
// become the reply; for notifications they are ignored.
type HandlerFunc func(ctx context.Context, ev Event) (any, error)

// Handler adapts fn to the server's handler signature. Messages that fail to parse are
// answered with InvalidParams when they are requests and skipped otherwise.
func Handler(fn HandlerFunc) middleware.HandlerFunc {
	return func(ctx context.Context, req *message.RPCMessage) *message.RPCMessage {
		ev, err := Parse(req)
		if err != nil {
			return message.Reply(req, nil, message.NewError(message.InvalidParams, err.Error(), nil))
		}
		result, err := fn(ctx, ev)
		return message.Reply(req, result, err)
	}
}
