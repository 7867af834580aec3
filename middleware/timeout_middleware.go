package middleware

import (
	"context"
	"fmt"
	"omegga-rpc/message"
	"time"
)

// Timeout answers a request with CodeTimeout when the handler runs longer than timeout.
// The handler's context is canceled at that point; whatever it returns later is discarded.
//
// The handler runs on its own goroutine, out of reach of an outer Recover, so a panic
// there is turned into an InternalError reply here.
func Timeout(timeout time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.RPCMessage) *message.RPCMessage {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			done := make(chan *message.RPCMessage, 1)
			go func() {
				defer func() {
					if r := recover(); r != nil {
						done <- errorReply(req, message.InternalError, fmt.Sprintf("panic: %v", r))
					}
				}()
				done <- next(ctx, req)
			}()

			select {
			case resp := <-done:
				return resp
			case <-ctx.Done():
				return errorReply(req, CodeTimeout, "handler timed out")
			}
		}
	}
}
