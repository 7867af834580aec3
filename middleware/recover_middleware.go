package middleware

import (
	"context"
	"fmt"
	"omegga-rpc/message"

	"go.uber.org/zap"
)

// Recover turns a panicking handler into an InternalError reply so one bad handler
// cannot take the plugin down.
func Recover(logger *zap.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.RPCMessage) (resp *message.RPCMessage) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("handler panicked",
						zap.String("method", req.Method),
						zap.Any("panic", r),
						zap.Stack("stack"))
					resp = errorReply(req, message.InternalError, fmt.Sprintf("panic: %v", r))
				}
			}()
			return next(ctx, req)
		}
	}
}
