package middleware

import (
	"context"
	"omegga-rpc/message"
	"time"

	"go.uber.org/zap"
)

// Logging records every handled message with its duration, and the error code of failed replies.
func Logging(logger *zap.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.RPCMessage) *message.RPCMessage {
			start := time.Now()
			resp := next(ctx, req)

			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.Stringer("kind", req.Kind),
				zap.Duration("duration", time.Since(start)),
			}
			if req.IsRequest() {
				fields = append(fields, zap.Stringer("id", req.ID))
			}
			if resp != nil && resp.Error != nil {
				fields = append(fields, zap.Int("code", resp.Error.Code), zap.String("error", resp.Error.Message))
				logger.Warn("handler failed", fields...)
				return resp
			}
			logger.Debug("handled", fields...)
			return resp
		}
	}
}
