package middleware

import (
	"context"
	"omegga-rpc/message"

	"golang.org/x/time/rate"
)

// RateLimit admits r messages per second with the given burst (token bucket).
// Rejected requests get a CodeRateLimited reply; rejected notifications are dropped.
func RateLimit(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.RPCMessage) *message.RPCMessage {
			if !limiter.Allow() {
				return errorReply(req, CodeRateLimited, "rate limit exceeded")
			}
			return next(ctx, req)
		}
	}
}
