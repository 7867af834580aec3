package client

import (
	"context"
	"errors"
	"omegga-rpc/transport"
	"time"

	"go.uber.org/zap"
)

// retryPolicy reissues a request that got no reply in time. Only ErrTimeout is
// retried: a remote error is an answer, and a closed transport will not recover.
// Every attempt is a new request with a new correlation ID, so the host may run the
// method more than once; retries are therefore off unless WithRetry is given.
type retryPolicy struct {
	maxRetries int
	baseDelay  time.Duration
}

func (p retryPolicy) do(ctx context.Context, logger *zap.Logger, method string, call func() error) error {
	err := call()
	for i := 0; i < p.maxRetries; i++ {
		if !errors.Is(err, transport.ErrTimeout) {
			return err
		}
		delay := p.baseDelay * time.Duration(1<<i) // exponential backoff
		logger.Info("retrying request",
			zap.String("method", method),
			zap.Int("attempt", i+1),
			zap.Duration("delay", delay))

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return err
		}
		err = call()
	}
	return err
}
