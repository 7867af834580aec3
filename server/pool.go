package server

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// workerPool bounds how many handlers run at once.
//
// A buffered channel of tokens is the semaphore: Go takes a token before starting a
// handler and the handler returns it when done. With one token, handlers run strictly
// one after another in the order Go was called.
type workerPool struct {
	tokens chan struct{}
	wg     sync.WaitGroup
}

func newWorkerPool(size int) *workerPool {
	if size < 1 {
		size = 1
	}
	return &workerPool{tokens: make(chan struct{}, size)}
}

// Go runs fn on a pool goroutine. It blocks while all workers are busy and gives up
// with ctx.Err() if ctx is done first.
func (p *workerPool) Go(ctx context.Context, fn func()) error {
	select {
	case p.tokens <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	p.wg.Add(1)
	go func() {
		defer func() {
			<-p.tokens
			p.wg.Done()
		}()
		fn()
	}()
	return nil
}

// Wait blocks until every started handler returned, or timeout elapsed.
func (p *workerPool) Wait(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("server: timeout waiting for %d running handlers", len(p.tokens))
	}
}
