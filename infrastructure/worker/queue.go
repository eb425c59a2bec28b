// Package worker provides a bounded, paced dispatch queue.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrQueueClosed is returned for work scheduled after Close.
var ErrQueueClosed = errors.New("worker: queue closed")

// Queue runs at most concurrency jobs at once and starts at most one job per interval.
type Queue struct {
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
}

func NewQueue(concurrency int, interval time.Duration) *Queue {
	if concurrency <= 0 {
		concurrency = 1
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Queue{
		sem:     semaphore.NewWeighted(int64(concurrency)),
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Go schedules fn. The returned channel receives exactly one value: fn's
// error, or the context error if fn never started.
func (q *Queue) Go(ctx context.Context, fn func(ctx context.Context) error) <-chan error {
	result := make(chan error, 1)

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		result <- ErrQueueClosed
		return result
	}
	q.wg.Add(1)
	q.mu.Unlock()

	go func() {
		defer q.wg.Done()
		if err := q.sem.Acquire(ctx, 1); err != nil {
			result <- err
			return
		}
		defer q.sem.Release(1)
		if err := q.limiter.Wait(ctx); err != nil {
			result <- err
			return
		}
		result <- fn(ctx)
	}()
	return result
}

// Close stops accepting work and waits until scheduled jobs finish or ctx is done.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
