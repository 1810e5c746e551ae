// Package resilience wraps the outbound-call fault-tolerance patterns:
// retry with backoff, circuit breaker, and a concurrency bulkhead for
// the call trigger fan-out.
package resilience

import (
	"context"
	"math/rand"
	"time"

	"github.com/sony/gobreaker"
)

// Config holds the retry and concurrency knobs shared by all outbound
// clients.
type Config struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int
}

// maxBackoff caps the exponential growth so a long retry chain never
// sleeps for minutes between attempts.
const maxBackoff = 30 * time.Second

// RetryWithBackoff runs fn up to MaxRetries+1 times, doubling the wait
// after each failure and adding jitter so synchronized callers spread
// out. Cancelling the context stops both the waits and further attempts.
func RetryWithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	backoff := cfg.InitialBackoff
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt >= cfg.MaxRetries {
			return lastErr
		}

		wait := backoff + time.Duration(rand.Int63n(int64(backoff/2)+1))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// NewCircuitBreaker creates a named breaker that opens after a 60%
// failure ratio over at least 5 requests, probes with 3 requests when
// half-open, and resets its closed-state counters every 30s.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
	})
}

// Bulkhead bounds how many callers run a protected section at once.
type Bulkhead struct {
	sem chan struct{}
}

// NewBulkhead creates a bulkhead admitting maxConcurrency callers.
func NewBulkhead(maxConcurrency int) *Bulkhead {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &Bulkhead{sem: make(chan struct{}, maxConcurrency)}
}

// Acquire blocks until a slot frees up or the context is cancelled.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	select {
	case b.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot taken by Acquire.
func (b *Bulkhead) Release() {
	<-b.sem
}
