// Package retry wraps an operation in a backoff policy for transient
// failures, independent of which job calls it.
package retry

import (
	"context"
	"math/rand"
	"time"
)

// Policy controls how Do re-runs a failing operation. Delay before attempt n
// is BaseDelay*2^(n-1), plus up to one BaseDelay of jitter so synchronized
// workers fan out.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Retryable   func(error) bool

	// sleep and jitter are swapped out in tests.
	sleep  func(time.Duration)
	jitter func() float64
}

// DefaultPolicy matches the job runner contract: 5 attempts, exponential
// backoff from one second.
func DefaultPolicy(retryable func(error) bool) Policy {
	return Policy{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		Retryable:   retryable,
	}
}

// Do runs op until it succeeds, fails permanently, exhausts the attempt
// budget, or ctx is done. The last error is returned unwrapped.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	sleep := p.sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	jitter := p.jitter
	if jitter == nil {
		jitter = rand.Float64
	}

	delay := p.BaseDelay
	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err = op(ctx)
		if err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		if attempt == p.MaxAttempts {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		sleep(delay + time.Duration(jitter()*float64(p.BaseDelay)))
		delay *= 2
	}
	return err
}
