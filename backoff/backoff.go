// Package backoff implements the indexer's Fibonacci retry schedule: the
// delay before retry attempt a is rpcRequestTimeout * fib(a), with fib(0)
// = fib(1) = 1. A caller that exhausts retryLimit gets ErrRetryLimitExceeded
// instead of a delay.
package backoff

import (
	"context"
	"errors"
	"time"
)

// ErrRetryLimitExceeded is returned once the attempt counter reaches the
// configured retry limit.
var ErrRetryLimitExceeded = errors.New("backoff: retry limit exceeded")

// Fibonacci returns the n-th term of the sequence used to scale retry
// delays, with fib(0) = fib(1) = 1.
func Fibonacci(n uint64) uint64 {
	if n <= 1 {
		return 1
	}
	a, b := uint64(1), uint64(1)
	for i := uint64(2); i <= n; i++ {
		a, b = b, a+b
	}
	return b
}

// Delay sleeps for rpcRequestTimeoutMs * fib(attempt) milliseconds, honoring
// ctx cancellation. It returns ErrRetryLimitExceeded without sleeping once
// attempt has reached retryLimit.
func Delay(ctx context.Context, attempt, retryLimit, rpcRequestTimeoutMs uint64) error {
	if attempt >= retryLimit {
		return ErrRetryLimitExceeded
	}

	delay := time.Duration(rpcRequestTimeoutMs*Fibonacci(attempt)) * time.Millisecond
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
