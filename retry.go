package dagflow

import "time"

// RetryBuilder provides a fluent way to construct RetryStrategy values
// for use with dagflow.WithRetry.
type RetryBuilder struct {
	strategy RetryStrategy
}

// Retry creates a RetryBuilder with the given maxAttempts.
//
// maxAttempts <= 0 is treated as 1 (no retries).
func Retry(maxAttempts int) RetryBuilder {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return RetryBuilder{
		strategy: RetryStrategy{
			MaxAttempts: maxAttempts,
		},
	}
}

// WithDelay sets the pause before a failed attempt is re-queued.
func (r RetryBuilder) WithDelay(d time.Duration) RetryBuilder {
	s := r.strategy
	s.Delay = d
	return RetryBuilder{strategy: s}
}

// Immediate disables any delay between retries.
// Retries will still respect MaxAttempts.
func (r RetryBuilder) Immediate() RetryBuilder {
	s := r.strategy
	s.Delay = 0
	return RetryBuilder{strategy: s}
}

// Strategy returns the underlying RetryStrategy.
func (r RetryBuilder) Strategy() RetryStrategy {
	return r.strategy
}
