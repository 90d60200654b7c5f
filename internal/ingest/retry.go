package ingest

import (
	"context"
	"time"
)

// RetryPolicy retries an operation a bounded number of times with
// exponential backoff. Only errors the Retryable predicate accepts are
// retried; everything else fails immediately.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Retryable   func(error) bool
}

// Do runs fn under the policy. It returns the number of retries performed
// (not counting the first attempt) and the final error, if any.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) (int, error) {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	retries := 0
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if err == nil {
			return retries, nil
		}
		if p.Retryable == nil || !p.Retryable(err) {
			return retries, err
		}
		if attempt == attempts {
			break
		}

		delay := p.BaseDelay << (attempt - 1)
		select {
		case <-ctx.Done():
			return retries, ctx.Err()
		case <-time.After(delay):
		}
		retries++
	}
	return retries, err
}
