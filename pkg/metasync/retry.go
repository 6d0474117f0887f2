package metasync

import (
	"context"
	"time"
)

// RetryPolicy bounds how often a fetch is retried and how long to wait
// between attempts. Only transient errors are retried; ErrAuth and decode
// failures surface immediately.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
}

// DefaultRetryPolicy matches the feed's documented rate-limit behavior:
// up to 3 attempts with exponential backoff (2s, 4s).
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff: func(attempt int) time.Duration {
			return time.Duration(1<<attempt) * time.Second
		},
	}
}

// Do runs fn, retrying transient failures until the attempt budget is
// exhausted or the context is cancelled.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err = fn()
		if err == nil || !IsTransient(err) {
			return err
		}
		if attempt == p.MaxAttempts {
			break
		}
		select {
		case <-time.After(p.Backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
