package apierr

import (
	"context"
	"time"
)

// RetryPolicy is the exponential-backoff shape spec.md §4.F step 4
// prescribes for the ingestion daemon's upload retries. The daemon's
// uploads are its only use: Metadata Store and event engine calls that
// fail with Transient return the error to their caller without a retry.
type RetryPolicy struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
}

// DefaultRetryPolicy matches spec.md §4.F: base 1s, cap 60s, 5 attempts.
var DefaultRetryPolicy = RetryPolicy{
	BaseDelay:   time.Second,
	MaxDelay:    60 * time.Second,
	MaxAttempts: 5,
}

// Retry calls fn until it succeeds, returns a non-Transient error, or
// the attempt budget is exhausted, sleeping with exponential backoff
// (capped) between attempts. It honors ctx cancellation between sleeps.
func Retry(ctx context.Context, policy RetryPolicy, fn func() error) error {
	delay := policy.BaseDelay
	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !Is(err, Transient) {
			return err
		}
		if attempt == policy.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}
	return lastErr
}
