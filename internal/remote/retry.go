package remote

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// transientError marks a failure worth another attempt: a dropped
// connection, a truncated body or a 5xx response.
type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func transient(format string, args ...any) error {
	return &transientError{err: fmt.Errorf(format, args...)}
}

// IsTransient reports whether err came from a failure that may succeed on a
// later attempt.
func IsTransient(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}

// Backoff retries transient failures, doubling the wait each time.
type Backoff struct {
	// Attempts is the total number of tries. Values below 1 mean one.
	Attempts int
	Delay    time.Duration
	// MaxDelay caps the doubled wait. Zero leaves it uncapped.
	MaxDelay time.Duration
	// OnRetry runs before each wait with the 1-based attempt that failed.
	OnRetry func(attempt int, wait time.Duration, err error)
}

// Do runs fn until it succeeds, fails permanently or runs out of attempts.
// The last error is returned; a cancelled ctx ends the wait early with
// ctx.Err().
func (b Backoff) Do(ctx context.Context, fn func(context.Context) error) error {
	wait := b.Delay
	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil || !IsTransient(err) || attempt >= b.Attempts {
			return err
		}
		if b.OnRetry != nil {
			b.OnRetry(attempt, wait, err)
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		wait *= 2
		if b.MaxDelay > 0 {
			wait = min(wait, b.MaxDelay)
		}
	}
}
