// Package retry runs provider calls under a bounded backoff policy.
//
// Errors are classified before any delay: Permanent errors (not found, malformed request,
// provider reports no data) fail immediately, Transient errors (timeouts, connection
// failures, rate limiting, 5xx) are retried until the attempt budget is spent.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// Class is the retry classification of an error
type Class int

const (
	ClassTransient Class = iota
	ClassPermanent
)

func (c Class) String() string {
	if c == ClassPermanent {
		return "permanent"
	}
	return "transient"
}

type classifiedError struct {
	class Class
	err   error
}

func (e *classifiedError) Error() string { return e.err.Error() }
func (e *classifiedError) Unwrap() error { return e.err }

// Transient marks err as retryable
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{class: ClassTransient, err: err}
}

// Permanent marks err as not retryable
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{class: ClassPermanent, err: err}
}

// Classify inspects the failure cause.
// Explicit marks win; timeouts and network errors are transient; cancellation is permanent.
// Anything unrecognised is treated as transient.
func Classify(err error) Class {
	var ce *classifiedError
	if errors.As(err, &ce) {
		return ce.class
	}

	if errors.Is(err, context.Canceled) {
		return ClassPermanent
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTransient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ClassTransient
	}

	return ClassTransient
}

// IsPermanent reports whether err must not be retried
func IsPermanent(err error) bool {
	return err != nil && Classify(err) == ClassPermanent
}

// Error is returned when a call fails for good
type Error struct {
	Attempts  int
	Permanent bool
	Err       error
}

func (e *Error) Error() string {
	if e.Permanent {
		return fmt.Sprintf("permanent failure after %d attempt(s): %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("retries exhausted after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Policy is a bounded retry policy
type Policy struct {
	MaxAttempts int
	// Backoff[i] is the wait after failed attempt i+1; the last entry repeats
	Backoff []time.Duration
	Sleep   SleepFunc
	// OnRetry is called before each backoff wait
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultPolicy returns 3 attempts with 1s, 2s, 3s backoff
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		Backoff:     []time.Duration{1 * time.Second, 2 * time.Second, 3 * time.Second},
	}
}

// Delay returns the wait after the given failed attempt (1-based)
func (p Policy) Delay(attempt int) time.Duration {
	if len(p.Backoff) == 0 || attempt < 1 {
		return 0
	}
	if attempt > len(p.Backoff) {
		return p.Backoff[len(p.Backoff)-1]
	}
	return p.Backoff[attempt-1]
}

// Do runs fn until it succeeds, fails permanently, or the attempt budget is spent
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return &Error{Attempts: attempt - 1, Permanent: true, Err: err}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if IsPermanent(err) {
			return &Error{Attempts: attempt, Permanent: true, Err: err}
		}

		if attempt == maxAttempts {
			break
		}

		delay := p.Delay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}
		if err := sleep(ctx, delay); err != nil {
			return &Error{Attempts: attempt, Permanent: true, Err: err}
		}
	}

	return &Error{Attempts: maxAttempts, Err: lastErr}
}

// Value runs fn under p and returns its result
func Value[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// SleepContext blocks for d unless ctx finishes first
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
