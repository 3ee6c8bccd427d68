// Package retry holds the small set of sequencing combinators the CLI
// composes its network calls with: a cancellable delay, a bounded
// retry-while loop, and a one-shot recover-then-retry.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted matches any *ExhaustedError.
var ErrExhausted = errors.New("retry attempts exhausted")

// ExhaustedError is returned by While when every attempt failed with a
// retryable error. Err is the last of those errors.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

func (e *ExhaustedError) Is(target error) bool { return target == ErrExhausted }

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
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

// Policy bounds While. Attempts below 1 are treated as 1.
type Policy struct {
	Attempts int
	// Delay is waited before every attempt, including the first.
	Delay time.Duration
	// Wait replaces Sleep; tests use it to skip real delays.
	Wait func(ctx context.Context, d time.Duration) error
}

// While calls op at most p.Attempts times. It stops at the first success,
// at the first error retryable rejects, or when ctx is cancelled.
func While[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error), retryable func(error) bool) (T, error) {
	var zero T

	attempts := max(p.Attempts, 1)

	wait := p.Wait
	if wait == nil {
		wait = Sleep
	}

	var lastErr error

	for i := 0; i < attempts; i++ {
		if err := wait(ctx, p.Delay); err != nil {
			return zero, err
		}

		v, err := op(ctx)
		if err == nil {
			return v, nil
		}

		if !retryable(err) {
			return zero, err
		}

		lastErr = err
	}

	return zero, &ExhaustedError{Attempts: attempts, Err: lastErr}
}

// RecoverOnce runs op. If it fails with an error match accepts, remedy is
// called; when remedy reports true op runs exactly one more time and its
// outcome is returned as is. When remedy reports false the original error
// is returned, and a remedy failure is returned in its place.
func RecoverOnce[T any](
	ctx context.Context,
	op func(ctx context.Context) (T, error),
	match func(error) bool,
	remedy func(ctx context.Context) (bool, error),
) (T, error) {
	v, err := op(ctx)
	if err == nil || !match(err) {
		return v, err
	}

	ok, rerr := remedy(ctx)
	if rerr != nil {
		var zero T
		return zero, rerr
	}

	if !ok {
		return v, err
	}

	return op(ctx)
}
