// Package wait provides bounded polling on UI state.
package wait

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrTimeout is returned when a condition is not met before its deadline.
var ErrTimeout = errors.New("wait: condition not met before timeout")

var errPending = errors.New("wait: condition pending")

// Condition reports whether the awaited state has been reached. An error is
// treated like false: the element may simply not be rendered yet.
type Condition func(ctx context.Context) (bool, error)

// Until polls cond every interval until it returns true or timeout elapses.
// It returns an error wrapping ErrTimeout on expiry, or the parent context's
// error if ctx is cancelled first.
func Until(ctx context.Context, timeout, interval time.Duration, cond Condition) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var lastErr error
	op := func() error {
		ok, err := cond(waitCtx)
		if err != nil {
			lastErr = err
			return errPending
		}
		if !ok {
			return errPending
		}
		return nil
	}

	b := backoff.WithContext(backoff.NewConstantBackOff(interval), waitCtx)
	if err := backoff.Retry(op, b); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if lastErr != nil {
			return fmt.Errorf("%w after %s: %v", ErrTimeout, timeout, lastErr)
		}
		return fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
	return nil
}

// UntilOrSleep behaves like Until, but when the condition times out it
// sleeps for fallback and reports false instead of failing.
func UntilOrSleep(ctx context.Context, timeout, interval, fallback time.Duration, cond Condition) (bool, error) {
	err := Until(ctx, timeout, interval, cond)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, ErrTimeout) {
		return false, err
	}
	return false, Sleep(ctx, fallback)
}

// Sleep pauses for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
