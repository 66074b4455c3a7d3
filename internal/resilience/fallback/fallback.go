// Package fallback provides graceful degradation: an operation is raced
// against a timeout, and on failure or timeout a fallback value is
// substituted instead of propagating the error.
package fallback

import (
	"context"
	"time"

	"github.com/taskhub/taskhub-api/internal/resilience/apperror"
)

// Condition decides whether a failure should be absorbed by the fallback.
type Condition func(error) bool

// Options configures a fallback-wrapped operation.
type Options struct {
	// Timeout bounds how long the caller waits for op. Zero means no
	// timeout; only op's own error can trigger the fallback.
	Timeout time.Duration

	// Condition decides whether the fallback applies to a given error;
	// nil means the fallback always applies.
	Condition Condition
}

type result[T any] struct {
	value T
	err   error
}

// Do runs op, substituting fb's value when op fails or the timeout fires
// first, provided the condition accepts the error.
//
// When the timeout fires the operation is not cancelled: its goroutine keeps
// running and its eventual result is dropped (the result channel is buffered
// so it does not leak). Callers that want true cancellation can derive their
// own deadline from ctx inside op, which receives the caller's context.
func Do[T any](ctx context.Context, opts Options, op func(context.Context) (T, error), fb func() T) (T, error) {
	var zero T

	condition := opts.Condition
	if condition == nil {
		condition = func(error) bool { return true }
	}

	ch := make(chan result[T], 1)
	go func() {
		value, err := op(ctx)
		ch <- result[T]{value: value, err: err}
	}()

	var timeout <-chan time.Time
	if opts.Timeout > 0 {
		timer := time.NewTimer(opts.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case res := <-ch:
		if res.err == nil {
			return res.value, nil
		}
		if condition(res.err) {
			return fb(), nil
		}
		return zero, res.err

	case <-timeout:
		err := apperror.New(apperror.CodeTimeout,
			apperror.WithContext(map[string]any{"timeout": opts.Timeout.String()}))
		if condition(err) {
			return fb(), nil
		}
		return zero, err

	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Value adapts a static fallback value to the fallback function form.
func Value[T any](v T) func() T {
	return func() T { return v }
}
