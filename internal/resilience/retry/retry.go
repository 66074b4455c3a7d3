// Package retry provides a bounded retry executor with exponential backoff
// and a pluggable retry predicate. Only errors that satisfy the predicate are
// retried; everything else propagates immediately on the first failure.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/taskhub/taskhub-api/internal/resilience/apperror"
)

// Condition decides whether a failed attempt should be retried.
type Condition func(error) bool

// DefaultCondition retries structured errors that are flagged retryable and
// carry a server-side status. Client errors (4xx) never retry.
func DefaultCondition(err error) bool {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Retryable() && appErr.StatusCode >= 500
}

// Options configures a single retried operation.
type Options struct {
	// MaxAttempts bounds the total number of invocations, including the
	// first. Values below 1 are treated as 1.
	MaxAttempts int

	// Delay is the wait before the second attempt.
	Delay time.Duration

	// Backoff doubles the delay after every attempt when true.
	Backoff bool

	// Condition decides retryability; nil means DefaultCondition.
	Condition Condition

	// OperationID keys the executor's attempt bookkeeping. Empty disables
	// bookkeeping for this operation.
	OperationID string
}

// Executor runs operations with retry and tracks attempt counts per
// operation id. It is constructed at startup and shared; all its state is
// mutex-protected.
type Executor struct {
	logger *slog.Logger

	mu       sync.Mutex
	attempts map[string]int

	// sleep is injectable for tests; it must respect ctx cancellation.
	sleep func(ctx context.Context, d time.Duration) error
}

// ExecutorOption customizes an Executor.
type ExecutorOption func(*Executor)

// WithSleep injects the wait function, used by tests to observe backoff
// delays without real sleeping.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) ExecutorOption {
	return func(e *Executor) { e.sleep = sleep }
}

// NewExecutor creates a retry executor.
func NewExecutor(logger *slog.Logger, opts ...ExecutorOption) *Executor {
	e := &Executor{
		logger:   logger,
		attempts: make(map[string]int),
		sleep:    sleepCtx,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Attempts returns the recorded attempt count for an operation id. The count
// is cleared when the operation eventually succeeds.
func (e *Executor) Attempts(operationID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.attempts[operationID]
}

func (e *Executor) recordAttempt(operationID string, attempt int) {
	if operationID == "" {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attempts[operationID] = attempt
}

func (e *Executor) clearAttempts(operationID string) {
	if operationID == "" {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.attempts, operationID)
}

// Do invokes op up to opts.MaxAttempts times, waiting opts.Delay between
// attempts (doubling when backoff is enabled). It returns the first
// successful result; on a non-retryable error or once attempts are
// exhausted, the last error is returned. Waits respect ctx cancellation.
func Do[T any](ctx context.Context, e *Executor, opts Options, op func(context.Context) (T, error)) (T, error) {
	var zero T

	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	condition := opts.Condition
	if condition == nil {
		condition = DefaultCondition
	}

	delay := opts.Delay
	var lastErr error

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		e.recordAttempt(opts.OperationID, attempt)

		result, err := op(ctx)
		if err == nil {
			e.clearAttempts(opts.OperationID)
			return result, nil
		}
		lastErr = err

		if !condition(err) {
			return zero, err
		}
		if attempt == opts.MaxAttempts {
			break
		}

		e.logger.Warn("retrying operation",
			"operation_id", opts.OperationID,
			"attempt", attempt,
			"max_attempts", opts.MaxAttempts,
			"next_delay", delay,
			"error", err)

		if err := e.sleep(ctx, delay); err != nil {
			return zero, err
		}
		if opts.Backoff {
			delay *= 2
		}
	}

	return zero, lastErr
}

// sleepCtx waits for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
