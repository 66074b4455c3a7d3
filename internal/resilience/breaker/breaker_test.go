package breaker

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/taskhub-api/internal/resilience/apperror"
)

// fakeClock lets tests drive the reset timeout deterministically.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time            { return c.now }
func (c *fakeClock) Advance(d time.Duration)   { c.now = c.now.Add(d) }

func newTestBreaker(cfg Config) (*Breaker, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	b := New("test-dep", cfg,
		WithClock(clock.Now),
		WithLogger(slog.Default()))
	return b, clock
}

var errBoom = errors.New("boom")

func fail(ctx context.Context) (string, error)    { return "", errBoom }
func succeed(ctx context.Context) (string, error) { return "ok", nil }

func TestClosedToOpenAtThreshold(t *testing.T) {
	b, _ := newTestBreaker(Config{FailureThreshold: 3, ResetTimeout: time.Minute, SuccessThreshold: 2})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := Execute(ctx, b, fail)
		assert.ErrorIs(t, err, errBoom)
		assert.Equal(t, StateClosed, b.State())
	}

	// Third failure reaches the threshold and opens the circuit exactly once.
	_, err := Execute(ctx, b, fail)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, StateOpen, b.State())

	// Subsequent calls fail fast with the circuit error, not the op error.
	_, err = Execute(ctx, b, succeed)
	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeExternalServiceError, appErr.Code)
	require.NotNil(t, appErr.Recovery)
	assert.True(t, appErr.Recovery.CircuitBreakerEnabled)
	assert.Positive(t, appErr.Recovery.RetryDelay)
}

func TestOpenAdmitsProbeAfterResetTimeout(t *testing.T) {
	b, clock := newTestBreaker(Config{FailureThreshold: 1, ResetTimeout: 30 * time.Second, SuccessThreshold: 2})
	ctx := context.Background()

	_, _ = Execute(ctx, b, fail)
	require.Equal(t, StateOpen, b.State())

	// Before the timeout, calls are rejected without running the op.
	ran := false
	_, err := Execute(ctx, b, func(ctx context.Context) (string, error) {
		ran = true
		return "ok", nil
	})
	assert.Error(t, err)
	assert.False(t, ran)

	// After the timeout, the next call is admitted as a half-open probe.
	clock.Advance(30 * time.Second)
	result, err := Execute(ctx, b, succeed)
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, StateHalfOpen, b.State())
}

func TestHalfOpenClosesAfterSuccessThreshold(t *testing.T) {
	b, clock := newTestBreaker(Config{FailureThreshold: 1, ResetTimeout: time.Second, SuccessThreshold: 2})
	ctx := context.Background()

	_, _ = Execute(ctx, b, fail)
	clock.Advance(time.Second)

	_, err := Execute(ctx, b, succeed)
	require.NoError(t, err)
	require.Equal(t, StateHalfOpen, b.State())

	_, err = Execute(ctx, b, succeed)
	require.NoError(t, err)
	assert.Equal(t, StateClosed, b.State())

	failures, successes := b.Counts()
	assert.Zero(t, failures, "failure count resets on entering CLOSED")
	assert.Zero(t, successes, "success count resets on entering CLOSED")
}

func TestHalfOpenSingleFailureReopens(t *testing.T) {
	b, clock := newTestBreaker(Config{FailureThreshold: 1, ResetTimeout: time.Second, SuccessThreshold: 3})
	ctx := context.Background()

	_, _ = Execute(ctx, b, fail)
	clock.Advance(time.Second)

	// Probe succeeds once, then fails: straight back to OPEN.
	_, err := Execute(ctx, b, succeed)
	require.NoError(t, err)
	require.Equal(t, StateHalfOpen, b.State())

	_, err = Execute(ctx, b, fail)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, StateOpen, b.State())

	_, successes := b.Counts()
	assert.Zero(t, successes)
}

func TestSuccessResetsFailureCountWhileClosed(t *testing.T) {
	b, _ := newTestBreaker(Config{FailureThreshold: 3, ResetTimeout: time.Minute, SuccessThreshold: 1})
	ctx := context.Background()

	_, _ = Execute(ctx, b, fail)
	_, _ = Execute(ctx, b, fail)
	failures, _ := b.Counts()
	require.Equal(t, 2, failures)

	_, err := Execute(ctx, b, succeed)
	require.NoError(t, err)
	failures, _ = b.Counts()
	assert.Zero(t, failures)
	assert.Equal(t, StateClosed, b.State())
}

func TestRegistryLazyCreate(t *testing.T) {
	r := NewRegistry(DefaultConfig(), slog.Default())

	a := r.Get("database")
	b := r.Get("notifier")
	again := r.Get("database")

	assert.Same(t, a, again)
	assert.NotSame(t, a, b)
	assert.ElementsMatch(t, []string{"database", "notifier"}, r.Names())
}

func TestStateChangeHook(t *testing.T) {
	var transitions []string
	clock := &fakeClock{now: time.Now()}
	b := New("dep", Config{FailureThreshold: 1, ResetTimeout: time.Second, SuccessThreshold: 1},
		WithClock(clock.Now),
		WithStateChangeHook(func(name string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		}))

	_ = b.Do(context.Background(), func(ctx context.Context) error { return errBoom })
	clock.Advance(time.Second)
	_ = b.Do(context.Background(), func(ctx context.Context) error { return nil })

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}
