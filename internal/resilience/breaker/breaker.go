// Package breaker implements a per-dependency circuit breaker. Each external
// dependency (database, notification sender, third-party API) gets its own
// named breaker; repeated failures open the circuit and calls fail fast until
// a reset timeout elapses, after which a half-open probe phase decides whether
// to close the circuit again.
package breaker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/taskhub/taskhub-api/internal/resilience/apperror"
)

// State is the circuit breaker state.
type State int

const (
	StateClosed   State = iota // normal operation, calls pass through
	StateOpen                  // failing, calls are rejected immediately
	StateHalfOpen              // probing, calls allowed to test recovery
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config holds the breaker thresholds.
type Config struct {
	// FailureThreshold is the number of consecutive failures in CLOSED state
	// that opens the circuit.
	FailureThreshold int

	// ResetTimeout is how long the circuit stays OPEN before a probe call
	// is admitted.
	ResetTimeout time.Duration

	// SuccessThreshold is the number of consecutive successes in HALF_OPEN
	// state that closes the circuit.
	SuccessThreshold int
}

// DefaultConfig returns the thresholds used when none are configured.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
		SuccessThreshold: 2,
	}
}

// Breaker is a single circuit breaker guarding one named dependency.
// All state transitions are mutex-protected; concurrent calls admitted in
// HALF_OPEN may race, which is a documented simplification rather than a
// strict single-probe guarantee.
type Breaker struct {
	name   string
	cfg    Config
	logger *slog.Logger

	mu            sync.Mutex
	state         State
	failureCount  int
	successCount  int
	lastFailure   time.Time
	onStateChange func(name string, from, to State)

	now func() time.Time // injectable for testing
}

// BreakerOption customizes a Breaker.
type BreakerOption func(*Breaker)

// WithClock injects a clock, used by tests to drive the reset timeout.
func WithClock(now func() time.Time) BreakerOption {
	return func(b *Breaker) { b.now = now }
}

// WithLogger sets the logger used for state-transition logging.
func WithLogger(logger *slog.Logger) BreakerOption {
	return func(b *Breaker) { b.logger = logger }
}

// WithStateChangeHook registers a callback invoked on every state transition,
// e.g. to update a metrics gauge.
func WithStateChangeHook(hook func(name string, from, to State)) BreakerOption {
	return func(b *Breaker) { b.onStateChange = hook }
}

// New creates a breaker for the named dependency.
func New(name string, cfg Config, opts ...BreakerOption) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultConfig().FailureThreshold
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = DefaultConfig().ResetTimeout
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = DefaultConfig().SuccessThreshold
	}

	b := &Breaker{
		name:   name,
		cfg:    cfg,
		state:  StateClosed,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the dependency name this breaker guards.
func (b *Breaker) Name() string { return b.name }

// State returns the current state. OPEN breakers whose reset timeout has
// elapsed still report OPEN until the next call transitions them.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Counts returns the current failure and success counters.
func (b *Breaker) Counts() (failures, successes int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failureCount, b.successCount
}

// Reset forces the breaker back to CLOSED with all counters cleared.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transition(StateClosed)
	b.failureCount = 0
	b.successCount = 0
}

// Execute runs op under the breaker. When the circuit is OPEN and the reset
// timeout has not elapsed, it fails fast with an EXTERNAL_SERVICE_ERROR whose
// recovery options flag the breaker and suggest the remaining cooldown.
func Execute[T any](ctx context.Context, b *Breaker, op func(context.Context) (T, error)) (T, error) {
	var zero T

	if err := b.allow(); err != nil {
		return zero, err
	}

	result, err := op(ctx)
	if err != nil {
		b.recordFailure()
		return zero, err
	}

	b.recordSuccess()
	return result, nil
}

// Do runs a value-less operation under the breaker.
func (b *Breaker) Do(ctx context.Context, op func(context.Context) error) error {
	_, err := Execute(ctx, b, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// allow decides whether a call may proceed, transitioning OPEN to HALF_OPEN
// once the reset timeout has elapsed.
func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateOpen {
		return nil
	}

	elapsed := b.now().Sub(b.lastFailure)
	if elapsed >= b.cfg.ResetTimeout {
		b.transition(StateHalfOpen)
		b.successCount = 0
		return nil
	}

	remaining := b.cfg.ResetTimeout - elapsed
	return apperror.New(apperror.CodeExternalServiceError,
		apperror.WithRecovery(&apperror.RecoveryOptions{
			RetryDelay:            remaining,
			CircuitBreakerEnabled: true,
		}),
		apperror.WithContext(map[string]any{
			"dependency": b.name,
			"state":      b.state.String(),
		}))
}

// recordSuccess resets the failure counter in CLOSED state and advances the
// success counter toward closing the circuit in HALF_OPEN state.
func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.failureCount = 0
	case StateHalfOpen:
		b.successCount++
		if b.successCount >= b.cfg.SuccessThreshold {
			b.transition(StateClosed)
			b.failureCount = 0
			b.successCount = 0
		}
	}
}

// recordFailure counts any error as a failure, without distinguishing client
// errors from server errors. A single failure in HALF_OPEN reopens the
// circuit immediately.
func (b *Breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFailure = b.now()

	switch b.state {
	case StateClosed:
		b.failureCount++
		if b.failureCount >= b.cfg.FailureThreshold {
			b.transition(StateOpen)
		}
	case StateHalfOpen:
		b.successCount = 0
		b.transition(StateOpen)
	}
}

// transition changes state, logs it, and fires the hook. Callers hold b.mu.
func (b *Breaker) transition(to State) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to

	b.logger.Warn("circuit breaker state change",
		"dependency", b.name,
		"from", from.String(),
		"to", to.String(),
		"failure_count", b.failureCount)

	if b.onStateChange != nil {
		b.onStateChange(b.name, from, to)
	}
}
