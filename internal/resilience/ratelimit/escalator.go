package ratelimit

import (
	"context"
	"log/slog"
	"time"
)

// Escalator tracks authentication failures per client key and computes
// progressive block windows from them. It owns no policy of its own: all
// decisions come from the pure functions in policy.go, applied to entries
// read from the injected Store.
type Escalator struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time // injectable for testing
}

// EscalatorOption customizes an Escalator.
type EscalatorOption func(*Escalator)

// WithEscalatorClock injects a clock for tests.
func WithEscalatorClock(now func() time.Time) EscalatorOption {
	return func(e *Escalator) { e.now = now }
}

// NewEscalator creates an escalator over the given store.
func NewEscalator(store Store, logger *slog.Logger, opts ...EscalatorOption) *Escalator {
	e := &Escalator{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Blocked returns the remaining block duration for key, or zero when the key
// is not currently blocked. Store read failures fail open: an unreachable
// store must not lock every client out.
func (e *Escalator) Blocked(ctx context.Context, key string) time.Duration {
	entry, ok, err := e.store.Get(ctx, key)
	if err != nil {
		e.logger.Error("failure store read failed, allowing request",
			"client_key", key, "error", err)
		return 0
	}
	if !ok {
		return 0
	}

	now := e.now()
	if Stale(entry, now) {
		return 0
	}

	until := BlockedUntil(entry)
	if until.IsZero() || !until.After(now) {
		return 0
	}
	return until.Sub(now)
}

// RecordFailure registers one failed attempt for key and returns the updated
// entry. Entries whose last attempt is older than the reset window restart
// at one instead of incrementing.
func (e *Escalator) RecordFailure(ctx context.Context, key string) Entry {
	now := e.now()

	entry, _, err := e.store.Get(ctx, key)
	if err != nil {
		e.logger.Error("failure store read failed", "client_key", key, "error", err)
		entry = Entry{}
	}

	next := NextFailure(entry, now)
	if err := e.store.Put(ctx, key, next); err != nil {
		e.logger.Error("failure store write failed", "client_key", key, "error", err)
	}

	if d := BlockDuration(next.FailureCount); d > 0 {
		e.logger.Warn("client temporarily blocked after repeated failures",
			"client_key", key,
			"failure_count", next.FailureCount,
			"block_duration", d)
	}

	return next
}

// RecordSuccess clears the failure entry for key outright.
func (e *Escalator) RecordSuccess(ctx context.Context, key string) {
	if err := e.store.Delete(ctx, key); err != nil {
		e.logger.Error("failure store delete failed", "client_key", key, "error", err)
	}
}
