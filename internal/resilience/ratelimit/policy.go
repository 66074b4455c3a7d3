// Package ratelimit implements two cooperating request-limiting mechanisms:
// fixed-window (and token-bucket) counters per route category, and a
// progressive failure escalator that blocks a client key for increasingly
// long periods as authentication failures accumulate. Policy decisions are
// pure functions over explicit state; where that state lives is decided by
// the injected Store.
package ratelimit

import "time"

// FailureResetWindow is how long after the last attempt a client's failure
// counter is considered stale and starts over.
const FailureResetWindow = time.Hour

// Block duration tiers for the failure escalator.
const (
	blockTierLow    = 5 * time.Minute  // >= 3 failures
	blockTierMedium = 15 * time.Minute // >= 5 failures
	blockTierHigh   = 60 * time.Minute // >= 10 failures
)

// Entry is the per-client failure-tracking state.
type Entry struct {
	FailureCount int
	LastAttempt  time.Time
}

// BlockDuration returns the lockout duration implied by a failure count.
// It is a monotonic step function: 0 below 3 failures, then 5, 15 and 60
// minutes at the 3, 5 and 10 failure tiers.
func BlockDuration(failureCount int) time.Duration {
	switch {
	case failureCount >= 10:
		return blockTierHigh
	case failureCount >= 5:
		return blockTierMedium
	case failureCount >= 3:
		return blockTierLow
	default:
		return 0
	}
}

// BlockedUntil returns the instant the entry's block expires, or the zero
// time when the entry implies no block. The block window is measured from
// the last attempt.
func BlockedUntil(e Entry) time.Time {
	d := BlockDuration(e.FailureCount)
	if d == 0 {
		return time.Time{}
	}
	return e.LastAttempt.Add(d)
}

// Stale reports whether the entry's last attempt is older than the reset
// window at the given instant, meaning the counter should start over.
func Stale(e Entry, now time.Time) bool {
	return now.Sub(e.LastAttempt) > FailureResetWindow
}

// NextFailure returns the entry state after one more failed attempt at now.
// Stale entries restart at 1 instead of incrementing.
func NextFailure(e Entry, now time.Time) Entry {
	if e.FailureCount == 0 || Stale(e, now) {
		return Entry{FailureCount: 1, LastAttempt: now}
	}
	return Entry{FailureCount: e.FailureCount + 1, LastAttempt: now}
}
