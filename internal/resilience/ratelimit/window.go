package ratelimit

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Category names a group of routes sharing one rate-limit configuration.
type Category string

const (
	CategoryGeneral       Category = "general"
	CategoryLogin         Category = "login"
	CategoryRegistration  Category = "registration"
	CategoryPasswordReset Category = "password_reset"
)

// WindowConfig is a fixed-window limit: at most MaxRequests per Window.
type WindowConfig struct {
	Window      time.Duration
	MaxRequests int
}

// DefaultWindows is the fixed per-category table. Authentication routes get
// tight windows; the general API limit is enforced by a token bucket instead
// (see NewBucketLimiter).
var DefaultWindows = map[Category]WindowConfig{
	CategoryLogin:         {Window: 15 * time.Minute, MaxRequests: 5},
	CategoryRegistration:  {Window: time.Hour, MaxRequests: 3},
	CategoryPasswordReset: {Window: time.Hour, MaxRequests: 3},
}

// Decision is the outcome of a limiter check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration // suggested wait when blocked
}

// Limiter decides whether a request identified by key may proceed now.
type Limiter interface {
	Allow(key string) Decision
}

// FixedWindow counts requests per key in non-overlapping windows.
type FixedWindow struct {
	cfg WindowConfig
	now func() time.Time

	mu      sync.Mutex
	windows map[string]*windowState
}

type windowState struct {
	start time.Time
	count int
}

// FixedWindowOption customizes a FixedWindow.
type FixedWindowOption func(*FixedWindow)

// WithWindowClock injects a clock for tests.
func WithWindowClock(now func() time.Time) FixedWindowOption {
	return func(l *FixedWindow) { l.now = now }
}

// NewFixedWindow creates a fixed-window limiter.
func NewFixedWindow(cfg WindowConfig, opts ...FixedWindowOption) *FixedWindow {
	l := &FixedWindow{
		cfg:     cfg,
		now:     time.Now,
		windows: make(map[string]*windowState),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow implements Limiter. Exceeding the window's budget blocks until the
// window rolls over.
func (l *FixedWindow) Allow(key string) Decision {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.cfg.Window {
		l.windows[key] = &windowState{start: now, count: 1}
		return Decision{Allowed: true}
	}

	if w.count < l.cfg.MaxRequests {
		w.count++
		return Decision{Allowed: true}
	}

	return Decision{
		Allowed:    false,
		RetryAfter: w.start.Add(l.cfg.Window).Sub(now),
	}
}

// Reap drops windows that have rolled over. Called by the janitor.
func (l *FixedWindow) Reap() {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, w := range l.windows {
		if now.Sub(w.start) >= l.cfg.Window {
			delete(l.windows, key)
		}
	}
}

// BucketLimiter applies a per-key token bucket, used for the general route
// category where smooth throttling beats hard windows.
type BucketLimiter struct {
	rps   rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*bucketEntry
}

type bucketEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewBucketLimiter creates a token-bucket limiter allowing rps sustained
// requests per second with the given burst per key.
func NewBucketLimiter(rps float64, burst int) *BucketLimiter {
	return &BucketLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		buckets: make(map[string]*bucketEntry),
	}
}

// Allow implements Limiter.
func (l *BucketLimiter) Allow(key string) Decision {
	l.mu.Lock()
	entry, ok := l.buckets[key]
	if !ok {
		entry = &bucketEntry{lim: rate.NewLimiter(l.rps, l.burst)}
		l.buckets[key] = entry
	}
	entry.lastSeen = time.Now()
	l.mu.Unlock()

	if entry.lim.Allow() {
		return Decision{Allowed: true}
	}

	retryAfter := time.Duration(math.Ceil(1/float64(l.rps))) * time.Second
	if retryAfter < time.Second {
		retryAfter = time.Second
	}
	return Decision{Allowed: false, RetryAfter: retryAfter}
}

// Reap drops buckets idle longer than the reset window.
func (l *BucketLimiter) Reap() {
	cutoff := time.Now().Add(-FailureResetWindow)
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, entry := range l.buckets {
		if entry.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}
