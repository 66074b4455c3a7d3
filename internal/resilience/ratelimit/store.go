package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Store persists failure-tracking entries keyed by client identity. The
// in-memory implementation serves single-instance deployments; the Redis
// implementation shares state between instances.
type Store interface {
	// Get returns the entry for key and whether one exists.
	Get(ctx context.Context, key string) (Entry, bool, error)

	// Put stores the entry for key.
	Put(ctx context.Context, key string, e Entry) error

	// Delete removes the entry for key. Removing a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error
}

// MemoryStore is a mutex-guarded in-memory Store. Stale entries are removed
// by the janitor so the map does not grow without bound.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]Entry),
		now:     time.Now,
	}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	return e, ok, nil
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, key string, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = e
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Len returns the number of tracked keys (for tests and metrics).
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Reap removes entries whose last attempt is older than the reset window.
func (s *MemoryStore) Reap() {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.entries {
		if Stale(e, now) {
			delete(s.entries, key)
		}
	}
}

// StartJanitor reaps stale entries every interval until ctx is done.
func (s *MemoryStore) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Reap()
			}
		}
	}()
}
