package breaker

import (
	"log/slog"
	"sync"
)

// Registry owns the process's breakers, keyed by dependency name. Breakers
// are created lazily on first use and live for the process lifetime. The
// registry is constructed at startup and passed by reference wherever it is
// needed; there is no package-level instance.
type Registry struct {
	cfg    Config
	opts   []BreakerOption
	logger *slog.Logger

	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewRegistry creates a registry whose breakers share cfg and opts.
func NewRegistry(cfg Config, logger *slog.Logger, opts ...BreakerOption) *Registry {
	return &Registry{
		cfg:      cfg,
		opts:     opts,
		logger:   logger,
		breakers: make(map[string]*Breaker),
	}
}

// Get returns the breaker for the named dependency, creating it on first use.
func (r *Registry) Get(name string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.breakers[name]; ok {
		return b
	}

	opts := append([]BreakerOption{WithLogger(r.logger)}, r.opts...)
	b := New(name, r.cfg, opts...)
	r.breakers[name] = b
	return b
}

// Names returns the names of all breakers created so far.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.breakers))
	for name := range r.breakers {
		names = append(names, name)
	}
	return names
}
