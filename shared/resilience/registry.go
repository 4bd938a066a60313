package resilience

import (
	"sync"
)

// Registry hands out one breaker per named dependency. It is an explicit,
// injected object rather than a package-level singleton so tests and multiple
// application contexts never share breaker state by accident.
type Registry struct {
	mu       sync.Mutex
	cfg      BreakerConfig
	breakers map[string]*Breaker
}

func NewRegistry(cfg BreakerConfig) *Registry {
	return &Registry{
		cfg:      cfg,
		breakers: map[string]*Breaker{},
	}
}

// Get returns the breaker for the dependency, creating it on first use.
func (r *Registry) Get(name string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	breaker, ok := r.breakers[name]
	if !ok {
		breaker = NewBreaker(name, r.cfg)
		r.breakers[name] = breaker
	}

	return breaker
}
