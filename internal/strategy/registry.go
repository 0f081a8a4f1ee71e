package strategy

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages the named collection of signal strategies. It is safe for
// concurrent use.
type Registry struct {
	strategies map[string]Strategy
	mu         sync.RWMutex
}

// NewRegistry returns an empty, ready-to-use Registry.
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[string]Strategy),
	}
}

// Default returns a Registry populated with every built-in strategy variant.
func Default() *Registry {
	r := NewRegistry()
	for _, s := range []Strategy{
		NewTrailingSurge(),
		NewLateOver(),
		NewHandicapPressure(),
		NewDrawBreak(),
	} {
		r.Register(s)
	}
	return r
}

// Register adds a strategy under its own ID. An existing strategy with the
// same ID is replaced.
func (r *Registry) Register(s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[s.ID()] = s
}

// Get retrieves a strategy by ID.
func (r *Registry) Get(id string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.strategies[id]
	if !ok {
		return nil, fmt.Errorf("strategy %q: not registered", id)
	}
	return s, nil
}

// List returns all registered strategy IDs in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.strategies))
	for id := range r.strategies {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
