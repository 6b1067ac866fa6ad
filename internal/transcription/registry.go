package transcription

import (
	"sort"
	"sync"

	"github.com/skillsenselab/scribeq/internal/errors"
)

// Factory creates a runner for a given model size.
type Factory func(model string) (Runner, error)

// Registry manages named runner factories. Engine names outside the
// registered set fail with UNKNOWN_ENGINE — a configuration error, not a
// transient one.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// RegisterFactory registers a named factory for creating runners.
func (r *Registry) RegisterFactory(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Create instantiates a runner for the named engine and model size.
func (r *Registry) Create(engine, model string) (Runner, error) {
	r.mu.RLock()
	factory, ok := r.factories[engine]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.UnknownEngine(engine)
	}
	return factory(model)
}

// Known reports whether the engine name is registered.
func (r *Registry) Known(engine string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[engine]
	return ok
}

// List returns sorted names of all registered engines.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
