package command

import (
	"fmt"
	"sort"
	"sync"
)

// Config is the decoded script entry for one command (opaque to the
// registry).
type Config map[string]any

// Factory constructs a command from its script configuration.
type Factory func(Config) (Command, error)

// Registry maintains known command factories keyed by script name.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register installs a command factory. Returns an error if the name already
// exists.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("command: name is required")
	}
	if factory == nil {
		return fmt.Errorf("command: factory is required for %s", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("command: %s already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(name string, factory Factory) {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// Resolve constructs a command by name.
func (r *Registry) Resolve(name string, cfg Config) (Command, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("command: unknown command %s", name)
	}
	cmd, err := factory(cfg)
	if err != nil {
		return nil, err
	}
	if err := cmd.Info().Validate(); err != nil {
		return nil, err
	}
	return cmd, nil
}

// Names returns a sorted list of registered command names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
