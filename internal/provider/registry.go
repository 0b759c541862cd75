package provider

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the configured providers, keyed by name. Instances address
// providers through their "provider/model" identifier, so a lookup happens
// on every invocation; reads take a shared lock.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider. A later registration under the same name
// replaces the earlier one, letting config overrides shadow defaults.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get retrieves a provider by name.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("no provider registered as %q", name)
	}
	return p, nil
}

// Has reports whether a provider is registered under the given name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[name]
	return ok
}

// List returns every registered provider in name order, so API responses
// and CLI tables come out stable across calls.
func (r *Registry) List() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		providers = append(providers, p)
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i].Name() < providers[j].Name() })
	return providers
}

// Available filters List down to providers whose CLI is installed.
func (r *Registry) Available() []Provider {
	var available []Provider
	for _, p := range r.List() {
		if p.Available() {
			available = append(available, p)
		}
	}
	return available
}

// Names returns the registered provider names in the same order as List.
func (r *Registry) Names() []string {
	providers := r.List()
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name()
	}
	return names
}
