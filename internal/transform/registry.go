package transform

import (
	"fmt"
	"sync"
)

// Registry resolves wire formats to their transformers. Registration happens
// explicitly at application construction; after that the registry is
// effectively read-only and safe for concurrent lookups.
type Registry struct {
	mu      sync.RWMutex
	formats map[Format]Transformer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{formats: make(map[Format]Transformer)}
}

// Register adds a transformer under its own format, replacing any previous
// registration for that format.
func (r *Registry) Register(t Transformer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formats[t.Format()] = t
}

// Lookup returns the transformer for the given format.
func (r *Registry) Lookup(f Format) (Transformer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.formats[f]
	if !ok {
		return nil, fmt.Errorf("%w: no transformer registered for format %q", ErrUnsupportedProvider, f)
	}
	return t, nil
}
