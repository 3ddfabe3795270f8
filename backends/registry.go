// Package backends provides the storage backends a document tree can live in
// and a registry to pick one by name.
package backends

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/brettbedarf/jsontree"
	"github.com/puzpuzpuz/xsync/v4"
)

// Registry maps backend type names to their providers.
type Registry struct {
	providers *xsync.Map[string, jsontree.BackendProvider]
}

func NewRegistry() *Registry {
	return &Registry{
		providers: xsync.NewMap[string, jsontree.BackendProvider](),
	}
}

// Register ties a provider to a type name. The first registration of a name
// wins; later ones are ignored and reported by returning false.
func (r *Registry) Register(backendType string, provider jsontree.BackendProvider) bool {
	_, loaded := r.providers.LoadOrStore(backendType, provider)
	return !loaded
}

// GetProvider returns the provider registered under backendType.
func (r *Registry) GetProvider(backendType string) (jsontree.BackendProvider, error) {
	p, ok := r.providers.Load(backendType)
	if !ok {
		return nil, fmt.Errorf("no backend provider for %q", backendType)
	}
	return p, nil
}

// Types lists the registered type names in sorted order.
func (r *Registry) Types() []string {
	types := make([]string, 0, r.providers.Size())
	r.providers.Range(func(k string, _ jsontree.BackendProvider) bool {
		types = append(types, k)
		return true
	})
	slices.Sort(types)
	return types
}

// NewBackend picks the provider named by the "type" field of raw and hands it
// the full options.
func (r *Registry) NewBackend(raw []byte) (jsontree.Backend, error) {
	var meta struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("backend options: %w", err)
	}
	p, err := r.GetProvider(meta.Type)
	if err != nil {
		return nil, err
	}
	return p.NewBackend(raw)
}

var defaultRegistry = NewRegistry()

// Register adds a provider to the default registry.
func Register(backendType string, provider jsontree.BackendProvider) bool {
	return defaultRegistry.Register(backendType, provider)
}

// New builds a backend from raw JSON options using the default registry,
// which has the built-in backends registered.
func New(raw []byte) (jsontree.Backend, error) {
	return defaultRegistry.NewBackend(raw)
}

// Default returns the default registry.
func Default() *Registry {
	return defaultRegistry
}
