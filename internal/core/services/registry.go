package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
)

// Ensure AdapterRegistry implements the interface.
var _ driven.AdapterFactory = (*AdapterRegistry)(nil)

// AdapterConstructor builds an adapter from a source configuration.
type AdapterConstructor func(ctx context.Context, source domain.Source) (driven.SourceAdapter, error)

// AdapterRegistry maps source types to adapter constructors. Adapters
// register themselves at wiring time; the core never imports them.
type AdapterRegistry struct {
	constructors map[string]AdapterConstructor
}

// NewAdapterRegistry creates an empty registry.
func NewAdapterRegistry() *AdapterRegistry {
	return &AdapterRegistry{
		constructors: make(map[string]AdapterConstructor),
	}
}

// Register adds a constructor for a source type, replacing any
// previous registration for the same type.
func (r *AdapterRegistry) Register(sourceType string, constructor AdapterConstructor) {
	r.constructors[sourceType] = constructor
}

// Types returns the registered source types.
func (r *AdapterRegistry) Types() []string {
	types := make([]string, 0, len(r.constructors))
	for t := range r.constructors {
		types = append(types, t)
	}
	return types
}

// Create builds an adapter for the source.
func (r *AdapterRegistry) Create(ctx context.Context, source domain.Source) (driven.SourceAdapter, error) {
	constructor, ok := r.constructors[source.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedType, source.Type)
	}
	return constructor(ctx, source)
}
