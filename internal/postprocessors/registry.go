// Package postprocessors builds the text splitters used during ingestion.
package postprocessors

import (
	"fmt"
	"maps"
	"slices"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
)

// Params are the chunking settings every splitter receives.
type Params struct {
	ChunkSize int
	Overlap   int
}

// Validate enforces 0 <= Overlap < ChunkSize.
func (p Params) Validate() error {
	if p.ChunkSize <= 0 || p.Overlap < 0 || p.Overlap >= p.ChunkSize {
		return fmt.Errorf("%w: splitter needs 0 <= overlap (%d) < chunk_size (%d)",
			domain.ErrInvalidConfig, p.Overlap, p.ChunkSize)
	}
	return nil
}

// BuilderFunc creates a splitter from validated params.
type BuilderFunc func(Params) (driven.TextSplitter, error)

// Registry maps splitter names to builders.
type Registry struct {
	builders map[string]BuilderFunc
}

func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]BuilderFunc)}
}

// Register adds or replaces the builder for name.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build validates p and runs the builder registered under name.
func (r *Registry) Build(name string, p Params) (driven.TextSplitter, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown splitter %q (have %v)", domain.ErrInvalidConfig, name, r.Names())
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return builder(p)
}

// Names returns the registered splitter names, sorted.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.builders))
}
