package postprocessors

import (
	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
	"github.com/infinitegrit26/ACD2/internal/postprocessors/chunker"
)

// DefaultSplitter is the splitter used for ingestion.
const DefaultSplitter = "chunker"

// RegisterDefaults registers the built-in splitters.
func RegisterDefaults(r *Registry) {
	r.Register(DefaultSplitter, func(p Params) (driven.TextSplitter, error) {
		return chunker.New(chunker.WithChunkSize(p.ChunkSize), chunker.WithOverlap(p.Overlap)), nil
	})
}

// SplitterFromConfig builds the default splitter from the chunking settings.
func SplitterFromConfig(cfg domain.Config) (driven.TextSplitter, error) {
	r := NewRegistry()
	RegisterDefaults(r)
	return r.Build(DefaultSplitter, Params{ChunkSize: cfg.ChunkSize, Overlap: cfg.ChunkOverlap})
}
