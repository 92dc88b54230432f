package normalisers

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
	"github.com/infinitegrit26/ACD2/internal/logger"
	"github.com/infinitegrit26/ACD2/internal/normalisers/markdown"
	"github.com/infinitegrit26/ACD2/internal/normalisers/pdf"
	"github.com/infinitegrit26/ACD2/internal/normalisers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry dispatches files to normalisers by extension.
type Registry struct {
	mu    sync.RWMutex
	byExt map[string]driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]driven.Normaliser)}
}

// NewDefaultRegistry creates a registry with the built-in normalisers.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}

// RegisterDefaults registers the PDF, plain text and markdown normalisers.
func RegisterDefaults(r driven.NormaliserRegistry) {
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(pdf.New())
}

// Register adds a normaliser for each of its extensions.
// A later registration for the same extension replaces the earlier one.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range n.SupportedExtensions() {
		r.byExt[strings.ToLower(ext)] = n
	}
}

// Normalise extracts text using the normaliser registered for the file's extension.
func (r *Registry) Normalise(ctx context.Context, path string) (string, error) {
	n, ok := r.lookup(path)
	if !ok {
		return "", fmt.Errorf("%w: unsupported file type %q", domain.ErrExtractionFailure, filepath.Ext(path))
	}
	logger.Debug("normalising %s with %s", filepath.Base(path), n.Name())
	return n.Normalise(ctx, path)
}

// Supports reports whether the file's extension has a normaliser.
func (r *Registry) Supports(path string) bool {
	_, ok := r.lookup(path)
	return ok
}

// SupportedExtensions returns every registered extension, sorted.
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func (r *Registry) lookup(path string) (driven.Normaliser, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.byExt[ext]
	return n, ok
}
