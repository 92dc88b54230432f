package plaintext

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Name returns the normaliser name.
func (n *Normaliser) Name() string {
	return "plaintext"
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".txt", ".text"}
}

// Normalise returns the file content with line endings unified.
// Files that are not valid UTF-8 are rejected.
func (n *Normaliser) Normalise(_ context.Context, path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrExtractionFailure, err)
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8 text", domain.ErrExtractionFailure, path)
	}
	content := strings.TrimPrefix(string(b), "\ufeff")
	return strings.ReplaceAll(content, "\r\n", "\n"), nil
}
