package markdown

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

var (
	codeFence    = regexp.MustCompile("(?m)^[ \\t]*```[^\\n]*\\n?")
	inlineCode   = regexp.MustCompile("`([^`]+)`")
	images       = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	links        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings     = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	strong       = regexp.MustCompile(`(\*\*|__)([^*_\n]+)(\*\*|__)`)
	emphasis     = regexp.MustCompile(`\*([^*\n]+)\*`)
	blockquote   = regexp.MustCompile(`(?m)^>\s?`)
	hr           = regexp.MustCompile(`(?m)^[ \t]*([-*_][ \t]*){3,}$`)
	tableRule    = regexp.MustCompile(`(?m)^\|?([ \t]*:?-{3,}:?[ \t]*\|)+[ \t]*(:?-*:?)?[ \t]*$\n?`)
	listMarkers  = regexp.MustCompile(`(?m)^([ \t]*)[-*+][ \t]+`)
	numbered     = regexp.MustCompile(`(?m)^([ \t]*)\d+\.[ \t]+`)
	manyNewlines = regexp.MustCompile(`\n{3,}`)
)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Name returns the normaliser name.
func (n *Normaliser) Name() string {
	return "markdown"
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".md", ".markdown"}
}

// Normalise reads a markdown file and returns its text with formatting simplified.
func (n *Normaliser) Normalise(_ context.Context, path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrExtractionFailure, err)
	}
	return stripMarkdown(strings.ReplaceAll(string(b), "\r\n", "\n")), nil
}

// stripMarkdown removes common markdown syntax while keeping the words,
// including the contents of code blocks.
func stripMarkdown(content string) string {
	content = codeFence.ReplaceAllString(content, "")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = images.ReplaceAllString(content, "")
	content = links.ReplaceAllString(content, "$1")
	content = headings.ReplaceAllString(content, "")
	content = strong.ReplaceAllString(content, "$2")
	content = emphasis.ReplaceAllString(content, "$1")
	content = blockquote.ReplaceAllString(content, "")
	content = tableRule.ReplaceAllString(content, "")
	content = hr.ReplaceAllString(content, "")
	content = listMarkers.ReplaceAllString(content, "$1")
	content = numbered.ReplaceAllString(content, "$1")
	content = manyNewlines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
