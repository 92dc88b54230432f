package normalisers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
)

type stubNormaliser struct {
	name string
	exts []string
	text string
}

func (s *stubNormaliser) Name() string                  { return s.name }
func (s *stubNormaliser) SupportedExtensions() []string { return s.exts }
func (s *stubNormaliser) Normalise(context.Context, string) (string, error) {
	return s.text, nil
}

func TestRegistry_Dispatch(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubNormaliser{name: "a", exts: []string{".PDF"}, text: "from a"})
	r.Register(&stubNormaliser{name: "b", exts: []string{".txt"}, text: "from b"})

	text, err := r.Normalise(context.Background(), "/tmp/Manual.pdf")
	require.NoError(t, err)
	assert.Equal(t, "from a", text)

	text, err = r.Normalise(context.Background(), "notes.TXT")
	require.NoError(t, err)
	assert.Equal(t, "from b", text)
}

func TestRegistry_LaterRegistrationWins(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubNormaliser{name: "first", exts: []string{".pdf"}, text: "first"})
	r.Register(&stubNormaliser{name: "second", exts: []string{".pdf"}, text: "second"})

	text, err := r.Normalise(context.Background(), "x.pdf")
	require.NoError(t, err)
	assert.Equal(t, "second", text)
}

func TestRegistry_Unsupported(t *testing.T) {
	r := NewRegistry()

	_, err := r.Normalise(context.Background(), "photo.png")
	assert.ErrorIs(t, err, domain.ErrExtractionFailure)
	assert.False(t, r.Supports("photo.png"))
	assert.False(t, r.Supports("Makefile"))
}

func TestDefaultRegistry(t *testing.T) {
	r := NewDefaultRegistry()

	assert.Equal(t, []string{".markdown", ".md", ".pdf", ".text", ".txt"}, r.SupportedExtensions())
	assert.True(t, r.Supports("manual.pdf"))
	assert.True(t, r.Supports("README.md"))
	assert.False(t, r.Supports("slides.pptx"))
}

func TestDefaultRegistry_PlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("Section B covers usage."), 0o600))

	text, err := NewDefaultRegistry().Normalise(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, "Section B covers usage.", text)
}
