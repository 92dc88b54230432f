package plaintext

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
)

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func TestNew(t *testing.T) {
	normaliser := New()
	require.NotNil(t, normaliser)
	assert.Equal(t, "plaintext", normaliser.Name())
}

func TestSupportedExtensions(t *testing.T) {
	exts := New().SupportedExtensions()
	assert.Contains(t, exts, ".txt")
}

func TestNormalise_Success(t *testing.T) {
	path := writeFile(t, "document.txt", []byte("This is plain text content."))

	content, err := New().Normalise(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, "This is plain text content.", content)
}

func TestNormalise_LineEndingsAndBOM(t *testing.T) {
	path := writeFile(t, "windows.txt", []byte("\ufeffline one\r\nline two\r\n"))

	content, err := New().Normalise(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\n", content)
}

func TestNormalise_EmptyContent(t *testing.T) {
	path := writeFile(t, "empty.txt", nil)

	content, err := New().Normalise(context.Background(), path)

	require.NoError(t, err)
	assert.Empty(t, content)
}

func TestNormalise_UnicodeContent(t *testing.T) {
	unicodeContent := "多语言文本测试\nこんにちは世界\nПривет мир\n🚀 Emoji test 🎉"
	path := writeFile(t, "unicode.txt", []byte(unicodeContent))

	content, err := New().Normalise(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, unicodeContent, content)
}

func TestNormalise_Binary(t *testing.T) {
	path := writeFile(t, "binary.txt", []byte{0xff, 0xfe, 0x00, 0x81})

	_, err := New().Normalise(context.Background(), path)

	assert.ErrorIs(t, err, domain.ErrExtractionFailure)
}

func TestNormalise_MissingFile(t *testing.T) {
	_, err := New().Normalise(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))

	assert.ErrorIs(t, err, domain.ErrExtractionFailure)
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}

func BenchmarkNormalise(b *testing.B) {
	path := filepath.Join(b.TempDir(), "bench.txt")
	if err := os.WriteFile(path, []byte("This is test content for benchmarking."), 0o600); err != nil {
		b.Fatal(err)
	}
	normaliser := New()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = normaliser.Normalise(ctx, path)
	}
}
