package filesystem

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	cwd, err := os.Getwd()
	require.NoError(t, err)

	tests := []struct {
		name string
		uri  string
		want string
	}{
		{"file URI", "file:///srv/docs/manual.pdf", "/srv/docs/manual.pdf"},
		{"file URI with spaces", "file:///srv/my docs/a.pdf", "/srv/my docs/a.pdf"},
		{"absolute path", "/srv/docs/manual.pdf", "/srv/docs/manual.pdf"},
		{"relative path", "docs/manual.pdf", filepath.Join(cwd, "docs", "manual.pdf")},
		{"home", "~/papers/a.pdf", filepath.Join(home, "papers", "a.pdf")},
		{"empty", "", ""},
		{"prefix only", "file://", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolvePath(tt.uri)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpandPaths(t *testing.T) {
	dir := t.TempDir()
	write := func(rel string) string {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
		return path
	}
	b := write("folder/b.pdf")
	a := write("folder/a.pdf")
	write("folder/notes.docx")
	write("folder/.cache/c.pdf")
	single := write("single.txt")

	isPDF := func(p string) bool { return strings.HasSuffix(p, ".pdf") }
	missing := filepath.Join(dir, "missing.pdf")

	got, err := ExpandPaths([]string{single, filepath.Join(dir, "folder"), missing}, isPDF)

	require.NoError(t, err)
	assert.Equal(t, []string{single, a, b, missing}, got)
}
