package file

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Path(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
	_, err = os.Stat(store.Path())
	assert.True(t, os.IsNotExist(err), "file is only written on first Set")
}

func TestConfigStore_WritesNestedTables(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("llm.model", "llama3.2"))
	require.NoError(t, store.Set("llm.provider", "ollama"))
	require.NoError(t, store.Set("chunking.size", 800))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[llm]")
	assert.Contains(t, string(data), "[chunking]")
	assert.NotContains(t, string(data), `"llm.model"`)
}

func TestConfigStore_Persistence(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Update(map[string]any{
		"retrieval.top_k": 7,
		"storage.backend": "memory",
	}))

	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)

	// TOML integers come back as int64.
	val, ok := reopened.Get("retrieval.top_k")
	require.True(t, ok)
	assert.Equal(t, int64(7), val)
	val, _ = reopened.Get("storage.backend")
	assert.Equal(t, "memory", val)
}

func TestConfigStore_ReadsHandWrittenFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[chunking]
size = 1200
overlap = 150

[llm]
provider = "anthropic"

[network]
request_timeout = "1m"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	for key, want := range map[string]any{
		"chunking.size":           int64(1200),
		"chunking.overlap":        int64(150),
		"llm.provider":            "anthropic",
		"network.request_timeout": "1m",
	} {
		got, ok := store.Get(key)
		require.True(t, ok, key)
		assert.Equal(t, want, got, key)
	}
}

func TestConfigStore_EmptyStringRemovesKey(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("llm.base_url", "http://localhost:11434"))
	require.NoError(t, store.Update(map[string]any{"llm.base_url": "", "llm.model": "m"}))

	_, ok := store.Get("llm.base_url")
	assert.False(t, ok)
	_, ok = store.Get("llm.model")
	assert.True(t, ok)
}

func TestConfigStore_FailedWriteKeepsState(t *testing.T) {
	if runtime.GOOS == "windows" || os.Getuid() == 0 {
		t.Skip("needs unix permissions and a non-root user")
	}
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.Chmod(dir, 0o500))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o700) })

	require.Error(t, store.Set("llm.model", "m"))

	_, ok := store.Get("llm.model")
	assert.False(t, ok)
}

func TestConfigStore_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[broken"), 0o600))

	_, err := NewConfigStore(dir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "config.toml")
}

func TestConfigStore_FilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("llm.api_key", "secret"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file is cleaned up")
}

func TestNest(t *testing.T) {
	nested := nest(map[string]any{
		"a.b":   1,
		"a.c.d": "x",
		"top":   true,
		"top.x": 2,
	})

	assert.Equal(t, map[string]any{
		"a":     map[string]any{"b": 1, "c": map[string]any{"d": "x"}},
		"top":   true,
		"top.x": 2,
	}, nested)
}

func TestFlatten(t *testing.T) {
	flat := flatten(map[string]any{
		"llm":   map[string]any{"model": "m", "opts": map[string]any{"t": 0.2}},
		"plain": 1,
	}, "")

	assert.Equal(t, map[string]any{"llm.model": "m", "llm.opts.t": 0.2, "plain": 1}, flat)
}
