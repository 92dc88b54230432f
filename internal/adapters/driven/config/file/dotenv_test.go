package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDotEnv_Precedence(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.env")
	second := filepath.Join(dir, "second.env")
	require.NoError(t, os.WriteFile(first, []byte("PDFCHAT_TEST_A=first\nPDFCHAT_TEST_C=file\n"), 0600))
	require.NoError(t, os.WriteFile(second, []byte("PDFCHAT_TEST_A=second\nPDFCHAT_TEST_B=second\n"), 0600))

	t.Setenv("PDFCHAT_TEST_C", "process")

	// t.Setenv restores these on cleanup.
	t.Setenv("PDFCHAT_TEST_A", "")
	t.Setenv("PDFCHAT_TEST_B", "")
	require.NoError(t, os.Unsetenv("PDFCHAT_TEST_A"))
	require.NoError(t, os.Unsetenv("PDFCHAT_TEST_B"))

	require.NoError(t, LoadDotEnv(first, filepath.Join(dir, "missing.env"), second))

	assert.Equal(t, "first", os.Getenv("PDFCHAT_TEST_A"))
	assert.Equal(t, "second", os.Getenv("PDFCHAT_TEST_B"))
	assert.Equal(t, "process", os.Getenv("PDFCHAT_TEST_C"))
}

func TestSaveSecret(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PDFCHAT_TEST_KEY", "")

	require.NoError(t, SaveSecret(dir, "OTHER_VALUE", "keep"))
	require.NoError(t, SaveSecret(dir, "PDFCHAT_TEST_KEY", "sk-new"))

	env, err := godotenv.Read(filepath.Join(dir, EnvFileName))
	require.NoError(t, err)
	assert.Equal(t, "keep", env["OTHER_VALUE"])
	assert.Equal(t, "sk-new", env["PDFCHAT_TEST_KEY"])
	assert.Equal(t, "sk-new", os.Getenv("PDFCHAT_TEST_KEY"))

	info, err := os.Stat(filepath.Join(dir, EnvFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	t.Cleanup(func() { _ = os.Unsetenv("OTHER_VALUE") })
}

func TestDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	got, err := DataDir(dir)

	require.NoError(t, err)
	assert.Equal(t, dir, got)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
