package file

import (
	"fmt"
	"os"
	"path/filepath"
)

// dirName is the per-user application directory under $HOME.
const dirName = ".pdfchat"

// DefaultDir returns ~/.pdfchat.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// DataDir returns the storage directory. An empty configured path selects
// ~/.pdfchat/data. The directory is created if missing.
func DataDir(configured string) (string, error) {
	dir := configured
	if dir == "" {
		base, err := DefaultDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(base, "data")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return dir, nil
}
