package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// ResolvePath converts a user-supplied location to an absolute local path.
// Handles file:// URIs, a leading ~ and relative paths.
func ResolvePath(uri string) (string, error) {
	path := strings.TrimPrefix(uri, "file://")
	if path == "" {
		return "", nil
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}

	return filepath.Abs(path)
}

// ExpandPaths resolves each argument and replaces directories with the
// accepted files below them. Order follows the arguments; files inside a
// directory are sorted.
func ExpandPaths(args []string, accept func(string) bool) ([]string, error) {
	var out []string
	for _, arg := range args {
		path, err := ResolvePath(arg)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			// Missing files are reported by ingestion, not here.
			out = append(out, path)
			continue
		}
		files, err := New(path, WithFilter(accept)).Scan(context.Background())
		if err != nil {
			return nil, err
		}
		out = append(out, files...)
	}
	return out, nil
}
