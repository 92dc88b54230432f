package file

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigFileName is the name of the TOML file inside the config directory.
const ConfigFileName = "config.toml"

// ConfigStore keeps settings in config.toml. Keys are flat in memory
// ("llm.model") and written as nested tables ([llm] model = ...).
type ConfigStore struct {
	mu     sync.RWMutex
	path   string
	values map[string]any
}

// NewConfigStore opens dir/config.toml, creating dir if needed.
// An empty dir means DefaultDir. A missing file is an empty config.
func NewConfigStore(dir string) (*ConfigStore, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	s := &ConfigStore{path: filepath.Join(dir, ConfigFileName)}
	values, err := readTOML(s.path)
	if err != nil {
		return nil, err
	}
	s.values = values
	return s, nil
}

func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	return val, ok
}

func (s *ConfigStore) Set(key string, value any) error {
	return s.Update(map[string]any{key: value})
}

// Update merges values and rewrites the file once. On a write failure the
// in-memory state is left as it was.
func (s *ConfigStore) Update(values map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := maps.Clone(s.values)
	for key, value := range values {
		if str, ok := value.(string); ok && str == "" {
			delete(next, key)
			continue
		}
		next[key] = value
	}

	if err := writeTOML(s.path, next); err != nil {
		return err
	}
	s.values = next
	return nil
}

func (s *ConfigStore) Path() string {
	return s.path
}

func readTOML(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, err
	}

	var tree map[string]any
	if err := toml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return flatten(tree, ""), nil
}

// writeTOML replaces path through a temp file so a crash never leaves a
// half-written config. The file may hold API keys, hence 0600.
func writeTOML(path string, values map[string]any) error {
	data, err := toml.Marshal(nest(values))
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.toml")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return os.Rename(tmp.Name(), path)
}

// flatten turns {"a": {"b": 1}} into {"a.b": 1}.
func flatten(tree map[string]any, prefix string) map[string]any {
	out := make(map[string]any)
	for key, value := range tree {
		if prefix != "" {
			key = prefix + "." + key
		}
		if table, ok := value.(map[string]any); ok {
			maps.Copy(out, flatten(table, key))
			continue
		}
		out[key] = value
	}
	return out
}

// nest is the inverse of flatten. A key whose parent is already a scalar
// stays flat and is written quoted.
func nest(flat map[string]any) map[string]any {
	root := make(map[string]any)
	for _, key := range slices.Sorted(maps.Keys(flat)) {
		parts := strings.Split(key, ".")
		table := root
		for _, part := range parts[:len(parts)-1] {
			child, exists := table[part]
			if !exists {
				child = make(map[string]any)
				table[part] = child
			}
			next, ok := child.(map[string]any)
			if !ok {
				table = nil
				break
			}
			table = next
		}
		if table == nil {
			root[key] = flat[key]
			continue
		}
		table[parts[len(parts)-1]] = flat[key]
	}
	return root
}
