package file

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
)

//go:embed prompts/*.txt prompts/README.md
var promptFiles embed.FS

var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore reads prompt templates from dir/<name>.txt. Files that do not
// exist yet are seeded from the built-in copies on first use, so users find
// something to edit. A template is re-read when its modification time
// changes.
type PromptStore struct {
	dir  string
	seed sync.Once

	mu    sync.Mutex
	cache map[string]cachedPrompt
}

type cachedPrompt struct {
	text    string
	modTime time.Time
}

// NewPromptStore returns a store over dir; "" means ~/.pdfchat/prompts.
// Nothing touches the disk until the first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		base, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]cachedPrompt)}, nil
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the template for name. An unreadable or missing user file
// falls back to the built-in template.
func (s *PromptStore) Load(name string) (string, error) {
	builtin, err := promptFiles.ReadFile("prompts/" + name + ".txt")
	if err != nil {
		return "", fmt.Errorf("unknown prompt %q", name)
	}
	s.seed.Do(s.seedDir)

	path := filepath.Join(s.dir, name+".txt")
	info, err := os.Stat(path)
	if err != nil {
		return strings.TrimSpace(string(builtin)), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.cache[name]; ok && c.modTime.Equal(info.ModTime()) {
		return c.text, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return strings.TrimSpace(string(builtin)), nil
	}
	text := strings.TrimSpace(string(data))
	s.cache[name] = cachedPrompt{text: text, modTime: info.ModTime()}
	return text, nil
}

// Reload forgets cached templates.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	clear(s.cache)
	s.mu.Unlock()
}

// seedDir copies missing built-in files into the directory. Failures leave
// the built-in templates in effect.
func (s *PromptStore) seedDir() {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return
	}
	_ = fs.WalkDir(promptFiles, "prompts", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		target := filepath.Join(s.dir, d.Name())
		if _, err := os.Stat(target); !errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		data, err := promptFiles.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o600)
	})
}
