package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/logger"
)

// DefaultDebounce is how long a file must be quiet before its change is
// reported. PDF writers usually flush in several writes.
const DefaultDebounce = 750 * time.Millisecond

// ErrWatcherClosed is returned by Watch after Close.
var ErrWatcherClosed = errors.New("watcher is closed")

// Option configures a Watcher.
type Option func(*Watcher)

// WithFilter limits reported files to those accepted by fn.
func WithFilter(fn func(path string) bool) Option {
	return func(w *Watcher) {
		if fn != nil {
			w.filter = fn
		}
	}
}

// WithDebounce sets the quiet period before changes are reported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// Watcher reports settled file changes below a root directory.
// Hidden files and directories are ignored.
type Watcher struct {
	root     string
	filter   func(string) bool
	debounce time.Duration

	mu       sync.Mutex
	closed   bool
	fsw      *fsnotify.Watcher
	cancelFn context.CancelFunc
}

// New creates a watcher for root.
func New(root string, opts ...Option) *Watcher {
	w := &Watcher{
		root:     root,
		filter:   func(string) bool { return true },
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Root returns the watched directory.
func (w *Watcher) Root() string {
	return w.root
}

// Scan lists every accepted file below root, sorted by path.
func (w *Watcher) Scan(ctx context.Context) ([]string, error) {
	if err := w.checkRoot(); err != nil {
		return nil, err
	}

	var paths []string
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("skipping %s: %v", path, err)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if path != w.root && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && w.filter(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}

// Watch starts watching and returns a channel of settled changes.
// The channel closes when ctx is cancelled or the watcher is closed.
func (w *Watcher) Watch(ctx context.Context) (<-chan domain.FileChange, error) {
	if err := w.checkRoot(); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, ErrWatcherClosed
	}
	if w.fsw != nil {
		return nil, fmt.Errorf("already watching %s", w.root)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.addTree(fsw, w.root); err != nil {
		fsw.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	w.fsw = fsw
	w.cancelFn = cancel

	changes := make(chan domain.FileChange)
	go w.loop(ctx, fsw, changes)
	return changes, nil
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	if w.cancelFn != nil {
		w.cancelFn()
	}
	return nil
}

func (w *Watcher) checkRoot() error {
	info, err := os.Stat(w.root)
	if err != nil {
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path error: %s is not a directory", w.root)
	}
	return nil
}

// addTree watches dir and its visible subdirectories; fsnotify is not recursive.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, out chan<- domain.FileChange) {
	defer close(out)
	defer fsw.Close()

	pending := make(map[string]domain.ChangeType)
	var settle <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !w.hidden(event.Name) {
					if err := w.addTree(fsw, event.Name); err != nil {
						logger.Warn("%v", err)
					}
				}
			}
			change := w.handleFsEvent(event)
			if change == nil {
				continue
			}
			prev, seen := pending[change.Path]
			pending[change.Path] = mergeChange(prev, change.Type, seen)
			settle = time.After(w.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("watch error: %v", err)

		case <-settle:
			settle = nil
			if !flush(ctx, pending, out) {
				return
			}
			pending = make(map[string]domain.ChangeType)
		}
	}
}

// handleFsEvent converts an fsnotify event into a change, or nil when the
// event is irrelevant (directories, hidden or filtered files, chmod).
func (w *Watcher) handleFsEvent(event fsnotify.Event) *domain.FileChange {
	path := event.Name
	if w.hidden(path) || !w.filter(path) {
		return nil
	}

	var changeType domain.ChangeType
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		changeType = domain.ChangeDeleted
	case event.Has(fsnotify.Create):
		changeType = domain.ChangeCreated
	case event.Has(fsnotify.Write):
		changeType = domain.ChangeUpdated
	default:
		return nil
	}

	if changeType != domain.ChangeDeleted {
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			return nil
		}
	}

	return &domain.FileChange{Type: changeType, Path: path, At: time.Now()}
}

// mergeChange folds a new event into the pending change for the same path.
func mergeChange(prev, next domain.ChangeType, hasPrev bool) domain.ChangeType {
	if !hasPrev {
		return next
	}
	switch {
	case next == domain.ChangeDeleted:
		return domain.ChangeDeleted
	case prev == domain.ChangeCreated:
		return domain.ChangeCreated
	case prev == domain.ChangeDeleted:
		// Deleted then recreated: the content may differ.
		return domain.ChangeUpdated
	default:
		return next
	}
}

// flush sends pending changes in path order. Returns false if ctx ended.
func flush(ctx context.Context, pending map[string]domain.ChangeType, out chan<- domain.FileChange) bool {
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	now := time.Now()
	for _, p := range paths {
		select {
		case out <- domain.FileChange{Type: pending[p], Path: p, At: now}:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

// hidden checks path relative to the root, so a root inside a dot
// directory still reports its own files.
func (w *Watcher) hidden(path string) bool {
	if rel, err := filepath.Rel(w.root, path); err == nil {
		return isHidden(rel)
	}
	return isHidden(path)
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
