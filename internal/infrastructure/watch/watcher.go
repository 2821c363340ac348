package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/felixgeelhaar/specguard/pkg/storage"
)

// ChangeEvent represents a filesystem change below the watched root.
type ChangeEvent struct {
	// Path is slash-separated and relative to the root.
	Path       string
	ChangeType string // "create", "write", "remove", "rename"
}

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	// Exclude names directories that are neither watched nor reported.
	Exclude []string
	Filter  *PatternFilter
	Logger  *slog.Logger
}

// FSWatcher watches a project tree and delivers debounced batches of changes.
type FSWatcher struct {
	watcher  *fsnotify.Watcher
	root     string
	debounce time.Duration
	scanner  *storage.Scanner
	filter   *PatternFilter
	logger   *slog.Logger
	onChange func([]ChangeEvent)

	mu      sync.Mutex
	pending map[string]ChangeEvent
}

// NewFSWatcher creates a watcher for root. onChange receives every change
// seen during one debounce window, ordered by path.
func NewFSWatcher(root string, opts Options, onChange func([]ChangeEvent)) (*FSWatcher, error) {
	abs, err := storage.ValidateRoot(root)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if opts.Debounce == 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	if opts.Filter == nil {
		opts.Filter = NewPatternFilter(nil, nil)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &FSWatcher{
		watcher:  w,
		root:     abs,
		debounce: opts.Debounce,
		scanner:  storage.NewScanner(opts.Logger, opts.Exclude...),
		filter:   opts.Filter,
		logger:   opts.Logger,
		onChange: onChange,
		pending:  make(map[string]ChangeEvent),
	}, nil
}

// Root returns the absolute watched directory.
func (w *FSWatcher) Root() string {
	return w.root
}

// WatchRecursive adds dir and its subdirectories, skipping the directories
// a scan would skip.
func (w *FSWatcher) WatchRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != w.root && w.scanner.SkipsDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// Run watches the root until ctx is cancelled.
func (w *FSWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.WatchRecursive(w.root); err != nil {
		return err
	}

	debouncer := NewDebouncer(w.debounce, w.flush)
	defer debouncer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			changeType := opToChangeType(event.Op)
			if changeType == "" {
				continue
			}

			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if w.scanner.SkipsDir(info.Name()) {
						continue
					}
					_ = w.WatchRecursive(event.Name)
				}
			}

			rel, ok := w.relative(event.Name)
			if !ok || !w.filter.Matches(rel) {
				continue
			}
			w.mu.Lock()
			w.pending[rel] = ChangeEvent{Path: rel, ChangeType: changeType}
			w.mu.Unlock()
			debouncer.Trigger()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

func (w *FSWatcher) relative(name string) (string, bool) {
	rel, err := filepath.Rel(w.root, name)
	if err != nil || rel == "." {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *FSWatcher) flush() {
	w.mu.Lock()
	batch := make([]ChangeEvent, 0, len(w.pending))
	for _, e := range w.pending {
		batch = append(batch, e)
	}
	w.pending = make(map[string]ChangeEvent)
	w.mu.Unlock()

	if len(batch) == 0 || w.onChange == nil {
		return
	}
	sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })
	w.logger.Debug("changes detected", "count", len(batch))
	w.onChange(batch)
}

func opToChangeType(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Write):
		return "write"
	case op.Has(fsnotify.Remove):
		return "remove"
	case op.Has(fsnotify.Rename):
		return "rename"
	default:
		return ""
	}
}
