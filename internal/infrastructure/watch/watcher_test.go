package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/specguard/pkg/domain/compliance"
)

type recorder struct {
	mu      sync.Mutex
	batches [][]ChangeEvent
}

func (r *recorder) record(batch []ChangeEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, batch)
}

func (r *recorder) paths() map[string]bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]bool)
	for _, b := range r.batches {
		for _, e := range b {
			out[e.Path] = true
		}
	}
	return out
}

func startWatcher(t *testing.T, root string, opts Options, rec *recorder) context.CancelFunc {
	t.Helper()
	w, err := NewFSWatcher(root, opts, rec.record)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = w.Run(ctx)
	}()
	// Give watcher time to register directories
	time.Sleep(100 * time.Millisecond)
	return cancel
}

func TestFSWatcher_BatchesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "docs"), 0o755); err != nil {
		t.Fatal(err)
	}

	rec := &recorder{}
	cancel := startWatcher(t, dir, Options{Debounce: 50 * time.Millisecond}, rec)
	defer cancel()

	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "docs", "guide.md"), []byte("# g"), 0o600); err != nil {
		t.Fatal(err)
	}

	time.Sleep(300 * time.Millisecond)

	got := rec.paths()
	if !got["README.md"] || !got["docs/guide.md"] {
		t.Errorf("expected README.md and docs/guide.md, got %v", got)
	}
}

func TestFSWatcher_IgnoresExcludedDirsAndPatterns(t *testing.T) {
	dir := t.TempDir()
	for _, d := range []string{"node_modules", ".git", "out"} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	rec := &recorder{}
	opts := Options{
		Debounce: 50 * time.Millisecond,
		Filter:   NewPatternFilter(nil, []string{"*.log"}),
	}
	cancel := startWatcher(t, dir, opts, rec)
	defer cancel()

	for _, rel := range []string{"node_modules/x.js", ".git/HEAD", "out/a.bin", "debug.log"} {
		if err := os.WriteFile(filepath.Join(dir, filepath.FromSlash(rel)), []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	time.Sleep(300 * time.Millisecond)

	for path := range rec.paths() {
		t.Errorf("unexpected change reported: %s", path)
	}
}

func TestFSWatcher_RejectsMissingRoot(t *testing.T) {
	_, err := NewFSWatcher(filepath.Join(t.TempDir(), "missing"), Options{}, nil)
	if !errors.Is(err, compliance.ErrPath) {
		t.Fatalf("expected path error, got %v", err)
	}
}

func TestFSWatcher_ContextCancellation(t *testing.T) {
	w, err := NewFSWatcher(t.TempDir(), Options{Debounce: 50 * time.Millisecond}, func([]ChangeEvent) {})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx)
	}()

	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("watcher did not stop after context cancellation")
	}
}
