package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
)

// FileStore reads project files relative to a root. Transient read errors are
// retried; a missing file is reported immediately as fs.ErrNotExist.
type FileStore struct {
	root        string
	retryConfig retry.Config
}

// NewFileStore creates a store rooted at root.
func NewFileStore(root string) *FileStore {
	return &FileStore{
		root: root,
		retryConfig: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  10 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// Root returns the directory the store is bound to.
func (s *FileStore) Root() string {
	return s.root
}

// ResolvePath joins rel onto the root and rejects traversal outside it.
func (s *FileStore) ResolvePath(rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	full := filepath.Clean(filepath.Join(s.root, filepath.FromSlash(rel)))
	base := filepath.Clean(s.root)
	if full != base && !strings.HasPrefix(full, base+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid file path: %s", rel)
	}
	return full, nil
}

// ReadFile returns the content of rel.
func (s *FileStore) ReadFile(rel string) ([]byte, error) {
	path, err := s.ResolvePath(rel)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("read %s: %w", rel, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("stat %s: %w", rel, err)
	}

	retryer := retry.New[[]byte](s.retryConfig)
	return retryer.Do(context.Background(), func(ctx context.Context) ([]byte, error) {
		// #nosec G304 -- Path is resolved and validated via ResolvePath
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", rel, err)
		}
		return data, nil
	})
}

// WriteFile writes data to an absolute or root-relative path, creating parent
// directories as needed.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	// G306: generated documents are meant to be committed and shared.
	if err := os.WriteFile(path, data, 0o644); err != nil { // #nosec G306
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
