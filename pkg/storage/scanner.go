package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/felixgeelhaar/specguard/pkg/domain/compliance"
)

// DefaultExcludes are directory names never descended into: version control,
// build output and dependency caches. Hidden directories are skipped as well.
var DefaultExcludes = []string{
	".git", ".hg", ".svn",
	"target", "build", "dist", "out", "bin",
	"node_modules", "vendor", "__pycache__", ".venv",
}

// Scanner discovers regular files below a root in a single traversal.
type Scanner struct {
	skipDirs map[string]bool
	logger   *slog.Logger
}

// NewScanner returns a scanner that skips DefaultExcludes plus extra names.
func NewScanner(logger *slog.Logger, extra ...string) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	skip := make(map[string]bool, len(DefaultExcludes)+len(extra))
	for _, name := range DefaultExcludes {
		skip[name] = true
	}
	for _, name := range extra {
		if name = strings.Trim(strings.TrimSpace(name), "/"); name != "" {
			skip[name] = true
		}
	}
	return &Scanner{skipDirs: skip, logger: logger}
}

// ValidateRoot returns the absolute root or a PathError.
func ValidateRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", &compliance.PathError{Path: root, Reason: "cannot resolve", Err: err}
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &compliance.PathError{Path: abs, Reason: "does not exist"}
		}
		return "", &compliance.PathError{Path: abs, Reason: "cannot stat", Err: err}
	}
	if !info.IsDir() {
		return "", &compliance.PathError{Path: abs, Reason: "is not a directory"}
	}
	return abs, nil
}

// Scan returns every regular file reachable from root as a sorted list of
// slash-separated relative paths. Symlinked directories are followed once;
// directories are tracked by canonical path so link cycles terminate.
func (s *Scanner) Scan(root string) ([]string, error) {
	abs, err := ValidateRoot(root)
	if err != nil {
		return nil, err
	}

	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, &compliance.PathError{Path: abs, Reason: "cannot resolve", Err: err}
	}

	visited := map[string]bool{canonical: true}
	var files []string
	if err := s.walk(abs, "", visited, &files); err != nil {
		return nil, err
	}
	sort.Strings(files)

	s.logger.Debug("scan complete", "root", abs, "files", len(files))
	return files, nil
}

func (s *Scanner) walk(dir, rel string, visited map[string]bool, files *[]string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if rel == "" {
			return &compliance.PathError{Path: dir, Reason: "cannot read", Err: err}
		}
		// Unreadable subdirectories are skipped, not fatal.
		s.logger.Warn("skipping unreadable directory", "path", rel, "error", err)
		return nil
	}

	for _, entry := range entries {
		name := entry.Name()
		full := filepath.Join(dir, name)
		childRel := path.Join(rel, name)

		info, err := os.Stat(full) // follows symlinks
		if err != nil {
			s.logger.Debug("skipping dangling entry", "path", childRel, "error", err)
			continue
		}

		if info.IsDir() {
			if s.SkipsDir(name) {
				continue
			}
			canon, err := filepath.EvalSymlinks(full)
			if err != nil {
				continue
			}
			if visited[canon] {
				continue
			}
			visited[canon] = true
			if err := s.walk(full, childRel, visited, files); err != nil {
				return err
			}
			continue
		}

		if info.Mode().IsRegular() {
			*files = append(*files, childRel)
		}
	}
	return nil
}

// SkipsDir reports whether a directory with this name is never descended into.
func (s *Scanner) SkipsDir(name string) bool {
	return s.skipDirs[name] || strings.HasPrefix(name, ".")
}

// String describes the scanner configuration for logs.
func (s *Scanner) String() string {
	names := make([]string, 0, len(s.skipDirs))
	for n := range s.skipDirs {
		names = append(names, n)
	}
	sort.Strings(names)
	return fmt.Sprintf("Scanner(skip=%s)", strings.Join(names, ","))
}
