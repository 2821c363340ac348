package compliance

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FileReader reads project files by root-relative path.
type FileReader interface {
	ReadFile(rel string) ([]byte, error)
}

// osReader is the fallback reader used when none is supplied.
type osReader struct{ root string }

func (r osReader) ReadFile(rel string) ([]byte, error) {
	// #nosec G304 -- rel is confined to root by ScanContext.Abs
	return os.ReadFile(filepath.Join(r.root, filepath.FromSlash(rel)))
}

// ScanContext is the immutable snapshot every check evaluates against.
// Files holds slash-separated paths relative to Root, sorted ascending.
type ScanContext struct {
	Root        string
	Files       []string
	ProjectType ProjectType
	Scope       Scope

	reader  FileReader
	fileSet map[string]struct{}

	mu   sync.Mutex
	memo map[string]*memoEntry
}

type memoEntry struct {
	once  sync.Once
	value any
}

// NewScanContext builds a context. The files slice is copied and sorted.
func NewScanContext(root string, files []string, projectType ProjectType, scope Scope, reader FileReader) *ScanContext {
	sorted := make([]string, len(files))
	copy(sorted, files)
	sort.Strings(sorted)

	set := make(map[string]struct{}, len(sorted))
	for _, f := range sorted {
		set[f] = struct{}{}
	}
	if reader == nil {
		reader = osReader{root: root}
	}
	return &ScanContext{
		Root:        root,
		Files:       sorted,
		ProjectType: projectType,
		Scope:       scope,
		reader:      reader,
		fileSet:     set,
		memo:        make(map[string]*memoEntry),
	}
}

// Abs resolves rel under Root. It returns false when rel escapes the root.
func (c *ScanContext) Abs(rel string) (string, bool) {
	clean := path.Clean(strings.TrimPrefix(filepath.ToSlash(rel), "./"))
	if clean == ".." || strings.HasPrefix(clean, "../") || path.IsAbs(clean) {
		return "", false
	}
	return filepath.Join(c.Root, filepath.FromSlash(clean)), true
}

// HasFile reports whether rel was discovered by the scanner.
func (c *ScanContext) HasFile(rel string) bool {
	_, ok := c.fileSet[path.Clean(filepath.ToSlash(rel))]
	return ok
}

// Stat looks rel up on disk. Unlike HasFile it sees excluded and hidden paths.
func (c *ScanContext) Stat(rel string) (fs.FileInfo, bool) {
	abs, ok := c.Abs(rel)
	if !ok {
		return nil, false
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, false
	}
	return info, true
}

// FileExists reports whether rel is a regular file under Root.
func (c *ScanContext) FileExists(rel string) bool {
	info, ok := c.Stat(rel)
	return ok && info.Mode().IsRegular()
}

// DirExists reports whether rel is a directory under Root.
func (c *ScanContext) DirExists(rel string) bool {
	info, ok := c.Stat(rel)
	return ok && info.IsDir()
}

// ReadFile returns the content of a root-relative file.
func (c *ScanContext) ReadFile(rel string) ([]byte, error) {
	if _, ok := c.Abs(rel); !ok {
		return nil, fs.ErrNotExist
	}
	return c.reader.ReadFile(path.Clean(filepath.ToSlash(rel)))
}

// FilesWithSuffix returns the discovered files whose name ends with one of suffixes.
func (c *ScanContext) FilesWithSuffix(suffixes ...string) []string {
	var out []string
	for _, f := range c.Files {
		lower := strings.ToLower(f)
		for _, s := range suffixes {
			if strings.HasSuffix(lower, s) {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

// FindRootFile returns the first root-level file whose name, without extension,
// equals one of names (case-insensitive).
func (c *ScanContext) FindRootFile(names ...string) (string, bool) {
	return findRootFile(c.Files, names)
}

// DetectProjectType reports open_source when the root carries a license file.
func DetectProjectType(files []string) ProjectType {
	if _, ok := findRootFile(files, []string{"LICENSE", "LICENCE", "COPYING"}); ok {
		return ProjectOpenSource
	}
	return ProjectInternal
}

func findRootFile(files, names []string) (string, bool) {
	for _, f := range files {
		if strings.Contains(f, "/") {
			continue
		}
		base := strings.ToUpper(strings.TrimSuffix(f, path.Ext(f)))
		for _, n := range names {
			if base == strings.ToUpper(n) {
				return f, true
			}
		}
	}
	return "", false
}

// Memo computes a value once per scan and shares it between checks.
// build must not mutate the context.
func (c *ScanContext) Memo(key string, build func() any) any {
	c.mu.Lock()
	e, ok := c.memo[key]
	if !ok {
		e = &memoEntry{}
		c.memo[key] = e
	}
	c.mu.Unlock()

	e.once.Do(func() { e.value = build() })
	return e.value
}

// Check is an executable rule instance.
type Check interface {
	Rule() RuleDef
	Evaluate(ctx *ScanContext) CheckResult
}
