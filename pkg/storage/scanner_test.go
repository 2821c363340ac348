package storage

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/felixgeelhaar/specguard/pkg/domain/compliance"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}

func TestScanSortedRelativePaths(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"README.md":          "# x",
		"docs/b.md":          "b",
		"docs/a.md":          "a",
		"src/main.go":        "package main",
		"node_modules/x.js":  "x",
		".git/config":        "",
		".github/CODEOWNERS": "* @a",
		"target/out.bin":     "",
	})

	files, err := NewScanner(nil).Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := []string{"README.md", "docs/a.md", "docs/b.md", "src/main.go"}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("Scan() = %v, want %v", files, want)
	}
}

func TestScanExtraExcludes(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"keep/a.md":      "a",
		"generated/b.md": "b",
	})

	files, err := NewScanner(nil, "generated/").Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !reflect.DeepEqual(files, []string{"keep/a.md"}) {
		t.Errorf("Scan() = %v", files)
	}
}

func TestScanSymlinkCycleTerminates(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"docs/a.md": "a"})
	if err := os.Symlink(root, filepath.Join(root, "docs", "loop")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	files, err := NewScanner(nil).Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !reflect.DeepEqual(files, []string{"docs/a.md"}) {
		t.Errorf("Scan() = %v", files)
	}
}

func TestScanRootErrors(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "plain.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	for name, path := range map[string]string{
		"missing": filepath.Join(root, "nope"),
		"file":    file,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewScanner(nil).Scan(path)
			if !errors.Is(err, compliance.ErrPath) {
				t.Fatalf("expected path error, got %v", err)
			}
			var pe *compliance.PathError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *PathError, got %T", err)
			}
		})
	}
}

func TestScannerSkipsDir(t *testing.T) {
	s := NewScanner(nil, " generated/ ")
	for _, name := range []string{".git", ".cache", "node_modules", "generated"} {
		if !s.SkipsDir(name) {
			t.Errorf("SkipsDir(%q) = false", name)
		}
	}
	if s.SkipsDir("docs") {
		t.Error("SkipsDir(docs) = true")
	}
}
