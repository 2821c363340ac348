package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreReadFile(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"docs/guide.md": "hello"})
	store := NewFileStore(root)

	data, err := store.ReadFile("docs/guide.md")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("ReadFile() = %q", data)
	}

	if _, err := store.ReadFile("missing.md"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	store := NewFileStore(t.TempDir())
	if _, err := store.ReadFile("../outside.md"); err == nil {
		t.Fatal("expected traversal to be rejected")
	}
	if _, err := store.ResolvePath(""); err == nil {
		t.Fatal("expected empty path to be rejected")
	}
}

func TestWriteFileCreatesParents(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "a", "b", "c.txt")
	if err := WriteFile(target, []byte("x")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil || string(data) != "x" {
		t.Fatalf("read back: %q, %v", data, err)
	}
}
