// Package jailfs tests confirm operations stay inside the root.
package jailfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

// TestCreateAndReadInsideRoot writes and reads through the jail.
func TestCreateAndReadInsideRoot(t *testing.T) {
	root := t.TempDir()
	fs := New(root)

	f, err := fs.Create("sub/dir/a.txt")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.WriteString("hello"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	b, err := afero.ReadFile(fs, "sub/dir/a.txt")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(b) != "hello" {
		t.Fatalf("content=%q", b)
	}
	if _, err := os.Stat(filepath.Join(root, "sub", "dir", "a.txt")); err != nil {
		t.Fatalf("file not under root: %v", err)
	}
}

// TestTraversalNamesStayInside maps hostile names into the root.
func TestTraversalNamesStayInside(t *testing.T) {
	root := t.TempDir()
	fs := New(root)

	f, err := fs.Create("../../escape.txt")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_ = f.Close()

	if _, err := os.Stat(filepath.Join(root, "escape.txt")); err != nil {
		t.Fatalf("expected file inside root: %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(root), "escape.txt")); err == nil {
		t.Fatalf("file escaped the root")
	}
}

// TestRemoveAllRefusesRoot keeps the share root itself intact.
func TestRemoveAllRefusesRoot(t *testing.T) {
	root := t.TempDir()
	fs := New(root)

	if err := fs.RemoveAll(""); err == nil {
		t.Fatalf("expected RemoveAll on root to fail")
	}
	if _, err := os.Stat(root); err != nil {
		t.Fatalf("root should survive: %v", err)
	}
}

// TestRenameWithinJail moves files between jailed paths.
func TestRenameWithinJail(t *testing.T) {
	root := t.TempDir()
	fs := New(root)

	f, err := fs.Create("a.txt")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_ = f.Close()
	if err := fs.Rename("a.txt", "nested/b.txt"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if _, err := fs.Stat("nested/b.txt"); err != nil {
		t.Fatalf("Stat: %v", err)
	}
}
