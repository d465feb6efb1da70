// Package fsutil maps caller-supplied paths onto share roots safely.
package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathEscape is returned when a path would resolve outside its root.
var ErrPathEscape = errors.New("path escapes share root")

// Resolve maps a user-provided relative path to a local filesystem path
// under root. The caller-supplied value is never trusted: separators are
// normalized, "." and ".." segments are collapsed, any leading run of
// ".." segments is stripped, and the joined result must still sit inside
// root. Symlink components that point outside root are rejected too.
func Resolve(root, userPath string) (string, error) {
	if root == "" {
		return "", errors.New("root is required")
	}
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	rootAbs = filepath.Clean(rootAbs)

	rel := filepath.Clean(filepath.FromSlash(strings.TrimLeft(userPath, "/\\")))
	// Clean leaves leading parent segments on relative paths; drop every
	// one of them so "../../etc" degrades to "etc", not an escape.
	sep := string(filepath.Separator)
	for rel == ".." || strings.HasPrefix(rel, ".."+sep) {
		rel = strings.TrimPrefix(strings.TrimPrefix(rel, ".."), sep)
	}
	if rel == "" {
		rel = "."
	}

	joined := filepath.Clean(filepath.Join(rootAbs, rel))
	if !isWithin(rootAbs, joined) {
		return "", ErrPathEscape
	}
	if err := checkSymlinks(rootAbs, joined); err != nil {
		return "", err
	}
	return joined, nil
}

// checkSymlinks rejects paths whose existing components under root are
// symlinks, and verifies that the nearest existing ancestor resolves
// back inside root.
func checkSymlinks(rootAbs, fullPath string) error {
	rel, err := filepath.Rel(rootAbs, fullPath)
	if err != nil {
		return ErrPathEscape
	}
	if rel != "." {
		cur := rootAbs
		for _, part := range strings.Split(rel, string(filepath.Separator)) {
			if part == "" || part == "." {
				continue
			}
			cur = filepath.Join(cur, part)
			st, err := os.Lstat(cur)
			if err != nil {
				// Component doesn't exist yet: nothing left to traverse.
				break
			}
			if st.Mode()&os.ModeSymlink != 0 {
				return ErrPathEscape
			}
		}
	}

	existing := nearestExisting(fullPath)
	if existing == "" {
		return nil
	}
	resolved, err := filepath.EvalSymlinks(existing)
	if err != nil {
		return err
	}
	if !isWithin(rootAbs, filepath.Clean(resolved)) {
		return ErrPathEscape
	}
	return nil
}

func isWithin(root, candidate string) bool {
	if root == candidate {
		return true
	}
	sep := string(filepath.Separator)
	if !strings.HasSuffix(root, sep) {
		root += sep
	}
	return strings.HasPrefix(candidate, root)
}

func nearestExisting(p string) string {
	cur := p
	for {
		if _, err := os.Lstat(cur); err == nil {
			return cur
		} else if !os.IsNotExist(err) {
			return ""
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return ""
		}
		cur = parent
	}
}
