// Package fsutil provides filesystem path containment for the hierarchical
// file-drop realms.
package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

var ErrPathTraversal = errors.New("path escapes root")

// ResolveWithinRoot maps a client-supplied path to a local path under root.
// Traversal outside root is rejected, including through existing symlinks:
// every already-existing component under root must be a plain directory or
// file, and the nearest existing ancestor must still resolve inside root.
func ResolveWithinRoot(root, userPath string) (string, error) {
	if root == "" {
		return "", errors.New("root is required")
	}
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	rootAbs = filepath.Clean(rootAbs)

	rel := filepath.FromSlash(strings.TrimLeft(userPath, "/\\"))
	local := filepath.Clean(filepath.Join(rootAbs, rel))
	if !within(rootAbs, local) {
		return "", ErrPathTraversal
	}

	if err := walkComponents(rootAbs, local); err != nil {
		return "", err
	}

	if existing := deepestExisting(local); existing != "" {
		resolved, err := filepath.EvalSymlinks(existing)
		if err != nil {
			return "", err
		}
		if !within(rootAbs, filepath.Clean(resolved)) {
			return "", ErrPathTraversal
		}
	}
	return local, nil
}

// walkComponents rejects the path if any existing component between root
// and local is a symlink.
func walkComponents(rootAbs, local string) error {
	rel, err := filepath.Rel(rootAbs, local)
	if err != nil {
		return ErrPathTraversal
	}
	if rel == "." {
		return nil
	}
	cur := rootAbs
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if part == "" || part == "." {
			continue
		}
		cur = filepath.Join(cur, part)
		st, err := os.Lstat(cur)
		if err != nil {
			// Component does not exist yet, nothing left to traverse.
			return nil
		}
		if st.Mode()&os.ModeSymlink != 0 {
			return ErrPathTraversal
		}
	}
	return nil
}

func within(root, candidate string) bool {
	if root == candidate {
		return true
	}
	sep := string(filepath.Separator)
	if !strings.HasSuffix(root, sep) {
		root += sep
	}
	return strings.HasPrefix(candidate, root)
}

// deepestExisting returns the longest existing prefix of p, or "" when
// nothing on the way up exists or an unexpected stat error occurs.
func deepestExisting(p string) string {
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
