package fsutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestResolveWithinRootAcceptsPlainPaths(t *testing.T) {
	root := t.TempDir()

	got, err := ResolveWithinRoot(root, "/drop/file.pdf")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := filepath.Join(root, "drop", "file.pdf")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	// The root itself is addressable.
	got, err = ResolveWithinRoot(root, "/")
	if err != nil {
		t.Fatalf("resolve root: %v", err)
	}
	if got != filepath.Clean(root) {
		t.Fatalf("got %q, want root %q", got, root)
	}
}

func TestResolveWithinRootRejectsDotDotEscape(t *testing.T) {
	root := t.TempDir()
	for _, p := range []string{"../etc/passwd", "/../etc/passwd", "a/../../etc"} {
		if _, err := ResolveWithinRoot(root, p); err == nil {
			t.Fatalf("expected %q to be rejected", p)
		}
	}
}

func TestResolveWithinRootRejectsSymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink behavior varies on windows")
	}
	root := t.TempDir()
	outside := t.TempDir()

	if err := os.Symlink(outside, filepath.Join(root, "link")); err != nil {
		t.Skipf("symlink not supported: %v", err)
	}
	if _, err := ResolveWithinRoot(root, "link/escape.txt"); err == nil {
		t.Fatalf("expected symlink escape to be rejected")
	}
}
