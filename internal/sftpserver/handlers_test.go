// Package sftpserver tests cover the flattened drop-directory handlers.
package sftpserver

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestResolveFlattensPaths(t *testing.T) {
	h := DropboxHandlers{Dir: "/drop/alice"}
	cases := map[string]string{
		"/":                      "/drop/alice",
		".":                      "/drop/alice",
		"/list.csv":              filepath.Join("/drop/alice", "list.csv"),
		"/nested/dir/proof.pdf":  filepath.Join("/drop/alice", "proof.pdf"),
		"../../../etc/passwd":    filepath.Join("/drop/alice", "passwd"),
		"/..\\..\\windowsy.path": filepath.Join("/drop/alice", "..\\..\\windowsy.path"),
	}
	for in, want := range cases {
		if got := h.resolve(in); got != want {
			t.Fatalf("resolve(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestStaticListerEmptyDirectoryIsEOF(t *testing.T) {
	l := staticLister(nil)
	buf := make([]os.FileInfo, 4)
	n, err := l.ListAt(buf, 0)
	if n != 0 || err != io.EOF {
		t.Fatalf("empty listing: n=%d err=%v, want 0, EOF", n, err)
	}
}

func TestStaticListerPagination(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	infos := make([]os.FileInfo, 0, len(ents))
	for _, e := range ents {
		fi, err := e.Info()
		if err != nil {
			t.Fatalf("Info: %v", err)
		}
		infos = append(infos, fi)
	}
	l := staticLister(infos)

	buf := make([]os.FileInfo, 2)
	n, err := l.ListAt(buf, 0)
	if n != 2 || err != nil {
		t.Fatalf("first page: n=%d err=%v", n, err)
	}
	n, err = l.ListAt(buf, 2)
	if n != 1 || err != io.EOF {
		t.Fatalf("last page: n=%d err=%v", n, err)
	}
	n, err = l.ListAt(buf, 3)
	if n != 0 || err != io.EOF {
		t.Fatalf("past end: n=%d err=%v", n, err)
	}
}

func TestEnsureHostKeyGeneratesAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "ssh_host_ed25519")
	s1, err := EnsureHostKey(path)
	if err != nil {
		t.Fatalf("EnsureHostKey: %v", err)
	}
	s2, err := EnsureHostKey(path)
	if err != nil {
		t.Fatalf("EnsureHostKey reload: %v", err)
	}
	if string(s1.PublicKey().Marshal()) != string(s2.PublicKey().Marshal()) {
		t.Fatalf("reload produced a different key")
	}
}
