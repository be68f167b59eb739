// Package store is the disk content store for uploaded artifacts. Ledger
// rows reference stored names generated here; the bytes live in a flat
// directory under the configured upload root.
package store

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"time"
)

// ErrMissing means a ledger row resolves to bytes that are gone from disk.
var ErrMissing = errors.New("file missing on disk")

// Store persists uploaded byte streams on the local filesystem.
type Store struct {
	dir string
}

// New creates a store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("store dir is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create store dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

// NewStoredName generates a collision-resistant stored filename keeping the
// original extension: <unix-nano>-<random digits><ext>.
func NewStoredName(originalName string) string {
	n, err := rand.Int(rand.Reader, big.NewInt(1e9))
	suffix := int64(0)
	if err == nil {
		suffix = n.Int64()
	}
	ext := filepath.Ext(originalName)
	return fmt.Sprintf("%d-%09d%s", time.Now().UnixNano(), suffix, ext)
}

// Save streams data into the store under name and returns the absolute path
// and byte count. Partial writes are cleaned up.
func (s *Store) Save(name string, data io.Reader) (string, int64, error) {
	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", 0, fmt.Errorf("create %s: %w", path, err)
	}
	n, err := io.Copy(f, data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("write %s: %w", path, err)
	}
	return path, n, nil
}

// Open returns a reader over stored bytes. A ledger path whose bytes are
// gone yields ErrMissing, distinct from a bad ledger row.
func (s *Store) Open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrMissing)
		}
		return nil, err
	}
	return f, nil
}

// Remove deletes stored bytes. Already-missing bytes report ErrMissing so
// the caller can log and continue; removal is best-effort, not transactional.
func (s *Store) Remove(path string) error {
	err := os.Remove(path)
	if err == nil {
		return nil
	}
	if os.IsNotExist(err) {
		return fmt.Errorf("%s: %w", path, ErrMissing)
	}
	return err
}
