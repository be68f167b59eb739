// Package db provides SQLite persistence for the portal.
package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	sql *sql.DB
}

func Open(ctx context.Context, path string) (*DB, error) {
	if path == "" {
		return nil, errors.New("db path is required")
	}

	// modernc SQLite uses a URI-like DSN; plain file paths are ok.
	s, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}

	// A single connection sidesteps SQLITE_BUSY between the web,
	// SFTP and FTP goroutines.
	s.SetMaxOpenConns(1)
	s.SetMaxIdleConns(1)
	s.SetConnMaxLifetime(0)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := s.PingContext(pingCtx); err != nil {
		_ = s.Close()
		return nil, err
	}

	// WAL improves read concurrency for web + transfers.
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
	} {
		if _, err := s.ExecContext(ctx, pragma); err != nil {
			_ = s.Close()
			return nil, err
		}
	}

	if err := Migrate(ctx, s); err != nil {
		_ = s.Close()
		return nil, err
	}

	return &DB{sql: s}, nil
}

func (d *DB) Close() error {
	return d.sql.Close()
}

// Ping reports connectivity for health checks.
func (d *DB) Ping(ctx context.Context) error {
	return d.sql.PingContext(ctx)
}

// nowUnix returns the current Unix timestamp in seconds.
func nowUnix() int64 { return time.Now().Unix() }

// isUniqueViolation identifies SQLite unique-constraint failures.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "unique constraint") || strings.Contains(s, "constraint failed")
}

// boolToInt maps booleans to SQLite-friendly integer flags.
func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
