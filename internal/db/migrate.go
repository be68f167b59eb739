package db

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"sort"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies embedded schema files in lexical order. Each applied
// migration is recorded with a checksum; editing an already-applied file
// is an error rather than a silent re-run.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
  name TEXT PRIMARY KEY,
  checksum TEXT NOT NULL,
  applied_at INTEGER NOT NULL
);
`); err != nil {
		return err
	}

	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	for _, name := range names {
		body, err := migrationsFS.ReadFile(name)
		if err != nil {
			return err
		}
		sum := sha256.Sum256(body)
		checksum := hex.EncodeToString(sum[:])

		var have string
		err = db.QueryRowContext(ctx, "SELECT checksum FROM schema_migrations WHERE name = ?", name).Scan(&have)
		switch {
		case err == nil:
			if have != checksum {
				return fmt.Errorf("migration %s changed after being applied", name)
			}
			continue
		case err == sql.ErrNoRows:
			// not yet applied
		default:
			return err
		}

		if err := runMigration(ctx, db, name, checksum, string(body)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}

	return nil
}

func runMigration(ctx context.Context, db *sql.DB, name, checksum, body string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, body); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations(name, checksum, applied_at) VALUES(?, ?, strftime('%s','now'))",
		name, checksum); err != nil {
		return err
	}

	return tx.Commit()
}
