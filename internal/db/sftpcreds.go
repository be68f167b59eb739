package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"mailportal/internal/apperr"
)

// CreateSftpCredential inserts a file-drop login for a user.
// A duplicate username maps to apperr.ErrConflict.
func (d *DB) CreateSftpCredential(ctx context.Context, userID, username, passwordHash string) (*SftpCredential, error) {
	if userID == "" || username == "" || passwordHash == "" {
		return nil, errors.New("user id, username, and password hash are required")
	}
	c := &SftpCredential{
		ID:           uuid.NewString(),
		UserID:       userID,
		Username:     username,
		PasswordHash: passwordHash,
		Active:       true,
		CreatedAt:    nowUnix(),
	}
	_, err := d.sql.ExecContext(ctx, `
INSERT INTO sftp_credentials(id, user_id, username, password_hash, active, created_at)
VALUES(?, ?, ?, ?, 1, ?)
`, c.ID, c.UserID, c.Username, c.PasswordHash, c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("username %s: %w", username, apperr.ErrConflict)
		}
		return nil, err
	}
	return c, nil
}

const sftpCredCols = "id, user_id, username, password_hash, active, last_used, created_at"

func scanSftpCredential(row interface{ Scan(...any) error }) (*SftpCredential, error) {
	var c SftpCredential
	var active int
	err := row.Scan(&c.ID, &c.UserID, &c.Username, &c.PasswordHash, &active, &c.LastUsed, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.Active = active != 0
	return &c, nil
}

// GetSftpCredential looks up a credential by id.
func (d *DB) GetSftpCredential(ctx context.Context, id string) (*SftpCredential, bool, error) {
	row := d.sql.QueryRowContext(ctx, "SELECT "+sftpCredCols+" FROM sftp_credentials WHERE id=?", id)
	c, err := scanSftpCredential(row)
	if err == nil {
		return c, true, nil
	}
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	return nil, false, err
}

// GetSftpCredentialByUsername looks up a credential for protocol auth.
func (d *DB) GetSftpCredentialByUsername(ctx context.Context, username string) (*SftpCredential, bool, error) {
	row := d.sql.QueryRowContext(ctx, "SELECT "+sftpCredCols+" FROM sftp_credentials WHERE username=?", username)
	c, err := scanSftpCredential(row)
	if err == nil {
		return c, true, nil
	}
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	return nil, false, err
}

// ListSftpCredentials returns credentials newest first with owner summary.
// An empty ownerID lists all credentials (staff view).
func (d *DB) ListSftpCredentials(ctx context.Context, ownerID string) ([]SftpCredential, error) {
	q := `
SELECT c.id, c.user_id, c.username, c.password_hash, c.active, c.last_used, c.created_at,
       u.name, u.email
FROM sftp_credentials c
JOIN users u ON u.id = c.user_id
`
	args := []any{}
	if ownerID != "" {
		q += "WHERE c.user_id = ?\n"
		args = append(args, ownerID)
	}
	q += "ORDER BY c.created_at DESC"

	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SftpCredential
	for rows.Next() {
		var c SftpCredential
		var active int
		var ownerName, ownerEmail string
		if err := rows.Scan(&c.ID, &c.UserID, &c.Username, &c.PasswordHash, &active,
			&c.LastUsed, &c.CreatedAt, &ownerName, &ownerEmail); err != nil {
			return nil, err
		}
		c.Active = active != 0
		c.User = &UserSummary{ID: c.UserID, Name: ownerName, Email: ownerEmail}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateSftpCredential changes the password hash and/or active flag.
// Nil arguments leave the field unchanged.
func (d *DB) UpdateSftpCredential(ctx context.Context, id string, passwordHash *string, active *bool) error {
	if id == "" {
		return errors.New("invalid credential id")
	}
	if passwordHash == nil && active == nil {
		return nil
	}
	if passwordHash != nil {
		if _, err := d.sql.ExecContext(ctx,
			`UPDATE sftp_credentials SET password_hash=? WHERE id=?`, *passwordHash, id); err != nil {
			return err
		}
	}
	if active != nil {
		if _, err := d.sql.ExecContext(ctx,
			`UPDATE sftp_credentials SET active=? WHERE id=?`, boolToInt(*active), id); err != nil {
			return err
		}
	}
	return nil
}

// TouchSftpCredential stamps last_used after a successful protocol login.
func (d *DB) TouchSftpCredential(ctx context.Context, id string) error {
	_, err := d.sql.ExecContext(ctx, `UPDATE sftp_credentials SET last_used=? WHERE id=?`, nowUnix(), id)
	return err
}

// DeleteSftpCredential removes a credential by id.
func (d *DB) DeleteSftpCredential(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("invalid credential id")
	}
	_, err := d.sql.ExecContext(ctx, `DELETE FROM sftp_credentials WHERE id=?`, id)
	return err
}
