package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"mailportal/internal/apperr"
)

// CreateUser inserts a new account and returns it with generated fields set.
// A duplicate email maps to apperr.ErrConflict.
func (d *DB) CreateUser(ctx context.Context, email, name, passwordHash, role string) (*User, error) {
	if email == "" || passwordHash == "" {
		return nil, errors.New("email and password hash are required")
	}
	if role == "" {
		role = RoleClient
	}
	u := &User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         role,
		Active:       true,
		CreatedAt:    nowUnix(),
		UpdatedAt:    nowUnix(),
	}
	_, err := d.sql.ExecContext(ctx, `
INSERT INTO users(id, email, name, password_hash, role, active, created_at, updated_at)
VALUES(?, ?, ?, ?, ?, 1, ?, ?)
`, u.ID, u.Email, u.Name, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("user %s: %w", email, apperr.ErrConflict)
		}
		return nil, err
	}
	return u, nil
}

const userCols = "id, email, name, password_hash, role, active, created_at, updated_at"

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	var active int
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Active = active != 0
	return &u, nil
}

// GetUserByEmail looks up an account by email.
func (d *DB) GetUserByEmail(ctx context.Context, email string) (*User, bool, error) {
	row := d.sql.QueryRowContext(ctx, "SELECT "+userCols+" FROM users WHERE email=?", email)
	u, err := scanUser(row)
	if err == nil {
		return u, true, nil
	}
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	return nil, false, err
}

// GetUserByID looks up an account by id.
func (d *DB) GetUserByID(ctx context.Context, id string) (*User, bool, error) {
	row := d.sql.QueryRowContext(ctx, "SELECT "+userCols+" FROM users WHERE id=?", id)
	u, err := scanUser(row)
	if err == nil {
		return u, true, nil
	}
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	return nil, false, err
}

// ListUsers returns all accounts, newest first.
func (d *DB) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT "+userCols+" FROM users ORDER BY created_at DESC, email ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// ListNotificationRecipients returns active ADMIN and STAFF accounts.
func (d *DB) ListNotificationRecipients(ctx context.Context) ([]UserSummary, error) {
	rows, err := d.sql.QueryContext(ctx, `
SELECT id, name, email FROM users
WHERE role IN (?, ?) AND active = 1
ORDER BY email ASC
`, RoleAdmin, RoleStaff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UserSummary
	for rows.Next() {
		var s UserSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Email); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SetUserActive flips the active flag. Accounts are deactivated, not deleted.
func (d *DB) SetUserActive(ctx context.Context, id string, active bool) error {
	if id == "" {
		return errors.New("invalid user id")
	}
	res, err := d.sql.ExecContext(ctx, `UPDATE users SET active=?, updated_at=? WHERE id=?`,
		boolToInt(active), nowUnix(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// CountUsers reports the total number of accounts.
func (d *DB) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := d.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}
