package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// CreateFile inserts a ledger row for a stored artifact.
func (d *DB) CreateFile(ctx context.Context, f *File) error {
	if f == nil || f.JobID == "" || f.Filename == "" {
		return errors.New("invalid file")
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.UploadedVia == "" {
		f.UploadedVia = ViaWeb
	}
	f.UploadedAt = nowUnix()
	_, err := d.sql.ExecContext(ctx, `
INSERT INTO files(id, job_id, filename, original_name, file_type, file_path, file_size, mime_type, uploaded_via, uploaded_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, f.ID, f.JobID, f.Filename, f.OriginalName, f.FileType, f.FilePath, f.FileSize, f.MimeType, f.UploadedVia, f.UploadedAt)
	return err
}

const fileCols = "id, job_id, filename, original_name, file_type, file_path, file_size, mime_type, uploaded_via, uploaded_at"

func scanFile(row interface{ Scan(...any) error }) (*File, error) {
	var f File
	err := row.Scan(&f.ID, &f.JobID, &f.Filename, &f.OriginalName, &f.FileType,
		&f.FilePath, &f.FileSize, &f.MimeType, &f.UploadedVia, &f.UploadedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// GetFile looks up a ledger row and the owning user of its parent job.
// Ownership derives transitively through the job.
func (d *DB) GetFile(ctx context.Context, id string) (*File, string, bool, error) {
	row := d.sql.QueryRowContext(ctx, `
SELECT f.id, f.job_id, f.filename, f.original_name, f.file_type, f.file_path,
       f.file_size, f.mime_type, f.uploaded_via, f.uploaded_at, j.user_id
FROM files f
JOIN jobs j ON j.id = f.job_id
WHERE f.id=?
`, id)
	var f File
	var ownerID string
	err := row.Scan(&f.ID, &f.JobID, &f.Filename, &f.OriginalName, &f.FileType,
		&f.FilePath, &f.FileSize, &f.MimeType, &f.UploadedVia, &f.UploadedAt, &ownerID)
	if err == nil {
		return &f, ownerID, true, nil
	}
	if err == sql.ErrNoRows {
		return nil, "", false, nil
	}
	return nil, "", false, err
}

// ListFilesForJob returns a campaign's files newest first, so the latest
// upload to a slot wins for display.
func (d *DB) ListFilesForJob(ctx context.Context, jobID string) ([]File, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+fileCols+" FROM files WHERE job_id=? ORDER BY uploaded_at DESC, id DESC", jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

// CountFilesForJob reports how many artifacts a campaign has.
func (d *DB) CountFilesForJob(ctx context.Context, jobID string) (int, error) {
	var n int
	err := d.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM files WHERE job_id=?", jobID).Scan(&n)
	return n, err
}

// DeleteFile removes a ledger row.
func (d *DB) DeleteFile(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("invalid file id")
	}
	_, err := d.sql.ExecContext(ctx, `DELETE FROM files WHERE id=?`, id)
	return err
}
