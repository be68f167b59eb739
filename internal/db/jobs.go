package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"mailportal/internal/apperr"
)

// CreateJob inserts a new campaign in DRAFT.
func (d *DB) CreateJob(ctx context.Context, userID, month string, year int, campaignName, status string) (*Job, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}
	j := &Job{
		ID:           uuid.NewString(),
		UserID:       userID,
		Month:        month,
		Year:         year,
		CampaignName: campaignName,
		Status:       status,
		CreatedAt:    nowUnix(),
		UpdatedAt:    nowUnix(),
	}
	_, err := d.sql.ExecContext(ctx, `
INSERT INTO jobs(id, user_id, month, year, campaign_name, status, created_at, updated_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?)
`, j.ID, j.UserID, j.Month, j.Year, j.CampaignName, j.Status, j.CreatedAt, j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return j, nil
}

const jobCols = `id, user_id, month, year, campaign_name, status, mail_count, rate_per_piece,
total_cost, tax_amount, invoice_url, approved_at, mailed_at, created_at, updated_at`

func scanJob(row interface{ Scan(...any) error }) (*Job, error) {
	var j Job
	err := row.Scan(&j.ID, &j.UserID, &j.Month, &j.Year, &j.CampaignName, &j.Status,
		&j.MailCount, &j.RatePerPiece, &j.TotalCost, &j.TaxAmount, &j.InvoiceURL,
		&j.ApprovedAt, &j.MailedAt, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// GetJob looks up a campaign by id.
func (d *DB) GetJob(ctx context.Context, id string) (*Job, bool, error) {
	row := d.sql.QueryRowContext(ctx, "SELECT "+jobCols+" FROM jobs WHERE id=?", id)
	j, err := scanJob(row)
	if err == nil {
		return j, true, nil
	}
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	return nil, false, err
}

// ListJobs returns campaigns newest first with owner summary and file count.
// An empty ownerID lists all campaigns (staff view).
func (d *DB) ListJobs(ctx context.Context, ownerID string) ([]Job, error) {
	q := `
SELECT j.id, j.user_id, j.month, j.year, j.campaign_name, j.status, j.mail_count,
       j.rate_per_piece, j.total_cost, j.tax_amount, j.invoice_url, j.approved_at,
       j.mailed_at, j.created_at, j.updated_at,
       u.name, u.email,
       (SELECT COUNT(*) FROM files f WHERE f.job_id = j.id)
FROM jobs j
JOIN users u ON u.id = j.user_id
`
	args := []any{}
	if ownerID != "" {
		q += "WHERE j.user_id = ?\n"
		args = append(args, ownerID)
	}
	q += "ORDER BY j.created_at DESC"

	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		var j Job
		var ownerName, ownerEmail string
		if err := rows.Scan(&j.ID, &j.UserID, &j.Month, &j.Year, &j.CampaignName, &j.Status,
			&j.MailCount, &j.RatePerPiece, &j.TotalCost, &j.TaxAmount, &j.InvoiceURL,
			&j.ApprovedAt, &j.MailedAt, &j.CreatedAt, &j.UpdatedAt,
			&ownerName, &ownerEmail, &j.FileCount); err != nil {
			return nil, err
		}
		j.User = &UserSummary{ID: j.UserID, Name: ownerName, Email: ownerEmail}
		out = append(out, j)
	}
	return out, rows.Err()
}

// UpdateJob writes all mutable campaign fields. Concurrent updates are
// last-write-wins; there is no conflict detection at this scale.
func (d *DB) UpdateJob(ctx context.Context, j *Job) error {
	if j == nil || j.ID == "" {
		return errors.New("invalid job")
	}
	res, err := d.sql.ExecContext(ctx, `
UPDATE jobs SET month=?, year=?, campaign_name=?, status=?, mail_count=?, rate_per_piece=?,
  total_cost=?, tax_amount=?, invoice_url=?, approved_at=?, mailed_at=?, updated_at=?
WHERE id=?
`, j.Month, j.Year, j.CampaignName, j.Status, j.MailCount, j.RatePerPiece,
		j.TotalCost, j.TaxAmount, j.InvoiceURL, j.ApprovedAt, j.MailedAt, nowUnix(), j.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("job %s: %w", j.ID, apperr.ErrNotFound)
	}
	return nil
}

// AdvanceJobIfAssetsComplete applies the DRAFT to ASSETS_UPLOADED transition
// when the campaign's file count has reached the threshold. The conditional
// update keyed on the DRAFT status makes the transition idempotent under
// concurrent uploads.
func (d *DB) AdvanceJobIfAssetsComplete(ctx context.Context, jobID string, threshold int) (bool, error) {
	res, err := d.sql.ExecContext(ctx, `
UPDATE jobs SET status='ASSETS_UPLOADED', updated_at=?
WHERE id=? AND status='DRAFT'
  AND (SELECT COUNT(*) FROM files f WHERE f.job_id = jobs.id) >= ?
`, nowUnix(), jobID, threshold)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteJob removes a campaign; files and proof events cascade.
func (d *DB) DeleteJob(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("invalid job id")
	}
	_, err := d.sql.ExecContext(ctx, `DELETE FROM jobs WHERE id=?`, id)
	return err
}
