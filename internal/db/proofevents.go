package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// RecordProofEvent appends a review action and, when the action moves the
// workflow (newStatus non-empty), updates the job in the same transaction.
// The event must never exist without its status effect applied.
func (d *DB) RecordProofEvent(ctx context.Context, jobID, action, notes, newStatus string, stampApproved bool) (*ProofEvent, error) {
	if jobID == "" || action == "" {
		return nil, errors.New("job id and action are required")
	}
	ev := &ProofEvent{
		ID:        uuid.NewString(),
		JobID:     jobID,
		Action:    action,
		Notes:     notes,
		CreatedAt: nowUnix(),
	}

	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO proof_events(id, job_id, action, notes, created_at)
VALUES(?, ?, ?, ?, ?)
`, ev.ID, ev.JobID, ev.Action, ev.Notes, ev.CreatedAt); err != nil {
		return nil, err
	}

	if newStatus != "" {
		if stampApproved {
			_, err = tx.ExecContext(ctx,
				`UPDATE jobs SET status=?, approved_at=?, updated_at=? WHERE id=?`,
				newStatus, ev.CreatedAt, ev.CreatedAt, jobID)
		} else {
			_, err = tx.ExecContext(ctx,
				`UPDATE jobs SET status=?, updated_at=? WHERE id=?`,
				newStatus, ev.CreatedAt, jobID)
		}
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ev, nil
}

// ListProofEventsForJob returns a campaign's audit trail, newest first.
func (d *DB) ListProofEventsForJob(ctx context.Context, jobID string) ([]ProofEvent, error) {
	rows, err := d.sql.QueryContext(ctx, `
SELECT id, job_id, action, COALESCE(notes, ''), created_at
FROM proof_events WHERE job_id=?
ORDER BY created_at DESC, id DESC
`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProofEvent
	for rows.Next() {
		var ev ProofEvent
		if err := rows.Scan(&ev.ID, &ev.JobID, &ev.Action, &ev.Notes, &ev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
