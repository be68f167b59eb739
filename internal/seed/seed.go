// Package seed loads development fixtures: three users, one SFTP
// credential, and sample campaigns in different workflow stages.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mailportal/internal/auth"
	"mailportal/internal/db"
	"mailportal/internal/workflow"
)

// Run seeds the database. It is idempotent: a database with any users is
// left untouched.
func Run(ctx context.Context, d *db.DB, lg *slog.Logger) error {
	n, err := d.CountUsers(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		lg.Info("database already seeded, skipping")
		return nil
	}

	params := auth.DefaultArgon2Params()
	hash := func(pw string) (string, error) {
		return auth.HashPassword(pw, params)
	}

	adminHash, err := hash("admin123")
	if err != nil {
		return err
	}
	admin, err := d.CreateUser(ctx, "admin@abtwarranty.com", "Admin User", adminHash, db.RoleAdmin)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	lg.Info("created user", "email", admin.Email, "role", admin.Role)

	staffHash, err := hash("staff123")
	if err != nil {
		return err
	}
	staff, err := d.CreateUser(ctx, "staff@abtwarranty.com", "Staff User", staffHash, db.RoleStaff)
	if err != nil {
		return fmt.Errorf("seed staff: %w", err)
	}
	lg.Info("created user", "email", staff.Email, "role", staff.Role)

	clientHash, err := hash("client123")
	if err != nil {
		return err
	}
	client, err := d.CreateUser(ctx, "client@abtelectronics.com", "ABT Electronics", clientHash, db.RoleClient)
	if err != nil {
		return fmt.Errorf("seed client: %w", err)
	}
	lg.Info("created user", "email", client.Email, "role", client.Role)

	sftpHash, err := hash("abt_sftp_2024")
	if err != nil {
		return err
	}
	cred, err := d.CreateSftpCredential(ctx, client.ID, "abt_uploads", sftpHash)
	if err != nil {
		return fmt.Errorf("seed sftp credential: %w", err)
	}
	lg.Info("created sftp credential", "username", cred.Username)

	if _, err := d.CreateJob(ctx, client.ID, "December", 2024, "Holiday Warranty Push", workflow.StatusDraft); err != nil {
		return fmt.Errorf("seed job: %w", err)
	}

	j2, err := d.CreateJob(ctx, client.ID, "January", 2025, "New Year Extended Warranty", workflow.StatusProofing)
	if err != nil {
		return fmt.Errorf("seed job: %w", err)
	}
	mailCount := int64(5000)
	rate := 0.85
	j2.MailCount = &mailCount
	j2.RatePerPiece = &rate
	if err := d.UpdateJob(ctx, j2); err != nil {
		return fmt.Errorf("seed job: %w", err)
	}

	j3, err := d.CreateJob(ctx, client.ID, "November", 2024, "Fall Protection Plans", workflow.StatusComplete)
	if err != nil {
		return fmt.Errorf("seed job: %w", err)
	}
	mailCount3 := int64(4500)
	total := 3825.00
	tax := 344.25
	approvedAt := time.Date(2024, 10, 15, 0, 0, 0, 0, time.UTC).Unix()
	mailedAt := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC).Unix()
	j3.MailCount = &mailCount3
	j3.RatePerPiece = &rate
	j3.TotalCost = &total
	j3.TaxAmount = &tax
	j3.ApprovedAt = &approvedAt
	j3.MailedAt = &mailedAt
	if err := d.UpdateJob(ctx, j3); err != nil {
		return fmt.Errorf("seed job: %w", err)
	}

	lg.Info("database seeded",
		"admin", "admin@abtwarranty.com / admin123",
		"staff", "staff@abtwarranty.com / staff123",
		"client", "client@abtelectronics.com / client123",
		"sftp", "abt_uploads / abt_sftp_2024")
	return nil
}
