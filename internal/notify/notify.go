// Package notify dispatches lifecycle emails to staff. Dispatch is
// fire-and-forget: failures are logged and never surface to the request
// that triggered them.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mailportal/internal/db"
)

// Mailer submits one message to the external transport.
type Mailer interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

// Service resolves recipients and renders notification payloads.
// A nil Mailer disables dispatch.
type Service struct {
	DB     *db.DB
	Mailer Mailer
	Logger *slog.Logger
	AppURL string

	// sendTimeout bounds each background submission.
	sendTimeout time.Duration
}

func New(d *db.DB, m Mailer, lg *slog.Logger, appURL string) *Service {
	return &Service{DB: d, Mailer: m, Logger: lg, AppURL: appURL, sendTimeout: 30 * time.Second}
}

// CampaignCreated announces a new campaign to active admin/staff.
func (s *Service) CampaignCreated(job *db.Job, creator *db.User) {
	subject := fmt.Sprintf("New Campaign Created: %s", job.CampaignName)
	body := s.renderLines(
		"A new campaign has been created in the warranty portal.",
		"",
		fmt.Sprintf("Campaign: %s", job.CampaignName),
		fmt.Sprintf("Period: %s %d", job.Month, job.Year),
		fmt.Sprintf("Created by: %s (%s)", creator.Name, creator.Email),
		fmt.Sprintf("Status: %s", job.Status),
	)
	s.dispatch(subject, body, nil)
}

// MailListUploaded announces a data-file drop for a campaign.
func (s *Service) MailListUploaded(job *db.Job, f *db.File, uploader *db.User) {
	subject := fmt.Sprintf("Mail List Uploaded: %s", job.CampaignName)
	body := s.renderLines(
		"A mail list data file has been uploaded.",
		"",
		fmt.Sprintf("Campaign: %s", job.CampaignName),
		fmt.Sprintf("File: %s (%s)", f.OriginalName, formatSize(f.FileSize)),
		fmt.Sprintf("Uploaded by: %s (%s)", uploader.Name, uploader.Email),
	)
	s.dispatch(subject, body, nil)
}

// ProofsUploaded announces proof artwork, additionally mailing the client.
func (s *Service) ProofsUploaded(job *db.Job, count int, uploader *db.User, clientEmail string) {
	subject := fmt.Sprintf("Proofs Ready for Review: %s", job.CampaignName)
	body := s.renderLines(
		"Proof files are ready for review.",
		"",
		fmt.Sprintf("Campaign: %s", job.CampaignName),
		fmt.Sprintf("Proof files: %d", count),
		fmt.Sprintf("Uploaded by: %s (%s)", uploader.Name, uploader.Email),
	)
	var extra []string
	if clientEmail != "" {
		extra = append(extra, clientEmail)
	}
	s.dispatch(subject, body, extra)
}

// ProofsApproved announces an approval, with the approval timestamp.
func (s *Service) ProofsApproved(job *db.Job, approver *db.User, approvedAt time.Time) {
	subject := fmt.Sprintf("Proofs Approved: %s", job.CampaignName)
	body := s.renderLines(
		"Campaign proofs have been approved and the job can move to print.",
		"",
		fmt.Sprintf("Campaign: %s", job.CampaignName),
		fmt.Sprintf("Approved by: %s (%s)", approver.Name, approver.Email),
		fmt.Sprintf("Approved at: %s", approvedAt.Format(time.RFC1123)),
	)
	s.dispatch(subject, body, nil)
}

// dispatch resolves recipients and submits in the background. Every failure
// path logs and returns; nothing propagates to the caller.
func (s *Service) dispatch(subject, body string, extraRecipients []string) {
	if s == nil || s.Mailer == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.sendTimeout)
		defer cancel()

		recipients, err := s.DB.ListNotificationRecipients(ctx)
		if err != nil {
			s.Logger.Error("notify: resolving recipients failed", "subject", subject, "err", err)
			return
		}
		to := make([]string, 0, len(recipients)+len(extraRecipients))
		for _, r := range recipients {
			to = append(to, r.Email)
		}
		to = append(to, extraRecipients...)
		if len(to) == 0 {
			s.Logger.Warn("notify: no recipients", "subject", subject)
			return
		}
		if err := s.Mailer.Send(ctx, to, subject, body); err != nil {
			s.Logger.Error("notify: send failed", "subject", subject, "recipients", len(to), "err", err)
			return
		}
		s.Logger.Info("notify: sent", "subject", subject, "recipients", len(to))
	}()
}

func (s *Service) renderLines(lines ...string) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteString("\n")
	}
	if s.AppURL != "" {
		fmt.Fprintf(&b, "\nOpen the portal: %s\n", s.AppURL)
	}
	return b.String()
}

func formatSize(bytes int64) string {
	const k = 1024
	switch {
	case bytes >= k*k*k:
		return fmt.Sprintf("%.2f GB", float64(bytes)/(k*k*k))
	case bytes >= k*k:
		return fmt.Sprintf("%.2f MB", float64(bytes)/(k*k))
	case bytes >= k:
		return fmt.Sprintf("%.2f KB", float64(bytes)/k)
	default:
		return fmt.Sprintf("%d Bytes", bytes)
	}
}
