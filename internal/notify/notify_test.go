// Package notify tests cover recipient resolution and failure swallowing.
package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"mailportal/internal/db"
)

type capturingMailer struct {
	sent chan sentMail
	fail bool
}

type sentMail struct {
	to      []string
	subject string
	body    string
}

func (m *capturingMailer) Send(_ context.Context, to []string, subject, body string) error {
	if m.fail {
		m.sent <- sentMail{}
		return errors.New("smtp down")
	}
	m.sent <- sentMail{to: to, subject: subject, body: body}
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func setupDB(t *testing.T) (*db.DB, *db.User) {
	t.Helper()
	ctx := context.Background()
	d, err := db.Open(ctx, t.TempDir()+"/test.db")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	if _, err := d.CreateUser(ctx, "admin@example.com", "Admin", "h", db.RoleAdmin); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := d.CreateUser(ctx, "staff@example.com", "Staff", "h", db.RoleStaff); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	client, err := d.CreateUser(ctx, "client@example.com", "Client", "h", db.RoleClient)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return d, client
}

func waitForSend(t *testing.T, ch chan sentMail) sentMail {
	t.Helper()
	select {
	case m := <-ch:
		return m
	case <-time.After(5 * time.Second):
		t.Fatalf("no mail dispatched")
		return sentMail{}
	}
}

func TestCampaignCreatedGoesToStaffOnly(t *testing.T) {
	d, client := setupDB(t)
	mailer := &capturingMailer{sent: make(chan sentMail, 1)}
	svc := New(d, mailer, testLogger(), "http://portal.example.com")

	job := &db.Job{ID: "j1", CampaignName: "Holiday Push", Month: "December", Year: 2025, Status: "DRAFT"}
	svc.CampaignCreated(job, client)

	m := waitForSend(t, mailer.sent)
	sort.Strings(m.to)
	if len(m.to) != 2 || m.to[0] != "admin@example.com" || m.to[1] != "staff@example.com" {
		t.Fatalf("recipients=%v", m.to)
	}
	if m.subject != "New Campaign Created: Holiday Push" {
		t.Fatalf("subject=%q", m.subject)
	}
}

func TestProofsUploadedAlsoMailsClient(t *testing.T) {
	d, client := setupDB(t)
	mailer := &capturingMailer{sent: make(chan sentMail, 1)}
	svc := New(d, mailer, testLogger(), "")

	job := &db.Job{ID: "j1", CampaignName: "Proof run"}
	svc.ProofsUploaded(job, 2, client, client.Email)

	m := waitForSend(t, mailer.sent)
	found := false
	for _, to := range m.to {
		if to == "client@example.com" {
			found = true
		}
	}
	if !found {
		t.Fatalf("client missing from recipients: %v", m.to)
	}
}

func TestSendFailureIsSwallowed(t *testing.T) {
	d, client := setupDB(t)
	mailer := &capturingMailer{sent: make(chan sentMail, 1), fail: true}
	svc := New(d, mailer, testLogger(), "")

	// Must not panic or propagate.
	svc.ProofsApproved(&db.Job{ID: "j1", CampaignName: "X"}, client, time.Now())
	waitForSend(t, mailer.sent)
}

func TestNilMailerDisablesDispatch(t *testing.T) {
	d, client := setupDB(t)
	svc := New(d, nil, testLogger(), "")
	// No goroutine, no panic.
	svc.CampaignCreated(&db.Job{ID: "j1", CampaignName: "X"}, client)
}
