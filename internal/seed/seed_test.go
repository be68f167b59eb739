package seed

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"mailportal/internal/db"
)

func TestRunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	d, err := db.Open(ctx, t.TempDir()+"/test.db")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	lg := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	if err := Run(ctx, d, lg); err != nil {
		t.Fatalf("Run: %v", err)
	}
	users, err := d.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("expected 3 users, got %d", len(users))
	}

	// Second run leaves the database alone.
	if err := Run(ctx, d, lg); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	users, err = d.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("seed ran twice: %d users", len(users))
	}

	jobs, err := d.ListJobs(ctx, "")
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("expected 3 sample jobs, got %d", len(jobs))
	}
	cred, ok, err := d.GetSftpCredentialByUsername(ctx, "abt_uploads")
	if err != nil || !ok {
		t.Fatalf("seeded credential missing: ok=%v err=%v", ok, err)
	}
	if !cred.Active {
		t.Fatalf("seeded credential should be active")
	}
}
