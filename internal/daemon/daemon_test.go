package daemon

import (
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"mailportal/internal/config"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestRunShutsDownHTTPWhenAListenerFails(t *testing.T) {
	dir := t.TempDir()
	httpPort := freePort(t)

	// Occupy the SFTP port so its listener fails on startup.
	blocker, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer blocker.Close()
	sftpPort := blocker.Addr().(*net.TCPAddr).Port

	cfg := config.Config{}
	cfg.DB.Path = filepath.Join(dir, "portal.db")
	cfg.Upload.Dir = filepath.Join(dir, "uploads")
	cfg.Upload.MaxFileBytes = 1 << 20
	cfg.HTTP.Bind = "127.0.0.1"
	cfg.HTTP.Port = httpPort
	cfg.Auth.JWTSecret = "test-secret-test-secret-test-secret"
	cfg.Auth.ExpiresHours = 1
	cfg.SFTP.Bind = "127.0.0.1"
	cfg.SFTP.Port = sftpPort
	cfg.SFTP.HostKeyPath = filepath.Join(dir, "hostkey")

	lg := slog.New(slog.NewTextHandler(io.Discard, nil))

	done := make(chan error, 1)
	go func() { done <- Run(t.Context(), Options{Config: cfg, Logger: lg}) }()

	select {
	case err := <-done:
		if err == nil {
			t.Fatalf("expected a listener error")
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("Run did not return after listener failure")
	}

	// The HTTP server must be shut down, not left serving.
	addr := "127.0.0.1:" + strconv.Itoa(httpPort)
	deadline := time.Now().Add(5 * time.Second)
	for {
		conn, err := net.DialTimeout("tcp", addr, 200*time.Millisecond)
		if err != nil {
			break
		}
		conn.Close()
		if time.Now().After(deadline) {
			t.Fatalf("http listener still accepting after Run returned")
		}
		time.Sleep(50 * time.Millisecond)
	}
}
