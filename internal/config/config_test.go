// Package config tests validate config loading behavior.
package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	tmp := t.TempDir()
	p := filepath.Join(tmp, "mailportal.yaml")
	if err := os.WriteFile(p, []byte("db:\n  path: ./x.db\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	c, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.HTTP.Port != 3001 {
		t.Fatalf("expected default http.port 3001, got %d", c.HTTP.Port)
	}
	if c.SFTP.Port != 2222 {
		t.Fatalf("expected default sftp.port 2222, got %d", c.SFTP.Port)
	}
	if c.Upload.MaxFileBytes != 100<<20 {
		t.Fatalf("expected 100MB default upload cap, got %d", c.Upload.MaxFileBytes)
	}
	if c.Auth.ExpiresHours != 168 {
		t.Fatalf("expected 7-day token default, got %d", c.Auth.ExpiresHours)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("PORT", "8080")
	t.Setenv("CORS_ORIGIN", "https://portal.example.com, https://staging.example.com")
	t.Setenv("MAX_FILE_SIZE", "1048576")

	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.HTTP.Port != 8080 {
		t.Fatalf("PORT override ignored: %d", c.HTTP.Port)
	}
	if len(c.HTTP.CORSOrigins) != 2 || c.HTTP.CORSOrigins[1] != "https://staging.example.com" {
		t.Fatalf("CORS_ORIGIN parse broken: %v", c.HTTP.CORSOrigins)
	}
	if c.Upload.MaxFileBytes != 1<<20 {
		t.Fatalf("MAX_FILE_SIZE override ignored: %d", c.Upload.MaxFileBytes)
	}
	if c.Auth.JWTSecret != "env-secret" {
		t.Fatalf("JWT_SECRET override ignored")
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected missing jwt secret to fail validation")
	}
}
