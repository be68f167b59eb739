package auth

import (
	"testing"
	"time"
)

func TestGenerateAndParseToken(t *testing.T) {
	secret := []byte("test-secret")
	tok, err := GenerateToken("u1", "client@example.com", "CLIENT", secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ParseToken(tok, secret)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != "u1" || claims.Email != "client@example.com" || claims.Role != "CLIENT" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	tok, err := GenerateToken("u1", "a@b.com", "STAFF", []byte("right"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ParseToken(tok, []byte("wrong")); err == nil {
		t.Fatalf("expected signature mismatch to fail")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	secret := []byte("s")
	tok, err := GenerateToken("u1", "a@b.com", "STAFF", secret, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ParseToken(tok, secret); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}
