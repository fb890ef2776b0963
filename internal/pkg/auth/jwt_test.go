package auth

import (
	"testing"
	"time"
)

func TestGenerateVerifyRoundTrip(t *testing.T) {
	m, err := NewManager(Config{Secret: "test-secret", Issuer: "timesoffice"})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	token, err := m.Generate("admin")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.Subject != "admin" {
		t.Errorf("subject = %s, want admin", claims.Subject)
	}
	if claims.ID == "" {
		t.Error("expected a token ID")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	a, _ := NewManager(Config{Secret: "secret-a", Issuer: "timesoffice"})
	b, _ := NewManager(Config{Secret: "secret-b", Issuer: "timesoffice"})

	token, err := a.Generate("admin")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if _, err := b.Verify(token); err == nil {
		t.Error("expected verification to fail with a different secret")
	}
}

func TestDefaultTTL(t *testing.T) {
	m, _ := NewManager(Config{Secret: "test-secret", Issuer: "timesoffice"})

	token, err := m.Generate("admin")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if ttl != 12*time.Hour {
		t.Errorf("default ttl = %v, want 12h", ttl)
	}
}

func TestNewManagerRequiresSecret(t *testing.T) {
	if _, err := NewManager(Config{}); err == nil {
		t.Error("expected error for empty secret")
	}
}
