package services

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func newTestAuthenticator(t *testing.T) *JWTAuthenticator {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	auth, err := NewJWTAuthenticator("admin@venue.test", string(hash), "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewJWTAuthenticator: %v", err)
	}
	return auth
}

func TestLoginAndVerify(t *testing.T) {
	auth := newTestAuthenticator(t)
	ctx := context.Background()

	session, err := auth.Login(ctx, " Admin@Venue.test ", "hunter22")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if session.Token == "" || session.Email != "admin@venue.test" {
		t.Errorf("unexpected session %+v", session)
	}

	email, err := auth.Verify(ctx, session.Token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if email != "admin@venue.test" {
		t.Errorf("unexpected subject %q", email)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	auth := newTestAuthenticator(t)
	ctx := context.Background()

	if _, err := auth.Login(ctx, "admin@venue.test", "wrong"); !IsKind(err, KindUnauthorized) {
		t.Errorf("expected unauthorized for bad password, got %v", err)
	}
	if _, err := auth.Login(ctx, "someone@venue.test", "hunter22"); !IsKind(err, KindUnauthorized) {
		t.Errorf("expected unauthorized for unknown email, got %v", err)
	}
}

func TestVerifyRejectsExpiredAndForeignTokens(t *testing.T) {
	auth := newTestAuthenticator(t)
	ctx := context.Background()

	issued := time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)
	auth.now = func() time.Time { return issued }
	session, err := auth.Login(ctx, "admin@venue.test", "hunter22")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	auth.now = func() time.Time { return issued.Add(2 * time.Hour) }
	if _, err := auth.Verify(ctx, session.Token); !IsKind(err, KindUnauthorized) {
		t.Errorf("expected expired token to be rejected, got %v", err)
	}

	other := newTestAuthenticator(t)
	other.secret = []byte("another-secret")
	foreign, err := other.Login(ctx, "admin@venue.test", "hunter22")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	auth.now = time.Now
	if _, err := auth.Verify(ctx, foreign.Token); !IsKind(err, KindUnauthorized) {
		t.Errorf("expected token signed with another secret to be rejected, got %v", err)
	}
	if _, err := auth.Verify(ctx, "not-a-jwt"); !IsKind(err, KindUnauthorized) {
		t.Errorf("expected garbage token to be rejected, got %v", err)
	}
}

func TestNewJWTAuthenticatorRequiresConfig(t *testing.T) {
	if _, err := NewJWTAuthenticator("", "hash", "secret", time.Hour); err == nil {
		t.Error("expected error without admin email")
	}
	if _, err := NewJWTAuthenticator("a@b.c", "hash", "", time.Hour); err == nil {
		t.Error("expected error without secret")
	}
	if _, err := NewJWTAuthenticator("a@b.c", "hash", "secret", 0); err == nil {
		t.Error("expected error without expiry")
	}
}
