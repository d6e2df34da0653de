package auth

import (
	"errors"
	"testing"
	"time"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "correct horse battery" {
		t.Fatal("hash must not equal plaintext")
	}

	if err := CheckPassword(hash, "correct horse battery"); err != nil {
		t.Errorf("check with correct password: %v", err)
	}
	if err := CheckPassword(hash, "wrong password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("check with wrong password: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestHashPassword_TooShort(t *testing.T) {
	if _, err := HashPassword("short"); err == nil {
		t.Error("expected error for password below minimum length")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	svc, err := NewService("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	token, err := svc.GenerateToken(Identity{UserID: "user-123", Email: "a@example.com"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	id, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if id.UserID != "user-123" {
		t.Errorf("UserID = %q, want %q", id.UserID, "user-123")
	}
	if id.Email != "a@example.com" {
		t.Errorf("Email = %q, want %q", id.Email, "a@example.com")
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	issuer, _ := NewService("secret-one", time.Hour)
	verifier, _ := NewService("secret-two", time.Hour)

	token, err := issuer.GenerateToken(Identity{UserID: "user-123"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := verifier.ValidateToken(token); err == nil {
		t.Error("expected validation failure with wrong secret")
	}
}

func TestValidateToken_Garbage(t *testing.T) {
	svc, _ := NewService("test-secret", time.Hour)

	if _, err := svc.ValidateToken("not.a.token"); err == nil {
		t.Error("expected validation failure for garbage token")
	}
}

func TestValidateToken_Expired(t *testing.T) {
	svc, _ := NewService("test-secret", time.Hour)
	// Force a negative expiry to mint an already-expired token.
	svc.expiry = -time.Minute

	token, err := svc.GenerateToken(Identity{UserID: "user-123"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := svc.ValidateToken(token); err == nil {
		t.Error("expected validation failure for expired token")
	}
}

func TestNewService_Validation(t *testing.T) {
	if _, err := NewService("", time.Hour); err == nil {
		t.Error("expected error for empty secret")
	}

	svc, err := NewService("secret", 0)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	// Zero expiry falls back to 24h.
	if got := svc.ExpirySeconds(); got != 86400 {
		t.Errorf("ExpirySeconds() = %d, want 86400", got)
	}
}
