package store

import (
	"errors"
	"testing"
)

func TestCreateUser(t *testing.T) {
	store := setupTestStore(t)

	u, err := store.CreateUser("Alice@Example.com", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.ID == "" {
		t.Error("expected non-empty user ID")
	}
	if u.Email != "alice@example.com" {
		t.Errorf("email = %q, want lowercased %q", u.Email, "alice@example.com")
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	store := setupTestStore(t)

	if _, err := store.CreateUser("bob@example.com", "hash"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	// Same address with different casing collides too.
	_, err := store.CreateUser("BOB@example.com", "hash2")
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestCreateUser_InvalidEmail(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.CreateUser("not-an-email", "hash")
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestGetUserByEmail(t *testing.T) {
	store := setupTestStore(t)
	id := createTestUser(t, store, "carol@example.com")

	u, err := store.GetUserByEmail("Carol@Example.COM")
	if err != nil {
		t.Fatalf("get user by email: %v", err)
	}
	if u.ID != id {
		t.Errorf("ID = %q, want %q", u.ID, id)
	}

	if _, err := store.GetUserByEmail("missing@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetUserByID(t *testing.T) {
	store := setupTestStore(t)
	id := createTestUser(t, store, "dave@example.com")

	u, err := store.GetUserByID(id)
	if err != nil {
		t.Fatalf("get user by id: %v", err)
	}
	if u.Email != "dave@example.com" {
		t.Errorf("email = %q, want %q", u.Email, "dave@example.com")
	}

	if _, err := store.GetUserByID("no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
