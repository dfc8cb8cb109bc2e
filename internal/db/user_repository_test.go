package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chepyr/go-todo/internal/models"
	"github.com/google/uuid"
)

func newUser(email string) *models.User {
	return &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC(),
	}
}

func TestUserRepository_Create(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	user := newUser("test_1@example.com")

	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	// verify user was created
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM users WHERE email = $1", user.Email).Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query user: %v", err)
	}
	if count != 1 {
		t.Fatalf("Expected 1 user, got %d", count)
	}
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))

	if err := repo.Create(context.Background(), newUser("dup@example.com")); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := repo.Create(context.Background(), newUser("dup@example.com")); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken on duplicate email, got %v", err)
	}
}

func TestUserRepository_GetByEmailAndID(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	user := newUser("test_2@example.com")
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create: %v", err)
	}

	byEmail, err := repo.GetByEmail(context.Background(), user.Email)
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if byEmail.ID != user.ID || byEmail.PasswordHash != "hash" {
		t.Errorf("GetByEmail mismatch: %#v", byEmail)
	}
	if byEmail.UpdatedAt != nil {
		t.Errorf("expected nil UpdatedAt, got %v", byEmail.UpdatedAt)
	}

	byID, err := repo.GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if byID.Email != user.Email {
		t.Errorf("GetByID email = %q, want %q", byID.Email, user.Email)
	}
}

func TestUserRepository_NotFound(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))

	if _, err := repo.GetByEmail(context.Background(), "missing@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByEmail: expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetByID(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID: expected ErrNotFound, got %v", err)
	}
}
