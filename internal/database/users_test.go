package database

import (
	"context"
	"errors"
	"testing"

	"rental-agreements-go/internal/models"
	"rental-agreements-go/internal/store"
)

func TestCreateUser_DuplicateEmail(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	params := store.CreateUserParams{Name: "Ann", Email: "ann@example.com", Role: models.RoleTenant}

	if _, err := service.CreateUser(ctx, params); err != nil {
		t.Fatalf("First CreateUser failed: %v", err)
	}

	params.Email = "  ANN@example.com "
	_, err := service.CreateUser(ctx, params)
	if !errors.Is(err, store.ErrDuplicateUser) {
		t.Fatalf("Expected ErrDuplicateUser, got %v", err)
	}
}

func TestCreateUser_InvalidRole(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	_, err := service.CreateUser(context.Background(), store.CreateUserParams{
		Name: "Ann", Email: "ann@example.com", Role: "admin",
	})
	if err == nil {
		t.Fatal("Expected error for invalid role")
	}
}

func TestGetUserByEmail(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	created, err := service.CreateUser(ctx, store.CreateUserParams{
		Name: "Ann", Email: "ann@example.com", Role: models.RoleLandlord, PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	user, err := service.GetUserByEmail(ctx, "Ann@Example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if user.Id != created.Id {
		t.Errorf("Expected user %s, got %s", created.Id, user.Id)
	}
	if user.Role != models.RoleLandlord {
		t.Errorf("Expected role landlord, got %s", user.Role)
	}
	if user.PasswordHash != "hash" {
		t.Errorf("Expected password hash to round-trip, got %q", user.PasswordHash)
	}

	_, err = service.GetUserById(ctx, "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	users, err := service.GetUsers(ctx)
	if err != nil {
		t.Fatalf("GetUsers failed: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("Expected 1 user, got %d", len(users))
	}
}
