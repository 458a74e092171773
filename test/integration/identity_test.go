package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/telemed/telemed/internal/domain/identity"
	"github.com/telemed/telemed/internal/platform/auth"
)

func TestUserRepo(t *testing.T) {
	ctx := context.Background()
	repo := identity.NewUserRepo(globalPool)

	t.Run("Create", func(t *testing.T) {
		u := &identity.User{Username: uniqueName("create"), PasswordHash: "x", UserType: auth.UserTypePatient}
		if err := repo.Create(ctx, u); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if u.ID == uuid.Nil {
			t.Fatal("expected non-nil ID after create")
		}
		if u.CreatedAt.IsZero() {
			t.Fatal("expected created_at to be set")
		}
	})

	t.Run("DuplicateUsername", func(t *testing.T) {
		name := uniqueName("dup")
		if err := repo.Create(ctx, &identity.User{Username: name, PasswordHash: "x", UserType: auth.UserTypeDoctor}); err != nil {
			t.Fatalf("Create: %v", err)
		}
		err := repo.Create(ctx, &identity.User{Username: name, PasswordHash: "y", UserType: auth.UserTypeDoctor})
		if !errors.Is(err, identity.ErrUsernameTaken) {
			t.Fatalf("expected ErrUsernameTaken, got %v", err)
		}
	})

	t.Run("GetByUsername", func(t *testing.T) {
		created := createTestUser(t, ctx, auth.UserTypeDoctor)
		fetched, err := repo.GetByUsername(ctx, created.Username)
		if err != nil {
			t.Fatalf("GetByUsername: %v", err)
		}
		if fetched.ID != created.ID || fetched.UserType != auth.UserTypeDoctor {
			t.Errorf("unexpected user %+v", fetched)
		}
	})

	t.Run("GetByID_NotFound", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.New())
		if !errors.Is(err, identity.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := identity.NewService(identity.NewUserRepo(globalPool), 4)
	u := createTestUser(t, ctx, auth.UserTypePatient)

	got, err := svc.Authenticate(ctx, u.Username, "password123")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("expected %s, got %s", u.ID, got.ID)
	}

	if _, err := svc.Authenticate(ctx, u.Username, "wrong"); !errors.Is(err, identity.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}
