package users

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/inkwell/internal/apperr"
	"github.com/yourusername/inkwell/internal/config"
	"github.com/yourusername/inkwell/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := storage.Open(config.DriverSQLite, filepath.Join(t.TempDir(), "users.db"), nil)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = storage.Close(db) })
	if err := storage.Migrate(db, &User{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return NewStore(db, bcrypt.MinCost)
}

func TestRegisterAndFind(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Register(ctx, "alice", "secret1")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero id")
	}

	user, err := store.FindByUsername(ctx, "alice")
	if err != nil || user == nil {
		t.Fatalf("FindByUsername = %v, %v", user, err)
	}
	if user.ID != id {
		t.Fatalf("unexpected id: %d want %d", user.ID, id)
	}
	if user.PasswordHash == "secret1" || !strings.HasPrefix(user.PasswordHash, "$2") {
		t.Fatalf("password not stored as bcrypt hash: %q", user.PasswordHash)
	}

	byID, err := store.FindByID(ctx, id)
	if err != nil || byID == nil || byID.Username != "alice" {
		t.Fatalf("FindByID = %v, %v", byID, err)
	}
}

func TestRegisterRequiresFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Register(ctx, "", "pw")
	if !errors.Is(err, apperr.ErrValidation) || err.Error() != "Username is required." {
		t.Fatalf("unexpected error for empty username: %v", err)
	}
	_, err = store.Register(ctx, "alice", "")
	if !errors.Is(err, apperr.ErrValidation) || err.Error() != "Password is required." {
		t.Fatalf("unexpected error for empty password: %v", err)
	}
}

func TestRegisterRejectsLongPassword(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Register(context.Background(), "alice", strings.Repeat("x", 73))
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRegisterDuplicateRegardlessOfPassword(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Register(ctx, "alice", "secret1"); err != nil {
		t.Fatalf("first Register returned error: %v", err)
	}
	for _, pw := range []string{"secret1", "other", "x"} {
		_, err := store.Register(ctx, "alice", pw)
		if !errors.Is(err, apperr.ErrDuplicateUser) {
			t.Fatalf("expected duplicate error for password %q, got %v", pw, err)
		}
		if err.Error() != "User alice is already registered." {
			t.Fatalf("unexpected message: %s", err.Error())
		}
	}
}

func TestUsernamesAreCaseSensitive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Register(ctx, "alice", "pw"); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if _, err := store.Register(ctx, "Alice", "pw"); err != nil {
		t.Fatalf("Register with different case returned error: %v", err)
	}
	user, err := store.FindByUsername(ctx, "ALICE")
	if err != nil {
		t.Fatalf("FindByUsername returned error: %v", err)
	}
	if user != nil {
		t.Fatalf("expected no match, got %+v", user)
	}
}

func TestFindMissingReturnsNil(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user, err := store.FindByUsername(ctx, "nobody")
	if err != nil || user != nil {
		t.Fatalf("FindByUsername = %v, %v", user, err)
	}
	user, err = store.FindByID(ctx, 42)
	if err != nil || user != nil {
		t.Fatalf("FindByID = %v, %v", user, err)
	}
	user, err = store.FindByUsername(ctx, "")
	if err != nil || user != nil {
		t.Fatalf("FindByUsername(empty) = %v, %v", user, err)
	}
}

func TestCheckPassword(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Register(ctx, "alice", "secret1"); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	user, _ := store.FindByUsername(ctx, "alice")
	if !store.CheckPassword(user, "secret1") {
		t.Fatal("expected correct password to match")
	}
	if store.CheckPassword(user, "wrong") {
		t.Fatal("expected wrong password to fail")
	}
	if store.CheckPassword(nil, "secret1") {
		t.Fatal("expected nil user to fail")
	}
}
