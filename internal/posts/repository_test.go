package posts

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/inkwell/internal/apperr"
	"github.com/yourusername/inkwell/internal/config"
	"github.com/yourusername/inkwell/internal/storage"
	"github.com/yourusername/inkwell/internal/users"
)

type fixture struct {
	repo  *Repository
	users *users.Store
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := storage.Open(config.DriverSQLite, filepath.Join(t.TempDir(), "posts.db"), nil)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = storage.Close(db) })
	if err := storage.Migrate(db, &users.User{}, &Post{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	f := &fixture{
		repo:  NewRepository(db),
		users: users.NewStore(db, bcrypt.MinCost),
		clock: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	f.repo.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) user(t *testing.T, name string) int64 {
	t.Helper()
	id, err := f.users.Register(context.Background(), name, "pw")
	if err != nil {
		t.Fatalf("Register(%s) returned error: %v", name, err)
	}
	return id
}

func TestCreateAndGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")

	id, err := f.repo.Create(ctx, "Hi", "", alice)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	entry, err := f.repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if entry.Title != "Hi" || entry.Body != "" || entry.AuthorID != alice || entry.Username != "alice" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if !entry.Created.Equal(f.clock) {
		t.Fatalf("unexpected created: %v", entry.Created)
	}
}

func TestCreateRequiresTitle(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")

	_, err := f.repo.Create(context.Background(), "", "body", alice)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateRejectsUnknownAuthor(t *testing.T) {
	f := newFixture(t)
	if _, err := f.repo.Create(context.Background(), "orphan", "", 999); err == nil {
		t.Fatal("expected foreign key violation for unknown author")
	}
}

func TestGetMissing(t *testing.T) {
	f := newFixture(t)
	_, err := f.repo.Get(context.Background(), 7)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err.Error() != "Post id 7 doesn't exist." {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestGetForAuthorForbidsOthers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	id, err := f.repo.Create(ctx, "mine", "", alice)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if _, err := f.repo.GetForAuthor(ctx, id, alice); err != nil {
		t.Fatalf("author lookup returned error: %v", err)
	}
	if _, err := f.repo.GetForAuthor(ctx, id, bob); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden for bob, got %v", err)
	}
	if _, err := f.repo.GetForAuthor(ctx, id+100, alice); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateKeepsAuthorAndCreated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")

	id, err := f.repo.Create(ctx, "draft", "v1", alice)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	created := f.clock

	f.clock = f.clock.Add(time.Hour)
	for _, body := range []string{"v2", "", "v3"} {
		if err := f.repo.Update(ctx, id, "final", body); err != nil {
			t.Fatalf("Update returned error: %v", err)
		}
		entry, err := f.repo.Get(ctx, id)
		if err != nil {
			t.Fatalf("Get returned error: %v", err)
		}
		if entry.AuthorID != alice {
			t.Fatalf("author changed to %d", entry.AuthorID)
		}
		if !entry.Created.Equal(created) {
			t.Fatalf("created changed to %v", entry.Created)
		}
		if entry.Title != "final" || entry.Body != body {
			t.Fatalf("unexpected entry after update: %+v", entry)
		}
	}
}

func TestUpdateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	id, _ := f.repo.Create(ctx, "draft", "", alice)

	err := f.repo.Update(ctx, id, "", "x")
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.ErrValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if appErr.Message != "Title is required" {
		t.Fatalf("unexpected update message: %q", appErr.Message)
	}
	_, err = f.repo.Create(ctx, "", "x", alice)
	if !errors.As(err, &appErr) || appErr.Message != "Title is required." {
		t.Fatalf("unexpected create error: %v", err)
	}
	if err := f.repo.Update(ctx, id+1, "t", "x"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	id, _ := f.repo.Create(ctx, "gone soon", "", alice)

	if err := f.repo.Delete(ctx, id); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := f.repo.Get(ctx, id); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestListAllOrdering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	first, _ := f.repo.Create(ctx, "first", "", alice)
	f.clock = f.clock.Add(time.Minute)
	tieA, _ := f.repo.Create(ctx, "tie a", "", bob)
	tieB, _ := f.repo.Create(ctx, "tie b", "", alice)
	f.clock = f.clock.Add(time.Minute)
	latest, _ := f.repo.Create(ctx, "latest", "", bob)

	entries, err := f.repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll returned error: %v", err)
	}
	want := []int64{latest, tieB, tieA, first}
	if len(entries) != len(want) {
		t.Fatalf("unexpected length: %d", len(entries))
	}
	for i, id := range want {
		if entries[i].ID != id {
			t.Fatalf("entries[%d].ID = %d, want %d", i, entries[i].ID, id)
		}
	}
	if entries[0].Username != "bob" || entries[3].Username != "alice" {
		t.Fatalf("usernames not joined: %+v", entries)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Created.After(entries[i-1].Created) {
			t.Fatalf("entries not in descending order at %d", i)
		}
	}
}

func TestListAllEmpty(t *testing.T) {
	f := newFixture(t)
	entries, err := f.repo.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll returned error: %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", entries)
	}
}
