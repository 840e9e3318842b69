package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/TomatoBigBig/remix-jokes/internal/apperror"
	"github.com/TomatoBigBig/remix-jokes/internal/model"
	"github.com/TomatoBigBig/remix-jokes/internal/repository"
)

// createTestJoke inserts a joke owned by jokesterID; foreign keys are on, so
// the owner has to exist first.
func createTestJoke(t *testing.T, db *DB, name, jokesterID string) *model.Joke {
	t.Helper()
	joke := &model.Joke{Name: name, Content: "a joke long enough to be funny", JokesterID: jokesterID}
	if err := db.Jokes().Create(context.Background(), joke); err != nil {
		t.Fatalf("failed to create test joke: %v", err)
	}
	return joke
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestJokeCreate(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "kody")

	joke := &model.Joke{
		Name:       "Frisbee",
		Content:    "I was wondering why the frisbee was getting bigger, then it hit me.",
		JokesterID: owner.ID,
	}
	if err := db.Jokes().Create(context.Background(), joke); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if joke.ID == "" {
		t.Error("Create() did not set joke.ID")
	}
	if joke.CreatedAt.IsZero() {
		t.Error("Create() did not set joke.CreatedAt")
	}
}

func TestJokeCreate_UnknownOwnerRejected(t *testing.T) {
	db := newTestDB(t)

	// jokester_id references users(id) and enforcement is on
	joke := &model.Joke{Name: "Orphan", Content: "content long enough here", JokesterID: "ghost"}
	if err := db.Jokes().Create(context.Background(), joke); err == nil {
		t.Error("Create() with an unknown owner should violate the foreign key")
	}
}

// =========================================================================
// GET / LIST / COUNT TESTS
// =========================================================================

func TestJokeGetByID(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "kody")
	created := createTestJoke(t, db, "Frisbee", owner.ID)

	got, err := db.Jokes().GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "Frisbee" {
		t.Errorf("name = %q, want Frisbee", got.Name)
	}
	if got.JokesterID != owner.ID {
		t.Errorf("jokesterID = %q, want %q", got.JokesterID, owner.ID)
	}
}

func TestJokeGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Jokes().GetByID(context.Background(), "missing")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() = %v, want ErrNotFound", err)
	}
}

func TestJokeListAndCount(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "kody")

	for i := 0; i < 5; i++ {
		createTestJoke(t, db, fmt.Sprintf("Joke %d", i), owner.ID)
	}

	count, err := db.Jokes().Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 5 {
		t.Errorf("Count() = %d, want 5", count)
	}

	jokes, err := db.Jokes().List(ctx, repository.ListOptions{Limit: 3})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(jokes) != 3 {
		t.Errorf("List(limit=3) returned %d jokes", len(jokes))
	}

	rest, err := db.Jokes().List(ctx, repository.ListOptions{Limit: 3, Offset: 3})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(rest) != 2 {
		t.Errorf("List(limit=3, offset=3) returned %d jokes, want 2", len(rest))
	}
}

func TestJokeList_SingleRowAtOffset(t *testing.T) {
	// the random-joke picker fetches exactly one row at a random offset;
	// every offset must yield a distinct joke
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "kody")

	for i := 0; i < 4; i++ {
		createTestJoke(t, db, fmt.Sprintf("Joke %d", i), owner.ID)
	}

	seen := map[string]bool{}
	for offset := 0; offset < 4; offset++ {
		jokes, err := db.Jokes().List(ctx, repository.ListOptions{Limit: 1, Offset: offset})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(jokes) != 1 {
			t.Fatalf("List(limit=1, offset=%d) returned %d jokes", offset, len(jokes))
		}
		seen[jokes[0].ID] = true
	}
	if len(seen) != 4 {
		t.Errorf("offsets yielded %d distinct jokes, want 4", len(seen))
	}
}

// =========================================================================
// DELETE TESTS
// =========================================================================

func TestJokeDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "kody")
	joke := createTestJoke(t, db, "Frisbee", owner.ID)

	if err := db.Jokes().Delete(ctx, joke.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, err := db.Jokes().GetByID(ctx, joke.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after delete = %v, want ErrNotFound", err)
	}
}

func TestJokeDelete_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.Jokes().Delete(context.Background(), "missing")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() of missing joke = %v, want ErrNotFound", err)
	}
}
