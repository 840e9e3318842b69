package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/TomatoBigBig/remix-jokes/internal/apperror"
	"github.com/TomatoBigBig/remix-jokes/internal/model"
	"github.com/TomatoBigBig/remix-jokes/internal/repository"
)

// JokeStore implements repository.JokeRepository on the shared pool.
// Obtain one through DB.Jokes.
type JokeStore struct {
	conn *sql.DB
}

// compile-time check that *JokeStore implements repository.JokeRepository
var _ repository.JokeRepository = (*JokeStore)(nil)

// Create inserts a new joke. The generated xid and timestamps are written
// back into the caller's struct — after Create returns, joke.ID is the
// canonical identifier to redirect to.
func (s *JokeStore) Create(ctx context.Context, joke *model.Joke) error {
	joke.ID = xid.New().String()
	now := time.Now()
	joke.CreatedAt = now
	joke.UpdatedAt = now

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO jokes (id, name, content, jokester_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		joke.ID,
		joke.Name,
		joke.Content,
		joke.JokesterID,
		joke.CreatedAt,
		joke.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating joke: %w", err)
	}

	return nil
}

// GetByID retrieves a single joke by its ID.
// Returns apperror.ErrNotFound when no such joke exists.
func (s *JokeStore) GetByID(ctx context.Context, id string) (*model.Joke, error) {
	var j model.Joke

	err := s.conn.QueryRowContext(ctx,
		`SELECT id, name, content, jokester_id, created_at, updated_at
		 FROM jokes
		 WHERE id = ?`,
		id,
	).Scan(
		&j.ID,
		&j.Name,
		&j.Content,
		&j.JokesterID,
		&j.CreatedAt,
		&j.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("joke", id)
		}
		return nil, fmt.Errorf("sqlite: getting joke %s: %w", id, err)
	}

	return &j, nil
}

// List retrieves jokes newest-first with LIMIT/OFFSET pagination.
// The random-joke picker uses Limit 1 with a random offset, so the ordering
// has to be stable between Count and List.
func (s *JokeStore) List(ctx context.Context, opts repository.ListOptions) ([]model.Joke, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100 // prevent fetching the entire table in one page
	}

	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, name, content, jokester_id, created_at, updated_at
		 FROM jokes
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing jokes: %w", err)
	}
	defer rows.Close()

	jokes := make([]model.Joke, 0, limit)

	for rows.Next() {
		var j model.Joke
		if err := rows.Scan(
			&j.ID, &j.Name, &j.Content, &j.JokesterID,
			&j.CreatedAt, &j.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning joke row: %w", err)
		}
		jokes = append(jokes, j)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating jokes: %w", err)
	}

	return jokes, nil
}

// Count returns the total number of jokes.
func (s *JokeStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM jokes`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting jokes: %w", err)
	}
	return count, nil
}

// Delete removes a joke by its ID.
// RowsAffected detects the miss — 0 rows changed means the joke didn't exist.
func (s *JokeStore) Delete(ctx context.Context, id string) error {
	result, err := s.conn.ExecContext(ctx,
		`DELETE FROM jokes WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting joke %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("joke", id)
	}

	return nil
}
