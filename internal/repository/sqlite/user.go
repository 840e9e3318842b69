package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/TomatoBigBig/remix-jokes/internal/apperror"
	"github.com/TomatoBigBig/remix-jokes/internal/model"
	"github.com/TomatoBigBig/remix-jokes/internal/repository"
)

// UserStore implements repository.UserRepository on the shared pool.
// Obtain one through DB.Users.
type UserStore struct {
	conn *sql.DB
}

// compile-time check that *UserStore implements repository.UserRepository
var _ repository.UserRepository = (*UserStore)(nil)

// Create inserts a new user. The generated xid and timestamps are written
// back into the caller's struct.
//
// A violation of the UNIQUE constraint on username is translated to
// apperror.Conflict so the service layer can report "username taken" as a
// field error rather than a storage failure. This is the race-safe path:
// two concurrent registrations with the same username both reach the INSERT,
// and exactly one of them gets the Conflict.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		// modernc.org/sqlite reports constraint violations as
		// "constraint failed: UNIQUE constraint failed: users.username".
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.username") {
			return apperror.Conflict("username",
				fmt.Sprintf("User with username %s already exists", user.Username))
		}
		return fmt.Errorf("sqlite: creating user %s: %w", user.Username, err)
	}

	return nil
}

// GetByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := s.conn.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at, updated_at
		 FROM users WHERE id = ?`,
		id,
	).Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}

	return &u, nil
}

// GetByUsername retrieves a user by their unique username.
// Returns apperror.ErrNotFound if no such user exists.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User

	err := s.conn.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at, updated_at
		 FROM users WHERE username = ?`,
		username,
	).Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("sqlite: getting user by username %s: %w", username, err)
	}

	return &u, nil
}
