// Package service contains the business logic layer: it sits between the
// HTTP handlers and the repositories, and knows nothing about routing or
// response rendering.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"unicode/utf8"

	"github.com/TomatoBigBig/remix-jokes/internal/apperror"
	"github.com/TomatoBigBig/remix-jokes/internal/auth"
	"github.com/TomatoBigBig/remix-jokes/internal/model"
	"github.com/TomatoBigBig/remix-jokes/internal/repository"
	"github.com/TomatoBigBig/remix-jokes/internal/session"
)

// Validation constants for the login/registration form.
const (
	MinUsernameLength = 3
	MinPasswordLength = 6
)

// ErrStaleSession is returned by CurrentUser when a syntactically valid
// session points at a user record that no longer exists. Callers must treat
// it as a corrupted session and force a logout, never render partial data.
var ErrStaleSession = errors.New("service: session references a missing user")

// IdentityService owns registration, login, and the session lifecycle:
// producing a user identity from a request cookie and attaching or clearing
// that cookie on responses.
type IdentityService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	sessions  *session.Codec
	logger    *slog.Logger
}

// NewIdentityService wires the service. All dependencies are injected so
// tests can substitute an in-memory repository and a cheap bcrypt cost.
func NewIdentityService(
	users repository.UserRepository,
	passwords *auth.PasswordService,
	sessions *session.Codec,
	logger *slog.Logger,
) *IdentityService {
	return &IdentityService{
		users:     users,
		passwords: passwords,
		sessions:  sessions,
		logger:    logger,
	}
}

// ValidateUsername returns the form error for an unacceptable username, or
// "" when it is fine. The minimum counts runes, not bytes.
func ValidateUsername(username string) string {
	if utf8.RuneCountInString(username) < MinUsernameLength {
		return fmt.Sprintf("Usernames must be at least %d characters long", MinUsernameLength)
	}
	return ""
}

// ValidatePassword returns the form error for an unacceptable password, or
// "" when it is fine. The minimum counts runes, not bytes.
func ValidatePassword(password string) string {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fmt.Sprintf("Passwords must be at least %d characters long", MinPasswordLength)
	}
	return ""
}

// Register hashes the password and persists a new user.
//
// Username uniqueness is enforced by the store: a duplicate comes back as an
// apperror.ErrConflict bound to the username field, which the handler renders
// as a field-level validation failure on the form. Any pre-check a caller
// does first is a UX nicety, not the authority — two concurrent registrations
// are settled by the constraint.
func (s *IdentityService) Register(ctx context.Context, username, password string) (*model.User, error) {
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service: registering %s: %w", username, err)
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("service: registering %s: %w", username, err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Login checks the credentials and returns the user, or (nil, nil) when they
// are wrong.
//
// "No such user" and "wrong password" are deliberately indistinguishable to
// the caller, in response and in timing: the unknown-username path burns a
// bcrypt comparison against a throwaway hash so it is not measurably faster
// than a failed password check.
func (s *IdentityService) Login(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.passwords.DummyVerify(password)
			return nil, nil
		}
		return nil, fmt.Errorf("service: logging in %s: %w", username, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, nil
	}

	return user, nil
}

// CurrentUserID resolves the caller's user id from the session cookie, or ""
// for an anonymous request. Never fails, never blocks beyond the cookie
// decode.
func (s *IdentityService) CurrentUserID(r *http.Request) string {
	return s.sessions.DecodeRequest(r)[auth.UserIDKey]
}

// CurrentUser resolves the full user record for the session identity.
//
// Returns (nil, nil) for an anonymous request. A session pointing at a user
// that cannot be fetched — deleted, or the store is lying — returns
// ErrStaleSession: the caller must respond with EndSession rather than treat
// the request as authenticated.
func (s *IdentityService) CurrentUser(ctx context.Context, r *http.Request) (*model.User, error) {
	userID := s.CurrentUserID(r)
	if userID == "" {
		return nil, nil
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.logger.Warn("session references unknown user", slog.String("userID", userID))
		return nil, ErrStaleSession
	}

	return user, nil
}

// CreateSession issues a fresh session cookie for userID and redirects to
// redirectTo. This is the only place a session is ever established.
func (s *IdentityService) CreateSession(w http.ResponseWriter, r *http.Request, userID, redirectTo string) error {
	token, err := s.sessions.Encode(map[string]string{auth.UserIDKey: userID})
	if err != nil {
		return fmt.Errorf("service: creating session for %s: %w", userID, err)
	}

	s.sessions.WriteCookie(w, token)
	http.Redirect(w, r, redirectTo, http.StatusFound)
	return nil
}

// EndSession destroys the session cookie and redirects to the login page.
// Safe to call on an already-anonymous request.
func (s *IdentityService) EndSession(w http.ResponseWriter, r *http.Request) {
	s.sessions.ClearCookie(w)
	http.Redirect(w, r, auth.LoginPath, http.StatusFound)
}
