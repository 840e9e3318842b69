package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"unicode/utf8"

	"github.com/TomatoBigBig/remix-jokes/internal/apperror"
	"github.com/TomatoBigBig/remix-jokes/internal/auth"
	"github.com/TomatoBigBig/remix-jokes/internal/model"
	"github.com/TomatoBigBig/remix-jokes/internal/repository"
)

// Validation constants for the joke form.
const (
	MinJokeNameLength    = 3
	MinJokeContentLength = 10
	DefaultListLimit     = 20
)

// JokeService handles business logic for jokes: validation, the random pick,
// and the ownership rule on deletion.
type JokeService struct {
	repo   repository.JokeRepository
	logger *slog.Logger
}

// NewJokeService creates a JokeService.
func NewJokeService(repo repository.JokeRepository, logger *slog.Logger) *JokeService {
	return &JokeService{
		repo:   repo,
		logger: logger,
	}
}

// ValidateJokeName returns the form error for an unacceptable joke name, or
// "" when it is fine. Length is counted in runes, not bytes, so multibyte
// input is measured the way a person reading the form would count it.
func ValidateJokeName(name string) string {
	if utf8.RuneCountInString(name) < MinJokeNameLength {
		return "That joke's name is too short"
	}
	return ""
}

// ValidateJokeContent returns the form error for unacceptable joke content,
// or "" when it is fine.
func ValidateJokeContent(content string) string {
	if utf8.RuneCountInString(content) < MinJokeContentLength {
		return "That joke is too short"
	}
	return ""
}

// Create validates and saves a new joke owned by jokesterID.
func (s *JokeService) Create(ctx context.Context, name, content, jokesterID string) (*model.Joke, error) {
	if jokesterID == "" {
		return nil, apperror.Forbidden("you must be logged in to create a joke")
	}
	if msg := ValidateJokeName(name); msg != "" {
		return nil, apperror.ValidationFailed("name", msg)
	}
	if msg := ValidateJokeContent(content); msg != "" {
		return nil, apperror.ValidationFailed("content", msg)
	}

	joke := &model.Joke{
		Name:       name,
		Content:    content,
		JokesterID: jokesterID,
	}
	if err := s.repo.Create(ctx, joke); err != nil {
		return nil, fmt.Errorf("service: creating joke: %w", err)
	}

	s.logger.Info("joke created",
		slog.String("jokeID", joke.ID),
		slog.String("jokesterID", jokesterID),
	)

	return joke, nil
}

// Get returns a single joke. Misses surface as apperror.ErrNotFound.
func (s *JokeService) Get(ctx context.Context, id string) (*model.Joke, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns up to limit jokes, newest first.
func (s *JokeService) List(ctx context.Context, limit, offset int) ([]model.Joke, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.repo.List(ctx, repository.ListOptions{Limit: limit, Offset: offset})
}

// Random picks one joke uniformly at random: count the table, then fetch a
// single row at a random offset. Returns (nil, nil) when there are no jokes
// at all — that is an empty state for the page, not an error.
func (s *JokeService) Random(ctx context.Context) (*model.Joke, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: counting jokes: %w", err)
	}
	if count == 0 {
		return nil, nil
	}

	jokes, err := s.repo.List(ctx, repository.ListOptions{
		Limit:  1,
		Offset: rand.Intn(count),
	})
	if err != nil {
		return nil, fmt.Errorf("service: picking random joke: %w", err)
	}
	if len(jokes) == 0 {
		// the table shrank between Count and List
		return nil, nil
	}

	return &jokes[0], nil
}

// Delete removes a joke on behalf of userID.
//
// The joke must exist (apperror.ErrNotFound otherwise) and userID must be its
// owner (apperror.ErrForbidden otherwise — a terminal denial, not a prompt to
// log in). On the forbidden path nothing is deleted.
func (s *JokeService) Delete(ctx context.Context, id, userID string) error {
	joke, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := auth.RequireOwnership(joke.JokesterID, userID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("service: deleting joke %s: %w", id, err)
	}

	s.logger.Info("joke deleted",
		slog.String("jokeID", id),
		slog.String("userID", userID),
	)

	return nil
}
