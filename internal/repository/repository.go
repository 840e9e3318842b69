package repository

import (
	"context"

	"github.com/TomatoBigBig/remix-jokes/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository persists accounts. Create must enforce username uniqueness
// at the storage level and report a violation as apperror.ErrConflict — the
// service layer's pre-check is advisory only.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

// JokeRepository persists jokes. Misses are apperror.ErrNotFound; anything
// else is a genuine storage failure.
type JokeRepository interface {
	Create(ctx context.Context, joke *model.Joke) error
	GetByID(ctx context.Context, id string) (*model.Joke, error)
	List(ctx context.Context, opts ListOptions) ([]model.Joke, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id string) error
}
