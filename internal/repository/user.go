package repository

import (
	"context"
	"errors"

	"vidhall/internal/domain"
)

var (
	// ErrDuplicateLogin is returned by Create when the login is already taken.
	ErrDuplicateLogin = errors.New("login already taken")
	// ErrUserNotFound is returned by lookups that match no user.
	ErrUserNotFound = errors.New("user not found")
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByLogin(ctx context.Context, login string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}
