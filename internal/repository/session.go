package repository

import (
	"context"
	"errors"
	"time"

	"vidhall/internal/domain"
)

// ErrSessionNotFound is returned when a token matches no live session.
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository defines persistence operations for login sessions.
type SessionRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, session *domain.Session) error
	// Get resolves a token to its session. Expired sessions are treated as
	// absent.
	Get(ctx context.Context, token string) (*domain.Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
