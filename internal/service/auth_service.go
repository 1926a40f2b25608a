package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"vidhall/internal/domain"
	"vidhall/internal/repository"
)

var (
	// ErrInvalidCredentials is the single failure reported for a bad login,
	// a bad password, or a dead session. Callers must not be able to tell
	// which one occurred.
	ErrInvalidCredentials = errors.New("incorrect account data")
	// ErrLoginTaken is returned when registering with an existing login.
	ErrLoginTaken = errors.New("login already taken")
)

// AuthService covers the credential and session lifecycle: registration,
// login, logout and per-request session resolution.
type AuthService interface {
	Register(ctx context.Context, login, password, email string) (*domain.Session, error)
	Login(ctx context.Context, login, password string) (*domain.Session, error)
	Logout(ctx context.Context, token string) error
	Resolve(ctx context.Context, token string) (*domain.User, error)
	PruneExpired(ctx context.Context) (int64, error)
}

type authService struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	sessionTTL time.Duration
}

func NewAuthService(users repository.UserRepository, sessions repository.SessionRepository, sessionTTL time.Duration) AuthService {
	return &authService{
		users:      users,
		sessions:   sessions,
		sessionTTL: sessionTTL,
	}
}

func (s *authService) Register(ctx context.Context, login, password, email string) (*domain.Session, error) {
	login = strings.TrimSpace(login)
	email = strings.TrimSpace(email)

	if login == "" {
		return nil, errors.New("login is required")
	}
	if password == "" {
		return nil, errors.New("password is required")
	}
	if email == "" {
		return nil, errors.New("email is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Login:        login,
		PasswordHash: string(hash),
		Email:        email,
	}

	// The store's UNIQUE constraint decides duplicates; a racing Create may
	// reject a login that looked free a moment earlier.
	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateLogin) {
			return nil, ErrLoginTaken
		}
		return nil, err
	}

	return s.issueSession(ctx, user.ID)
}

func (s *authService) Login(ctx context.Context, login, password string) (*domain.Session, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// A malformed stored hash also fails the compare; indistinguishable from
	// a wrong password on purpose.
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueSession(ctx, user.ID)
}

func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Delete(ctx, token)
}

func (s *authService) Resolve(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrInvalidCredentials
	}

	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	return user, nil
}

func (s *authService) PruneExpired(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, time.Now().UTC())
}

func (s *authService) issueSession(ctx context.Context, userID int64) (*domain.Session, error) {
	now := time.Now().UTC()
	session := &domain.Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	return session, nil
}
