package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"vidhall/internal/domain"
	"vidhall/internal/repository"
)

// --- in-memory fakes ---

type fakeUserRepo struct {
	nextID  int64
	byLogin map[string]*domain.User
	byID    map[int64]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byLogin: make(map[string]*domain.User),
		byID:    make(map[int64]*domain.User),
	}
}

func (f *fakeUserRepo) Init(ctx context.Context) error { return nil }

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) (int64, error) {
	if _, exists := f.byLogin[user.Login]; exists {
		return 0, repository.ErrDuplicateLogin
	}
	f.nextID++
	user.ID = f.nextID
	copied := *user
	f.byLogin[user.Login] = &copied
	f.byID[user.ID] = &copied
	return user.ID, nil
}

func (f *fakeUserRepo) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	user, ok := f.byLogin[login]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

type fakeSessionRepo struct {
	byToken map[string]*domain.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{byToken: make(map[string]*domain.Session)}
}

func (f *fakeSessionRepo) Init(ctx context.Context) error { return nil }

func (f *fakeSessionRepo) Create(ctx context.Context, session *domain.Session) error {
	copied := *session
	f.byToken[session.Token] = &copied
	return nil
}

func (f *fakeSessionRepo) Get(ctx context.Context, token string) (*domain.Session, error) {
	session, ok := f.byToken[token]
	if !ok || !session.ExpiresAt.After(time.Now().UTC()) {
		return nil, repository.ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

func (f *fakeSessionRepo) Delete(ctx context.Context, token string) error {
	delete(f.byToken, token)
	return nil
}

func (f *fakeSessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for token, session := range f.byToken {
		if !session.ExpiresAt.After(now) {
			delete(f.byToken, token)
			n++
		}
	}
	return n, nil
}

func newTestAuth(t *testing.T) (AuthService, *fakeUserRepo, *fakeSessionRepo) {
	t.Helper()
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	return NewAuthService(users, sessions, time.Hour), users, sessions
}

// --- tests ---

func TestRegister_HashesPasswordAndIssuesSession(t *testing.T) {
	ctx := context.Background()
	auth, users, _ := newTestAuth(t)

	session, err := auth.Register(ctx, "alice", "secret123", "a@x.com")
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)

	stored, err := users.GetByLogin(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, session.UserID, stored.ID)
	require.NotEqual(t, "secret123", stored.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret123")))
	require.Error(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("other")))
}

func TestRegister_DuplicateLogin(t *testing.T) {
	ctx := context.Background()
	auth, users, _ := newTestAuth(t)

	_, err := auth.Register(ctx, "alice", "secret123", "a@x.com")
	require.NoError(t, err)

	_, err = auth.Register(ctx, "alice", "different", "b@x.com")
	require.ErrorIs(t, err, ErrLoginTaken)

	require.Len(t, users.byLogin, 1)
}

func TestRegister_RequiredFields(t *testing.T) {
	ctx := context.Background()
	auth, _, _ := newTestAuth(t)

	_, err := auth.Register(ctx, "", "secret123", "a@x.com")
	require.Error(t, err)
	_, err = auth.Register(ctx, "alice", "", "a@x.com")
	require.Error(t, err)
	_, err = auth.Register(ctx, "alice", "secret123", "")
	require.Error(t, err)
}

func TestLogin_Succeeds(t *testing.T) {
	ctx := context.Background()
	auth, _, _ := newTestAuth(t)

	registered, err := auth.Register(ctx, "alice", "secret123", "a@x.com")
	require.NoError(t, err)

	session, err := auth.Login(ctx, "alice", "secret123")
	require.NoError(t, err)
	require.Equal(t, registered.UserID, session.UserID)
	require.NotEqual(t, registered.Token, session.Token)
}

func TestLogin_FailureIsUniform(t *testing.T) {
	ctx := context.Background()
	auth, _, _ := newTestAuth(t)

	_, err := auth.Register(ctx, "alice", "secret123", "a@x.com")
	require.NoError(t, err)

	_, wrongPassword := auth.Login(ctx, "alice", "nope")
	_, unknownLogin := auth.Login(ctx, "bob", "whatever")

	require.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	require.ErrorIs(t, unknownLogin, ErrInvalidCredentials)
	require.Equal(t, wrongPassword.Error(), unknownLogin.Error())
}

func TestLogin_MalformedStoredHashReadsAsWrongPassword(t *testing.T) {
	ctx := context.Background()
	auth, users, _ := newTestAuth(t)

	_, err := users.Create(ctx, &domain.User{Login: "bob", PasswordHash: "not-a-bcrypt-hash", Email: "b@x.com"})
	require.NoError(t, err)

	_, err = auth.Login(ctx, "bob", "anything")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	auth, _, _ := newTestAuth(t)

	session, err := auth.Register(ctx, "alice", "secret123", "a@x.com")
	require.NoError(t, err)

	user, err := auth.Resolve(ctx, session.Token)
	require.NoError(t, err)
	require.Equal(t, session.UserID, user.ID)
	require.Equal(t, "alice", user.Login)

	_, err = auth.Resolve(ctx, "forged-token")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.Resolve(ctx, "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	auth, _, _ := newTestAuth(t)

	session, err := auth.Register(ctx, "alice", "secret123", "a@x.com")
	require.NoError(t, err)

	require.NoError(t, auth.Logout(ctx, session.Token))

	_, err = auth.Resolve(ctx, session.Token)
	require.ErrorIs(t, err, ErrInvalidCredentials)

	// logging out twice is a no-op
	require.NoError(t, auth.Logout(ctx, session.Token))
	require.NoError(t, auth.Logout(ctx, ""))
}

func TestPruneExpired(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	auth := NewAuthService(users, sessions, -time.Minute) // sessions born expired

	_, err := auth.Register(ctx, "alice", "secret123", "a@x.com")
	require.NoError(t, err)

	n, err := auth.PruneExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}
