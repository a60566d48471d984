package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/config"
	"github.com/spec-kit/ticket-tracker/internal/events"
	"github.com/spec-kit/ticket-tracker/internal/repository"
	"github.com/spec-kit/ticket-tracker/internal/store"
)

func newSessionFixture(t *testing.T) (*SessionService, *store.Memory) {
	t.Helper()
	kv := store.NewMemory()
	logger := zap.NewNop()
	svc := NewSessionService(
		config.SessionConfig{JWTSecret: "test-secret", TTLHours: 24, DemoAccounts: true},
		SessionDependencies{
			SessionRepo: repository.NewSessionRepository(kv, logger),
			UserRepo:    repository.NewUserRepository(kv, logger),
			Dispatcher:  events.NewInMemoryDispatcher(),
			Logger:      logger,
		},
	)
	return svc, kv
}

func TestLoginDemoAccount(t *testing.T) {
	svc, _ := newSessionFixture(t)
	ctx := context.Background()

	user, err := svc.Login(ctx, "user@test.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "Test User", user.Name)
	assert.Equal(t, "test_user_user", user.ID)
	assert.Equal(t, "user@test.com", user.Email)

	assert.True(t, svc.IsAuthenticated(ctx))

	token, err := svc.Token(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc, _ := newSessionFixture(t)
	ctx := context.Background()

	// Wrong demo password falls through to the registry, which is empty; the
	// caller sees one generic message either way.
	_, err := svc.Login(ctx, "user@test.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "password123")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	assert.False(t, svc.IsAuthenticated(ctx))
}

func TestSignupThenLogin(t *testing.T) {
	svc, _ := newSessionFixture(t)
	ctx := context.Background()

	user, err := svc.Signup(ctx, "  Ada Lovelace  ", " Ada@Example.COM ", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", user.Name)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.NotEmpty(t, user.ID)

	// Signup auto-logs-in.
	current, err := svc.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, user.ID, current.ID)

	require.NoError(t, svc.Logout(ctx))
	assert.False(t, svc.IsAuthenticated(ctx))

	// Email lookup is case-insensitive; password comparison is exact.
	again, err := svc.Login(ctx, "ADA@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)

	_, err = svc.Login(ctx, "ada@example.com", "HUNTER22")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc, _ := newSessionFixture(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "First", "dup@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx))

	_, err = svc.Signup(ctx, "Second", "DUP@example.com", "secret2")
	require.ErrorIs(t, err, ErrEmailTaken)

	// The failed signup must not have established a session.
	assert.False(t, svc.IsAuthenticated(ctx))
}

func TestExpiredSessionEvictedLazily(t *testing.T) {
	svc, kv := newSessionFixture(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, "admin@test.com", "admin123")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(25 * time.Hour) }

	current, err := svc.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)

	// Eviction deletes the stored record, not just the view of it.
	_, err = kv.Get(ctx, repository.SessionKey)
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.False(t, svc.IsAuthenticated(ctx))
}

func TestTokenSkipsExpiryCheck(t *testing.T) {
	svc, _ := newSessionFixture(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, "admin@test.com", "admin123")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(25 * time.Hour) }

	// Token hands back the stored token even though the session has expired;
	// only the user-facing reads evict.
	token, err := svc.Token(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	current, err := svc.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)

	token, err = svc.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestLogoutIdempotent(t *testing.T) {
	svc, _ := newSessionFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.Logout(ctx))
	require.NoError(t, svc.Logout(ctx))

	_, err := svc.Login(ctx, "user@test.com", "password123")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx))
	require.NoError(t, svc.Logout(ctx))
	assert.False(t, svc.IsAuthenticated(ctx))
}

func TestCorruptSessionRecordReadsAsAbsent(t *testing.T) {
	svc, kv := newSessionFixture(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, repository.SessionKey, []byte("{not json")))

	assert.False(t, svc.IsAuthenticated(ctx))

	current, err := svc.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)

	token, err := svc.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestDemoAccountsDisabled(t *testing.T) {
	kv := store.NewMemory()
	logger := zap.NewNop()
	svc := NewSessionService(
		config.SessionConfig{JWTSecret: "test-secret", TTLHours: 24, DemoAccounts: false},
		SessionDependencies{
			SessionRepo: repository.NewSessionRepository(kv, logger),
			UserRepo:    repository.NewUserRepository(kv, logger),
			Logger:      logger,
		},
	)

	_, err := svc.Login(context.Background(), "user@test.com", "password123")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserFromToken(t *testing.T) {
	svc, _ := newSessionFixture(t)
	ctx := context.Background()

	user, err := svc.Login(ctx, "user@test.com", "password123")
	require.NoError(t, err)
	token, err := svc.Token(ctx)
	require.NoError(t, err)

	fromToken, err := svc.UserFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, user, fromToken)

	// The claims are self-contained, so the summary survives logout.
	require.NoError(t, svc.Logout(ctx))
	fromToken, err = svc.UserFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, user, fromToken)

	_, err = svc.UserFromToken("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionWritesPropagateStoreFaults(t *testing.T) {
	faulty := &faultyStore{Memory: store.NewMemory()}
	logger := zap.NewNop()
	svc := NewSessionService(
		config.SessionConfig{JWTSecret: "test-secret", TTLHours: 24, DemoAccounts: true},
		SessionDependencies{
			SessionRepo: repository.NewSessionRepository(faulty, logger),
			UserRepo:    repository.NewUserRepository(faulty, logger),
			Logger:      logger,
		},
	)
	ctx := context.Background()
	faulty.setErr = errors.New("disk full")

	_, err := svc.Signup(ctx, "Ada", "ada@example.com", "hunter22")
	assertStorageFailed(t, err)

	// Demo credentials check out, but the session record cannot be saved.
	_, err = svc.Login(ctx, "user@test.com", "password123")
	assertStorageFailed(t, err)

	assert.False(t, svc.IsAuthenticated(ctx))
}
