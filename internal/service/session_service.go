package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/auth"
	"github.com/spec-kit/ticket-tracker/internal/config"
	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/events"
	"github.com/spec-kit/ticket-tracker/internal/repository"
	"github.com/spec-kit/ticket-tracker/pkg/util"
)

// Login and signup failures reuse one message per failure class so a caller
// cannot tell which half of the credentials was wrong.
var (
	ErrInvalidCredentials = util.NewUnauthorized("Invalid email or password. Please try again.")
	ErrEmailTaken         = util.NewConflict("An account with this email already exists. Please login instead.", nil)
	ErrInvalidToken       = util.NewUnauthorized("invalid or expired token")
)

// demoAccounts are the hardcoded credential pairs usable without signup,
// keyed by exact email. They are part of the catalogued demo behavior and can
// be switched off with SESSION_DEMO_ACCOUNTS=false.
var demoAccounts = map[string]struct {
	password string
	name     string
}{
	"user@test.com":  {password: "password123", name: "Test User"},
	"admin@test.com": {password: "admin123", name: "Admin User"},
}

// SessionService owns the single current-session record: login, signup,
// logout, and the current-user/token reads. Expired sessions are evicted
// lazily on read.
type SessionService struct {
	sessions   repository.SessionRepository
	users      repository.UserRepository
	tokens     *auth.TokenManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
	ttl        time.Duration
	demoLogin  bool
	now        func() time.Time
}

// SessionDependencies bundles collaborator requirements for the service.
type SessionDependencies struct {
	SessionRepo repository.SessionRepository
	UserRepo    repository.UserRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewSessionService builds the service.
func NewSessionService(cfg config.SessionConfig, deps SessionDependencies) *SessionService {
	return &SessionService{
		sessions:   deps.SessionRepo,
		users:      deps.UserRepo,
		tokens:     auth.NewTokenManager(cfg.JWTSecret, cfg.TTL()),
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		ttl:        cfg.TTL(),
		demoLogin:  cfg.DemoAccounts,
		now:        time.Now,
	}
}

// IsAuthenticated reports whether an unexpired session exists. An expired
// session found on the way is deleted before reporting false.
func (s *SessionService) IsAuthenticated(ctx context.Context) bool {
	session, err := s.sessions.Get(ctx)
	if err != nil || session == nil {
		return false
	}
	if session.Expired(s.now()) {
		_ = s.Logout(ctx)
		return false
	}
	return true
}

// Login authenticates by the demo-account table first, then by the persisted
// registry (email matched case-insensitively, password by exact comparison).
// On success a fresh session replaces whatever was stored before.
func (s *SessionService) Login(ctx context.Context, email, password string) (*domain.UserSummary, error) {
	var summary *domain.UserSummary

	if s.demoLogin {
		if acct, ok := demoAccounts[email]; ok && acct.password == password {
			local, _, _ := strings.Cut(email, "@")
			summary = &domain.UserSummary{
				ID:    "test_user_" + local,
				Email: email,
				Name:  acct.name,
			}
		}
	}

	if summary == nil {
		user, err := s.users.FindByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if user == nil || user.Password != password {
			return nil, ErrInvalidCredentials
		}
		sum := user.Summary()
		summary = &sum
	}

	if err := s.establish(ctx, *summary); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventSessionStarted, summary.ID,
		events.SessionStartedPayload{Email: summary.Email})
	return summary, nil
}

// Signup registers a new user and logs them in. The email is the natural key;
// a case-insensitive duplicate fails before anything is written.
func (s *SessionService) Signup(ctx context.Context, name, email, password string) (*domain.UserSummary, error) {
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	user := domain.User{
		ID:        "user_" + uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Password:  password,
		CreatedAt: s.now(),
	}
	if err := s.users.Append(ctx, user); err != nil {
		return nil, util.NewStorageError("user append", err)
	}
	s.logger.Info("user registered",
		zap.String("user_id", user.ID), zap.String("email", user.Email))

	summary := user.Summary()
	if err := s.establish(ctx, summary); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventSessionStarted, summary.ID,
		events.SessionStartedPayload{Email: summary.Email, Signup: true})
	return &summary, nil
}

// Logout deletes the session record unconditionally; logging out twice is
// fine.
func (s *SessionService) Logout(ctx context.Context) error {
	if err := s.sessions.Delete(ctx); err != nil {
		return util.NewStorageError("session delete", err)
	}
	s.publish(ctx, events.EventSessionEnded, "", nil)
	return nil
}

// CurrentUser returns the session's user summary, or nil when no valid
// session exists. Expired sessions are evicted on the way.
func (s *SessionService) CurrentUser(ctx context.Context) (*domain.UserSummary, error) {
	session, err := s.sessions.Get(ctx)
	if err != nil || session == nil {
		return nil, nil
	}
	if session.Expired(s.now()) {
		_ = s.Logout(ctx)
		return nil, nil
	}
	user := session.User
	return &user, nil
}

// Token returns the raw session token, or "" when no session is stored.
// Unlike CurrentUser it does not re-check expiry; the stored token is handed
// back as-is and CurrentUser stays the authoritative validity check.
func (s *SessionService) Token(ctx context.Context) (string, error) {
	session, err := s.sessions.Get(ctx)
	if err != nil || session == nil {
		return "", nil
	}
	return session.Token, nil
}

// UserFromToken identifies the holder of an issued token without consulting
// the stored session record. The signed claims carry everything the summary
// needs, so a client replaying its token stays identifiable after the
// server-side record is gone.
func (s *SessionService) UserFromToken(token string) (*domain.UserSummary, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return &domain.UserSummary{
		ID:    claims.Subject,
		Email: claims.Email,
		Name:  claims.Name,
	}, nil
}

func (s *SessionService) establish(ctx context.Context, user domain.UserSummary) error {
	token, _, err := s.tokens.Generate(user)
	if err != nil {
		return err
	}
	session := &domain.Session{
		Token:     token,
		User:      user,
		ExpiresAt: s.now().Add(s.ttl).UnixMilli(),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return util.NewStorageError("session save", err)
	}
	return nil
}

func (s *SessionService) publish(ctx context.Context, eventType events.EventType, userID string, payload any) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Timestamp: s.now(),
		Payload:   payload,
	})
}
