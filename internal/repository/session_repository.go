package repository

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/store"
)

// SessionRepository persists the single active session record under a fixed
// key.
type SessionRepository interface {
	// Get returns the stored session, or nil when none exists. A record that
	// cannot be decoded reads as no session.
	Get(ctx context.Context) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context) error
}

type sessionRepository struct {
	kv     store.Store
	logger *zap.Logger
}

// NewSessionRepository returns a store-backed implementation.
func NewSessionRepository(kv store.Store, logger *zap.Logger) SessionRepository {
	return &sessionRepository{kv: kv, logger: logger}
}

func (r *sessionRepository) Get(ctx context.Context) (*domain.Session, error) {
	raw, err := r.kv.Get(ctx, SessionKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		r.logger.Warn("session read failed", zap.Error(err))
		return nil, nil
	}

	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		r.logger.Warn("discarding unreadable session record", zap.Error(err))
		return nil, nil
	}
	return &session, nil
}

func (r *sessionRepository) Save(ctx context.Context, session *domain.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return r.kv.Set(ctx, SessionKey, raw)
}

func (r *sessionRepository) Delete(ctx context.Context) error {
	return r.kv.Delete(ctx, SessionKey)
}
