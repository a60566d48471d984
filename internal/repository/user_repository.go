package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/store"
)

// UserRepository persists the flat registered-user list.
type UserRepository interface {
	// List returns the registry; a missing or unreadable record reads as an
	// empty registry.
	List(ctx context.Context) ([]domain.User, error)
	// FindByEmail looks an email up case-insensitively. Returns nil when no
	// user matches.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Append(ctx context.Context, user domain.User) error
}

type userRepository struct {
	kv     store.Store
	logger *zap.Logger
}

// NewUserRepository returns a store-backed implementation.
func NewUserRepository(kv store.Store, logger *zap.Logger) UserRepository {
	return &userRepository{kv: kv, logger: logger}
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	raw, err := r.kv.Get(ctx, UsersKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			r.logger.Warn("user registry read failed", zap.Error(err))
		}
		return nil, nil
	}

	var users []domain.User
	if err := json.Unmarshal(raw, &users); err != nil {
		r.logger.Warn("discarding unreadable user registry", zap.Error(err))
		return nil, nil
	}
	return users, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	users, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if strings.EqualFold(users[i].Email, email) {
			return &users[i], nil
		}
	}
	return nil, nil
}

func (r *userRepository) Append(ctx context.Context, user domain.User) error {
	users, err := r.List(ctx)
	if err != nil {
		return err
	}
	users = append(users, user)

	raw, err := json.Marshal(users)
	if err != nil {
		return err
	}
	return r.kv.Set(ctx, UsersKey, raw)
}
