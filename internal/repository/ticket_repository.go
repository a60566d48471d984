package repository

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/store"
)

// TicketRepository persists one ticket list per partition key.
type TicketRepository interface {
	// List returns the partition's tickets and whether a record exists under
	// the key at all. An unreadable record reads as present but empty, so the
	// caller never re-seeds over corrupted data.
	List(ctx context.Context, key string) (tickets []domain.Ticket, found bool, err error)
	Save(ctx context.Context, key string, tickets []domain.Ticket) error
}

type ticketRepository struct {
	kv     store.Store
	logger *zap.Logger
}

// NewTicketRepository returns a store-backed implementation.
func NewTicketRepository(kv store.Store, logger *zap.Logger) TicketRepository {
	return &ticketRepository{kv: kv, logger: logger}
}

func (r *ticketRepository) List(ctx context.Context, key string) ([]domain.Ticket, bool, error) {
	raw, err := r.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var tickets []domain.Ticket
	if err := json.Unmarshal(raw, &tickets); err != nil {
		r.logger.Warn("discarding unreadable ticket list",
			zap.String("key", key), zap.Error(err))
		return nil, true, nil
	}
	return tickets, true, nil
}

func (r *ticketRepository) Save(ctx context.Context, key string, tickets []domain.Ticket) error {
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	raw, err := json.Marshal(tickets)
	if err != nil {
		return err
	}
	return r.kv.Set(ctx, key, raw)
}
