package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/config"
	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/events"
	"github.com/spec-kit/ticket-tracker/internal/repository"
	"github.com/spec-kit/ticket-tracker/pkg/util"
)

// ErrTicketNotFound is the sentinel for lookups, updates, and fetches that
// miss.
var ErrTicketNotFound = util.NewNotFound("ticket", nil)

// TicketService owns the per-user ticket partitions: CRUD, stats, and status
// filters. The active partition follows the current session; without one the
// shared anonymous partition is used (anonymous tickets are therefore visible
// across anonymous sessions, a quirk carried over from the demo).
type TicketService struct {
	tickets    repository.TicketRepository
	sessions   *SessionService
	dispatcher events.Dispatcher
	logger     *zap.Logger
	seedDemo   bool
	now        func() time.Time
	newID      func() string
}

// TicketDependencies bundles collaborator requirements for the service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Sessions   *SessionService
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// TicketCreateInput describes a ticket creation payload. Status, priority,
// and description are optional; the zero values pick up the store defaults.
type TicketCreateInput struct {
	Title       string
	Description string
	Status      domain.TicketStatus
	Priority    domain.TicketPriority
}

// TicketUpdate carries a partial ticket; nil fields are left untouched.
type TicketUpdate struct {
	Title       *string
	Description *string
	Status      *domain.TicketStatus
	Priority    *domain.TicketPriority
}

// NewTicketService constructs the service.
func NewTicketService(cfg config.TicketsConfig, deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		sessions:   deps.Sessions,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		seedDemo:   cfg.SeedDemo,
		now:        time.Now,
		newID:      func() string { return "ticket_" + uuid.NewString() },
	}
}

// List returns the current partition's tickets in insertion order. The first
// read of a partition with no stored record seeds the three demo tickets; any
// storage trouble on this pure-read path degrades to an empty list.
func (s *TicketService) List(ctx context.Context) ([]domain.Ticket, error) {
	key := s.partitionKey(ctx)

	tickets, found, err := s.tickets.List(ctx, key)
	if err != nil {
		s.logger.Warn("ticket list read degraded to empty",
			zap.String("key", key), zap.Error(err))
		return []domain.Ticket{}, nil
	}

	if !found {
		if !s.seedDemo {
			return []domain.Ticket{}, nil
		}
		seeded := seedTickets(s.now())
		if err := s.tickets.Save(ctx, key, seeded); err != nil {
			s.logger.Warn("ticket seed failed", zap.String("key", key), zap.Error(err))
			return []domain.Ticket{}, nil
		}
		s.publish(ctx, events.EventTicketsSeeded,
			events.TicketsSeededPayload{PartitionKey: key, Count: len(seeded)})
		return seeded, nil
	}

	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return tickets, nil
}

// GetByID returns the first ticket with a matching id, or ErrTicketNotFound.
func (s *TicketService) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	tickets, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tickets {
		if tickets[i].ID == id {
			ticket := tickets[i]
			return &ticket, nil
		}
	}
	return nil, ErrTicketNotFound
}

// Create appends a new ticket to the current partition and returns it.
// Validation is the caller's job; Create applies defaults, not rules.
func (s *TicketService) Create(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	key := s.partitionKey(ctx)
	tickets, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	ticket := domain.Ticket{
		ID:          s.newID(),
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if ticket.Status == "" {
		ticket.Status = domain.TicketStatusOpen
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityMedium
	}

	tickets = append(tickets, ticket)
	if err := s.tickets.Save(ctx, key, tickets); err != nil {
		return nil, util.NewStorageError("ticket save", err)
	}

	s.publish(ctx, events.EventTicketCreated, events.TicketCreatedPayload{
		TicketID: ticket.ID,
		Title:    ticket.Title,
		Status:   ticket.Status,
		Priority: ticket.Priority,
	})
	return &ticket, nil
}

// Update merges the partial update over the stored ticket. The id and
// createdAt of the original always win; updatedAt is reset to now.
func (s *TicketService) Update(ctx context.Context, id string, updates TicketUpdate) (*domain.Ticket, error) {
	key := s.partitionKey(ctx)
	tickets, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range tickets {
		if tickets[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, ErrTicketNotFound
	}

	ticket := &tickets[idx]
	if updates.Title != nil {
		ticket.Title = *updates.Title
	}
	if updates.Description != nil {
		ticket.Description = *updates.Description
	}
	if updates.Status != nil {
		ticket.Status = *updates.Status
	}
	if updates.Priority != nil {
		ticket.Priority = *updates.Priority
	}
	ticket.UpdatedAt = s.now()

	if err := s.tickets.Save(ctx, key, tickets); err != nil {
		return nil, util.NewStorageError("ticket save", err)
	}

	s.publish(ctx, events.EventTicketUpdated, events.TicketUpdatedPayload{
		TicketID: ticket.ID,
		Status:   ticket.Status,
	})
	updated := *ticket
	return &updated, nil
}

// Delete removes the ticket with the matching id. It reports false when no
// ticket matched, leaving the stored sequence untouched.
func (s *TicketService) Delete(ctx context.Context, id string) (bool, error) {
	key := s.partitionKey(ctx)
	tickets, err := s.List(ctx)
	if err != nil {
		return false, err
	}

	remaining := tickets[:0:0]
	for _, ticket := range tickets {
		if ticket.ID != id {
			remaining = append(remaining, ticket)
		}
	}
	if len(remaining) == len(tickets) {
		return false, nil
	}

	if err := s.tickets.Save(ctx, key, remaining); err != nil {
		return false, util.NewStorageError("ticket save", err)
	}

	s.publish(ctx, events.EventTicketDeleted, events.TicketDeletedPayload{TicketID: id})
	return true, nil
}

// Stats counts the current partition's tickets by status.
func (s *TicketService) Stats(ctx context.Context) (domain.TicketStats, error) {
	tickets, err := s.List(ctx)
	if err != nil {
		return domain.TicketStats{}, err
	}

	stats := domain.TicketStats{Total: len(tickets)}
	for _, ticket := range tickets {
		switch ticket.Status {
		case domain.TicketStatusOpen:
			stats.Open++
		case domain.TicketStatusInProgress:
			stats.InProgress++
		case domain.TicketStatusClosed:
			stats.Closed++
		}
	}
	return stats, nil
}

// ListByStatus filters the current partition by exact status match.
func (s *TicketService) ListByStatus(ctx context.Context, status domain.TicketStatus) ([]domain.Ticket, error) {
	tickets, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]domain.Ticket, 0, len(tickets))
	for _, ticket := range tickets {
		if ticket.Status == status {
			filtered = append(filtered, ticket)
		}
	}
	return filtered, nil
}

func (s *TicketService) partitionKey(ctx context.Context) string {
	user, _ := s.sessions.CurrentUser(ctx)
	if user == nil {
		return repository.TicketsKey("")
	}
	return repository.TicketsKey(user.ID)
}

func (s *TicketService) publish(ctx context.Context, eventType events.EventType, payload any) {
	if s.dispatcher == nil {
		return
	}
	userID := ""
	if user, _ := s.sessions.CurrentUser(ctx); user != nil {
		userID = user.ID
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Timestamp: s.now(),
		Payload:   payload,
	})
}
