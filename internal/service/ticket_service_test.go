package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/config"
	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/events"
	"github.com/spec-kit/ticket-tracker/internal/repository"
	"github.com/spec-kit/ticket-tracker/internal/store"
	"github.com/spec-kit/ticket-tracker/pkg/util"
)

type ticketFixture struct {
	tickets  *TicketService
	sessions *SessionService
	kv       store.Store
}

// faultyStore wraps the in-memory backend with switchable read and write
// faults so service behavior under storage failure is observable.
type faultyStore struct {
	*store.Memory
	getErr error
	setErr error
}

func (f *faultyStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.Memory.Get(ctx, key)
}

func (f *faultyStore) Set(ctx context.Context, key string, value []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.Memory.Set(ctx, key, value)
}

func newTicketFixture(t *testing.T) *ticketFixture {
	t.Helper()
	return newTicketFixtureOver(t, store.NewMemory())
}

func newTicketFixtureOver(t *testing.T, kv store.Store) *ticketFixture {
	t.Helper()
	logger := zap.NewNop()
	dispatcher := events.NewInMemoryDispatcher()

	sessions := NewSessionService(
		config.SessionConfig{JWTSecret: "test-secret", TTLHours: 24, DemoAccounts: true},
		SessionDependencies{
			SessionRepo: repository.NewSessionRepository(kv, logger),
			UserRepo:    repository.NewUserRepository(kv, logger),
			Dispatcher:  dispatcher,
			Logger:      logger,
		},
	)
	tickets := NewTicketService(
		config.TicketsConfig{SeedDemo: true},
		TicketDependencies{
			TicketRepo: repository.NewTicketRepository(kv, logger),
			Sessions:   sessions,
			Dispatcher: dispatcher,
			Logger:     logger,
		},
	)

	// Deterministic ids for assertions.
	nextID := 0
	tickets.newID = func() string {
		nextID++
		return fmt.Sprintf("ticket_test_%d", nextID)
	}

	// A fixed UTC clock keeps timestamps comparable after a JSON round trip
	// (wall-clock only, no monotonic reading).
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tickets.now = func() time.Time { return base }

	return &ticketFixture{tickets: tickets, sessions: sessions, kv: kv}
}

func TestListSeedsFreshPartitionOnce(t *testing.T) {
	fx := newTicketFixture(t)
	ctx := context.Background()

	first, err := fx.tickets.List(ctx)
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Equal(t, domain.TicketStatusOpen, first[0].Status)
	assert.Equal(t, domain.TicketStatusInProgress, first[1].Status)
	assert.Equal(t, domain.TicketStatusClosed, first[2].Status)
	assert.Equal(t, "ticket_1", first[0].ID)
	assert.True(t, first[0].CreatedAt.Before(time.Now()))

	second, err := fx.tickets.List(ctx)
	require.NoError(t, err)
	require.Len(t, second, 3)
	assert.Equal(t, first, second)
}

func TestStatsOnSeededPartition(t *testing.T) {
	fx := newTicketFixture(t)

	stats, err := fx.tickets.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStats{Total: 3, Open: 1, InProgress: 1, Closed: 1}, stats)
}

func TestCreateAppliesDefaultsAndRoundTrips(t *testing.T) {
	fx := newTicketFixture(t)
	ctx := context.Background()

	created, err := fx.tickets.Create(ctx, TicketCreateInput{Title: "Printer on fire"})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, created.Status)
	assert.Equal(t, domain.TicketPriorityMedium, created.Priority)
	assert.Empty(t, created.Description)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	fetched, err := fx.tickets.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, fetched)

	all, err := fx.tickets.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4) // 3 seeded + 1 created
}

func TestUpdatePreservesIdentity(t *testing.T) {
	fx := newTicketFixture(t)
	ctx := context.Background()

	created, err := fx.tickets.Create(ctx, TicketCreateInput{Title: "Original title"})
	require.NoError(t, err)

	fx.tickets.now = func() time.Time { return time.Date(2026, 1, 2, 4, 4, 5, 0, time.UTC) }

	newTitle := "New title"
	closed := domain.TicketStatusClosed
	updated, err := fx.tickets.Update(ctx, created.ID, TicketUpdate{Title: &newTitle, Status: &closed})
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "New title", updated.Title)
	assert.Equal(t, domain.TicketStatusClosed, updated.Status)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
}

func TestUpdateMissingTicket(t *testing.T) {
	fx := newTicketFixture(t)

	title := "x"
	_, err := fx.tickets.Update(context.Background(), "ticket_missing", TicketUpdate{Title: &title})
	require.ErrorIs(t, err, ErrTicketNotFound)
}

func TestDeleteReportsWhetherRemoved(t *testing.T) {
	fx := newTicketFixture(t)
	ctx := context.Background()

	before, err := fx.tickets.List(ctx)
	require.NoError(t, err)

	removed, err := fx.tickets.Delete(ctx, "ticket_missing")
	require.NoError(t, err)
	assert.False(t, removed)

	after, err := fx.tickets.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	removed, err = fx.tickets.Delete(ctx, "ticket_2")
	require.NoError(t, err)
	assert.True(t, removed)

	after, err = fx.tickets.List(ctx)
	require.NoError(t, err)
	assert.Len(t, after, len(before)-1)
	_, err = fx.tickets.GetByID(ctx, "ticket_2")
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestListByStatus(t *testing.T) {
	fx := newTicketFixture(t)
	ctx := context.Background()

	open, err := fx.tickets.ListByStatus(ctx, domain.TicketStatusOpen)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "ticket_1", open[0].ID)

	_, err = fx.tickets.Create(ctx, TicketCreateInput{Title: "Another open one"})
	require.NoError(t, err)

	open, err = fx.tickets.ListByStatus(ctx, domain.TicketStatusOpen)
	require.NoError(t, err)
	assert.Len(t, open, 2)
}

func TestPartitionFollowsSession(t *testing.T) {
	fx := newTicketFixture(t)
	ctx := context.Background()

	// Anonymous partition: seed plus one created ticket.
	created, err := fx.tickets.Create(ctx, TicketCreateInput{Title: "Anonymous ticket"})
	require.NoError(t, err)

	// Logging in switches to the user's own partition, which seeds fresh.
	_, err = fx.sessions.Login(ctx, "user@test.com", "password123")
	require.NoError(t, err)

	mine, err := fx.tickets.List(ctx)
	require.NoError(t, err)
	assert.Len(t, mine, 3)
	_, err = fx.tickets.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, ErrTicketNotFound)

	// Logging out returns to the shared anonymous partition.
	require.NoError(t, fx.sessions.Logout(ctx))

	anon, err := fx.tickets.List(ctx)
	require.NoError(t, err)
	assert.Len(t, anon, 4)
}

func TestSeedDisabled(t *testing.T) {
	fx := newTicketFixture(t)
	fx.tickets.seedDemo = false

	tickets, err := fx.tickets.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tickets)
}

func TestCorruptPartitionReadsEmptyWithoutReseed(t *testing.T) {
	fx := newTicketFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.kv.Set(ctx, repository.TicketsKey(""), []byte("not a list")))

	tickets, err := fx.tickets.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, tickets)

	// The corrupted record still occupies the key, so no demo seeding occurs.
	tickets, err = fx.tickets.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, tickets)
}

func assertStorageFailed(t *testing.T, err error) {
	t.Helper()
	var domainErr *util.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "STORAGE_FAILED", domainErr.Code)
}

func TestMutationsPropagateWriteFaults(t *testing.T) {
	faulty := &faultyStore{Memory: store.NewMemory()}
	fx := newTicketFixtureOver(t, faulty)
	ctx := context.Background()

	// Seed while the store is healthy, then break every write.
	_, err := fx.tickets.List(ctx)
	require.NoError(t, err)
	faulty.setErr = errors.New("disk full")

	_, err = fx.tickets.Create(ctx, TicketCreateInput{Title: "Doomed"})
	assertStorageFailed(t, err)

	title := "Renamed"
	_, err = fx.tickets.Update(ctx, "ticket_1", TicketUpdate{Title: &title})
	assertStorageFailed(t, err)

	_, err = fx.tickets.Delete(ctx, "ticket_1")
	assertStorageFailed(t, err)

	// The partition is untouched once writes recover.
	faulty.setErr = nil
	tickets, err := fx.tickets.List(ctx)
	require.NoError(t, err)
	assert.Len(t, tickets, 3)
}

func TestReadFaultsDegradeToEmpty(t *testing.T) {
	faulty := &faultyStore{Memory: store.NewMemory()}
	fx := newTicketFixtureOver(t, faulty)
	ctx := context.Background()

	_, err := fx.tickets.List(ctx)
	require.NoError(t, err)
	faulty.getErr = errors.New("connection reset")

	tickets, err := fx.tickets.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, tickets)

	stats, err := fx.tickets.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStats{}, stats)
}
