package events

import (
	"time"

	"github.com/spec-kit/ticket-tracker/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSessionStarted EventType = "session_started"
	EventSessionEnded   EventType = "session_ended"
	EventTicketCreated  EventType = "ticket_created"
	EventTicketUpdated  EventType = "ticket_updated"
	EventTicketDeleted  EventType = "ticket_deleted"
	EventTicketsSeeded  EventType = "tickets_seeded"
)

// Event represents a domain event emitted by the services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// SessionStartedPayload payload.
type SessionStartedPayload struct {
	Email  string `json:"email"`
	Signup bool   `json:"signup"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketID string                `json:"ticket_id"`
	Title    string                `json:"title"`
	Status   domain.TicketStatus   `json:"status"`
	Priority domain.TicketPriority `json:"priority"`
}

// TicketUpdatedPayload payload.
type TicketUpdatedPayload struct {
	TicketID string              `json:"ticket_id"`
	Status   domain.TicketStatus `json:"status"`
}

// TicketDeletedPayload payload.
type TicketDeletedPayload struct {
	TicketID string `json:"ticket_id"`
}

// TicketsSeededPayload payload.
type TicketsSeededPayload struct {
	PartitionKey string `json:"partition_key"`
	Count        int    `json:"count"`
}
