package dto

import (
	"time"

	"github.com/spec-kit/ticket-tracker/internal/domain"
)

// CreateTicketRequest payload. Status and priority are optional and default
// in the store.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
}

// UpdateTicketRequest payload; omitted fields keep their stored value.
type UpdateTicketRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
}

// TicketResponse mirrors the stored ticket record.
type TicketResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(ticket domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:          ticket.ID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Status:      string(ticket.Status),
		Priority:    string(ticket.Priority),
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
}

// NewTicketListResponse maps a slice of domain tickets.
func NewTicketListResponse(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for _, ticket := range tickets {
		out = append(out, NewTicketResponse(ticket))
	}
	return out
}

// StatsResponse carries the per-status counts for the dashboard.
type StatsResponse struct {
	Total      int `json:"total"`
	Open       int `json:"open"`
	InProgress int `json:"inProgress"`
	Closed     int `json:"closed"`
}

// NewStatsResponse maps domain stats.
func NewStatsResponse(stats domain.TicketStats) StatsResponse {
	return StatsResponse{
		Total:      stats.Total,
		Open:       stats.Open,
		InProgress: stats.InProgress,
		Closed:     stats.Closed,
	}
}
