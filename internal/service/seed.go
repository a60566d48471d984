package service

import (
	"time"

	"github.com/spec-kit/ticket-tracker/internal/domain"
)

// seedTickets builds the three demo records every fresh partition starts
// with: one per status, staggered into the past so the dashboard has
// something to show.
func seedTickets(now time.Time) []domain.Ticket {
	const day = 24 * time.Hour
	return []domain.Ticket{
		{
			ID:          "ticket_1",
			Title:       "Login page not responsive on mobile",
			Description: "Users report that the login form is cut off on mobile devices",
			Status:      domain.TicketStatusOpen,
			Priority:    domain.TicketPriorityHigh,
			CreatedAt:   now.Add(-2 * day),
			UpdatedAt:   now.Add(-2 * day),
		},
		{
			ID:          "ticket_2",
			Title:       "Add dark mode support",
			Description: "Users have requested a dark mode theme option",
			Status:      domain.TicketStatusInProgress,
			Priority:    domain.TicketPriorityMedium,
			CreatedAt:   now.Add(-5 * day),
			UpdatedAt:   now.Add(-1 * day),
		},
		{
			ID:          "ticket_3",
			Title:       "Update terms of service page",
			Description: "Legal team requested updates to the terms page",
			Status:      domain.TicketStatusClosed,
			Priority:    domain.TicketPriorityLow,
			CreatedAt:   now.Add(-10 * day),
			UpdatedAt:   now.Add(-3 * day),
		},
	}
}
