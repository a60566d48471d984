package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-tracker/internal/api/dto"
	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/service"
	"github.com/spec-kit/ticket-tracker/internal/validation"
	"github.com/spec-kit/ticket-tracker/pkg/util"
)

// TicketsHandler exposes the ticket manager endpoints.
type TicketsHandler struct {
	tickets *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets}
}

// List handles GET /tickets, optionally filtered with ?status=.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	if status := c.Query("status"); status != "" {
		if !domain.TicketStatus(status).Valid() {
			return util.NewValidationError("unknown status filter",
				map[string]any{"status": "Status must be one of: open, in_progress, closed"})
		}
		tickets, err := h.tickets.ListByStatus(c.UserContext(), domain.TicketStatus(status))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": dto.NewTicketListResponse(tickets)})
	}

	tickets, err := h.tickets.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketListResponse(tickets)})
}

// Stats handles GET /tickets/stats.
func (h *TicketsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.tickets.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStatsResponse(stats)})
}

// Get handles GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	ticket, err := h.tickets.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(*ticket)})
}

// Create handles POST /tickets. The payload is validated here; the store
// itself only applies defaults.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	fields := validation.Ticket(validation.TicketInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
	})
	if !fields.Valid() {
		return util.NewValidationError("ticket payload invalid", fieldDetails(fields))
	}

	ticket, err := h.tickets.Create(c.UserContext(), service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      domain.TicketStatus(req.Status),
		Priority:    domain.TicketPriority(req.Priority),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(*ticket)})
}

// Update handles PATCH /tickets/:id. The request is merged over the stored
// ticket and the merged result validated, the way the edit form re-validates
// its pre-filled fields.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	existing, err := h.tickets.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}

	merged := validation.TicketInput{
		Title:       existing.Title,
		Description: existing.Description,
		Status:      string(existing.Status),
		Priority:    string(existing.Priority),
	}
	if req.Title != nil {
		merged.Title = *req.Title
	}
	if req.Description != nil {
		merged.Description = *req.Description
	}
	if req.Status != nil {
		merged.Status = *req.Status
	}
	if req.Priority != nil {
		merged.Priority = *req.Priority
	}
	if fields := validation.Ticket(merged); !fields.Valid() {
		return util.NewValidationError("ticket payload invalid", fieldDetails(fields))
	}

	updates := service.TicketUpdate{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Status != nil {
		status := domain.TicketStatus(*req.Status)
		updates.Status = &status
	}
	if req.Priority != nil {
		priority := domain.TicketPriority(*req.Priority)
		updates.Priority = &priority
	}

	ticket, err := h.tickets.Update(c.UserContext(), c.Params("id"), updates)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(*ticket)})
}

// Delete handles DELETE /tickets/:id.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	deleted, err := h.tickets.Delete(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if !deleted {
		return service.ErrTicketNotFound
	}
	return c.SendStatus(http.StatusNoContent)
}
