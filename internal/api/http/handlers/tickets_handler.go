package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// TicketsHandler serves the ticket resource.
type TicketsHandler struct {
	service    *service.TicketService
	pagination Pagination
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, pagination Pagination) *TicketsHandler {
	return &TicketsHandler{service: ticketService, pagination: pagination}
}

// List GET /v1/tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	params, err := h.pagination.listParams(c)
	if err != nil {
		return err
	}
	page, err := h.service.ListTickets(c.UserContext(), params)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "TICKETS_RETRIEVED_SUCCESSFULLY", dto.NewList(page, ticketResponse))
}

// Create POST /v1/tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.CreateTicket(c.UserContext(), actorID(c), service.TicketCreateInput{
		Title:            req.Title,
		Description:      req.Description,
		Status:           req.Status,
		Priority:         req.Priority,
		AssignedToUserID: req.AssignedToUserID,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "TICKET_CREATED_SUCCESSFULLY", ticketResponse(ticket))
}

// Show GET /v1/tickets/:id.
func (h *TicketsHandler) Show(c *fiber.Ctx) error {
	ticket, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "TICKET_RETRIEVED_SUCCESSFULLY", ticketResponse(ticket))
}

// Update PUT /v1/tickets/:id.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateTicketRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.UpdateTicket(c.UserContext(), actorID(c), c.Params("id"), service.TicketUpdateInput{
		Title:            req.Title,
		Description:      req.Description,
		Status:           req.Status,
		Priority:         req.Priority,
		AssignedToUserID: req.AssignedToUserID,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "TICKET_UPDATED_SUCCESSFULLY", ticketResponse(ticket))
}

// Delete DELETE /v1/tickets/:id.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.DeleteTicket(c.UserContext(), actorID(c), c.Params("id")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "TICKET_DELETED_SUCCESSFULLY", nil)
}
