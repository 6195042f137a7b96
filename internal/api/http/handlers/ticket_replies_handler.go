package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// TicketRepliesHandler serves replies nested under a ticket.
type TicketRepliesHandler struct {
	service    *service.TicketReplyService
	pagination Pagination
}

// NewTicketRepliesHandler constructs handler.
func NewTicketRepliesHandler(replyService *service.TicketReplyService, pagination Pagination) *TicketRepliesHandler {
	return &TicketRepliesHandler{service: replyService, pagination: pagination}
}

// List GET /v1/tickets/:ticket/replies.
func (h *TicketRepliesHandler) List(c *fiber.Ctx) error {
	params, err := h.pagination.listParams(c)
	if err != nil {
		return err
	}
	page, err := h.service.ListReplies(c.UserContext(), c.Params("ticket"), params)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "TICKET_REPLIES_RETRIEVED_SUCCESSFULLY", dto.NewList(page, replyResponse))
}

// Create POST /v1/tickets/:ticket/replies.
func (h *TicketRepliesHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateReplyRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	reply, err := h.service.CreateReply(c.UserContext(), actorID(c), c.Params("ticket"), req.Content)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "TICKET_REPLY_CREATED_SUCCESSFULLY", replyResponse(reply))
}

// Show GET /v1/tickets/:ticket/replies/:reply.
func (h *TicketRepliesHandler) Show(c *fiber.Ctx) error {
	reply, err := h.service.GetReply(c.UserContext(), c.Params("ticket"), c.Params("reply"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "TICKET_REPLY_RETRIEVED_SUCCESSFULLY", replyResponse(reply))
}

// Update PUT /v1/tickets/:ticket/replies/:reply.
func (h *TicketRepliesHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateReplyRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	reply, err := h.service.UpdateReply(c.UserContext(), actorID(c), c.Params("ticket"), c.Params("reply"), req.Content)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "TICKET_REPLY_UPDATED_SUCCESSFULLY", replyResponse(reply))
}

// Delete DELETE /v1/tickets/:ticket/replies/:reply.
func (h *TicketRepliesHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.DeleteReply(c.UserContext(), actorID(c), c.Params("ticket"), c.Params("reply")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "TICKET_REPLY_DELETED_SUCCESSFULLY", nil)
}
