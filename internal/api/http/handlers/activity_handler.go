package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// ActivityHandler exposes the audit log of one resource per route.
type ActivityHandler struct {
	service    *service.ActivityService
	pagination Pagination
}

// NewActivityHandler constructs handler.
func NewActivityHandler(activityService *service.ActivityService, pagination Pagination) *ActivityHandler {
	return &ActivityHandler{service: activityService, pagination: pagination}
}

// Log returns a handler listing the entries recorded under logName.
func (h *ActivityHandler) Log(logName string) fiber.Handler {
	message := strings.ToUpper(logName) + "_ACTIVITY_LOGS_RETRIEVED_SUCCESSFULLY"
	return func(c *fiber.Ctx) error {
		params, err := h.pagination.listParams(c)
		if err != nil {
			return err
		}
		page, err := h.service.List(c.UserContext(), logName, params)
		if err != nil {
			return err
		}
		return respond(c, http.StatusOK, message, dto.NewList(page, activityResponse))
	}
}
