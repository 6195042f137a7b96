package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/pkg/util"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// Pagination bounds the per_page query parameter.
type Pagination struct {
	DefaultPerPage int
	MaxPerPage     int
}

func respond(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(dto.Envelope{
		Timestamp: time.Now().UTC(),
		Code:      status,
		Message:   message,
		Data:      data,
	})
}

// bind decodes the JSON body into dst and validates its tags.
// An empty body decodes to the zero value, which suits partial updates.
func bind(c *fiber.Ctx, dst any) error {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(dst); err != nil {
			return apperrors.NewValidationError("invalid payload", map[string]any{
				"body": []string{"The request body must be a valid JSON object."},
			})
		}
	}
	return util.ValidateStruct(dst)
}

// actorID is the authenticated caller; the gate guarantees one on protected routes.
func actorID(c *fiber.Ctx) string {
	principal, _ := auth.PrincipalFromContext(c)
	return principal.UserID()
}

func (p Pagination) listParams(c *fiber.Ctx) (domain.ListParams, error) {
	details := map[string]any{}
	page, ok := positiveInt(c.Query("page"), 1)
	if !ok {
		details["page"] = []string{"The page field must be a positive integer."}
	}
	perPage, ok := positiveInt(c.Query("per_page"), p.DefaultPerPage)
	switch {
	case !ok:
		details["per_page"] = []string{"The per_page field must be a positive integer."}
	case p.MaxPerPage > 0 && perPage > p.MaxPerPage:
		details["per_page"] = []string{"The per_page field must not be greater than " + strconv.Itoa(p.MaxPerPage) + "."}
	}
	if len(details) > 0 {
		return domain.ListParams{}, apperrors.NewValidationError("validation failed", details)
	}
	return domain.ListParams{
		Page:      page,
		PerPage:   perPage,
		SortBy:    strings.TrimSpace(c.Query("sort_by")),
		SortOrder: domain.SortOrder(strings.ToLower(strings.TrimSpace(c.Query("sort_order")))),
		Search:    strings.TrimSpace(c.Query("search")),
	}, nil
}

func positiveInt(val string, def int) (int, bool) {
	if val == "" {
		return def, true
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed < 1 {
		return 0, false
	}
	return parsed, true
}
