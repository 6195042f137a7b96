package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// UsersHandler administers accounts.
type UsersHandler struct {
	service    *service.UserService
	pagination Pagination
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService, pagination Pagination) *UsersHandler {
	return &UsersHandler{service: userService, pagination: pagination}
}

// List GET /v1/users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	params, err := h.pagination.listParams(c)
	if err != nil {
		return err
	}
	page, err := h.service.ListUsers(c.UserContext(), params)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "USERS_RETRIEVED_SUCCESSFULLY", dto.NewList(page, userResponse))
}

// Create POST /v1/users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.service.CreateUser(c.UserContext(), actorID(c), service.UserCreateInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Roles:    req.Roles,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "USER_CREATED_SUCCESSFULLY", userResponse(user))
}

// Show GET /v1/users/:id.
func (h *UsersHandler) Show(c *fiber.Ctx) error {
	user, err := h.service.GetUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "USER_RETRIEVED_SUCCESSFULLY", userResponse(user))
}

// Update PUT /v1/users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Password.Set && req.Password.Value != "" && req.PasswordConfirmation.Value != req.Password.Value {
		return apperrors.NewFieldError("password", "The password field confirmation does not match.")
	}
	user, err := h.service.UpdateUser(c.UserContext(), actorID(c), c.Params("id"), service.UserUpdateInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Roles:    req.Roles,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "USER_UPDATED_SUCCESSFULLY", userResponse(user))
}

// Delete DELETE /v1/users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.DeleteUser(c.UserContext(), actorID(c), c.Params("id")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "USER_DELETED_SUCCESSFULLY", nil)
}
