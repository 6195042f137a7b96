package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// AuthHandler exposes registration, login and the current-user view.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /v1/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	session, err := h.auth.Register(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "REGISTER_SUCCESS", authResponse(session))
}

// Login handles POST /v1/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	session, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "LOGIN_SUCCESS", authResponse(session))
}

// Me handles GET /v1/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, grants, err := h.auth.Me(c.UserContext(), actorID(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "USER_RETRIEVED_SUCCESSFULLY", dto.MeResponse{
		User:        userResponse(user),
		Roles:       grants.Roles,
		Permissions: grants.Permissions,
	})
}

func authResponse(s *service.Session) dto.AuthResponse {
	return dto.AuthResponse{
		User:      userResponse(s.User),
		Token:     s.Token,
		TokenType: "Bearer",
		ExpiresAt: s.ExpiresAt,
	}
}
