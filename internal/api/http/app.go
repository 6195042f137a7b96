package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// Services are the application services the HTTP surface exposes.
type Services struct {
	Auth        *service.AuthService
	Tickets     *service.TicketService
	Replies     *service.TicketReplyService
	Users       *service.UserService
	Roles       *service.RoleService
	Permissions *service.PermissionService
	Categories  *service.CategoryService
	Activity    *service.ActivityService
}

// AppOptions configures NewApp.
type AppOptions struct {
	Name       string
	Version    string
	Services   Services
	Users      auth.UserLoader
	Grants     auth.GrantSource
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Pagination handlers.Pagination
	Timeout    time.Duration
	// Dependencies probed by /health/ready, keyed by name.
	Dependencies map[string]handlers.Pinger
}

// NewApp builds the fiber application with middlewares and the full route table.
func NewApp(opts AppOptions) (*fiber.App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               opts.Name,
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(app, logger, opts.Metrics, opts.Timeout)

	svc := opts.Services
	err := RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler(opts.Name, opts.Version, opts.Dependencies, opts.Metrics),
		Auth:           handlers.NewAuthHandler(svc.Auth),
		Tickets:        handlers.NewTicketsHandler(svc.Tickets, opts.Pagination),
		Replies:        handlers.NewTicketRepliesHandler(svc.Replies, opts.Pagination),
		Users:          handlers.NewUsersHandler(svc.Users, opts.Pagination),
		Roles:          handlers.NewRolesHandler(svc.Roles, opts.Pagination),
		Permissions:    handlers.NewPermissionsHandler(svc.Permissions, opts.Pagination),
		Categories:     handlers.NewCategoriesHandler(svc.Categories, opts.Pagination),
		Activity:       handlers.NewActivityHandler(svc.Activity, opts.Pagination),
		AuthMiddleware: auth.NewAuthMiddleware(svc.Auth.TokenManager(), opts.Users, opts.Grants),
		Gate:           auth.NewGate(logger),
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}
