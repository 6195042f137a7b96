package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Replies        *handlers.TicketRepliesHandler
	Users          *handlers.UsersHandler
	Roles          *handlers.RolesHandler
	Permissions    *handlers.PermissionsHandler
	Categories     *handlers.CategoriesHandler
	Activity       *handlers.ActivityHandler
	AuthMiddleware *auth.AuthMiddleware
	Gate           *auth.Gate
}

type access int

const (
	accessUnset access = iota
	public
	authenticated
	gated
)

// route is one row of the static routing table.
type route struct {
	method     string
	path       string
	access     access
	permission auth.Permission
	handler    fiber.Handler
}

func pub(method, path string, h fiber.Handler) route {
	return route{method: method, path: path, access: public, handler: h}
}

func self(method, path string, h fiber.Handler) route {
	return route{method: method, path: path, access: authenticated, handler: h}
}

func can(perm auth.Permission, method, path string, h fiber.Handler) route {
	return route{method: method, path: path, access: gated, permission: perm, handler: h}
}

// routes lists every /v1 endpoint. Fixed segments such as activity-log precede /:id.
func routes(cfg RouteConfig) []route {
	return []route{
		pub(fiber.MethodPost, "/login", cfg.Auth.Login),
		pub(fiber.MethodPost, "/register", cfg.Auth.Register),
		self(fiber.MethodGet, "/me", cfg.Auth.Me),

		can(auth.TicketsAccess, fiber.MethodGet, "/tickets", cfg.Tickets.List),
		can(auth.TicketsCreate, fiber.MethodPost, "/tickets", cfg.Tickets.Create),
		can(auth.TicketsActivityLog, fiber.MethodGet, "/tickets/activity-log", cfg.Activity.Log(domain.LogTicket)),
		can(auth.TicketsAccess, fiber.MethodGet, "/tickets/:id", cfg.Tickets.Show),
		can(auth.TicketsUpdate, fiber.MethodPut, "/tickets/:id", cfg.Tickets.Update),
		can(auth.TicketsDelete, fiber.MethodDelete, "/tickets/:id", cfg.Tickets.Delete),

		can(auth.TicketRepliesAccess, fiber.MethodGet, "/tickets/:ticket/replies", cfg.Replies.List),
		can(auth.TicketRepliesCreate, fiber.MethodPost, "/tickets/:ticket/replies", cfg.Replies.Create),
		can(auth.TicketRepliesAccess, fiber.MethodGet, "/tickets/:ticket/replies/:reply", cfg.Replies.Show),
		can(auth.TicketRepliesUpdate, fiber.MethodPut, "/tickets/:ticket/replies/:reply", cfg.Replies.Update),
		can(auth.TicketRepliesDelete, fiber.MethodDelete, "/tickets/:ticket/replies/:reply", cfg.Replies.Delete),
		can(auth.TicketRepliesActivityLog, fiber.MethodGet, "/ticket-replies/activity-log", cfg.Activity.Log(domain.LogTicketReply)),

		can(auth.UsersAccess, fiber.MethodGet, "/users", cfg.Users.List),
		can(auth.UsersCreate, fiber.MethodPost, "/users", cfg.Users.Create),
		can(auth.UsersActivityLog, fiber.MethodGet, "/users/activity-log", cfg.Activity.Log(domain.LogUser)),
		can(auth.UsersAccess, fiber.MethodGet, "/users/:id", cfg.Users.Show),
		can(auth.UsersUpdate, fiber.MethodPut, "/users/:id", cfg.Users.Update),
		can(auth.UsersDelete, fiber.MethodDelete, "/users/:id", cfg.Users.Delete),

		can(auth.RolesAccess, fiber.MethodGet, "/roles", cfg.Roles.List),
		can(auth.RolesCreate, fiber.MethodPost, "/roles", cfg.Roles.Create),
		can(auth.RolesAccess, fiber.MethodGet, "/roles/:id", cfg.Roles.Show),
		can(auth.RolesUpdate, fiber.MethodPut, "/roles/:id", cfg.Roles.Update),
		can(auth.RolesDelete, fiber.MethodDelete, "/roles/:id", cfg.Roles.Delete),

		can(auth.PermissionsAccess, fiber.MethodGet, "/permissions", cfg.Permissions.List),
		can(auth.PermissionsCreate, fiber.MethodPost, "/permissions", cfg.Permissions.Create),
		can(auth.PermissionsAccess, fiber.MethodGet, "/permissions/:id", cfg.Permissions.Show),
		can(auth.PermissionsUpdate, fiber.MethodPut, "/permissions/:id", cfg.Permissions.Update),
		can(auth.PermissionsDelete, fiber.MethodDelete, "/permissions/:id", cfg.Permissions.Delete),

		can(auth.CategoriesAccess, fiber.MethodGet, "/categories", cfg.Categories.List),
		can(auth.CategoriesCreate, fiber.MethodPost, "/categories", cfg.Categories.Create),
		can(auth.CategoriesActivityLog, fiber.MethodGet, "/categories/activity-log", cfg.Activity.Log(domain.LogCategory)),
		can(auth.CategoriesAccess, fiber.MethodGet, "/categories/:id", cfg.Categories.Show),
		can(auth.CategoriesUpdate, fiber.MethodPut, "/categories/:id", cfg.Categories.Update),
		can(auth.CategoriesDelete, fiber.MethodDelete, "/categories/:id", cfg.Categories.Delete),
	}
}

// RegisterRoutes wires HTTP routes. It fails when a route lacks an access rule
// or names a permission outside the catalogue.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) error {
	table := routes(cfg)
	if err := checkRoutes(table); err != nil {
		return err
	}

	health := app.Group("/health")
	health.Get("/live", cfg.Health.Live)
	health.Get("/ready", cfg.Health.Ready)
	health.Get("/metrics", cfg.Health.Metrics)

	v1 := app.Group("/v1")
	for _, r := range table {
		chain := []fiber.Handler{}
		switch r.access {
		case authenticated:
			chain = append(chain, cfg.AuthMiddleware.Handle)
		case gated:
			chain = append(chain, cfg.AuthMiddleware.Handle, cfg.Gate.Require(r.permission))
		}
		v1.Add(r.method, r.path, append(chain, r.handler)...)
	}
	return nil
}

func checkRoutes(table []route) error {
	seen := make(map[string]struct{}, len(table))
	for _, r := range table {
		key := r.method + " " + r.path
		if _, dup := seen[key]; dup {
			return fmt.Errorf("route %s registered twice", key)
		}
		seen[key] = struct{}{}

		if r.handler == nil {
			return fmt.Errorf("route %s has no handler", key)
		}
		switch r.access {
		case public, authenticated:
		case gated:
			if !auth.Known(r.permission) {
				return fmt.Errorf("route %s requires unknown permission %q", key, r.permission)
			}
		default:
			return fmt.Errorf("route %s has no access rule", key)
		}
	}
	return nil
}
