package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller and what it may do.
type Principal struct {
	User        *domain.User
	Roles       []string
	permissions map[string]struct{}
}

// NewPrincipal binds a user to its resolved grants.
func NewPrincipal(user *domain.User, grants domain.Grants) *Principal {
	set := make(map[string]struct{}, len(grants.Permissions))
	for _, p := range grants.Permissions {
		set[p] = struct{}{}
	}
	return &Principal{User: user, Roles: grants.Roles, permissions: set}
}

// HasPermission reports whether any of the caller's roles grants p.
func (p *Principal) HasPermission(perm Permission) bool {
	if p == nil {
		return false
	}
	_, ok := p.permissions[string(perm)]
	return ok
}

// UserID returns the caller's id, or "" for a nil principal.
func (p *Principal) UserID() string {
	if p == nil || p.User == nil {
		return ""
	}
	return p.User.ID
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// WithPrincipal stores p on the request.
func WithPrincipal(c *fiber.Ctx, p *Principal) {
	c.Locals(principalKey, p)
}
