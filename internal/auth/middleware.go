package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// UserLoader fetches the account behind a token subject.
type UserLoader interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// GrantSource resolves the roles and permission tokens held by a user.
type GrantSource interface {
	GrantsForUser(ctx context.Context, userID string) (domain.Grants, error)
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens *TokenManager
	users  UserLoader
	grants GrantSource
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users UserLoader, grants GrantSource) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users, grants: grants}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthenticated("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return apperrors.NewUnauthenticated("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthenticated("invalid token")
	}

	ctx := c.UserContext()
	user, err := m.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewUnauthenticated("user not found")
		}
		return apperrors.NewInternalError(err)
	}

	grants, err := m.grants.GrantsForUser(ctx, user.ID)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	user.Roles = grants.Roles

	WithPrincipal(c, NewPrincipal(user, grants))
	return c.Next()
}
