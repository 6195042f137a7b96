package auth

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// Gate checks permission tokens before a handler runs.
type Gate struct {
	logger *zap.Logger
}

// NewGate builds a gate; a nil logger disables denial logging.
func NewGate(logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{logger: logger}
}

// Require rejects callers that are not authenticated or lack perm.
func (g *Gate) Require(perm Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal == nil {
			return apperrors.NewUnauthenticated("authentication required")
		}
		if !principal.HasPermission(perm) {
			g.logger.Debug("permission denied",
				zap.String("user_id", principal.UserID()),
				zap.String("permission", string(perm)),
				zap.String("path", c.Path()),
			)
			return apperrors.NewForbidden(string(perm))
		}
		return c.Next()
	}
}
