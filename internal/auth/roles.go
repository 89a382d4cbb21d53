package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/domain"
)

// RequireRoles narrows an already authenticated group to the allowed roles.
func RequireRoles(allowed ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := CurrentUser(c)
		if !ok {
			return domain.ErrUnauthorized
		}
		if !identity.HasRole(allowed...) {
			return domain.ErrAccessDenied
		}
		return c.Next()
	}
}
