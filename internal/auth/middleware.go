package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/domain"
)

const identityKey = "auth_identity"

// AuthMiddleware validates bearer tokens and loads identities.
type AuthMiddleware struct {
	gate *Gate
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(gate *Gate) *AuthMiddleware {
	return &AuthMiddleware{gate: gate}
}

// Handle enforces authentication for protected routes, optionally restricted to roles.
func (m *AuthMiddleware) Handle(allowed ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := m.gate.Authorize(c.UserContext(), TokenFromRequest(c), allowed...)
		if err != nil {
			return err
		}
		c.Locals(identityKey, identity)
		return c.Next()
	}
}

// TokenFromRequest reads the bearer token from the Authorization header,
// falling back to the token query parameter.
func TokenFromRequest(c *fiber.Ctx) string {
	if token, ok := ExtractBearer(c.Get(fiber.HeaderAuthorization)); ok {
		return token
	}
	return c.Query("token")
}

// CurrentUser retrieves the authenticated identity.
func CurrentUser(c *fiber.Ctx) (*domain.Identity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*domain.Identity)
	return identity, ok
}
