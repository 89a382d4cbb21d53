package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/api/dto"
	"github.com/spec-kit/account-service/internal/domain"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// PresenceLister reports online users per role and per user.
type PresenceLister interface {
	Online(ctx context.Context, roles ...domain.Role) (map[domain.Role][]string, error)
	IsOnline(ctx context.Context, userID string) (bool, error)
}

// PresenceHandler exposes socket presence over HTTP.
type PresenceHandler struct {
	presence PresenceLister
}

// NewPresenceHandler constructs handler.
func NewPresenceHandler(presence PresenceLister) *PresenceHandler {
	return &PresenceHandler{presence: presence}
}

// List handles GET /presence. An optional ?role= narrows the result.
func (h *PresenceHandler) List(c *fiber.Ctx) error {
	var roles []domain.Role
	if r := domain.Role(c.Query("role")); r != "" {
		if !r.Valid() {
			return apperrors.NewValidationError("unknown role", map[string]any{"role": string(r)})
		}
		roles = append(roles, r)
	}
	online, err := h.presence.Online(c.UserContext(), roles...)
	if err != nil {
		return err
	}
	return c.JSON(dto.DataResponse[map[domain.Role][]string]{Data: online})
}

// Status handles GET /presence/:userId.
func (h *PresenceHandler) Status(c *fiber.Ctx) error {
	userID := c.Params("userId")
	if userID == "" {
		return apperrors.NewValidationError("userId is required", nil)
	}
	online, err := h.presence.IsOnline(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(dto.DataResponse[dto.PresenceStatusResponse]{
		Data: dto.PresenceStatusResponse{UserID: userID, IsOnline: online},
	})
}
