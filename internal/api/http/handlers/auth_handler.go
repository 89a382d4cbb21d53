package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/api/dto"
	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/service"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// AuthUseCases is the slice of the auth service the HTTP layer calls.
type AuthUseCases interface {
	Login(ctx context.Context, in service.LoginInput) (*service.LoginResult, error)
	ForgotPassword(ctx context.Context, in service.ForgotPasswordInput) (bool, error)
	ValidateForgotKey(ctx context.Context, in service.ValidateForgotKeyInput) (bool, error)
	ResetPassword(ctx context.Context, in service.ResetPasswordInput) (bool, error)
	UpdateMyPassword(ctx context.Context, userID string, in service.UpdatePasswordInput) (bool, error)
	GetUserAuthByToken(ctx context.Context, token string) (*domain.Identity, error)
}

// AuthHandler exposes the /auths endpoints.
type AuthHandler struct {
	auth AuthUseCases
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService AuthUseCases) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /auths/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	res, err := h.auth.Login(c.UserContext(), service.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		return err
	}
	return c.JSON(dto.LoginResponse{
		Token:     res.Token,
		UserID:    res.UserID,
		RoleID:    res.RoleID,
		Type:      res.AuthType,
		ExpiresAt: res.ExpiresAt,
	})
}

// ForgotPassword handles POST /auths/forgot-password.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ok, err := h.auth.ForgotPassword(c.UserContext(), service.ForgotPasswordInput{Email: req.Email})
	if err != nil {
		return err
	}
	return c.JSON(dto.DataResponse[bool]{Data: ok})
}

// ValidateForgotKey handles POST /auths/validate-forgot-key. Unknown accounts
// and bad keys answer 200 with data=false.
func (h *AuthHandler) ValidateForgotKey(c *fiber.Ctx) error {
	var req dto.ValidateForgotKeyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	valid, err := h.auth.ValidateForgotKey(c.UserContext(), service.ValidateForgotKeyInput{
		Email:     req.Email,
		ForgotKey: req.ForgotKey,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.DataResponse[bool]{Data: valid})
}

// ResetPassword handles POST /auths/reset-password.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ok, err := h.auth.ResetPassword(c.UserContext(), service.ResetPasswordInput{
		Email:     req.Email,
		ForgotKey: req.ForgotKey,
		Password:  req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.DataResponse[bool]{Data: ok})
}

// Me handles POST /auths/ and echoes the identity behind the presented token.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	identity, err := h.auth.GetUserAuthByToken(c.UserContext(), auth.TokenFromRequest(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.DataResponse[dto.IdentityResponse]{Data: dto.IdentityResponse{
		UserID: identity.UserID,
		RoleID: identity.RoleID,
		Type:   identity.AuthType,
	}})
}

// UpdatePassword handles PATCH /auths/password for the authenticated caller.
func (h *AuthHandler) UpdatePassword(c *fiber.Ctx) error {
	identity, ok := auth.CurrentUser(c)
	if !ok {
		return domain.ErrUnauthorized
	}
	var req dto.UpdatePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	done, err := h.auth.UpdateMyPassword(c.UserContext(), identity.UserID, service.UpdatePasswordInput{
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.DataResponse[bool]{Data: done})
}
