package dto

import (
	"time"

	"github.com/spec-kit/account-service/internal/domain"
)

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned at the top level, not wrapped in data.
type LoginResponse struct {
	Token     string          `json:"token"`
	UserID    string          `json:"userId"`
	RoleID    domain.Role     `json:"roleId"`
	Type      domain.AuthType `json:"type"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// ForgotPasswordRequest payload.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ValidateForgotKeyRequest payload.
type ValidateForgotKeyRequest struct {
	Email     string `json:"email"`
	ForgotKey string `json:"forgotKey"`
}

// ResetPasswordRequest payload.
type ResetPasswordRequest struct {
	ForgotKey string `json:"forgotKey"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// UpdatePasswordRequest payload.
type UpdatePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// IdentityResponse describes the caller behind a token.
type IdentityResponse struct {
	UserID string          `json:"userId"`
	RoleID domain.Role     `json:"roleId"`
	Type   domain.AuthType `json:"type"`
}

// PresenceStatusResponse reports whether one user is connected.
type PresenceStatusResponse struct {
	UserID   string `json:"userId"`
	IsOnline bool   `json:"isOnline"`
}

// DataResponse wraps a payload in the standard envelope.
type DataResponse[T any] struct {
	Data T `json:"data"`
}
