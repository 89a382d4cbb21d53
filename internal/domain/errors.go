package domain

import (
	"net/http"

	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// Authentication and authorization failures surfaced to the transport layer.
var (
	ErrIncorrectCredentials = apperrors.NewDomainError("INCORRECT_CREDENTIALS", "incorrect email or password", http.StatusBadRequest, nil)
	ErrAccountNotFound      = apperrors.NewDomainError("ACCOUNT_NOT_FOUND", "account not found", http.StatusBadRequest, nil)
	ErrAccountNotActivated  = apperrors.NewDomainError("ACCOUNT_NOT_ACTIVATED", "account is not activated", http.StatusBadRequest, nil)
	ErrTokenMismatch        = apperrors.NewDomainError("TOKEN_MISMATCH", "reset key is invalid", http.StatusBadRequest, nil)
	ErrTokenExpired         = apperrors.NewDomainError("TOKEN_EXPIRED", "reset key has expired", http.StatusBadRequest, nil)
	ErrIncorrectPassword    = apperrors.NewDomainError("INCORRECT_PASSWORD", "current password is incorrect", http.StatusBadRequest, nil)
	ErrUnauthorized         = apperrors.NewDomainError("UNAUTHORIZED", "authentication required", http.StatusUnauthorized, nil)
	ErrAccessDenied         = apperrors.NewDomainError("ACCESS_DENIED", "access denied", http.StatusForbidden, nil)
	ErrResetRateLimited     = apperrors.NewDomainError("RESET_RATE_LIMITED", "too many reset requests, try again later", http.StatusTooManyRequests, nil)
)
