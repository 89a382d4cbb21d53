package util

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// DomainError is the error type the transport layer renders. Code is stable
// for clients, MessageKey is the i18n lookup key and Err is never exposed.
type DomainError struct {
	Code       string
	Message    string
	MessageKey string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches domain errors by code so copies carrying details still compare equal.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError constructs a DomainError. The message key defaults to
// "errors.<code>" lower-cased.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{
		Code:       code,
		Message:    message,
		MessageKey: "errors." + strings.ToLower(code),
		HTTPStatus: status,
		Details:    details,
	}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewInternalError(err error) error {
	de := NewDomainError("INTERNAL_ERROR", "internal server error", http.StatusInternalServerError, nil)
	de.Err = err
	return de
}

// ToDomainError finds the DomainError in err's chain; anything else becomes
// INTERNAL_ERROR wrapping err.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return NewInternalError(err).(*DomainError)
}
