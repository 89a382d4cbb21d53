package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/account-service/pkg/util"
)

type loginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func TestStructValid(t *testing.T) {
	assert.NoError(t, New().Struct(loginInput{Email: "a@x.io", Password: "secret1"}))
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	err := New().Struct(loginInput{Email: "not-an-email", Password: "abc"})
	require.Error(t, err)

	de := apperrors.ToDomainError(err)
	assert.Equal(t, "VALIDATION_FAILED", de.Code)
	assert.Equal(t, 400, de.HTTPStatus)

	fields, ok := de.Details["fields"].([]FieldError)
	require.True(t, ok)
	assert.ElementsMatch(t, []FieldError{
		{Field: "email", Message: "email must be a valid email"},
		{Field: "password", Message: "password must be at least 6 characters"},
	}, fields)
}

func TestStructRequired(t *testing.T) {
	err := New().Struct(loginInput{})
	de := apperrors.ToDomainError(err)
	fields := de.Details["fields"].([]FieldError)
	assert.Len(t, fields, 2)
	assert.Equal(t, "email is required", fields[0].Message)
}

type passwordInput struct {
	Password string `json:"password" validate:"required,min=8,maxbytes=72"`
}

func TestStructMaxBytesCountsBytes(t *testing.T) {
	// 40 runes, 80 bytes
	err := New().Struct(passwordInput{Password: strings.Repeat("é", 40)})
	require.Error(t, err)

	de := apperrors.ToDomainError(err)
	assert.Equal(t, "VALIDATION_FAILED", de.Code)
	assert.Equal(t, []FieldError{{Field: "password", Message: "password must be at most 72 bytes"}}, de.Details["fields"])

	assert.NoError(t, New().Struct(passwordInput{Password: strings.Repeat("é", 36)}))
	assert.NoError(t, New().Struct(passwordInput{Password: strings.Repeat("a", 72)}))
	assert.Error(t, New().Struct(passwordInput{Password: strings.Repeat("a", 73)}))
}
