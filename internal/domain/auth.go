package domain

import (
	"crypto/subtle"
	"time"
)

// AuthType records where a credential originated; it is carried into issued tokens.
type AuthType string

const (
	AuthTypePersonalEmail AuthType = "PERSONAL_EMAIL"
	AuthTypeGoogle        AuthType = "GOOGLE"
	AuthTypeFacebook      AuthType = "FACEBOOK"
	AuthTypeApple         AuthType = "APPLE"
)

// Valid reports whether the auth type is a known value.
func (t AuthType) Valid() bool {
	switch t {
	case AuthTypePersonalEmail, AuthTypeGoogle, AuthTypeFacebook, AuthTypeApple:
		return true
	}
	return false
}

// AuthCredential is the stored login record, distinct from the profile it unlocks.
// ResetToken and ResetTokenExpiry are either both nil or both set.
type AuthCredential struct {
	ID               string
	UserID           string
	Username         string
	PasswordHash     string
	AuthType         AuthType
	ResetToken       *string
	ResetTokenExpiry *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasPendingReset reports whether a password reset was requested and not yet consumed.
func (a *AuthCredential) HasPendingReset() bool {
	return a.ResetToken != nil && a.ResetTokenExpiry != nil
}

// IssueResetToken moves the credential into the reset-pending state, replacing
// any earlier token.
func (a *AuthCredential) IssueResetToken(token string, expiresAt time.Time) {
	t := token
	exp := expiresAt
	a.ResetToken = &t
	a.ResetTokenExpiry = &exp
}

// ClearResetToken returns the credential to the no-pending-reset state.
func (a *AuthCredential) ClearResetToken() {
	a.ResetToken = nil
	a.ResetTokenExpiry = nil
}

// CheckResetToken validates a presented reset token at the given instant.
// A token is only valid strictly before its expiry.
func (a *AuthCredential) CheckResetToken(token string, now time.Time) error {
	if a.ResetToken == nil || token == "" ||
		subtle.ConstantTimeCompare([]byte(*a.ResetToken), []byte(token)) != 1 {
		return ErrTokenMismatch
	}
	if a.ResetTokenExpiry == nil || !a.ResetTokenExpiry.After(now) {
		return ErrTokenExpired
	}
	return nil
}
