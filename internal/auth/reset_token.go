package auth

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// ResetTokenBytes is the amount of randomness in a password reset token.
const ResetTokenBytes = 32

// GenerateResetToken returns a hex-encoded random token of ResetTokenBytes bytes.
func GenerateResetToken() (string, error) {
	buf := make([]byte, ResetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// ExpiryFrom returns the instant durationSeconds after now.
func ExpiryFrom(now time.Time, durationSeconds int64) time.Time {
	return now.Add(time.Duration(durationSeconds) * time.Second)
}
