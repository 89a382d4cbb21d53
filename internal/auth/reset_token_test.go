package auth

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateResetToken(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		token, err := GenerateResetToken()
		require.NoError(t, err)
		assert.Len(t, token, ResetTokenBytes*2)

		_, err = hex.DecodeString(token)
		assert.NoError(t, err)

		_, dup := seen[token]
		assert.False(t, dup, "duplicate token generated")
		seen[token] = struct{}{}
	}
}

func TestExpiryFrom(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(72*time.Hour), ExpiryFrom(now, 259200))
	assert.Equal(t, now, ExpiryFrom(now, 0))
}
