package utils

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret")
	os.Exit(m.Run())
}

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken("user-1", "alex@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alex@example.com", claims.Email)
	assert.True(t, claims.ExpiresAt.After(time.Now()))
}

func TestParseToken_Invalid(t *testing.T) {
	t.Run("Garbage", func(t *testing.T) {
		_, err := ParseToken("not.a.token")
		assert.Error(t, err)
	})

	t.Run("Expired", func(t *testing.T) {
		token, err := GenerateToken("user-1", "", -time.Minute)
		require.NoError(t, err)
		_, err = ParseToken(token)
		assert.Error(t, err)
	})

	t.Run("Tampered", func(t *testing.T) {
		token, err := GenerateToken("user-1", "", time.Hour)
		require.NoError(t, err)
		_, err = ParseToken(token + "x")
		assert.Error(t, err)
	})
}
