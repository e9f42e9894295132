package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenRoundTrip(t *testing.T) {
	manager, err := NewTokenManager(testSecret, time.Hour)
	require.NoError(t, err)

	token, err := manager.Generate("user-42", true)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.UserID)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, "book-review-service", claims.Issuer)
}

func TestTokenExpired(t *testing.T) {
	manager, err := NewTokenManager(testSecret, -time.Minute)
	require.NoError(t, err)

	token, err := manager.Generate("user-42", false)
	require.NoError(t, err)

	_, err = manager.Validate(token)
	assert.Error(t, err)
}

func TestTokenWrongKey(t *testing.T) {
	manager, err := NewTokenManager(testSecret, time.Hour)
	require.NoError(t, err)
	other, err := NewTokenManager("another-secret-key-another-secret", time.Hour)
	require.NoError(t, err)

	token, err := manager.Generate("user-42", false)
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.Error(t, err)
}

func TestNewTokenManagerRejectsWeakKeys(t *testing.T) {
	_, err := NewTokenManager("", time.Hour)
	assert.Error(t, err)

	_, err = NewTokenManager("too-short", time.Hour)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	require.NotEqual(t, "password123", hash)

	assert.True(t, CheckPasswordHash("password123", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}
