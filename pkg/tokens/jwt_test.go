package tokens

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateSessionToken(t *testing.T) {
	gen := NewGenerator("test-secret", 15*time.Minute)

	token, err := gen.GenerateSessionToken("session-123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := gen.ValidateSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, "session-123", claims.SessionID)
	assert.Equal(t, "admin", claims.Subject)
}

func TestValidateSessionToken_WrongSecret(t *testing.T) {
	gen := NewGenerator("test-secret", 15*time.Minute)
	other := NewGenerator("other-secret", 15*time.Minute)

	token, err := gen.GenerateSessionToken("session-123")
	require.NoError(t, err)

	_, err = other.ValidateSessionToken(token)
	assert.Error(t, err)
}

func TestValidateSessionToken_Expired(t *testing.T) {
	gen := NewGenerator("test-secret", -1*time.Minute)
	// Negative TTLs fall back to the default, so force expiry directly.
	gen.ttl = -1 * time.Minute

	token, err := gen.GenerateSessionToken("session-123")
	require.NoError(t, err)

	_, err = gen.ValidateSessionToken(token)
	assert.Error(t, err)
}

func TestValidateSessionToken_Garbage(t *testing.T) {
	gen := NewGenerator("test-secret", 15*time.Minute)

	_, err := gen.ValidateSessionToken("not-a-jwt")
	assert.Error(t, err)
}

func TestNewGenerator_DefaultTTL(t *testing.T) {
	gen := NewGenerator("test-secret", 0)
	assert.Equal(t, 15*time.Minute, gen.TTL())
}
