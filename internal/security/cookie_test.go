package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionCookieRoundTrip(t *testing.T) {
	value, err := EncodeSessionCookie("test-secret", "sess-abc123", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, value)

	sid, err := ParseSessionCookie(value, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "sess-abc123", sid)
}

func TestSessionCookieWrongSecret(t *testing.T) {
	value, err := EncodeSessionCookie("test-secret", "sess-abc123", time.Hour)
	require.NoError(t, err)

	_, err = ParseSessionCookie(value, "other-secret")
	assert.Error(t, err)
}

func TestSessionCookieExpired(t *testing.T) {
	value, err := EncodeSessionCookie("test-secret", "sess-abc123", -time.Minute)
	require.NoError(t, err)

	_, err = ParseSessionCookie(value, "test-secret")
	assert.Error(t, err)
}

func TestSessionCookieGarbage(t *testing.T) {
	_, err := ParseSessionCookie("not-a-token", "test-secret")
	assert.Error(t, err)

	_, err = ParseSessionCookie("", "test-secret")
	assert.Error(t, err)
}
