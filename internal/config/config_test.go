package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("NAVIAUTO_SECURITY_SESSIONSECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.IsProduction())

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ReadTimeout)

	assert.Equal(t, "test-secret", cfg.Security.SessionSecret)
	assert.Equal(t, 24*time.Hour, cfg.Security.SessionTTL)
	assert.Equal(t, "naviauto_session", cfg.Security.CookieName)
	assert.Equal(t, 5, cfg.Security.ResetLockThreshold)
	assert.Equal(t, 15*time.Minute, cfg.Security.ResetLockDuration)
	assert.Equal(t, 3*time.Minute, cfg.Security.ReissueCooldown)
	assert.Equal(t, 12, cfg.Security.TempPasswordLen)
	assert.Equal(t, 10*time.Minute, cfg.Security.ResetTokenTTL)

	assert.Equal(t, "naviauto-exports", cfg.Storage.BucketExports)
}

func TestLoadRequiresSessionSecret(t *testing.T) {
	t.Setenv("NAVIAUTO_SECURITY_SESSIONSECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sessionsecret")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("NAVIAUTO_SECURITY_SESSIONSECRET", "test-secret")
	t.Setenv("NAVIAUTO_ENVIRONMENT", "production")
	t.Setenv("NAVIAUTO_HTTP_PORT", "9090")
	t.Setenv("NAVIAUTO_SECURITY_REISSUECOOLDOWN", "90s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 90*time.Second, cfg.Security.ReissueCooldown)
}
