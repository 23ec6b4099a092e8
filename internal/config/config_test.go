package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"DB_PATH", "HTTP_ADDRESS", "GRPC_ADDRESS", "SESSION_SECRET", "SESSION_TTL",
		"COOKIE_SECURE", "TRUST_PROXY", "LOGIN_RATE_PER_MINUTE", "LOG_LEVEL", "LOG_FORMAT", "APP_ENV"} {
		// t.Setenv restores the previous value after the test.
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadWithDefaults_Succeeds(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadWithDefaults()
	require.NoError(t, err)
	assert.Equal(t, ":5000", cfg.HTTP.Address)
	assert.Equal(t, "doacoes.db", cfg.Database.Path)
	assert.NotEmpty(t, cfg.Auth.SessionSecret)
	assert.Equal(t, 12*time.Hour, cfg.Auth.SessionTTL)
	assert.Empty(t, cfg.GRPC.Address)
	assert.Equal(t, 10, cfg.Auth.LoginRatePerMinute)
	assert.False(t, cfg.HTTP.TrustProxy)
}

func TestLoad_RequiresSessionSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_PATH", "test.db")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("SESSION_SECRET", "x")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "test.db", cfg.Database.Path)
}

func TestLoad_InvalidNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_SECRET", "x")

	t.Setenv("SESSION_TTL", "soon")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("SESSION_TTL", "0")
	_, err = Load()
	require.Error(t, err)

	t.Setenv("SESSION_TTL", "2")
	t.Setenv("COOKIE_SECURE", "maybe")
	_, err = Load()
	require.Error(t, err)

	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("TRUST_PROXY", "nope")
	_, err = Load()
	require.Error(t, err)

	t.Setenv("TRUST_PROXY", "true")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Auth.CookieSecure)
	assert.True(t, cfg.HTTP.TrustProxy)
	assert.Equal(t, 2*time.Hour, cfg.Auth.SessionTTL)
}

func TestLoadForEnv(t *testing.T) {
	clearEnv(t)
	_, err := LoadForEnv()
	require.Error(t, err, "production requires a secret")

	t.Setenv("APP_ENV", "development")
	cfg, err := LoadForEnv()
	require.NoError(t, err)
	assert.Equal(t, devSessionSecret, cfg.Auth.SessionSecret)
}

func TestString_MasksSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_SECRET", "very-secret")
	cfg, err := Load()
	require.NoError(t, err)
	s := cfg.String()
	assert.False(t, strings.Contains(s, "very-secret"))
	assert.Contains(t, s, "gRPC: disabled")
}
