package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "test-secret")

	_, err := Load()

	require.Error(t, err)
	require.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/communitycal")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()

	require.Error(t, err)
	require.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/communitycal")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("CORS_ORIGIN", "")

	cfg, err := Load()

	require.NoError(t, err)
	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, 3000, cfg.Server.Port)
	require.Equal(t, 24*time.Hour, cfg.Auth.JWTExpiry)
	require.Equal(t, "info", cfg.Logging.Level)
	require.True(t, cfg.CORS.AllowAllOrigins)
	require.Equal(t, "development", cfg.Environment)
}

func TestLoadCORSOrigins(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/communitycal")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("CORS_ORIGIN", "https://app.example.com, https://other.example.com")

	cfg, err := Load()

	require.NoError(t, err)
	require.False(t, cfg.CORS.AllowAllOrigins)
	require.Equal(t, []string{"https://app.example.com", "https://other.example.com"}, cfg.CORS.AllowedOrigins)
}

func TestLoadIgnoresMalformedInts(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/communitycal")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SERVER_PORT", "not-a-number")

	cfg, err := Load()

	require.NoError(t, err)
	require.Equal(t, 3000, cfg.Server.Port)
}
