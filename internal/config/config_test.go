package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 12, cfg.Timer.MaxRunningHours)
	assert.Equal(t, 2*time.Hour, cfg.Assistant.SessionTTL)
	assert.False(t, cfg.Server.IsRelease())
}

func TestLoadEnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CATALYST_SERVER_PORT", "9090")
	t.Setenv("CATALYST_SERVER_MODE", "release")
	t.Setenv("CATALYST_DATABASE_DRIVER", "sqlite")
	t.Setenv("CATALYST_AUTH_TOKEN_TTL", "30m")

	cfg := Load()

	require.NotNil(t, cfg)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.Server.IsRelease())
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
