package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"GAME_TITLE", "SETTINGS_BACKEND", "SETTINGS_REDIS_ADDR", "SETTINGS_PORTAL_ENABLED",
		"SETTINGS_PORTAL_PORT", "SETTINGS_S3_BUCKET", "LOG_LEVEL", "LOG_PATH",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("SETTINGS_DATA_DIR", "/var/lib/settings")

	cfg := Load()

	assert.Equal(t, "Settings", cfg.Title)
	assert.Equal(t, BackendBadger, cfg.Backend)
	assert.Equal(t, "/var/lib/settings", cfg.DataDir)
	assert.Equal(t, "127.0.0.1:6379", cfg.RedisAddr)
	assert.True(t, cfg.PortalEnabled)
	assert.Equal(t, 8080, cfg.PortalPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, filepath.Join("/var/lib/settings", "logs", "settings.log"), cfg.LogPath)
	assert.False(t, cfg.BackupEnabled())
	require.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SETTINGS_BACKEND", "SQLite")
	t.Setenv("SETTINGS_REDIS_DB", "3")
	t.Setenv("SETTINGS_PORTAL_ENABLED", "false")
	t.Setenv("SETTINGS_PORTAL_PORT", "not-a-number")
	t.Setenv("SETTINGS_S3_BUCKET", "prefs-backup")

	cfg := Load()

	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.False(t, cfg.PortalEnabled)
	assert.Equal(t, 8080, cfg.PortalPort)
	assert.True(t, cfg.BackupEnabled())
}

func TestValidate(t *testing.T) {
	base := Config{Backend: BackendMemory, PortalEnabled: true, PortalPort: 8080}
	require.NoError(t, base.Validate())

	bad := base
	bad.Backend = "etcd"
	assert.ErrorContains(t, bad.Validate(), "unknown backend")

	bad = base
	bad.Backend = BackendBadger
	assert.ErrorContains(t, bad.Validate(), "SETTINGS_DATA_DIR")

	bad = base
	bad.Backend = BackendRedis
	assert.ErrorContains(t, bad.Validate(), "SETTINGS_REDIS_ADDR")

	bad = base
	bad.PortalPort = 70000
	assert.ErrorContains(t, bad.Validate(), "invalid portal port")

	bad.PortalEnabled = false
	assert.NoError(t, bad.Validate())
}

func TestLoadDotEnv(t *testing.T) {
	err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorIs(t, err, os.ErrNotExist, "an explicit env file must exist")

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	require.NoError(t, LoadDotEnv(), "./.env is optional")

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SETTINGS_TEST_DOTENV=loaded\n"), 0o600))
	t.Setenv("SETTINGS_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("SETTINGS_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("SETTINGS_TEST_DOTENV"))
}
