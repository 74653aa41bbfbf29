package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "govdash.db", cfg.Database.Path)
	assert.Equal(t, SessionBackendSQLite, cfg.Session.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, time.Hour, cfg.Session.CleanupInterval)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  address: ":9090"
database:
  path: /var/lib/govdash/data.db
session:
  backend: memory
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "/var/lib/govdash/data.db", cfg.Database.Path)
	assert.Equal(t, SessionBackendMemory, cfg.Session.Backend)
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_GOVDASH_SECRET", "hunter2")

	path := writeConfig(t, `
auth:
  token_secret: ${TEST_GOVDASH_SECRET}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", cfg.Auth.TokenSecret)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("GOVDASH_ADDRESS", ":7070")
	t.Setenv("GOVDASH_DB_PATH", "override.db")

	path := writeConfig(t, `
server:
  address: ":9090"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Address)
	assert.Equal(t, "override.db", cfg.Database.Path)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Session.Backend = "redis"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session.backend")

	cfg.Session.Backend = SessionBackendMemory
	cfg.Auth.Bootstrap.Username = "admin"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.bootstrap.password")
}
