package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fittrack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
addr: ":9000"
database_url: postgres://localhost/fittrack
timezone: UTC
session_ttl: 12h
oidc:
  issuer: https://auth.example.com
  client_id: fittrack
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "web", cfg.WebDir, "unset keys keep defaults")
	assert.True(t, cfg.OIDC.Enabled())
	require.NoError(t, cfg.Validate())

	d, err := cfg.Durations()
	require.NoError(t, err)
	assert.Equal(t, 12*time.Hour, d.SessionTTL)
	assert.Equal(t, 2*time.Hour, d.StoreIdle)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "addr: [unterminated"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.Validate(), "database_url is required")

	cfg.DevUser = "local"
	assert.NoError(t, cfg.Validate())

	cfg.SessionTTL = "soon"
	cfg.Timezone = "Mars/Olympus"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session_ttl")
	assert.Contains(t, err.Error(), "Mars/Olympus")
}
