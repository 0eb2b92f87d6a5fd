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
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
app:
  name: expertrait-dashboard
  environment: test
  timezone: Europe/London
backend:
  base_url: https://backend.example.com
  api_token: secret
database:
  path: data/dashboard.db
api:
  auth:
    enabled: true
    api_keys:
      - key: k1
        name: web
        permissions: ["read:bookings"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://backend.example.com", cfg.Backend.BaseURL)
	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, "x-api-key", cfg.API.Auth.HeaderAPIKey)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout())
	assert.Equal(t, "Europe/London", cfg.Location().String())
	assert.Equal(t, 24*time.Hour, cfg.StateTTL())
	assert.Equal(t, "exports", cfg.Exports.Path)
}

func TestLoadEnvExpansion(t *testing.T) {
	t.Setenv("BACKEND_TOKEN", "from-env")

	path := writeConfig(t, `
backend:
  base_url: https://backend.example.com
  api_token: ${BACKEND_TOKEN}
database:
  path: data/dashboard.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Backend.APIToken)
}

func TestValidate(t *testing.T) {
	t.Run("missing backend url", func(t *testing.T) {
		path := writeConfig(t, "database:\n  path: data/db.db\n")
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("missing database path", func(t *testing.T) {
		path := writeConfig(t, "backend:\n  base_url: https://b.example.com\n")
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("duplicate api keys", func(t *testing.T) {
		path := writeConfig(t, `
backend:
  base_url: https://b.example.com
database:
  path: data/db.db
api:
  auth:
    api_keys:
      - {key: same, name: a}
      - {key: same, name: b}
`)
		_, err := Load(path)
		assert.Error(t, err)
	})
}
