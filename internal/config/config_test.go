package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, RemoteMemory, cfg.RemoteBackend)
	assert.Equal(t, CacheSQLite, cfg.CacheBackend)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "plain", cfg.AdminPasswordMode)
	assert.Empty(t, cfg.MasterKey)
	assert.False(t, cfg.OIDC.Enabled())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	yaml := "HTTP_ADDR: \":9090\"\nREMOTE_BACKEND: redis\nMASTER_KEY: from-file\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Setenv("MASTER_KEY", "from-env")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("OIDC_ISSUER", "https://id.example.com")
	t.Setenv("OIDC_CLIENT_ID", "pos")
	t.Setenv("OIDC_ALLOWED_EMAILS", "a@example.com, b@example.com ,")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, RemoteRedis, cfg.RemoteBackend)
	assert.Equal(t, "from-env", cfg.MasterKey)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.True(t, cfg.OIDC.Enabled())
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.OIDC.Allowed())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown backend", map[string]string{"REMOTE_BACKEND": "mongo"}},
		{"postgres without url", map[string]string{"REMOTE_BACKEND": "postgres"}},
		{"firestore without project", map[string]string{"REMOTE_BACKEND": "firestore"}},
		{"unknown cache", map[string]string{"CACHE_BACKEND": "bolt"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load(t.TempDir())
			assert.Error(t, err)
		})
	}
}
