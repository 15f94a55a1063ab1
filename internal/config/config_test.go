package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, "pokevault.sqlite3", cfg.Database.URL)
	assert.Equal(t, 24*time.Hour, cfg.Refresh.Interval.D())
	assert.Equal(t, 10*time.Second, cfg.Pricing.Timeout.D())
	assert.False(t, cfg.Refresh.SharedWatermark)
	assert.False(t, cfg.Storage.S3().Enabled())
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pokevault.toml")
	err := os.WriteFile(path, []byte(`
[log]
level = "debug"

[server]
addr = ":8080"
allowed_origins = ["https://pokevault.app"]

[auth]
jwt_secret = "from-file"

[pricing]
timeout = "3s"
cache_ttl = "1m"

[refresh]
interval = "12h"
shared_watermark = true
`), 0o600)
	require.NoError(t, err)

	t.Setenv("SUPABASE_JWT_SECRET", "from-env")
	t.Setenv("PORT", "9090")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, slog.LevelDebug, cfg.Log.Level)
	assert.Equal(t, ":9090", cfg.Server.Addr, "env overrides file")
	assert.Equal(t, []string{"https://pokevault.app"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, 3*time.Second, cfg.Pricing.Timeout.D())
	assert.Equal(t, time.Minute, cfg.Pricing.CacheTTL.D())
	assert.Equal(t, 12*time.Hour, cfg.Refresh.Interval.D())
	assert.True(t, cfg.Refresh.SharedWatermark)
	require.NoError(t, cfg.Validate())
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 1\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"DATABASE_URL":          "postgres://localhost/pokevault",
		"ALLOWED_ORIGINS":       "https://a.example, https://b.example,",
		"DEMO_USER_IDS":         "9f0e4c4a-7a55-4d8e-b1b2-6a0c1d2e3f40,demo@pokevault.app",
		"POKEMON_PRICE_API_KEY": "pk",
		"S3_BUCKET":             "photos",
		"LOG_LEVEL":             "warn",
	}))
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/pokevault", cfg.Database.URL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Len(t, cfg.Auth.ReadOnly, 2)
	assert.Equal(t, "pk", cfg.Pricing.APIKey)
	assert.True(t, cfg.Storage.S3().Enabled())
	assert.Equal(t, slog.LevelWarn, cfg.Log.Level)
}

func TestApplyEnvInvalid(t *testing.T) {
	assert.Error(t, Default().ApplyEnv(envMap(map[string]string{"PORT": "http"})))
	assert.Error(t, Default().ApplyEnv(envMap(map[string]string{"LOG_LEVEL": "loud"})))
}

func TestValidate(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")

	cfg.Auth.URL = "https://project.supabase.co"
	cfg.Auth.AnonKey = "anon"
	assert.NoError(t, cfg.Validate())

	cfg.Refresh.Interval = 0
	assert.ErrorContains(t, cfg.Validate(), "refresh.interval")
}
