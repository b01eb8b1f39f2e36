package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":3000", cfg.Server.Address)
	assert.Equal(t, "memory", cfg.Storage.Type)
	assert.Equal(t, 20, cfg.Chat.PageSize)
	assert.Equal(t, 1000, cfg.Chat.DanmakuLimit)
	assert.Equal(t, 10*365*24*time.Hour, cfg.Chat.MuteUnit)
	assert.False(t, cfg.RateLimiting.Enabled)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.Server.Address)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  address: ":8080"
storage:
  type: redis
redis:
  address: "redis:6379"
chat:
  page_size: 50
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "redis", cfg.Storage.Type)
	assert.Equal(t, "redis:6379", cfg.Redis.Address)
	assert.Equal(t, 50, cfg.Chat.PageSize)
	// Untouched values keep their defaults.
	assert.Equal(t, 1000, cfg.Chat.DanmakuLimit)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("XIAOLIVE_ADMIN_TOKEN", "from-env")
	t.Setenv("XIAOLIVE_STREAM_URL", "http://cdn.example.com/live.flv")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Address)
	assert.Equal(t, "from-env", cfg.Admin.Token)
	assert.Equal(t, "http://cdn.example.com/live.flv", cfg.Stream.URL)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty address", func(c *Config) { c.Server.Address = "" }},
		{"bad storage type", func(c *Config) { c.Storage.Type = "postgres" }},
		{"redis without address", func(c *Config) {
			c.Storage.Type = "redis"
			c.Redis.Address = ""
		}},
		{"empty admin token", func(c *Config) { c.Admin.Token = "" }},
		{"zero page size", func(c *Config) { c.Chat.PageSize = 0 }},
		{"zero mute unit", func(c *Config) { c.Chat.MuteUnit = 0 }},
		{"zero send buffer", func(c *Config) { c.Gateway.SendBuffer = 0 }},
		{"rate limiting without rate", func(c *Config) {
			c.RateLimiting.Enabled = true
			c.RateLimiting.HTTP.RequestsPerSecond = 0
		}},
		{"tracing without jaeger url", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.JaegerURL = ""
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
