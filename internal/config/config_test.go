package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_MatchesPollingContract(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, time.Second, cfg.Extraction.PollInterval)
	assert.Equal(t, 40, cfg.Extraction.MaxAttempts)
	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, "en-US", cfg.Translation.SourceLang)
	assert.Equal(t, "es-ES", cfg.Translation.TargetLang)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAMLAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hub.yaml")
	yamlDoc := `
server:
  port: 5000
bindings:
  path: secrets/default-env.json
extraction:
  max_attempts: 5
  schema_name: custom_schema
cache:
  driver: memory
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))

	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SANDBOX-API-KEY", "sandbox-key")
	t.Setenv("PORT", "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Extraction.MaxAttempts)
	assert.Equal(t, "custom_schema", cfg.Extraction.SchemaName)
	assert.Equal(t, "invoice", cfg.Extraction.DocumentType)
	assert.Equal(t, filepath.Join(dir, "secrets/default-env.json"), cfg.Bindings.Path)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
	assert.Equal(t, "sandbox-key", cfg.Translation.SandboxAPIKey)
}

func TestLoad_PortAndRedisFromEnv(t *testing.T) {
	t.Setenv("PORT", "8088")
	t.Setenv("REDIS_URL", "redis://cache:6379")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, "cache:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, "0.0.0.0:8088", cfg.Addr())
}

func TestLoad_RedisURLCredentialsAndDB(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://:s3cret@cache:6380/2")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", cfg.Cache.Redis.Addr)
	assert.Equal(t, "s3cret", cfg.Cache.Redis.Password)
	assert.Equal(t, 2, cfg.Cache.Redis.DB)
	assert.False(t, cfg.Cache.Redis.TLS)

	t.Setenv("REDIS_URL", "rediss://hub:pw@redis.internal:6390/0")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "redis.internal:6390", cfg.Cache.Redis.Addr)
	assert.Equal(t, "hub", cfg.Cache.Redis.Username)
	assert.Equal(t, "pw", cfg.Cache.Redis.Password)
	assert.True(t, cfg.Cache.Redis.TLS)
}

func TestLoad_InvalidRedisURL(t *testing.T) {
	t.Setenv("REDIS_URL", "http://cache:6379")

	_, err := Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"zero interval", func(c *Config) { c.Extraction.PollInterval = 0 }},
		{"no attempts", func(c *Config) { c.Extraction.MaxAttempts = 0 }},
		{"bad cache driver", func(c *Config) { c.Cache.Driver = "memcached" }},
		{"no corrections path", func(c *Config) { c.Corrections.Path = "" }},
		{"negative retries", func(c *Config) { c.HTTPClient.MaxRetries = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_ExampleConfig(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	cfg, err := Load(filepath.Join("..", "..", "configs", "docai-hub.example.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 40, cfg.Extraction.MaxAttempts)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "officepdf", cfg.Conversion.Tool)
	assert.Equal(t, filepath.Join("..", "..", "default-env.json"), cfg.Bindings.Path)
}
