package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBType)
	assert.Equal(t, 5*time.Second, cfg.MetadataTimeout)
	assert.Equal(t, "none", cfg.CacheType)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.False(t, cfg.GoogleEnabled())
	assert.False(t, cfg.AuthorizerEnabled())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_TYPE", "Postgres")
	t.Setenv("METADATA_TIMEOUT", "2s")
	t.Setenv("CACHE_TYPE", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "postgres", cfg.DBType)
	assert.Equal(t, 2*time.Second, cfg.MetadataTimeout)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DBType:            "sqlite",
			DBDatabase:        ":memory:",
			DBConnectionLimit: 1,
			JWTSecret:         "x",
			TokenTTL:          time.Hour,
			MetadataTimeout:   time.Second,
			MetadataMaxBytes:  1024,
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"db type", func(c *Config) { c.DBType = "oracle" }},
		{"db name", func(c *Config) { c.DBDatabase = "" }},
		{"prod secret", func(c *Config) { c.Env = "production"; c.JWTSecret = "" }},
		{"authz pair", func(c *Config) { c.AuthzURL = "http://authz" }},
		{"google redirect", func(c *Config) { c.GoogleClientID = "id"; c.GoogleClientSecret = "secret" }},
		{"redis url", func(c *Config) { c.CacheType = "redis" }},
		{"cache type", func(c *Config) { c.CacheType = "memcached" }},
		{"timeout", func(c *Config) { c.MetadataTimeout = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
