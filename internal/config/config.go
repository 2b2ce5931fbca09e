package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port        string
	Env         string // development, production
	CORSOrigins []string
	FrontendURL string

	// Logging
	LogLevel   string
	LogFormat  string // json, console
	DBLogLevel string // silent, error, warn, info

	// Database configuration
	DBType            string // mysql, postgres, sqlite, sqlite3, sqlserver
	DBHost            string
	DBPort            string
	DBDatabase        string
	DBUser            string
	DBPassword        string
	DBConnectionLimit int

	// Session tokens and Google sign-in
	JWTSecret          string
	TokenTTL           time.Duration
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Authorizer configuration (optional external session provider)
	AuthzURL      string
	AuthzClientID string

	// Metadata fetcher
	MetadataTimeout   time.Duration
	MetadataUserAgent string
	MetadataMaxBytes  int64

	// Preview cache
	CacheType  string // none, redis, badger
	RedisURL   string
	BadgerPath string
	PreviewTTL time.Duration
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// GoogleEnabled reports whether Google sign-in is configured.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// AuthorizerEnabled reports whether Authorizer sessions are accepted.
func (c *Config) AuthorizerEnabled() bool {
	return c.AuthzURL != "" && c.AuthzClientID != ""
}

// Load loads configuration from a .env file (if present) and environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Port:               v.GetString("PORT"),
		Env:                strings.ToLower(v.GetString("APP_ENV")),
		CORSOrigins:        splitList(v.GetString("CORS_ORIGINS")),
		FrontendURL:        v.GetString("FRONTEND_URL"),
		LogLevel:           strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:          strings.ToLower(v.GetString("LOG_FORMAT")),
		DBLogLevel:         strings.ToLower(v.GetString("DB_LOG_LEVEL")),
		DBType:             strings.ToLower(v.GetString("DB_TYPE")),
		DBHost:             v.GetString("DB_HOST"),
		DBPort:             v.GetString("DB_PORT"),
		DBDatabase:         v.GetString("DB_DATABASE"),
		DBUser:             v.GetString("DB_USER"),
		DBPassword:         v.GetString("DB_PASSWORD"),
		DBConnectionLimit:  v.GetInt("DB_CONNECTION_LIMIT"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		TokenTTL:           v.GetDuration("TOKEN_TTL"),
		GoogleClientID:     v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  v.GetString("GOOGLE_REDIRECT_URL"),
		AuthzURL:           v.GetString("AUTHZ_URL"),
		AuthzClientID:      v.GetString("AUTHZ_CLIENT_ID"),
		MetadataTimeout:    v.GetDuration("METADATA_TIMEOUT"),
		MetadataUserAgent:  v.GetString("METADATA_USER_AGENT"),
		MetadataMaxBytes:   v.GetInt64("METADATA_MAX_BYTES"),
		CacheType:          strings.ToLower(v.GetString("CACHE_TYPE")),
		RedisURL:           v.GetString("REDIS_URL"),
		BadgerPath:         v.GetString("BADGER_PATH"),
		PreviewTTL:         v.GetDuration("PREVIEW_TTL"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "3000")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("CORS_ORIGINS", "http://localhost,http://localhost:3000")
	v.SetDefault("FRONTEND_URL", "http://localhost:3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "")
	v.SetDefault("DB_LOG_LEVEL", "warn")
	v.SetDefault("DB_TYPE", "sqlite")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_DATABASE", "homespace.db")
	v.SetDefault("DB_CONNECTION_LIMIT", 5)
	v.SetDefault("TOKEN_TTL", 24*time.Hour)
	v.SetDefault("METADATA_TIMEOUT", 5*time.Second)
	v.SetDefault("METADATA_USER_AGENT", "homespace-preview/1.0 (+https://github.com/localnerve/homespace)")
	v.SetDefault("METADATA_MAX_BYTES", 2<<20)
	v.SetDefault("CACHE_TYPE", "none")
	v.SetDefault("BADGER_PATH", "./badger_data")
	v.SetDefault("PREVIEW_TTL", time.Hour)
}

// Validate checks required fields and enumerations
func (c *Config) Validate() error {
	if c.DBDatabase == "" {
		return fmt.Errorf("DB_DATABASE is required")
	}
	switch c.DBType {
	case "mysql", "mariadb", "postgres", "postgresql", "sqlite", "sqlite3", "sqlserver", "mssql":
	default:
		return fmt.Errorf("unsupported DB_TYPE: %s", c.DBType)
	}
	if c.DBConnectionLimit < 1 {
		return fmt.Errorf("DB_CONNECTION_LIMIT must be positive")
	}

	if c.JWTSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		c.JWTSecret = "development-secret"
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}

	if (c.AuthzURL == "") != (c.AuthzClientID == "") {
		return fmt.Errorf("AUTHZ_URL and AUTHZ_CLIENT_ID must be set together")
	}
	if c.GoogleEnabled() && c.GoogleRedirectURL == "" {
		return fmt.Errorf("GOOGLE_REDIRECT_URL is required when Google sign-in is enabled")
	}

	if c.MetadataTimeout <= 0 {
		return fmt.Errorf("METADATA_TIMEOUT must be positive")
	}
	if c.MetadataMaxBytes <= 0 {
		return fmt.Errorf("METADATA_MAX_BYTES must be positive")
	}

	switch c.CacheType {
	case "", "none":
		c.CacheType = "none"
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when CACHE_TYPE=redis")
		}
	case "badger":
		if c.BadgerPath == "" {
			return fmt.Errorf("BADGER_PATH is required when CACHE_TYPE=badger")
		}
	default:
		return fmt.Errorf("unsupported CACHE_TYPE: %s", c.CacheType)
	}

	if c.LogFormat == "" {
		c.LogFormat = "console"
		if c.IsProduction() {
			c.LogFormat = "json"
		}
	}

	return nil
}

// splitList splits a comma separated setting, dropping empty entries
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
