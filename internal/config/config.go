package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Logger        LoggerConfig
	Auth          AuthConfig
	S3            S3Config
	Email         EmailConfig
	Links         LinksConfig
	ProductLookup ProductLookupConfig
	Redis         RedisConfig
	Pantry        PantryConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
	AutoMigrate     bool
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	APIKey    string // guards service-to-service endpoints
	JWTSecret string
	JWTIssuer string
}

// S3Config holds AWS S3 configuration for uploaded images.
type S3Config struct {
	Enabled       bool
	Bucket        string
	Region        string
	Prefix        string // key prefix within bucket (e.g., "images/")
	PublicBaseURL string // optional; defaults to the virtual-hosted bucket URL
}

// EmailConfig holds AWS SES configuration for invitation emails.
type EmailConfig struct {
	Enabled bool
	Region  string
	From    string
}

// LinksConfig holds the base URLs used in invitation links.
type LinksConfig struct {
	AppURL string // deep-link scheme, e.g. "pantryhub://"
	WebURL string
}

// ProductLookupConfig holds Open Food Facts client configuration.
type ProductLookupConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   int // seconds
	CacheTTL  int // seconds
}

// RedisConfig holds the product lookup cache configuration.
type RedisConfig struct {
	Enabled bool
	URL     string
}

// PantryConfig holds pantry view settings.
type PantryConfig struct {
	ExpiringWindowDays int
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "pantryhub"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
			AutoMigrate:     getEnvAsBool("DB_AUTO_MIGRATE", false),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			APIKey:    getEnv("API_KEY", ""),
			JWTSecret: getEnv("JWT_SECRET", ""),
			JWTIssuer: getEnv("JWT_ISSUER", "pantry-hub"),
		},
		S3: S3Config{
			Enabled:       getEnvAsBool("S3_ENABLED", false),
			Bucket:        getEnv("S3_BUCKET", ""),
			Region:        getEnv("S3_REGION", "eu-north-1"),
			Prefix:        getEnv("S3_PREFIX", "images/"),
			PublicBaseURL: getEnv("S3_PUBLIC_BASE_URL", ""),
		},
		Email: EmailConfig{
			Enabled: getEnvAsBool("EMAIL_ENABLED", false),
			Region:  getEnv("SES_REGION", "eu-north-1"),
			From:    getEnv("EMAIL_FROM", ""),
		},
		Links: LinksConfig{
			AppURL: getEnv("APP_URL", "pantryhub://"),
			WebURL: strings.TrimSuffix(getEnv("WEB_URL", "http://localhost:3000"), "/"),
		},
		ProductLookup: ProductLookupConfig{
			BaseURL:   strings.TrimSuffix(getEnv("OFF_BASE_URL", "https://world.openfoodfacts.org"), "/"),
			UserAgent: getEnv("OFF_USER_AGENT", "pantry-hub/1.0"),
			Timeout:   getEnvAsInt("OFF_TIMEOUT", 10),
			CacheTTL:  getEnvAsInt("OFF_CACHE_TTL", 86400),
		},
		Redis: RedisConfig{
			Enabled: getEnvAsBool("REDIS_ENABLED", false),
			URL:     getEnv("REDIS_URL", "redis://localhost:6379/0"),
		},
		Pantry: PantryConfig{
			ExpiringWindowDays: getEnvAsInt("PANTRY_EXPIRING_WINDOW_DAYS", 7),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.Auth.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	if c.Email.Enabled {
		if c.Email.From == "" {
			return fmt.Errorf("email sender address is required when email is enabled")
		}
		if c.Email.Region == "" {
			return fmt.Errorf("SES region is required when email is enabled")
		}
	}

	if c.Links.AppURL == "" || c.Links.WebURL == "" {
		return fmt.Errorf("app and web URLs are required")
	}

	if c.ProductLookup.BaseURL == "" {
		return fmt.Errorf("product lookup base URL is required")
	}

	if c.ProductLookup.Timeout < 1 {
		return fmt.Errorf("product lookup timeout must be at least 1 second")
	}

	if c.Redis.Enabled && c.Redis.URL == "" {
		return fmt.Errorf("redis URL is required when redis is enabled")
	}

	if c.Pantry.ExpiringWindowDays < 1 {
		return fmt.Errorf("pantry expiring window must be at least 1 day")
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// TimeoutDuration returns the lookup timeout.
func (c *ProductLookupConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// CacheTTLDuration returns how long lookups are cached.
func (c *ProductLookupConfig) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
