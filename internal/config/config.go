package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config holds every tunable the service reads at startup. Nothing else
// in the codebase touches the environment directly.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	SMTP     SMTPConfig
	Frontend FrontendConfig
}

type AppConfig struct {
	Env           string
	LogLevel      string
	Port          int
	AllowedOrigin string
}

type DatabaseConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	Name          string
	SSLMode       string
	MigrationPath string
}

type RedisConfig struct {
	URL string
}

// SMTPConfig is injected into the notifier at construction; when Host is
// empty the service falls back to a no-op notifier.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type FrontendConfig struct {
	// Origin is the base of shareable referral links,
	// e.g. https://app.refrr.io.
	Origin string
}

// Load reads configuration from the environment and an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.App.Env = getEnvDefault("APP_ENV", "development")
	cfg.App.LogLevel = getEnvDefault("LOG_LEVEL", "info")
	cfg.App.Port = getEnvIntDefault("APP_PORT", 8080)
	cfg.App.AllowedOrigin = os.Getenv("ALLOWED_ORIGIN")

	cfg.Database.Host = getEnvDefault("DB_HOST", "localhost")
	cfg.Database.Port = getEnvIntDefault("DB_PORT", 5432)
	cfg.Database.User = os.Getenv("DB_USER")
	cfg.Database.Password = os.Getenv("DB_PASSWORD")
	cfg.Database.Name = os.Getenv("DB_NAME")
	cfg.Database.SSLMode = getEnvDefault("DB_SSL_MODE", "disable")
	cfg.Database.MigrationPath = getEnvDefault("MIGRATION_PATH", "scripts/migrations")

	cfg.Redis.URL = getEnvDefault("REDIS_URL", "redis://localhost:6379/0")

	cfg.SMTP.Host = os.Getenv("SMTP_HOST")
	cfg.SMTP.Port = getEnvIntDefault("SMTP_PORT", 587)
	cfg.SMTP.Username = os.Getenv("SMTP_USERNAME")
	cfg.SMTP.Password = os.Getenv("SMTP_PASSWORD")
	cfg.SMTP.From = getEnvDefault("SMTP_FROM", "no-reply@refrr.io")

	cfg.Frontend.Origin = getEnvDefault("FRONTEND_ORIGIN", "http://localhost:3000")

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func getEnvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func validateConfig(cfg *Config) error {
	if cfg.Database.User == "" {
		return fmt.Errorf("DB_USER is not set")
	}
	if cfg.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is not set")
	}
	if cfg.Database.Name == "" {
		return fmt.Errorf("DB_NAME is not set")
	}
	if cfg.SMTP.Host != "" && cfg.SMTP.From == "" {
		return fmt.Errorf("SMTP_FROM is required when SMTP_HOST is set")
	}
	return nil
}

// GetDSN returns the Postgres connection string.
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// GetURL returns the connection string in URL form, used by goose.
func (c *DatabaseConfig) GetURL() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

func (c *AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

// GetLogLevel maps the configured level onto zap's.
func (c *AppConfig) GetLogLevel() zap.AtomicLevel {
	switch c.LogLevel {
	case "debug":
		return zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		return zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		return zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	}
}
