// Package config provides application configuration loaded from environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// DefaultPort is used when PORT is unset or empty.
const DefaultPort = "8080"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Auth     AuthConfig
	Storage  StorageConfig
	Redis    RedisConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string `env:"PORT" envDefault:"8080"`
	ReadTimeout  int    `env:"SERVER_READ_TIMEOUT" envDefault:"15"`  // seconds
	WriteTimeout int    `env:"SERVER_WRITE_TIMEOUT" envDefault:"30"` // seconds
	IdleTimeout  int    `env:"SERVER_IDLE_TIMEOUT" envDefault:"60"`  // seconds
}

// DatabaseConfig holds connection settings. DATABASE_DSN, when set, wins over the
// individual fields. Driver is postgres or sqlite.
type DatabaseConfig struct {
	Driver      string `env:"DB_DRIVER" envDefault:"postgres"`
	DSNOverride string `env:"DATABASE_DSN"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"ledger.db"`
	Host        string `env:"DB_HOST" envDefault:"localhost"`
	Port        int    `env:"DB_PORT" envDefault:"5432"`
	User        string `env:"DB_USER" envDefault:"ledger"`
	Password    string `env:"DB_PASSWORD" envDefault:"ledger"`
	DBName      string `env:"DB_NAME" envDefault:"ledger"`
	SSLMode     string `env:"DB_SSLMODE" envDefault:"disable"`
	Debug       bool   `env:"DB_DEBUG" envDefault:"false"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev         bool `env:"DEV" envDefault:"false"`
	Migrations  bool `env:"MIGRATIONS" envDefault:"false"`
	OverdueDays int  `env:"LEDGER_OVERDUE_DAYS" envDefault:"30"`
}

// AuthConfig holds identity settings.
type AuthConfig struct {
	AllowedEmail   string `env:"LEDGER_ALLOWED_EMAIL"`
	GoogleClientID string `env:"GOOGLE_CLIENT_ID"`
	SessionSecret  string `env:"SESSION_SECRET"`
}

// StorageConfig holds MinIO settings. An empty endpoint disables uploads.
type StorageConfig struct {
	Endpoint  string `env:"MINIO_ENDPOINT"`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	Bucket    string `env:"MINIO_BUCKET" envDefault:"ledger-photos"`
	Region    string `env:"MINIO_REGION" envDefault:"us-east-1"`
	UseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`
	PublicURL string `env:"MINIO_PUBLIC_URL"`
}

// RedisConfig holds the change-notification broker. An empty URL selects the
// in-process broker.
type RedisConfig struct {
	URL     string `env:"REDIS_URL"`
	Channel string `env:"REDIS_CHANNEL" envDefault:"ledger:changes"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"console"`
	Output string `env:"LOG_OUTPUT" envDefault:"stdout"`
}

// DSN returns the PostgreSQL connection string in key=value format.
func (d DatabaseConfig) DSN() string {
	if d.DSNOverride != "" {
		return d.DSNOverride
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// URL returns the PostgreSQL connection string in URL format.
func (d DatabaseConfig) URL() string {
	if strings.HasPrefix(d.DSNOverride, "postgres://") || strings.HasPrefix(d.DSNOverride, "postgresql://") {
		return d.DSNOverride
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.DBName,
		RawQuery: "sslmode=" + d.SSLMode,
	}
	return u.String()
}

// OverdueAfter converts OverdueDays to a duration.
func (a AppConfig) OverdueAfter() time.Duration {
	return time.Duration(a.OverdueDays) * 24 * time.Hour
}

// Load reads an optional .env file and then the environment.
// Variables already set in the environment win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	sections := []any{&cfg.Server, &cfg.Database, &cfg.App, &cfg.Auth, &cfg.Storage, &cfg.Redis, &cfg.Log}
	for _, s := range sections {
		if err := env.Parse(s); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	// An empty PORT= line in .env still counts as set for env.Parse.
	if strings.TrimSpace(cfg.Server.Port) == "" {
		cfg.Server.Port = DefaultPort
	}
	cfg.Auth.AllowedEmail = strings.ToLower(strings.TrimSpace(cfg.Auth.AllowedEmail))
	return cfg, nil
}

// ValidateServe checks the settings the HTTP server cannot run without.
func (c *Config) ValidateServe() error {
	var errs []error
	if c.Auth.AllowedEmail == "" {
		errs = append(errs, errors.New("LEDGER_ALLOWED_EMAIL is required"))
	}
	if !c.App.Dev {
		if c.Auth.SessionSecret == "" {
			errs = append(errs, errors.New("SESSION_SECRET is required outside dev mode"))
		}
		if c.Auth.GoogleClientID == "" {
			errs = append(errs, errors.New("GOOGLE_CLIENT_ID is required outside dev mode"))
		}
	}
	if c.App.OverdueDays <= 0 {
		errs = append(errs, fmt.Errorf("LEDGER_OVERDUE_DAYS must be positive, got %d", c.App.OverdueDays))
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.Database.Driver))
	}
	return errors.Join(errs...)
}
