// Package config loads service settings from the environment, an optional .env
// file and an optional config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config holds the application's configuration values.
type Config struct {
	AppEnv         string
	AppPort        string
	RequestTimeout time.Duration
	MaxPageSize    int
	SessionTTL     time.Duration

	StorageDriver string
	MongoURI      string
	MongoDatabase string
	DatabaseDSN   string
	RabbitMQURL   string
	RabbitMQQueue string
	JWTSecret     string
	AdminUsername string
	AdminPassHash string
	TokenTTL      time.Duration
}

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", ":3000")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("MAX_PAGE_SIZE", 100)
	v.SetDefault("SESSION_TTL", "1m")
	v.SetDefault("STORAGE_DRIVER", DriverMongo)
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DATABASE", "crud_app")
	v.SetDefault("DATABASE_DSN", "file:catalog.db?cache=shared")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_QUEUE", "product_events")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("ADMIN_USERNAME", "")
	v.SetDefault("ADMIN_PASSWORD_HASH", "")
	v.SetDefault("TOKEN_TTL", "24h")
}

// Load reads .env (when present), CONFIG_FILE (when set) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}
	return FromViper(v)
}

// FromViper builds and validates a Config from v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppEnv:         v.GetString("APP_ENV"),
		AppPort:        v.GetString("APP_PORT"),
		RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
		MaxPageSize:    v.GetInt("MAX_PAGE_SIZE"),
		SessionTTL:     v.GetDuration("SESSION_TTL"),
		StorageDriver:  v.GetString("STORAGE_DRIVER"),
		MongoURI:       v.GetString("MONGODB_URI"),
		MongoDatabase:  v.GetString("MONGODB_DATABASE"),
		DatabaseDSN:    v.GetString("DATABASE_DSN"),
		RabbitMQURL:    v.GetString("RABBITMQ_URL"),
		RabbitMQQueue:  v.GetString("RABBITMQ_QUEUE"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		AdminUsername:  v.GetString("ADMIN_USERNAME"),
		AdminPassHash:  v.GetString("ADMIN_PASSWORD_HASH"),
		TokenTTL:       v.GetDuration("TOKEN_TTL"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case DriverMongo, DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.JWTSecret != "" && (c.AdminUsername == "" || c.AdminPassHash == "") {
		return errors.New("JWT_SECRET requires ADMIN_USERNAME and ADMIN_PASSWORD_HASH")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	return nil
}

// AuthEnabled reports whether write routes require a token.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
