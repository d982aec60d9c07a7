// Package server provides the runtime configuration for the relay service:
// environment-driven settings with defaults, loaded once at startup and
// validated before anything is wired.
package server

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the server settings, including the security controls applied
// to every WebSocket connection.
type Config struct {
	Port           string   `envconfig:"SERVER_PORT" default:":8080"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`

	MaxMessageSize int64 `envconfig:"MAX_MESSAGE_SIZE" default:"4096" validate:"gt=0"`
	SendBufferSize int   `envconfig:"SEND_BUFFER_SIZE" default:"256" validate:"gt=0"`

	RateLimitBurst  int           `envconfig:"RATE_LIMIT_BURST" default:"10" validate:"gt=0"`
	RateLimitRefill time.Duration `envconfig:"RATE_LIMIT_REFILL_INTERVAL" default:"1s" validate:"gt=0"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" validate:"gt=0"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
}

// LoadConfig reads the configuration from the environment, after loading an
// optional .env file, and validates it. Unset variables fall back to the
// struct defaults.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("reading config from environment: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// NewConfig returns a Config populated with the defaults, bypassing the
// environment. Used by tests and as a baseline for programmatic setups.
func NewConfig() *Config {
	return &Config{
		Port:            ":8080",
		AllowedOrigins:  []string{"http://localhost:8080"},
		MaxMessageSize:  4096,
		SendBufferSize:  256,
		RateLimitBurst:  10,
		RateLimitRefill: time.Second,
		ShutdownTimeout: 10 * time.Second,
		LogLevel:        "info",
	}
}

// SlogLevel maps the configured log level onto slog's levels.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
