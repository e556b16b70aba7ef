// Package config loads the bot configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// DefaultEnvFile is the dotenv file read by NewConfig.
const DefaultEnvFile = "bot.env"

// Config holds the application configuration parameters.
// Each field corresponds to an expected environment variable.
type Config struct {
	EnvLogsLevel        string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=trace debug info warn warning error fatal panic"` // Log level for the application (e.g., debug, info)
	EnvLogFileName      string `env:"LOG_FILE_NAME" envDefault:"transitBot.log" validate:"required"`                                // File's name for log
	EnvBotToken         string `env:"TOKEN_BOT" validate:"required"`                                                                // Telegram Bot Token for authentication with the Telegram API
	EnvBotDebug         bool   `env:"BOT_DEBUG"`                                                                                    // Dump Bot API requests to the log
	EnvTransitEndpoint  string `env:"TRANSIT_API_ENDPOINT" envDefault:"https://v6.db.transport.rest" validate:"required,url"`       // transport.rest base URL
	EnvGeocodeEndpoint  string `env:"GEOCODE_API_ENDPOINT" envDefault:"https://nominatim.openstreetmap.org" validate:"required,url"` // Nominatim base URL
	EnvGeocodeUserAgent string `env:"GEOCODE_USER_AGENT" envDefault:"TransitBot/1.0" validate:"required"`                           // Nominatim rejects anonymous clients
	EnvHTTPTimeoutSec   int    `env:"HTTP_TIMEOUT_SEC" envDefault:"15" validate:"min=1,max=300"`                                    // Per request timeout of the HTTP gateways
	EnvProfileStorage   string `env:"PROFILE_STORAGE" envDefault:"file" validate:"oneof=file sqlite mysql redis"`                   // Profile store backend
	EnvStoragePath      string `env:"FILE_STORAGE_PATH" envDefault:"users.json" validate:"required_if=EnvProfileStorage file"`      // JSON file of the file backend
	EnvSQLitePath       string `env:"SQLITE_PATH" envDefault:"transitBot.db" validate:"required_if=EnvProfileStorage sqlite"`       // Database file of the sqlite backend
	EnvMySQLDSN         string `env:"MYSQL_DSN" validate:"required_if=EnvProfileStorage mysql"`                                     // DSN of the mysql backend
	EnvRedisAddr        string `env:"REDIS_ADDR" envDefault:"localhost:6379" validate:"required_if=EnvProfileStorage redis"`        // Address of the redis backend
	EnvRedisPassword    string `env:"REDIS_PASSWORD"`                                                                               // Password of the redis backend
	EnvRedisDB          int    `env:"REDIS_DB" validate:"min=0"`                                                                    // Database number of the redis backend
	EnvStatusAddr       string `env:"STATUS_ADDR"`                                                                                  // Status server address, empty disables it
	EnvNotFoundAfter    int    `env:"NOT_FOUND_AFTER" envDefault:"2" validate:"min=1"`                                              // Consecutive misses before a tracked line is reported gone
	EnvFlushIntervalMin int    `env:"FLUSH_INTERVAL_MIN" envDefault:"5" validate:"min=1"`                                           // Period of the profile store flush
}

// HTTPTimeout returns the HTTP gateway timeout as a duration.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.EnvHTTPTimeoutSec) * time.Second
}

// FlushInterval returns the profile flush period as a duration.
func (c *Config) FlushInterval() time.Duration {
	return time.Duration(c.EnvFlushIntervalMin) * time.Minute
}

// NewConfig loads the configuration from DefaultEnvFile and the process environment.
func NewConfig() (*Config, error) {
	return Load(DefaultEnvFile)
}

// Load reads envFile into the environment when it exists, parses the environment into a Config
// and validates it. Variables already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("new load .env: %w", err)
			}
			logrus.Infof("Env file %s not found, using the process environment", envFile)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
