package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Addr              string        `env:"TRIPLES_ADDR" envDefault:":8080"`
	LogLevel          string        `env:"TRIPLES_LOG_LEVEL" envDefault:"info"`
	LogDevelopment    bool          `env:"TRIPLES_LOG_DEVELOPMENT" envDefault:"false"`
	PresentationDelay time.Duration `env:"TRIPLES_PRESENTATION_DELAY" envDefault:"250ms"`
	InboxSize         int           `env:"TRIPLES_INBOX_SIZE" envDefault:"64"`
	OutboxSize        int           `env:"TRIPLES_OUTBOX_SIZE" envDefault:"64"`
	WriteTimeout      time.Duration `env:"TRIPLES_WRITE_TIMEOUT" envDefault:"3s"`
	ShutdownTimeout   time.Duration `env:"TRIPLES_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	AllowedOrigins    []string      `env:"TRIPLES_ALLOWED_ORIGINS" envSeparator:","`
}

// Load reads an optional .env file from files (default ".env"), then the
// environment. Variables already set win over the file.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load dotenv: %w", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var err error
	if c.Addr == "" {
		err = multierr.Append(err, errors.New("TRIPLES_ADDR must not be empty"))
	}
	if _, lerr := zapcore.ParseLevel(c.LogLevel); lerr != nil {
		err = multierr.Append(err, fmt.Errorf("TRIPLES_LOG_LEVEL: %w", lerr))
	}
	if c.PresentationDelay < 0 {
		err = multierr.Append(err, errors.New("TRIPLES_PRESENTATION_DELAY must not be negative"))
	}
	if c.InboxSize < 1 {
		err = multierr.Append(err, errors.New("TRIPLES_INBOX_SIZE must be at least 1"))
	}
	if c.OutboxSize < 1 {
		err = multierr.Append(err, errors.New("TRIPLES_OUTBOX_SIZE must be at least 1"))
	}
	if c.WriteTimeout <= 0 {
		err = multierr.Append(err, errors.New("TRIPLES_WRITE_TIMEOUT must be positive"))
	}
	if c.ShutdownTimeout <= 0 {
		err = multierr.Append(err, errors.New("TRIPLES_SHUTDOWN_TIMEOUT must be positive"))
	}
	return err
}
