// Package config loads the runtime configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/murmur/internal/logging"
	"github.com/aretw0/murmur/pkg/persistence/middleware"
	"github.com/caarlos0/env/v11"
)

// Config holds settings shared by the murmur commands. Command-line flags
// override these values.
type Config struct {
	Language    string        `env:"MURMUR_LANGUAGE" envDefault:"en"`
	TextSpeed   float64       `env:"MURMUR_TEXT_SPEED" envDefault:"1"`
	CharDelay   time.Duration `env:"MURMUR_CHAR_DELAY" envDefault:"30ms"`
	BranchSlots int           `env:"MURMUR_BRANCH_SLOTS" envDefault:"4"`
	LogLevel    string        `env:"MURMUR_LOG_LEVEL" envDefault:"info"`
	LogFormat   string        `env:"MURMUR_LOG_FORMAT" envDefault:"text"`

	Addr         string        `env:"MURMUR_ADDR" envDefault:":8080"`
	RedisAddr    string        `env:"MURMUR_REDIS_ADDR"`
	RedisPass    string        `env:"MURMUR_REDIS_PASSWORD"`
	RedisDB      int           `env:"MURMUR_REDIS_DB" envDefault:"0"`
	RedisPrefix  string        `env:"MURMUR_REDIS_PREFIX" envDefault:"murmur:session:"`
	SessionTTL   time.Duration `env:"MURMUR_SESSION_TTL" envDefault:"24h"`
	LockTTL      time.Duration `env:"MURMUR_LOCK_TTL" envDefault:"30s"`
	MetricsRoute bool          `env:"MURMUR_METRICS" envDefault:"true"`

	// EncryptionKey, a base64 AES-256 key, seals stored snapshots when set.
	EncryptionKey string   `env:"MURMUR_ENCRYPTION_KEY"`
	FallbackKeys  []string `env:"MURMUR_ENCRYPTION_FALLBACK_KEYS" envSeparator:","`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the engine cannot run with.
func (c Config) Validate() error {
	if c.TextSpeed < 0 || c.TextSpeed > 1 {
		return fmt.Errorf("text speed %v: must be within [0,1]", c.TextSpeed)
	}
	if c.CharDelay < 0 {
		return fmt.Errorf("char delay %v: must not be negative", c.CharDelay)
	}
	if c.BranchSlots < 0 {
		return fmt.Errorf("branch slots %d: must not be negative", c.BranchSlots)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != string(logging.FormatText) && c.LogFormat != string(logging.FormatJSON) {
		return fmt.Errorf("log format %q: must be text or json", c.LogFormat)
	}
	if _, err := c.StoreMiddleware(); err != nil {
		return err
	}
	return nil
}

// StoreMiddleware returns the snapshot store decorators the configuration asks for.
func (c Config) StoreMiddleware() ([]middleware.Middleware, error) {
	if c.EncryptionKey == "" {
		if len(c.FallbackKeys) > 0 {
			return nil, fmt.Errorf("encryption fallback keys need an active key")
		}
		return nil, nil
	}

	active, err := middleware.DecodeKey(c.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key: %w", err)
	}
	var fallback [][]byte
	for i, s := range c.FallbackKeys {
		key, err := middleware.DecodeKey(s)
		if err != nil {
			return nil, fmt.Errorf("encryption fallback key %d: %w", i, err)
		}
		fallback = append(fallback, key)
	}

	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallback})
	if err != nil {
		return nil, err
	}
	return []middleware.Middleware{mw}, nil
}

// Logger builds the logger described by the configuration.
func (c Config) Logger() *slog.Logger {
	level, _ := logging.ParseLevel(c.LogLevel)
	return logging.NewWriter(os.Stderr, level, logging.Format(c.LogFormat))
}
