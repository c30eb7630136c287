package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Sternrassler/fragment-loader/pkg/logging"
	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
)

// Config is read from the environment.
type Config struct {
	OriginURL      string        `env:"ORIGIN_URL,required,notEmpty" validate:"required,url"`
	LayoutPath     string        `env:"LAYOUT_PATH" envDefault:"index.html" validate:"required"`
	Slots          []string      `env:"SLOTS" envSeparator:","`
	Preload        []string      `env:"PRELOAD" envSeparator:","`
	Port           string        `env:"PORT" envDefault:"8080" validate:"required,numeric"`
	UserAgent      string        `env:"USER_AGENT" envDefault:"fragment-loader/0.1.0" validate:"required"`
	FetchTimeout   time.Duration `env:"FETCH_TIMEOUT" envDefault:"30s"`
	RedisURL       string        `env:"REDIS_URL" validate:"omitempty,url"`
	CacheNamespace string        `env:"CACHE_NAMESPACE" envDefault:"default" validate:"required"`
	Minify         bool          `env:"MINIFY" envDefault:"false"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty      bool          `env:"LOG_PRETTY" envDefault:"false"`
}

// slot binds a layout element id to a fragment path.
type slot struct {
	TargetID string
	Path     string
}

var validate = validator.New()

// loadConfig parses and validates the environment.
func loadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	if err := logging.ValidateLevel(cfg.LogLevel); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	if _, err := cfg.slots(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.FetchTimeout < 0 {
		return Config{}, fmt.Errorf("invalid config: FETCH_TIMEOUT must not be negative")
	}
	if _, err := cfg.redisOptions(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// redisOptions parses REDIS_URL (redis://[user:password@]host:port/db).
// It returns nil when Redis is not configured.
func (c Config) redisOptions() (*redis.Options, error) {
	if c.RedisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(c.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("REDIS_URL: %w", err)
	}
	return opts, nil
}

// slots parses SLOTS entries of the form targetID:path.
func (c Config) slots() ([]slot, error) {
	out := make([]slot, 0, len(c.Slots))
	for _, raw := range c.Slots {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		target, path, ok := strings.Cut(raw, ":")
		target, path = strings.TrimSpace(target), strings.TrimSpace(path)
		if !ok || target == "" || path == "" {
			return nil, errors.New("slot " + raw + " must have the form target:path")
		}
		out = append(out, slot{TargetID: target, Path: path})
	}
	return out, nil
}

// preloadPaths returns PRELOAD with blanks removed.
func (c Config) preloadPaths() []string {
	out := make([]string, 0, len(c.Preload))
	for _, p := range c.Preload {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
