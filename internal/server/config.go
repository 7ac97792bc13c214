package server

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Brownie44l1/corehttp/internal/request"
)

// Config holds server configuration
type Config struct {
	Addr string `yaml:"addr"`

	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	MaxHeaderBytes int   `yaml:"max_header_bytes"`
	MaxBodyBytes   int64 `yaml:"max_body_bytes"`

	Log       LogConfig       `yaml:"log"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig configures the per-client limiter. A zero Requests
// disables it.
type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	limits := request.DefaultLimits()
	return Config{
		Addr:            ":8080",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		MaxHeaderBytes:  limits.MaxHeaderBytes,
		MaxBodyBytes:    limits.MaxBodyBytes,
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig reads a YAML file over DefaultConfig. Keys missing from the
// file keep their default. Durations use Go syntax ("30s", "1m").
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with
func (c Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("config: addr is empty")
	case c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.ShutdownTimeout < 0:
		return fmt.Errorf("config: timeouts must not be negative")
	case c.MaxHeaderBytes <= 0:
		return fmt.Errorf("config: max_header_bytes must be positive")
	case c.MaxBodyBytes < 0:
		return fmt.Errorf("config: max_body_bytes must not be negative")
	case c.RateLimit.Requests < 0:
		return fmt.Errorf("config: rate_limit.requests must not be negative")
	case c.RateLimit.Requests > 0 && c.RateLimit.Window <= 0:
		return fmt.Errorf("config: rate_limit.window must be positive")
	}
	return nil
}

// Limits returns the request size limits
func (c Config) Limits() request.Limits {
	return request.Limits{
		MaxHeaderBytes: c.MaxHeaderBytes,
		MaxBodyBytes:   c.MaxBodyBytes,
	}
}
