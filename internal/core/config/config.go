package config

import (
	"fmt"
	"time"

	redisclient "github.com/vietddude/solgate/internal/infra/redis"
	"github.com/vietddude/solgate/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server    ServerConfig      `yaml:"server"`
	Logging   LoggingConfig     `yaml:"logging"`
	Endpoints []EndpointConfig  `yaml:"endpoints"`
	Dispatch  DispatchConfig    `yaml:"dispatch"`
	Health    HealthConfig      `yaml:"health"`
	Retry     RetryConfig       `yaml:"retry"`
	Cache     CacheConfig       `yaml:"cache"`
	Database  postgres.Config   `yaml:"database"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// EndpointConfig describes one remote node endpoint.
type EndpointConfig struct {
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	Weight int    `yaml:"weight"`
}

// DispatchConfig sizes the worker pool.
type DispatchConfig struct {
	Workers      int      `yaml:"workers"`
	HighReserved int      `yaml:"high_reserved"`
	Strategy     string   `yaml:"strategy"`  // round_robin (default), weighted
	Transport    string   `yaml:"transport"` // http (default), grpc
	Timeout      Duration `yaml:"timeout"`   // per-call HTTP timeout
}

// HealthConfig controls endpoint failure thresholds.
type HealthConfig struct {
	MaxFailures    int      `yaml:"max_failures"`
	RecoveryWindow Duration `yaml:"recovery_window"`
}

// RetryConfig controls the retry policy.
type RetryConfig struct {
	MaxAttempts     int      `yaml:"max_attempts"`
	BaseDelay       Duration `yaml:"base_delay"`
	MaxDelay        Duration `yaml:"max_delay"`
	Multiplier      float64  `yaml:"multiplier"`
	ClassifyErrors  bool     `yaml:"classify_errors"` // false = retry everything
}

// CacheConfig holds the optional result cache settings.
type CacheConfig struct {
	URL      string   `yaml:"url"`
	Password string   `yaml:"password"`
	TTL      Duration `yaml:"ttl"`
}

// RedisConfig converts to the redis client config.
func (c CacheConfig) RedisConfig() redisclient.Config {
	return redisclient.Config{
		URL:      c.URL,
		Password: c.Password,
		TTL:      time.Duration(c.TTL),
	}
}

// Duration parses "500ms"-style strings from YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for yaml.v2.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }
