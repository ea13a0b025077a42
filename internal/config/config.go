// Package config loads the conformance tool defaults from the environment.
package config

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sethvargo/go-envconfig"
)

// Config holds the settings the conformance tool reads from OPUS_*
// variables. Command-line flags override them.
type Config struct {
	VectorDir        string  `env:"OPUS_VECTOR_DIR, default=testdata/opus_testvectors"`
	Manifest         string  `env:"OPUS_MANIFEST"`
	QualityThreshold float64 `env:"OPUS_QUALITY_THRESHOLD, default=0"`
	LogLevel         string  `env:"OPUS_LOG_LEVEL, default=info"`
}

// FromEnv loads the configuration from the process environment.
func FromEnv(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if _, err := cfg.Level(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Level parses LogLevel as a slog level name (debug, info, warn, error).
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("OPUS_LOG_LEVEL: %w", err)
	}
	return l, nil
}
