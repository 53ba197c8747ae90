package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/multierr"
)

const (
	envPrefix     = "MUSCLEWISE_"
	envConfigFile = envPrefix + "CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if MUSCLEWISE_CONFIG is set
//  3. env (prefix MUSCLEWISE_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(envConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// MUSCLEWISE_ESTIMATED_SETS -> estimated_sets; underscores are kept to
	// match the flat koanf tags.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs error
	if strings.TrimSpace(c.Addr) == "" {
		errs = multierr.Append(errs, fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = multierr.Append(errs, fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = multierr.Append(errs, fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel))
	}
	if c.RecommendationLimit <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%w: recommendation_limit must be positive", ErrInvalidConfig))
	}
	if c.EstimatedSets <= 0 || c.EstimatedReps <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%w: estimated_sets and estimated_reps must be positive", ErrInvalidConfig))
	}
	if c.MaxBodyBytes <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%w: max_body_bytes must be positive", ErrInvalidConfig))
	}
	return errs
}
