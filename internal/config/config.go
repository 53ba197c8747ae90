// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - All functions accept context.Context as the first parameter.
// - Validation errors wrap ErrInvalidConfig; loader errors wrap ErrLoadConfig.
package config

import (
	"context"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// LogFile, when set, additionally writes logs to a rotating file.
	LogFile string `koanf:"log_file"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ExercisesPath and BaselinesPath override the embedded catalogs.
	ExercisesPath string `koanf:"exercises_path"`
	BaselinesPath string `koanf:"baselines_path"`

	// RecommendationLimit caps the safe list when a request gives no limit.
	RecommendationLimit int `koanf:"recommendation_limit"`

	// EstimatedSets and EstimatedReps are the default prescription used by
	// the recommendation safety check.
	EstimatedSets int `koanf:"estimated_sets"`
	EstimatedReps int `koanf:"estimated_reps"`

	// MaxBodyBytes bounds JSON request bodies.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		RecommendationLimit: 10,
		EstimatedSets:       3,
		EstimatedReps:       10,
		MaxBodyBytes:        1 << 20,
	}
}
