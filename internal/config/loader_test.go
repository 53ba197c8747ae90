package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/musclewise/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New(ctx))
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("MUSCLEWISE_ADDR", ":8080")
			_ = os.Setenv("MUSCLEWISE_LOG_FORMAT", "json")
			_ = os.Setenv("MUSCLEWISE_RECOMMENDATION_LIMIT", "5")
			_ = os.Setenv("MUSCLEWISE_ESTIMATED_SETS", "4")
			_ = os.Setenv("MUSCLEWISE_EXERCISES_PATH", "/etc/musclewise/exercises.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.RecommendationLimit, convey.ShouldEqual, 5)
				convey.So(cfg.EstimatedSets, convey.ShouldEqual, 4)
				convey.So(cfg.EstimatedReps, convey.ShouldEqual, 10)
				convey.So(cfg.ExercisesPath, convey.ShouldEqual, "/etc/musclewise/exercises.yaml")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(`
# comments are fine
addr: ":9090"
log_level: debug
recommendation_limit: 20
estimated_reps: 8
baselines_path: ./baselines.json
`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("MUSCLEWISE_CONFIG", tmpFile)
			_ = os.Setenv("MUSCLEWISE_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.RecommendationLimit, convey.ShouldEqual, 20)
				convey.So(cfg.EstimatedReps, convey.ShouldEqual, 8)
				convey.So(cfg.EstimatedSets, convey.ShouldEqual, 3)
				convey.So(cfg.BaselinesPath, convey.ShouldEqual, "./baselines.json")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("MUSCLEWISE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("MUSCLEWISE_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("MUSCLEWISE_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("MUSCLEWISE_ESTIMATED_SETS", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a non-positive limit", func() {
			_ = os.Setenv("MUSCLEWISE_RECOMMENDATION_LIMIT", "-1")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"MUSCLEWISE_CONFIG",
		"MUSCLEWISE_ADDR",
		"MUSCLEWISE_LOG_FORMAT",
		"MUSCLEWISE_LOG_LEVEL",
		"MUSCLEWISE_RECOMMENDATION_LIMIT",
		"MUSCLEWISE_ESTIMATED_SETS",
		"MUSCLEWISE_ESTIMATED_REPS",
		"MUSCLEWISE_EXERCISES_PATH",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "musclewise-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
