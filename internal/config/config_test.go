package config_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/musclewise/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.RecommendationLimit, convey.ShouldEqual, 10)
			convey.So(cfg.EstimatedSets, convey.ShouldEqual, 3)
			convey.So(cfg.EstimatedReps, convey.ShouldEqual, 10)
			convey.So(cfg.MaxBodyBytes, convey.ShouldEqual, 1<<20)
			convey.So(cfg.ExercisesPath, convey.ShouldBeEmpty)
		})

		convey.Convey("Then the defaults are valid", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a config with several invalid fields", t, func() {
		cfg := config.New(context.Background())
		cfg.Addr = " "
		cfg.LogFormat = "xml"
		cfg.RecommendationLimit = 0
		cfg.EstimatedReps = -1

		err := cfg.Validate()

		convey.Convey("Then every problem is reported", func() {
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
			convey.So(err.Error(), convey.ShouldContainSubstring, "log_format")
			convey.So(err.Error(), convey.ShouldContainSubstring, "recommendation_limit")
			convey.So(err.Error(), convey.ShouldContainSubstring, "estimated_reps")
		})
	})
}
