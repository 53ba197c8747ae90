// Package recovery projects how muscle fatigue decays over time.
package recovery

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/okian/musclewise/internal/domain/model"
	"github.com/okian/musclewise/pkg/logger"
)

// Linear decay model: a flat number of fatigue points recovered per day,
// regardless of the starting level.
const (
	pointsPerDay = 15.0
	hoursPerDay  = 24.0
)

// Input is the fatigue state of one muscle at workout time.
type Input struct {
	Muscle         string  `json:"muscle"`
	FatiguePercent float64 `json:"fatiguePercent"`
}

// Projections hold fatigue expected 24, 48 and 72 hours after evaluation.
type Projections struct {
	H24 float64 `json:"24h"`
	H48 float64 `json:"48h"`
	H72 float64 `json:"72h"`
}

// State is the recovery snapshot of one muscle at evaluation time.
type State struct {
	Muscle           string      `json:"muscle"`
	CurrentFatigue   float64     `json:"currentFatigue"`
	Projections      Projections `json:"projections"`
	FullyRecoveredAt *string     `json:"fullyRecoveredAt"`
}

// Result is the outcome of one recovery calculation.
type Result struct {
	MuscleStates []State `json:"muscleStates"`
	Timestamp    string  `json:"timestamp"`
}

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Calculator) {
		if l != nil {
			c.logger = l
		}
	}
}

// Calculator applies linear fatigue decay.
type Calculator struct {
	logger logger.Logger
}

// NewCalculator creates a Calculator with configuration options.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{logger: logger.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Calculate decays each muscle's fatigue from workoutTimestamp to
// currentTimestamp. An evaluation time before the workout is accepted and
// yields a higher apparent fatigue. Projections are relative to the decayed
// value, not to the workout.
func (c *Calculator) Calculate(ctx context.Context, states []Input, workoutTimestamp, currentTimestamp string) (*Result, error) {
	workoutAt, evaluatedAt, err := validate(states, workoutTimestamp, currentTimestamp)
	if err != nil {
		return nil, err
	}

	hours := evaluatedAt.Sub(workoutAt).Hours()
	if hours < 0 {
		c.logger.Debug(ctx, "evaluation precedes workout",
			logger.String("workout", workoutTimestamp), logger.String("current", currentTimestamp))
	}
	recovered := hours / hoursPerDay * pointsPerDay

	out := make([]State, 0, len(states))
	for _, s := range states {
		current := model.Round1(model.ClampZero(s.FatiguePercent - recovered))
		out = append(out, State{
			Muscle:         s.Muscle,
			CurrentFatigue: current,
			Projections: Projections{
				H24: model.Round1(model.ClampZero(current - pointsPerDay)),
				H48: model.Round1(model.ClampZero(current - 2*pointsPerDay)),
				H72: model.Round1(model.ClampZero(current - 3*pointsPerDay)),
			},
			FullyRecoveredAt: fullyRecoveredAt(current, evaluatedAt),
		})
	}

	return &Result{
		MuscleStates: out,
		Timestamp:    model.FormatTimestamp(evaluatedAt),
	}, nil
}

func fullyRecoveredAt(current float64, from time.Time) *string {
	if current <= 0 {
		return nil
	}
	hours := current / pointsPerDay * hoursPerDay
	// Saturate instead of overflowing int64 nanoseconds.
	wait := time.Duration(math.MaxInt64)
	if ns := hours * float64(time.Hour); ns < math.MaxInt64 {
		wait = time.Duration(ns).Round(time.Millisecond)
	}
	ts := model.FormatTimestamp(from.Add(wait))
	return &ts
}

func validate(states []Input, workoutTimestamp, currentTimestamp string) (time.Time, time.Time, error) {
	var errs error
	if len(states) == 0 {
		errs = multierr.Append(errs, fmt.Errorf("%w: muscleStates must be a non-empty list", model.ErrInvalidInput))
	}
	for i, s := range states {
		if strings.TrimSpace(s.Muscle) == "" {
			errs = multierr.Append(errs, fmt.Errorf("%w: muscleStates[%d].muscle is required", model.ErrInvalidInput, i))
		}
		switch {
		case !model.IsFinite(s.FatiguePercent):
			errs = multierr.Append(errs, fmt.Errorf("%w: muscleStates[%d].fatiguePercent must be a number", model.ErrInvalidInput, i))
		case s.FatiguePercent < 0:
			errs = multierr.Append(errs, fmt.Errorf("%w: muscleStates[%d].fatiguePercent must be non-negative", model.ErrInvalidInput, i))
		}
	}

	workoutAt, err := model.ParseTimestamp("workoutTimestamp", workoutTimestamp)
	errs = multierr.Append(errs, err)
	evaluatedAt, err := model.ParseTimestamp("currentTimestamp", currentTimestamp)
	errs = multierr.Append(errs, err)

	return workoutAt, evaluatedAt, errs
}
