// Package fatigue turns a completed workout into per-muscle volume and
// fatigue relative to baseline capacity.
package fatigue

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/multierr"

	"github.com/okian/musclewise/internal/domain/catalog"
	"github.com/okian/musclewise/internal/domain/model"
	"github.com/okian/musclewise/pkg/logger"
)

// Fatigue thresholds in percent of baseline.
const (
	exceededThreshold    = 100.0
	approachingThreshold = 80.0
	displayCap           = 100.0
)

// ErrZeroBaseline is returned when an engaged muscle has a non-positive baseline.
var ErrZeroBaseline = errors.New("baseline must be positive")

// Soft-failure reasons reported through the OnSkip hook.
const (
	SkipUnknownExercise = "unknown_exercise"
	SkipNoMuscleData    = "no_muscle_data"
	SkipMissingBaseline = "missing_baseline"
)

// MuscleState is the fatigue snapshot of one muscle.
type MuscleState struct {
	Muscle           string  `json:"muscle"`
	Volume           float64 `json:"volume"`
	Baseline         float64 `json:"baseline"`
	FatiguePercent   float64 `json:"fatiguePercent"`
	DisplayFatigue   float64 `json:"displayFatigue"`
	ExceededBaseline bool    `json:"exceededBaseline"`
}

// Result is the outcome of one calculation.
type Result struct {
	MuscleStates []MuscleState `json:"muscleStates"`
	Warnings     []string      `json:"warnings"`
	Timestamp    string        `json:"timestamp"`
}

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithLogger sets the logger used for skipped inputs.
func WithLogger(l logger.Logger) Option {
	return func(c *Calculator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock overrides the wall clock used for Result.Timestamp.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithSkipHook registers a callback invoked for every soft failure.
func WithSkipHook(fn func(reason string)) Option {
	return func(c *Calculator) {
		if fn != nil {
			c.onSkip = fn
		}
	}
}

// Calculator computes workout fatigue. It holds no per-call state and is
// safe for concurrent use.
type Calculator struct {
	logger logger.Logger
	now    func() time.Time
	onSkip func(reason string)
}

// NewCalculator creates a Calculator with configuration options.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		logger: logger.Nop(),
		now:    time.Now,
		onSkip: func(string) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Calculate distributes each exercise's volume over its engaged muscles,
// summing across the whole workout, and relates the totals to baselines.
// The result always holds one state per muscle in baselines, sorted by name.
func (c *Calculator) Calculate(
	ctx context.Context,
	workout *model.Workout,
	library *catalog.Library,
	baselines catalog.Baselines,
) (*Result, error) {
	if err := validate(workout, library, baselines); err != nil {
		return nil, err
	}

	volumes := make(map[string]float64)
	for i, we := range workout.Exercises {
		ex, ok := library.Lookup(we.ExerciseID)
		if !ok {
			c.skip(ctx, SkipUnknownExercise, "exercise not in library, skipping",
				logger.Int("index", i), logger.String("exercise_id", we.ExerciseID))
			continue
		}
		if len(ex.Muscles) == 0 {
			c.skip(ctx, SkipNoMuscleData, "exercise has no muscle data, skipping",
				logger.String("exercise_id", ex.ID))
			continue
		}

		total := we.Volume()
		for _, m := range ex.Muscles {
			muscle := catalog.NormalizeMuscle(m.Muscle)
			volumes[muscle] += total * m.Percentage / 100
		}
	}

	states := make([]MuscleState, 0, len(baselines))
	produced := make(map[string]struct{}, len(volumes))
	engaged := make([]string, 0, len(volumes))
	for muscle := range volumes {
		engaged = append(engaged, muscle)
	}
	sort.Strings(engaged)

	for _, muscle := range engaged {
		volume := volumes[muscle]
		baseline, ok := baselines.Lookup(muscle)
		if !ok {
			c.skip(ctx, SkipMissingBaseline, "no baseline for muscle, dropping",
				logger.String("muscle", muscle), logger.Float64("volume", volume))
			continue
		}
		if baseline <= 0 {
			return nil, fmt.Errorf("%w: baseline for %s is %v", ErrZeroBaseline, muscle, baseline)
		}
		states = append(states, newState(muscle, volume, baseline))
		produced[muscle] = struct{}{}
	}

	for muscle, baseline := range baselines {
		if _, ok := produced[muscle]; ok {
			continue
		}
		states = append(states, MuscleState{Muscle: muscle, Baseline: baseline})
	}

	sort.Slice(states, func(i, j int) bool { return states[i].Muscle < states[j].Muscle })

	return &Result{
		MuscleStates: states,
		Warnings:     warnings(states),
		Timestamp:    model.FormatTimestamp(c.now()),
	}, nil
}

func newState(muscle string, volume, baseline float64) MuscleState {
	fatigue := model.Round1(volume / baseline * 100)
	display := fatigue
	if display > displayCap {
		display = displayCap
	}
	return MuscleState{
		Muscle:           muscle,
		Volume:           model.Round1(volume),
		Baseline:         baseline,
		FatiguePercent:   fatigue,
		DisplayFatigue:   display,
		ExceededBaseline: fatigue > exceededThreshold,
	}
}

// warnings expects states sorted by muscle.
func warnings(states []MuscleState) []string {
	out := make([]string, 0)
	for _, s := range states {
		switch {
		case s.FatiguePercent > exceededThreshold:
			out = append(out, fmt.Sprintf(
				"%s: EXCEEDED baseline by %.1f%% (%.1f%% fatigue) - capacity may have increased",
				s.Muscle, s.FatiguePercent-exceededThreshold, s.FatiguePercent))
		case s.FatiguePercent >= approachingThreshold:
			out = append(out, fmt.Sprintf(
				"%s: Approaching capacity (%.1f%% fatigue)", s.Muscle, s.FatiguePercent))
		}
	}
	return out
}

func (c *Calculator) skip(ctx context.Context, reason, msg string, fields ...logger.Field) {
	c.logger.Warn(ctx, msg, append(fields, logger.String("reason", reason))...)
	c.onSkip(reason)
}

func validate(workout *model.Workout, library *catalog.Library, baselines catalog.Baselines) error {
	switch {
	case workout == nil:
		return fmt.Errorf("%w: workout is required", model.ErrInvalidInput)
	case workout.Exercises == nil:
		return fmt.Errorf("%w: workout.exercises is required", model.ErrInvalidInput)
	case len(workout.Exercises) == 0:
		return fmt.Errorf("%w: workout.exercises must not be empty", model.ErrInvalidInput)
	case library == nil:
		return fmt.Errorf("%w: exercise library is required", model.ErrInvalidInput)
	case baselines == nil:
		return fmt.Errorf("%w: baselines are required", model.ErrInvalidInput)
	}

	var errs error
	for i, we := range workout.Exercises {
		if we.TotalVolume != nil && (!model.IsFinite(*we.TotalVolume) || *we.TotalVolume < 0) {
			errs = multierr.Append(errs, fmt.Errorf("%w: workout.exercises[%d].totalVolume must be a non-negative number", model.ErrInvalidInput, i))
		}
		for j, s := range we.Sets {
			if !model.IsFinite(s.Weight) || s.Weight < 0 {
				errs = multierr.Append(errs, fmt.Errorf("%w: workout.exercises[%d].sets[%d].weight must be a non-negative number", model.ErrInvalidInput, i, j))
			}
			if s.Reps < 0 {
				errs = multierr.Append(errs, fmt.Errorf("%w: workout.exercises[%d].sets[%d].reps must be non-negative", model.ErrInvalidInput, i, j))
			}
		}
	}
	return errs
}
