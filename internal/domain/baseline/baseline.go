// Package baseline learns muscle capacity from sets taken to failure.
package baseline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/multierr"

	"github.com/okian/musclewise/internal/domain/catalog"
	"github.com/okian/musclewise/internal/domain/model"
	"github.com/okian/musclewise/pkg/logger"
)

// Suggestion proposes raising a muscle's baseline to a volume it has proven.
type Suggestion struct {
	Muscle            string  `json:"muscle"`
	CurrentBaseline   float64 `json:"currentBaseline"`
	SuggestedBaseline float64 `json:"suggestedBaseline"`
	AchievedVolume    float64 `json:"achievedVolume"`
	Exercise          string  `json:"exercise"`
	WorkoutDate       string  `json:"workoutDate"`
	PercentIncrease   float64 `json:"percentIncrease"`
}

// Option applies a configuration option to the Updater.
type Option func(*Updater)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(u *Updater) {
		if l != nil {
			u.logger = l
		}
	}
}

// Updater compares peak single-set muscle volume against the baseline table.
type Updater struct {
	catalog *catalog.Catalog
	logger  logger.Logger
}

// NewUpdater creates an Updater reading exercises and baselines from cat.
func NewUpdater(cat *catalog.Catalog, opts ...Option) *Updater {
	u := &Updater{
		catalog: cat,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

type peak struct {
	volume   float64
	exercise string
}

// CheckForUpdates returns a suggestion for every muscle whose largest
// single-set volume in the workout exceeds its current baseline. Only sets
// flagged ToFailure count. Peaks are tracked per set, never summed.
func (u *Updater) CheckForUpdates(ctx context.Context, exercises []model.WorkoutExercise, workoutDate string) ([]Suggestion, error) {
	if err := validate(exercises, workoutDate); err != nil {
		return nil, err
	}
	if u.catalog == nil {
		return nil, fmt.Errorf("%w: catalog is required", model.ErrInvalidInput)
	}

	library := u.catalog.Library()
	peaks := make(map[string]peak)
	for _, we := range exercises {
		ex, ok := library.Lookup(we.ExerciseID)
		if !ok {
			continue
		}
		name := ex.Name
		if name == "" {
			name = ex.ID
		}

		for _, set := range we.Sets {
			if !set.ToFailure {
				continue
			}
			total := set.Volume()
			for _, m := range ex.Muscles {
				muscle := catalog.NormalizeMuscle(m.Muscle)
				v := total * m.Percentage / 100
				if v > peaks[muscle].volume {
					peaks[muscle] = peak{volume: v, exercise: name}
				}
			}
		}
	}

	baselines := u.catalog.Baselines()
	suggestions := make([]Suggestion, 0)
	for muscle, p := range peaks {
		current, ok := baselines.Lookup(muscle)
		if !ok {
			continue
		}
		if current <= 0 {
			u.logger.Warn(ctx, "non-positive baseline, cannot compute increase",
				logger.String("muscle", muscle), logger.Float64("baseline", current))
			continue
		}
		if p.volume <= current {
			continue
		}
		achieved := model.Round1(p.volume)
		suggestions = append(suggestions, Suggestion{
			Muscle:            muscle,
			CurrentBaseline:   current,
			SuggestedBaseline: achieved,
			AchievedVolume:    achieved,
			Exercise:          p.exercise,
			WorkoutDate:       workoutDate,
			PercentIncrease:   model.Round1((p.volume - current) / current * 100),
		})
	}

	sort.Slice(suggestions, func(i, j int) bool { return suggestions[i].Muscle < suggestions[j].Muscle })
	return suggestions, nil
}

func validate(exercises []model.WorkoutExercise, workoutDate string) error {
	var errs error
	if exercises == nil {
		errs = multierr.Append(errs, fmt.Errorf("%w: exercises must be a list", model.ErrInvalidInput))
	}
	if strings.TrimSpace(workoutDate) == "" {
		errs = multierr.Append(errs, fmt.Errorf("%w: workoutDate is required", model.ErrInvalidInput))
	}
	for i, we := range exercises {
		if strings.TrimSpace(we.ExerciseID) == "" {
			errs = multierr.Append(errs, fmt.Errorf("%w: exercises[%d].exerciseId is required", model.ErrInvalidInput, i))
		}
		if we.Sets == nil {
			errs = multierr.Append(errs, fmt.Errorf("%w: exercises[%d].sets is required", model.ErrInvalidInput, i))
			continue
		}
		for j, s := range we.Sets {
			if !model.IsFinite(s.Weight) || s.Weight < 0 {
				errs = multierr.Append(errs, fmt.Errorf("%w: exercises[%d].sets[%d].weight must be a non-negative number", model.ErrInvalidInput, i, j))
			}
			if s.Reps < 0 {
				errs = multierr.Append(errs, fmt.Errorf("%w: exercises[%d].sets[%d].reps must be non-negative", model.ErrInvalidInput, i, j))
			}
		}
	}
	return errs
}
