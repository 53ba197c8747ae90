package loadtest

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/okian/musclewise/internal/domain/model"
	"github.com/okian/musclewise/pkg/logger"
)

// generateWorkouts creates NumWorkouts random workouts over exerciseIDs.
// The same seed and id list always produce the same sets.
func generateWorkouts(ctx context.Context, config *Config, exerciseIDs []string, stats *Stats) ([]model.Workout, error) {
	if len(exerciseIDs) == 0 {
		return nil, fmt.Errorf("no exercises to generate workouts from")
	}
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger.Get().Info(ctx, "generating workouts",
		logger.Int("numWorkouts", config.NumWorkouts),
		logger.Any("seed", seed))

	faker := gofakeit.New(seed)
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	workouts := make([]model.Workout, config.NumWorkouts)
	for i := range workouts {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during workout generation: %w", err)
		}
		workouts[i] = generateSingleWorkout(faker, exerciseIDs, faker.DateRange(start, end))
	}

	stats.WorkoutsGenerated = len(workouts)
	logger.Get().Info(ctx, "generated workouts successfully", logger.Int("count", len(workouts)))
	return workouts, nil
}

// generateSingleWorkout creates one workout dated at day.
func generateSingleWorkout(faker *gofakeit.Faker, exerciseIDs []string, day time.Time) model.Workout {
	n := faker.IntRange(minExercisesPerWorkout, maxExercisesPerWorkout)
	w := model.Workout{
		ID:        faker.UUID(),
		Date:      day.Format(time.DateOnly),
		Exercises: make([]model.WorkoutExercise, 0, n),
	}
	for j := 0; j < n; j++ {
		ex := model.WorkoutExercise{ExerciseID: exerciseIDs[faker.IntRange(0, len(exerciseIDs)-1)]}
		for k := faker.IntRange(minSetsPerExercise, maxSetsPerExercise); k > 0; k-- {
			ex.Sets = append(ex.Sets, model.Set{
				Weight:    model.Round1(faker.Float64Range(0, maxWeight)),
				Reps:      faker.IntRange(minReps, maxReps),
				ToFailure: faker.IntRange(1, failureSetChance) == 1,
			})
		}
		w.Exercises = append(w.Exercises, ex)
	}
	return w
}
