package loadtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/musclewise/internal/domain/model"
	"github.com/okian/musclewise/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// ErrInvariantViolations is returned when any answer broke an invariant.
var ErrInvariantViolations = errors.New("invariant violations detected")

// Run executes the complete load test.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting musclewise load test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("workouts", config.NumWorkouts),
		logger.Int("followUps", config.FollowUps),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Bool("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Learn the exercise library
	ids, err := fetchExerciseIDs(ctx, config)
	if err != nil {
		return stats, err
	}

	// Step 3: Generate workouts
	workouts, err := generateWorkouts(ctx, config, ids, stats)
	if err != nil {
		return stats, fmt.Errorf("workout generation failed: %w", err)
	}

	// Step 4: Submit workouts concurrently
	submissions := submitWorkouts(ctx, config, workouts, stats)

	// Step 5: Chain a sample through the remaining calculations
	if err := runFollowUps(ctx, config, submissions, stats); err != nil {
		return stats, fmt.Errorf("follow-up failed: %w", err)
	}

	// Step 6: Save workouts to file
	if config.OutputFile != "-" {
		if err := saveWorkoutsToFile(ctx, config, workouts); err != nil {
			logger.Get().Warn(ctx, "failed to save workouts to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	if stats.InvariantViolations > 0 {
		return stats, fmt.Errorf("%w: %d", ErrInvariantViolations, stats.InvariantViolations)
	}
	logger.Get().Info(ctx, "load test completed successfully")
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	var health struct {
		Status string `json:"status"`
	}
	if err := newHTTPClient(config.Timeout).getJSON(ctx, config.BaseURL+"/healthz", &health); err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if health.Status != "ok" {
		return fmt.Errorf("service reported status %q", health.Status)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveWorkoutsToFile saves the generated workouts to a JSON file.
func saveWorkoutsToFile(ctx context.Context, config *Config, workouts []model.Workout) error {
	if len(workouts) == 0 {
		return fmt.Errorf("no workouts to save")
	}

	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_workouts_" + timestamp + ".json"
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(workouts); err != nil {
		return fmt.Errorf("failed to write workouts: %w", err)
	}

	logger.Get().Info(ctx, "workouts saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final test statistics.
func displayFinalStats(stats *Stats) {
	var successRate, workoutsPerSecond float64

	if stats.WorkoutsSubmitted > 0 {
		successRate = float64(stats.WorkoutsSuccessful) / float64(stats.WorkoutsSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		workoutsPerSecond = float64(stats.WorkoutsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("workoutsGenerated", stats.WorkoutsGenerated),
		logger.Int("workoutsSubmitted", stats.WorkoutsSubmitted),
		logger.Int("workoutsSuccessful", stats.WorkoutsSuccessful),
		logger.Int("workoutsFailed", stats.WorkoutsFailed),
		logger.Int("invariantViolations", stats.InvariantViolations),
		logger.Int("baselineSuggestions", stats.BaselineSuggestions),
		logger.Int("recoveriesChecked", stats.RecoveriesChecked),
		logger.Int("recommendations", stats.Recommendations),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("workoutsPerSecond", workoutsPerSecond))
}
