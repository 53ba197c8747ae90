package loadtest

import (
	"time"

	"github.com/okian/musclewise/internal/domain/baseline"
	"github.com/okian/musclewise/internal/domain/fatigue"
	"github.com/okian/musclewise/internal/domain/model"
)

// Config holds configuration for the load test
type Config struct {
	BaseURL     string        // Base URL of the service
	NumWorkouts int           // Number of workouts to generate
	FollowUps   int           // Workouts to chain through recovery and recommendations
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	Seed        int64         // Generator seed, 0 picks one from the clock
	OutputFile  string        // Output file for generated workouts
	LogFile     string        // Log file for test output
	Verbose     bool          // Enable verbose logging
}

// Submission pairs a generated workout with the service's answer.
type Submission struct {
	Workout model.Workout
	Fatigue *fatigue.Result
}

type exerciseList struct {
	Exercises []struct {
		ID        string `json:"id"`
		Equipment string `json:"equipment"`
	} `json:"exercises"`
}

type suggestionList struct {
	Suggestions []baseline.Suggestion `json:"suggestions"`
}

// Stats holds test statistics
type Stats struct {
	WorkoutsGenerated   int
	WorkoutsSubmitted   int
	WorkoutsSuccessful  int
	WorkoutsFailed      int
	InvariantViolations int
	BaselineSuggestions int
	RecoveriesChecked   int
	Recommendations     int
	StartTime           time.Time
	EndTime             time.Time
	Duration            time.Duration
}
