package loadtest

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/okian/musclewise/pkg/logger"
)

// SetupLogging configures logging to both console and a rotating file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string, verbose bool) error {
	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "loadtest_" + timestamp + ".log"
	}

	if err := logger.Init(logger.WithFile(logFile, true)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the load test tool.
func ShowHelp() {
	os.Stdout.WriteString(`MuscleWise Load Test Tool
=========================

Generates random workouts, submits them concurrently and checks every
answer against the calculation invariants.

Usage:
  go run cmd/loadtest/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -workouts int
        Number of workouts to generate and submit (default 1000)
  -followups int
        Workouts chained through recovery and recommendations (default 50)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -seed int
        Generator seed, 0 picks one from the clock (default 0)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Output file for generated workouts (default: generated_workouts_TIMESTAMP.json)
  -log string
        Log file for test output (default: loadtest_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Test with default settings
  go run cmd/loadtest/main.go

  # Reproduce a run
  go run cmd/loadtest/main.go -workouts 5000 -workers 16 -seed 42
`)
}
