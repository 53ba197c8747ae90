package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/musclewise/internal/domain/fatigue"
	"github.com/okian/musclewise/internal/domain/model"
	"github.com/okian/musclewise/pkg/logger"
)

const progressEvery = 100

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client *http.Client
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// postJSON posts body and decodes a 200 answer into out.
func (c *HTTPClient) postJSON(ctx context.Context, url string, body, out any) error {
	resp, err := c.Post(ctx, url, body)
	if err != nil {
		return err
	}
	return decodeResponse(resp, out)
}

// getJSON decodes a 200 answer to a GET into out.
func (c *HTTPClient) getJSON(ctx context.Context, url string, out any) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	return decodeResponse(resp, out)
}

// decodeResponse reads and closes the response body
func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// fetchExerciseIDs lists the exercise ids the service knows.
func fetchExerciseIDs(ctx context.Context, config *Config) ([]string, error) {
	var list exerciseList
	if err := newHTTPClient(config.Timeout).getJSON(ctx, config.BaseURL+"/v1/exercises", &list); err != nil {
		return nil, fmt.Errorf("failed to list exercises: %w", err)
	}
	ids := make([]string, 0, len(list.Exercises))
	for _, e := range list.Exercises {
		ids = append(ids, e.ID)
	}
	return ids, nil
}

// submitWorkouts posts workouts to /v1/fatigue concurrently using a worker
// pool and checks every answer. Results keep the input order; failed
// submissions leave a nil Fatigue.
func submitWorkouts(ctx context.Context, config *Config, workouts []model.Workout, stats *Stats) []Submission {
	logger.Get().Info(ctx, "submitting workouts",
		logger.Int("count", len(workouts)),
		logger.Int("workers", config.Workers))

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/v1/fatigue"

	var (
		successful int64
		failed     int64
		submitted  int64
		violations int64
	)

	results := make([]Submission, len(workouts))
	jobs := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for idx := range jobs {
				if ctx.Err() != nil {
					continue
				}
				res, outcome, problems := submitSingleWorkout(ctx, client, url, workouts[idx])
				results[idx] = Submission{Workout: workouts[idx], Fatigue: res}

				total := atomic.AddInt64(&submitted, 1)
				if outcome == resultSuccess {
					atomic.AddInt64(&successful, 1)
				} else {
					atomic.AddInt64(&failed, 1)
				}
				if len(problems) > 0 {
					atomic.AddInt64(&violations, int64(len(problems)))
					for _, p := range problems {
						logger.Get().Error(ctx, "invariant violated",
							logger.String("workout", workouts[idx].ID),
							logger.String("problem", p))
					}
				}

				if total%progressEvery == 0 {
					logger.Get().Debug(ctx, "progress",
						logger.Int("submitted", int(total)),
						logger.Int("total", len(workouts)),
						logger.Int("failed", int(atomic.LoadInt64(&failed))))
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range workouts {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	wg.Wait()

	stats.WorkoutsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.WorkoutsSuccessful = int(atomic.LoadInt64(&successful))
	stats.WorkoutsFailed = int(atomic.LoadInt64(&failed))
	stats.InvariantViolations += int(atomic.LoadInt64(&violations))

	logger.Get().Info(ctx, "workout submission completed",
		logger.Int("successful", stats.WorkoutsSuccessful),
		logger.Int("failed", stats.WorkoutsFailed))
	return results
}

// submitSingleWorkout posts one workout and returns the result, the outcome
// and any invariant violations found in the answer.
func submitSingleWorkout(ctx context.Context, client *HTTPClient, url string, w model.Workout) (*fatigue.Result, string, []string) {
	var res fatigue.Result
	if err := client.postJSON(ctx, url, map[string]any{"workout": w}, &res); err != nil {
		logger.Get().Warn(ctx, "workout submission failed", logger.String("workout", w.ID), logger.Error(err))
		return nil, resultFailed, nil
	}
	return &res, resultSuccess, verifyFatigue(&res)
}
