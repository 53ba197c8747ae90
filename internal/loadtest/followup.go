package loadtest

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/musclewise/internal/domain/model"
	"github.com/okian/musclewise/internal/domain/recommend"
	"github.com/okian/musclewise/internal/domain/recovery"
	"github.com/okian/musclewise/pkg/logger"
)

// runFollowUps chains the first FollowUps successful submissions through
// the baseline check, a one-day recovery projection and a recommendation
// for the most fatigued muscle.
func runFollowUps(ctx context.Context, config *Config, submissions []Submission, stats *Stats) error {
	client := newHTTPClient(config.Timeout)
	done := 0
	for _, sub := range submissions {
		if done >= config.FollowUps {
			break
		}
		if sub.Fatigue == nil || len(sub.Fatigue.MuscleStates) == 0 {
			continue
		}
		if err := followUp(ctx, client, config.BaseURL, sub, stats); err != nil {
			return fmt.Errorf("follow-up for workout %s: %w", sub.Workout.ID, err)
		}
		done++
	}
	logger.Get().Info(ctx, "follow-ups completed", logger.Int("count", done))
	return nil
}

func followUp(ctx context.Context, client *HTTPClient, baseURL string, sub Submission, stats *Stats) error {
	var suggestions suggestionList
	err := client.postJSON(ctx, baseURL+"/v1/baselines/check", map[string]any{
		"exercises":   sub.Workout.Exercises,
		"workoutDate": sub.Workout.Date,
	}, &suggestions)
	if err != nil {
		return fmt.Errorf("baseline check: %w", err)
	}
	stats.BaselineSuggestions += len(suggestions.Suggestions)

	workoutAt, err := time.Parse(time.DateOnly, sub.Workout.Date)
	if err != nil {
		return fmt.Errorf("workout date: %w", err)
	}
	inputs := make([]recovery.Input, 0, len(sub.Fatigue.MuscleStates))
	states := make([]recommend.MuscleFatigue, 0, len(sub.Fatigue.MuscleStates))
	target := sub.Fatigue.MuscleStates[0]
	for _, st := range sub.Fatigue.MuscleStates {
		inputs = append(inputs, recovery.Input{Muscle: st.Muscle, FatiguePercent: st.FatiguePercent})
		fp := st.FatiguePercent
		states = append(states, recommend.MuscleFatigue{Muscle: st.Muscle, FatiguePercent: &fp})
		if st.FatiguePercent > target.FatiguePercent {
			target = st
		}
	}

	var rec recovery.Result
	err = client.postJSON(ctx, baseURL+"/v1/recovery", map[string]any{
		"muscleStates":     inputs,
		"workoutTimestamp": model.FormatTimestamp(workoutAt),
		"currentTimestamp": model.FormatTimestamp(workoutAt.Add(dayHours * time.Hour)),
	}, &rec)
	if err != nil {
		return fmt.Errorf("recovery: %w", err)
	}
	stats.RecoveriesChecked++
	stats.InvariantViolations += logViolations(ctx, sub.Workout.ID, verifyRecovery(inputs, &rec))

	var recs recommend.Result
	err = client.postJSON(ctx, baseURL+"/v1/recommendations", map[string]any{
		"targetMuscle": target.Muscle,
		"muscleStates": states,
		"options":      recommend.Options{},
	}, &recs)
	if err != nil {
		return fmt.Errorf("recommendations: %w", err)
	}
	stats.Recommendations += recs.SafeCount + recs.UnsafeCount
	stats.InvariantViolations += logViolations(ctx, sub.Workout.ID, verifyRecommendations(&recs))
	return nil
}

func logViolations(ctx context.Context, workoutID string, problems []string) int {
	for _, p := range problems {
		logger.Get().Error(ctx, "invariant violated",
			logger.String("workout", workoutID),
			logger.String("problem", p))
	}
	return len(problems)
}
