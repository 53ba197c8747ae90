package loadtest

import (
	"fmt"
	"sort"

	"github.com/okian/musclewise/internal/domain/fatigue"
	"github.com/okian/musclewise/internal/domain/model"
	"github.com/okian/musclewise/internal/domain/recommend"
	"github.com/okian/musclewise/internal/domain/recovery"
)

const recoveryPerDay = 15.0

// verifyFatigue checks the invariants every fatigue answer must hold.
func verifyFatigue(res *fatigue.Result) []string {
	var problems []string
	if !sort.SliceIsSorted(res.MuscleStates, func(i, j int) bool {
		return res.MuscleStates[i].Muscle < res.MuscleStates[j].Muscle
	}) {
		problems = append(problems, "muscle states are not sorted by name")
	}
	for _, st := range res.MuscleStates {
		if st.FatiguePercent < 0 || st.Volume < 0 {
			problems = append(problems, fmt.Sprintf("%s: negative fatigue or volume", st.Muscle))
		}
		if st.ExceededBaseline != (st.FatiguePercent > 100) {
			problems = append(problems, fmt.Sprintf("%s: exceeded flag disagrees with %.1f%%", st.Muscle, st.FatiguePercent))
		}
		if st.DisplayFatigue > 100 || st.DisplayFatigue != min(st.FatiguePercent, 100) {
			problems = append(problems, fmt.Sprintf("%s: display fatigue %.1f not capped from %.1f", st.Muscle, st.DisplayFatigue, st.FatiguePercent))
		}
	}
	return problems
}

// verifyRecovery checks a one-day projection against its inputs.
func verifyRecovery(inputs []recovery.Input, res *recovery.Result) []string {
	var problems []string
	if len(res.MuscleStates) != len(inputs) {
		return []string{fmt.Sprintf("recovery returned %d states for %d inputs", len(res.MuscleStates), len(inputs))}
	}
	for i, st := range res.MuscleStates {
		want := model.Round1(model.ClampZero(inputs[i].FatiguePercent - recoveryPerDay))
		if st.CurrentFatigue != want {
			problems = append(problems, fmt.Sprintf("%s: current fatigue %.1f, want %.1f", st.Muscle, st.CurrentFatigue, want))
		}
		p := st.Projections
		if p.H24 > st.CurrentFatigue || p.H48 > p.H24 || p.H72 > p.H48 {
			problems = append(problems, fmt.Sprintf("%s: projections increase over time", st.Muscle))
		}
		if (st.FullyRecoveredAt == nil) != (st.CurrentFatigue == 0) {
			problems = append(problems, fmt.Sprintf("%s: fullyRecoveredAt disagrees with current fatigue", st.Muscle))
		}
	}
	return problems
}

// verifyRecommendations checks ordering, safety flags and counts.
func verifyRecommendations(res *recommend.Result) []string {
	var problems []string
	if res.SafeCount != len(res.Safe) || res.UnsafeCount != len(res.Unsafe) {
		problems = append(problems, "recommendation counts disagree with lists")
	}
	for i, r := range res.Safe {
		if !r.Safe {
			problems = append(problems, fmt.Sprintf("%s: listed safe but flagged unsafe", r.ExerciseID))
		}
		if i > 0 && res.Safe[i-1].Score < r.Score {
			problems = append(problems, "safe recommendations are not sorted by score")
		}
	}
	for _, r := range res.Unsafe {
		if r.Safe || r.Score != 0 {
			problems = append(problems, fmt.Sprintf("%s: unsafe entry has a score or safe flag", r.ExerciseID))
		}
	}
	return problems
}
