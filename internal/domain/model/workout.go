// Package model contains domain models passed between layers.
package model

// Set is a single performed set. Volume is weight x reps.
type Set struct {
	Weight    float64 `json:"weight" yaml:"weight"`
	Reps      int     `json:"reps" yaml:"reps"`
	ToFailure bool    `json:"toFailure,omitempty" yaml:"toFailure"`
}

// Volume returns weight x reps for the set.
func (s Set) Volume() float64 {
	return s.Weight * float64(s.Reps)
}

// WorkoutExercise is one exercise inside a workout. TotalVolume, when set,
// replaces the sum over Sets.
type WorkoutExercise struct {
	ExerciseID  string   `json:"exerciseId"`
	Name        string   `json:"name,omitempty"`
	Sets        []Set    `json:"sets"`
	TotalVolume *float64 `json:"totalVolume,omitempty"`
}

// Volume returns the pre-computed total when present, otherwise the sum of
// set volumes.
func (e WorkoutExercise) Volume() float64 {
	if e.TotalVolume != nil {
		return *e.TotalVolume
	}
	var total float64
	for _, s := range e.Sets {
		total += s.Volume()
	}
	return total
}

// Workout is a completed training session.
type Workout struct {
	ID        string            `json:"id,omitempty"`
	Date      string            `json:"date,omitempty"`
	Exercises []WorkoutExercise `json:"exercises"`
}
