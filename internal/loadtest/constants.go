package loadtest

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Generator ranges.
const (
	minExercisesPerWorkout = 1
	maxExercisesPerWorkout = 6
	minSetsPerExercise     = 1
	maxSetsPerExercise     = 5
	minReps                = 1
	maxReps                = 20
	maxWeight              = 140.0
	failureSetChance       = 5 // one in N sets is taken to failure
)

// Runner configuration constants.
const (
	PercentageMultiplier = 100
	dayHours             = 24
)

const (
	resultSuccess = "success"
	resultFailed  = "failed"
)
