// Package recommend ranks catalog exercises for a target muscle and splits
// them into safe and unsafe candidates given the current fatigue picture.
package recommend

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

// Factor weights. They sum to 100.
const (
	weightTargetMatch    = 40.0
	weightFreshness      = 25.0
	weightVariety        = 15.0
	weightPreference     = 10.0
	weightPrimaryBalance = 10.0
)

const (
	minTargetEngagement = 5.0
	varietySaturation   = 5.0

	criticalThreshold = 100.0
	warningThreshold  = 80.0

	defaultSets  = 3
	defaultReps  = 10
	defaultLimit = 10
)

// SkipNoBaseline is reported through the skip hook when a candidate muscle
// has no baseline for the safety check.
const SkipNoBaseline = "no_baseline"

// Severity classifies a projected bottleneck.
type Severity string

// Bottleneck severities.
const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
)

// Bottleneck is a muscle the candidate would push past a fatigue threshold.
type Bottleneck struct {
	Muscle           string   `json:"muscle"`
	Severity         Severity `json:"severity"`
	CurrentFatigue   float64  `json:"currentFatigue"`
	ProjectedFatigue float64  `json:"projectedFatigue"`
	Message          string   `json:"message"`
}

// Factors is the per-factor score breakdown.
type Factors struct {
	TargetMatch    float64 `json:"targetMatch"`
	Freshness      float64 `json:"freshness"`
	Variety        float64 `json:"variety"`
	Preference     float64 `json:"preference"`
	PrimaryBalance float64 `json:"primaryBalance"`
}

func (f Factors) total() float64 {
	return f.TargetMatch + f.Freshness + f.Variety + f.Preference + f.PrimaryBalance
}

func (f Factors) rounded() Factors {
	return Factors{
		TargetMatch:    model.Round1(f.TargetMatch),
		Freshness:      model.Round1(f.Freshness),
		Variety:        model.Round1(f.Variety),
		Preference:     model.Round1(f.Preference),
		PrimaryBalance: model.Round1(f.PrimaryBalance),
	}
}

// Estimate is the prospective prescription used for the safety check.
type Estimate struct {
	Weight float64 `json:"weight"`
	Sets   int     `json:"sets"`
	Reps   int     `json:"reps"`
}

// Recommendation is one scored candidate.
type Recommendation struct {
	ExerciseID string       `json:"exerciseId"`
	Name       string       `json:"name"`
	Equipment  string       `json:"equipment"`
	Category   string       `json:"category"`
	Score      float64      `json:"score"`
	Factors    Factors      `json:"factors"`
	Safe       bool         `json:"isSafe"`
	Warnings   []Bottleneck `json:"warnings"`
	Estimated  Estimate     `json:"estimated"`
}

// MuscleFatigue is the current fatigue of one muscle. Either value may be
// set; CurrentFatigue wins when both are.
type MuscleFatigue struct {
	Muscle         string   `json:"muscle"`
	CurrentFatigue *float64 `json:"currentFatigue,omitempty"`
	FatiguePercent *float64 `json:"fatiguePercent,omitempty"`
}

// HistoryEntry is one past performance of an exercise.
type HistoryEntry struct {
	ExerciseID string  `json:"exerciseId"`
	Weight     float64 `json:"weight"`
	Reps       int     `json:"reps"`
}

// Preferences are the user's favorite and avoided exercise ids.
type Preferences struct {
	Favorites []string `json:"favorites"`
	Avoid     []string `json:"avoid"`
}

// Options enumerates every recognized recommendation setting. Zero values
// select the documented defaults.
type Options struct {
	// CurrentWorkout lists exercise ids already in the session.
	CurrentWorkout []string `json:"currentWorkout"`
	// CurrentVolumes is accumulated session volume per muscle. Muscles absent
	// here are derived from their fatigue and baseline.
	CurrentVolumes map[string]float64 `json:"currentVolumes"`
	// Baselines overrides the catalog table when non-nil.
	Baselines catalog.Baselines `json:"baselines"`
	// AvailableEquipment restricts candidates when non-empty. Case-insensitive.
	AvailableEquipment []string       `json:"availableEquipment"`
	WorkoutHistory     []HistoryEntry `json:"workoutHistory"`
	Preferences        Preferences    `json:"userPreferences"`
	// EstimatedSets defaults to 3, EstimatedReps to 10.
	EstimatedSets int `json:"estimatedSets"`
	EstimatedReps int `json:"estimatedReps"`
	// EstimatedWeight is used when there is no history for the exercise.
	// Zero falls back to an equipment default.
	EstimatedWeight float64 `json:"estimatedWeight"`
	// Limit caps the safe list. Defaults to 10.
	Limit int `json:"limit"`
}

// Result partitions the candidates.
type Result struct {
	Safe          []Recommendation `json:"safe"`
	Unsafe        []Recommendation `json:"unsafe"`
	TotalFiltered int              `json:"totalFiltered"`
	SafeCount     int              `json:"safeCount"`
	UnsafeCount   int              `json:"unsafeCount"`
}

// Option applies a configuration option to the Recommender.
type Option func(*Recommender)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Recommender) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithSkipHook registers a callback invoked for every soft failure.
func WithSkipHook(fn func(reason string)) Option {
	return func(r *Recommender) {
		if fn != nil {
			r.onSkip = fn
		}
	}
}

// WithDefaults overrides the default sets, reps and safe-list limit used
// when Options leaves them at zero.
func WithDefaults(sets, reps, limit int) Option {
	return func(r *Recommender) {
		if sets > 0 {
			r.defaultSets = sets
		}
		if reps > 0 {
			r.defaultReps = reps
		}
		if limit > 0 {
			r.defaultLimit = limit
		}
	}
}

// Recommender scores catalog exercises. Safe for concurrent use.
type Recommender struct {
	catalog *catalog.Catalog
	logger  logger.Logger
	onSkip  func(reason string)

	defaultSets  int
	defaultReps  int
	defaultLimit int
}

// NewRecommender creates a Recommender over cat.
func NewRecommender(cat *catalog.Catalog, opts ...Option) *Recommender {
	r := &Recommender{
		catalog:      cat,
		logger:       logger.Nop(),
		onSkip:       func(string) {},
		defaultSets:  defaultSets,
		defaultReps:  defaultReps,
		defaultLimit: defaultLimit,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// request is the normalized view of one Recommend call.
type request struct {
	target     string
	fatigue    map[string]float64
	volumes    map[string]float64
	baselines  catalog.Baselines
	equipment  map[string]struct{}
	avoid      map[string]struct{}
	favorites  map[string]struct{}
	inWorkout  map[string]struct{}
	categories map[string]int
	history    map[string]float64
	sets       int
	reps       int
	weight     float64
	limit      int
}

// Recommend filters, scores and safety-checks every catalog exercise for
// targetMuscle.
func (r *Recommender) Recommend(ctx context.Context, targetMuscle string, states []MuscleFatigue, opts Options) (*Result, error) {
	if err := validate(targetMuscle, states, opts); err != nil {
		return nil, err
	}
	if r.catalog == nil {
		return nil, fmt.Errorf("%w: catalog is required", model.ErrInvalidInput)
	}

	req := r.prepare(targetMuscle, states, opts)

	res := &Result{
		Safe:   make([]Recommendation, 0),
		Unsafe: make([]Recommendation, 0),
	}
	for _, ex := range r.catalog.Library().Exercises() {
		engagement, ok := req.eligible(ex)
		if !ok {
			continue
		}
		res.TotalFiltered++

		factors := req.score(ex, engagement)
		rec := Recommendation{
			ExerciseID: ex.ID,
			Name:       ex.Name,
			Equipment:  ex.Equipment,
			Category:   ex.Category,
			Score:      model.Round1(factors.total()),
			Factors:    factors.rounded(),
			Estimated: Estimate{
				Weight: req.estimateWeight(ex),
				Sets:   req.sets,
				Reps:   req.reps,
			},
		}
		rec.Warnings = r.bottlenecks(ctx, req, ex, rec.Estimated)
		rec.Safe = !hasCritical(rec.Warnings)

		if rec.Safe {
			res.Safe = append(res.Safe, rec)
			continue
		}
		rec.Score = 0
		res.Unsafe = append(res.Unsafe, rec)
	}

	sort.SliceStable(res.Safe, func(i, j int) bool {
		if res.Safe[i].Score != res.Safe[j].Score {
			return res.Safe[i].Score > res.Safe[j].Score
		}
		return res.Safe[i].Name < res.Safe[j].Name
	})
	sort.SliceStable(res.Unsafe, func(i, j int) bool { return res.Unsafe[i].Name < res.Unsafe[j].Name })

	res.SafeCount = len(res.Safe)
	res.UnsafeCount = len(res.Unsafe)
	if len(res.Safe) > req.limit {
		res.Safe = res.Safe[:req.limit]
	}
	return res, nil
}

func (r *Recommender) prepare(target string, states []MuscleFatigue, opts Options) *request {
	req := &request{
		target:     catalog.NormalizeMuscle(target),
		fatigue:    make(map[string]float64, len(states)),
		volumes:    make(map[string]float64, len(opts.CurrentVolumes)),
		equipment:  toSet(opts.AvailableEquipment, strings.ToLower),
		avoid:      toSet(opts.Preferences.Avoid, nil),
		favorites:  toSet(opts.Preferences.Favorites, nil),
		inWorkout:  toSet(opts.CurrentWorkout, nil),
		categories: make(map[string]int),
		history:    averageWeights(opts.WorkoutHistory),
		sets:       opts.EstimatedSets,
		reps:       opts.EstimatedReps,
		weight:     opts.EstimatedWeight,
		limit:      opts.Limit,
	}
	if req.sets == 0 {
		req.sets = r.defaultSets
	}
	if req.reps == 0 {
		req.reps = r.defaultReps
	}
	if req.limit == 0 {
		req.limit = r.defaultLimit
	}

	for _, s := range states {
		v := s.FatiguePercent
		if s.CurrentFatigue != nil {
			v = s.CurrentFatigue
		}
		req.fatigue[catalog.NormalizeMuscle(s.Muscle)] = *v
	}
	for muscle, v := range opts.CurrentVolumes {
		req.volumes[catalog.NormalizeMuscle(muscle)] = v
	}

	if opts.Baselines != nil {
		req.baselines = make(catalog.Baselines, len(opts.Baselines))
		for muscle, v := range opts.Baselines {
			req.baselines[catalog.NormalizeMuscle(muscle)] = v
		}
	} else {
		req.baselines = r.catalog.Baselines()
	}

	library := r.catalog.Library()
	for _, id := range opts.CurrentWorkout {
		if ex, ok := library.Lookup(id); ok && ex.Category != "" {
			req.categories[ex.Category]++
		}
	}
	return req
}

// eligible applies the pre-scoring filters and returns the target engagement.
func (req *request) eligible(ex catalog.Exercise) (catalog.MuscleEngagement, bool) {
	if len(req.equipment) > 0 {
		if _, ok := req.equipment[strings.ToLower(ex.Equipment)]; !ok {
			return catalog.MuscleEngagement{}, false
		}
	}
	if _, ok := req.avoid[ex.ID]; ok {
		return catalog.MuscleEngagement{}, false
	}
	if _, ok := req.inWorkout[ex.ID]; ok {
		return catalog.MuscleEngagement{}, false
	}
	engagement, ok := ex.Engagement(req.target)
	if !ok || engagement.Percentage < minTargetEngagement {
		return catalog.MuscleEngagement{}, false
	}
	return engagement, true
}

// score returns the unrounded factors; the total is rounded once.
func (req *request) score(ex catalog.Exercise, target catalog.MuscleEngagement) Factors {
	f := Factors{
		TargetMatch: target.Percentage / 100 * weightTargetMatch,
		Freshness:   model.ClampZero(100-req.weightedFatigue(ex)) / 100 * weightFreshness,
		Variety:     model.ClampZero(1-float64(req.categories[ex.Category])/varietySaturation) * weightVariety,
	}
	if _, ok := req.favorites[ex.ID]; ok {
		f.Preference = weightPreference
	}
	if target.Primary {
		f.PrimaryBalance = weightPrimaryBalance
	} else {
		f.PrimaryBalance = weightPrimaryBalance / 2
	}

	return f
}

// weightedFatigue averages fatigue over the engaged muscles, weighted by
// engagement share. Unknown muscles count as fresh.
func (req *request) weightedFatigue(ex catalog.Exercise) float64 {
	var sum, weights float64
	for _, m := range ex.Muscles {
		sum += req.fatigue[catalog.NormalizeMuscle(m.Muscle)] * m.Percentage
		weights += m.Percentage
	}
	if weights == 0 {
		return 0
	}
	return sum / weights
}

func (req *request) estimateWeight(ex catalog.Exercise) float64 {
	if w, ok := req.history[ex.ID]; ok {
		return model.Round1(w)
	}
	if req.weight > 0 {
		return req.weight
	}
	return equipmentWeight(ex.Equipment)
}

func (r *Recommender) bottlenecks(ctx context.Context, req *request, ex catalog.Exercise, est Estimate) []Bottleneck {
	out := make([]Bottleneck, 0)
	volume := est.Weight * float64(est.Sets*est.Reps)
	for _, m := range ex.Muscles {
		muscle := catalog.NormalizeMuscle(m.Muscle)
		baseline, ok := req.baselines.Lookup(muscle)
		if !ok || baseline <= 0 {
			r.logger.Debug(ctx, "no baseline for safety check, skipping muscle",
				logger.String("exercise_id", ex.ID), logger.String("muscle", muscle))
			r.onSkip(SkipNoBaseline)
			continue
		}

		current, ok := req.volumes[muscle]
		if !ok {
			current = req.fatigue[muscle] / 100 * baseline
		}
		currentFatigue := current / baseline * 100
		projected := (current + volume*m.Percentage/100) / baseline * 100

		var severity Severity
		switch {
		case projected > criticalThreshold:
			severity = SeverityCritical
		case projected > warningThreshold:
			severity = SeverityWarning
		default:
			continue
		}
		out = append(out, Bottleneck{
			Muscle:           muscle,
			Severity:         severity,
			CurrentFatigue:   model.Round1(currentFatigue),
			ProjectedFatigue: model.Round1(projected),
			Message: fmt.Sprintf("%s would reach %.1f%% fatigue (currently %.1f%%)",
				muscle, projected, currentFatigue),
		})
	}
	return out
}

func hasCritical(bs []Bottleneck) bool {
	for _, b := range bs {
		if b.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// equipmentWeight is the fallback working weight when nothing better is known.
func equipmentWeight(equipment string) float64 {
	switch strings.ToLower(equipment) {
	case "barbell":
		return 60
	case "dumbbell":
		return 20
	case "cable":
		return 30
	case "machine":
		return 40
	case "kettlebell":
		return 16
	case "bodyweight":
		return 70
	default:
		return 20
	}
}

func averageWeights(history []HistoryEntry) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, h := range history {
		if h.ExerciseID == "" || h.Weight <= 0 || !model.IsFinite(h.Weight) {
			continue
		}
		sums[h.ExerciseID] += h.Weight
		counts[h.ExerciseID]++
	}
	out := make(map[string]float64, len(sums))
	for id, sum := range sums {
		out[id] = sum / float64(counts[id])
	}
	return out
}

func toSet(values []string, transform func(string) string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if transform != nil {
			v = transform(v)
		}
		out[v] = struct{}{}
	}
	return out
}

func validate(target string, states []MuscleFatigue, opts Options) error {
	var errs error
	if strings.TrimSpace(target) == "" {
		errs = multierr.Append(errs, fmt.Errorf("%w: targetMuscle is required", model.ErrInvalidInput))
	}
	if states == nil {
		errs = multierr.Append(errs, fmt.Errorf("%w: muscleStates must be a list", model.ErrInvalidInput))
	}
	for i, s := range states {
		if strings.TrimSpace(s.Muscle) == "" {
			errs = multierr.Append(errs, fmt.Errorf("%w: muscleStates[%d].muscle is required", model.ErrInvalidInput, i))
		}
		v := s.CurrentFatigue
		if v == nil {
			v = s.FatiguePercent
		}
		switch {
		case v == nil:
			errs = multierr.Append(errs, fmt.Errorf("%w: muscleStates[%d] needs currentFatigue or fatiguePercent", model.ErrInvalidInput, i))
		case !model.IsFinite(*v) || *v < 0:
			errs = multierr.Append(errs, fmt.Errorf("%w: muscleStates[%d] fatigue must be a non-negative number", model.ErrInvalidInput, i))
		}
	}
	if opts.EstimatedSets < 0 {
		errs = multierr.Append(errs, fmt.Errorf("%w: estimatedSets must be non-negative", model.ErrInvalidInput))
	}
	if opts.EstimatedReps < 0 {
		errs = multierr.Append(errs, fmt.Errorf("%w: estimatedReps must be non-negative", model.ErrInvalidInput))
	}
	if !model.IsFinite(opts.EstimatedWeight) || opts.EstimatedWeight < 0 {
		errs = multierr.Append(errs, fmt.Errorf("%w: estimatedWeight must be a non-negative number", model.ErrInvalidInput))
	}
	if opts.Limit < 0 {
		errs = multierr.Append(errs, fmt.Errorf("%w: limit must be non-negative", model.ErrInvalidInput))
	}
	for muscle, v := range opts.CurrentVolumes {
		if !model.IsFinite(v) || v < 0 {
			errs = multierr.Append(errs, fmt.Errorf("%w: currentVolumes[%s] must be a non-negative number", model.ErrInvalidInput, muscle))
		}
	}
	return errs
}
