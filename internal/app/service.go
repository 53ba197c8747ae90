// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/musclewise/internal/domain/baseline"
	"github.com/okian/musclewise/internal/domain/catalog"
	"github.com/okian/musclewise/internal/domain/fatigue"
	"github.com/okian/musclewise/internal/domain/model"
	"github.com/okian/musclewise/internal/domain/recommend"
	"github.com/okian/musclewise/internal/domain/recovery"
	"github.com/okian/musclewise/pkg/logger"
	"github.com/okian/musclewise/pkg/metrics"
)

// Operation names used in logs, metrics and stats.
const (
	OpFatigue         = "fatigue"
	OpBaselineCheck   = "baseline_check"
	OpRecovery        = "recovery"
	OpRecommendations = "recommendations"
)

// ErrNotStarted is returned when a calculation is requested before Start.
var ErrNotStarted = errors.New("service not started")

// Service runs the calculators over the loaded catalog.
type Service struct {
	mu sync.RWMutex

	// Core components
	provider    *catalog.Provider
	catalog     *catalog.Catalog
	fatigue     *fatigue.Calculator
	baseline    *baseline.Updater
	recovery    *recovery.Calculator
	recommender *recommend.Recommender

	// Configuration
	catalogOpts []catalog.LoadOption
	preloaded   *catalog.Catalog
	sets        int
	reps        int
	limit       int
	clock       func() time.Time

	// State
	started   bool
	startedAt time.Time
	calls     map[string]*atomic.Int64
	failures  map[string]*atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCatalogFiles loads the exercise library and baseline table from files
// instead of the embedded defaults. Empty paths keep the default.
func WithCatalogFiles(exercisesPath, baselinesPath string) Option {
	return func(s *Service) {
		s.catalogOpts = append(s.catalogOpts,
			catalog.WithExercisesFile(exercisesPath),
			catalog.WithBaselinesFile(baselinesPath),
		)
	}
}

// WithCatalog uses an already built catalog and skips loading.
func WithCatalog(cat *catalog.Catalog) Option {
	return func(s *Service) {
		s.preloaded = cat
	}
}

// WithRecommendationDefaults sets the default sets, reps and safe-list limit.
func WithRecommendationDefaults(sets, reps, limit int) Option {
	return func(s *Service) {
		if sets > 0 {
			s.sets = sets
		}
		if reps > 0 {
			s.reps = reps
		}
		if limit > 0 {
			s.limit = limit
		}
	}
}

// WithClock overrides the wall clock used for fatigue timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.clock = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		sets:     3,
		reps:     10,
		limit:    10,
		clock:    time.Now,
		calls:    make(map[string]*atomic.Int64),
		failures: make(map[string]*atomic.Int64),
		logger:   nil, // Will be replaced when service starts
	}
	for _, op := range []string{OpFatigue, OpBaselineCheck, OpRecovery, OpRecommendations} {
		s.calls[op] = &atomic.Int64{}
		s.failures[op] = &atomic.Int64{}
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start loads the catalog and builds the calculators.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting musclewise service...")

	cat := s.preloaded
	if cat == nil {
		s.provider = catalog.NewProvider(s.catalogOpts...)
		loaded, err := s.provider.Get(ctx)
		if err != nil {
			s.logger.Error(ctx, "failed to load catalog", logger.Error(err))
			return fmt.Errorf("start service: %w", err)
		}
		cat = loaded
	}
	s.catalog = cat

	s.fatigue = fatigue.NewCalculator(
		fatigue.WithLogger(s.logger.Named(OpFatigue)),
		fatigue.WithClock(s.clock),
		fatigue.WithSkipHook(softFailure(OpFatigue)),
	)
	s.baseline = baseline.NewUpdater(cat, baseline.WithLogger(s.logger.Named(OpBaselineCheck)))
	s.recovery = recovery.NewCalculator(recovery.WithLogger(s.logger.Named(OpRecovery)))
	s.recommender = recommend.NewRecommender(cat,
		recommend.WithLogger(s.logger.Named(OpRecommendations)),
		recommend.WithSkipHook(softFailure(OpRecommendations)),
		recommend.WithDefaults(s.sets, s.reps, s.limit),
	)

	exercises, muscles := cat.Library().Len(), len(cat.Baselines())
	metrics.UpdateCatalogSize(exercises, muscles)

	s.started = true
	s.startedAt = s.clock()
	s.logger.Info(ctx, "musclewise service started",
		logger.Int("exercises", exercises),
		logger.Int("muscles", muscles),
	)

	return nil
}

// Stop marks the service as stopped. Calculations fail with ErrNotStarted
// afterwards.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.started = false
	s.logger.Info(context.Background(), "musclewise service stopped")
}

// CalculateFatigue runs the fatigue calculator. Nil baselines select the
// catalog table.
func (s *Service) CalculateFatigue(ctx context.Context, workout *model.Workout, baselines catalog.Baselines) (*fatigue.Result, error) {
	start := time.Now()
	calc, cat, err := s.components()
	if err != nil {
		return nil, s.observe(ctx, OpFatigue, start, err)
	}
	if baselines == nil {
		baselines = cat.Baselines()
	} else {
		baselines = normalizeBaselines(baselines)
	}

	res, err := calc.fatigue.Calculate(ctx, workout, cat.Library(), baselines)
	if err != nil {
		return nil, s.observe(ctx, OpFatigue, start, err)
	}

	exceeded := 0
	for _, st := range res.MuscleStates {
		if st.ExceededBaseline {
			exceeded++
		}
	}
	metrics.RecordMusclesExceeded(exceeded)
	return res, s.observe(ctx, OpFatigue, start, nil)
}

// CheckForBaselineUpdates runs the baseline updater.
func (s *Service) CheckForBaselineUpdates(ctx context.Context, exercises []model.WorkoutExercise, workoutDate string) ([]baseline.Suggestion, error) {
	start := time.Now()
	calc, _, err := s.components()
	if err != nil {
		return nil, s.observe(ctx, OpBaselineCheck, start, err)
	}

	suggestions, err := calc.baseline.CheckForUpdates(ctx, exercises, workoutDate)
	if err != nil {
		return nil, s.observe(ctx, OpBaselineCheck, start, err)
	}
	metrics.RecordBaselineSuggestions(len(suggestions))
	for _, sg := range suggestions {
		s.logger.Info(ctx, "baseline increase suggested",
			logger.String("muscle", sg.Muscle),
			logger.Float64("current", sg.CurrentBaseline),
			logger.Float64("suggested", sg.SuggestedBaseline),
			logger.String("exercise", sg.Exercise),
		)
	}
	return suggestions, s.observe(ctx, OpBaselineCheck, start, nil)
}

// CalculateRecovery runs the recovery calculator.
func (s *Service) CalculateRecovery(ctx context.Context, states []recovery.Input, workoutTimestamp, currentTimestamp string) (*recovery.Result, error) {
	start := time.Now()
	calc, _, err := s.components()
	if err != nil {
		return nil, s.observe(ctx, OpRecovery, start, err)
	}

	res, err := calc.recovery.Calculate(ctx, states, workoutTimestamp, currentTimestamp)
	if err != nil {
		return nil, s.observe(ctx, OpRecovery, start, err)
	}
	return res, s.observe(ctx, OpRecovery, start, nil)
}

// RecommendExercises runs the recommender.
func (s *Service) RecommendExercises(ctx context.Context, targetMuscle string, states []recommend.MuscleFatigue, opts recommend.Options) (*recommend.Result, error) {
	start := time.Now()
	calc, _, err := s.components()
	if err != nil {
		return nil, s.observe(ctx, OpRecommendations, start, err)
	}

	res, err := calc.recommender.Recommend(ctx, targetMuscle, states, opts)
	if err != nil {
		return nil, s.observe(ctx, OpRecommendations, start, err)
	}
	metrics.RecordRecommendations(res.SafeCount, res.UnsafeCount)
	return res, s.observe(ctx, OpRecommendations, start, nil)
}

// Exercises returns the exercise library.
func (s *Service) Exercises(_ context.Context) ([]catalog.Exercise, error) {
	_, cat, err := s.components()
	if err != nil {
		return nil, err
	}
	return cat.Library().Exercises(), nil
}

// Baselines returns the baseline rows.
func (s *Service) Baselines(_ context.Context) ([]catalog.Baseline, error) {
	_, cat, err := s.components()
	if err != nil {
		return nil, err
	}
	return cat.BaselineData(), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	calls := make(map[string]int64, len(s.calls))
	for op, c := range s.calls {
		calls[op] = c.Load()
	}
	failures := make(map[string]int64, len(s.failures))
	for op, c := range s.failures {
		failures[op] = c.Load()
	}

	stats := map[string]interface{}{
		"started":  s.started,
		"calls":    calls,
		"failures": failures,
	}

	if s.started {
		stats["exercises"] = s.catalog.Library().Len()
		stats["muscles"] = len(s.catalog.Baselines())
		stats["uptimeSeconds"] = int64(s.clock().Sub(s.startedAt).Seconds())
	}

	return stats
}

type calculators struct {
	fatigue     *fatigue.Calculator
	baseline    *baseline.Updater
	recovery    *recovery.Calculator
	recommender *recommend.Recommender
}

func (s *Service) components() (calculators, *catalog.Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return calculators{}, nil, ErrNotStarted
	}
	return calculators{
		fatigue:     s.fatigue,
		baseline:    s.baseline,
		recovery:    s.recovery,
		recommender: s.recommender,
	}, s.catalog, nil
}

// observe records the outcome of one operation and passes err through.
func (s *Service) observe(ctx context.Context, op string, start time.Time, err error) error {
	latency := float64(time.Since(start).Microseconds()) / 1000
	s.calls[op].Add(1)
	metrics.RecordCalculation(op, latency)
	if err == nil {
		return nil
	}

	s.failures[op].Add(1)
	kind := ErrorKind(err)
	metrics.RecordCalculationError(op, kind)
	if s.logger != nil {
		s.logger.Warn(ctx, "calculation rejected",
			logger.String("operation", op),
			logger.String("kind", kind),
			logger.Error(err),
		)
	}
	return err
}

// ErrorKind classifies err for metrics and responses.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, fatigue.ErrZeroBaseline):
		return "zero_baseline"
	case errors.Is(err, model.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrNotStarted):
		return "not_started"
	default:
		return "internal"
	}
}

func softFailure(op string) func(string) {
	return func(reason string) {
		metrics.RecordSoftFailure(op, reason)
	}
}

func normalizeBaselines(in catalog.Baselines) catalog.Baselines {
	out := make(catalog.Baselines, len(in))
	for muscle, v := range in {
		out[catalog.NormalizeMuscle(muscle)] = v
	}
	return out
}
