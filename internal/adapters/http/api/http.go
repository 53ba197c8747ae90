// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/musclewise/internal/domain/baseline"
	"github.com/okian/musclewise/internal/domain/catalog"
	"github.com/okian/musclewise/internal/domain/fatigue"
	"github.com/okian/musclewise/internal/domain/model"
	"github.com/okian/musclewise/internal/domain/recommend"
	"github.com/okian/musclewise/internal/domain/recovery"
	"github.com/okian/musclewise/pkg/logger"
)

const defaultMaxBodyBytes int64 = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CalculateFatigue(ctx context.Context, workout *model.Workout, baselines catalog.Baselines) (*fatigue.Result, error)
	CheckForBaselineUpdates(ctx context.Context, exercises []model.WorkoutExercise, workoutDate string) ([]baseline.Suggestion, error)
	CalculateRecovery(ctx context.Context, states []recovery.Input, workoutTimestamp, currentTimestamp string) (*recovery.Result, error)
	RecommendExercises(ctx context.Context, targetMuscle string, states []recommend.MuscleFatigue, opts recommend.Options) (*recommend.Result, error)

	// Read operations expose the catalog.
	Exercises(ctx context.Context) ([]catalog.Exercise, error)
	Baselines(ctx context.Context) ([]catalog.Baseline, error)
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxBodyBytes bounds request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithLogger sets the logger used by handlers and middleware.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	maxBodyBytes int64
	logger       logger.Logger

	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	calculationHandler *CalculationHandler
	catalogHandler     *CatalogHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		maxBodyBytes: defaultMaxBodyBytes,
		logger:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.calculationHandler = NewCalculationHandler(deps, s.maxBodyBytes, s.logger)
	s.catalogHandler = NewCatalogHandler(deps)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	handle := func(path, endpoint string, h http.HandlerFunc) {
		mux.Handle(path, RequestIDMiddleware(MetricsMiddleware(h, endpoint), s.logger))
	}

	handle("/healthz", "healthz", s.healthHandler.HandleHealth)
	handle("/metrics", "metrics", s.healthHandler.HandleMetrics)
	handle("/stats", "stats", s.statsHandler.HandleStats)

	handle("/v1/fatigue", "fatigue", s.calculationHandler.HandleFatigue)
	handle("/v1/baselines/check", "baselines_check", s.calculationHandler.HandleBaselineCheck)
	handle("/v1/recovery", "recovery", s.calculationHandler.HandleRecovery)
	handle("/v1/recommendations", "recommendations", s.calculationHandler.HandleRecommendations)

	handle("/v1/exercises", "exercises", s.catalogHandler.HandleExercises)
	handle("/v1/baselines", "baselines", s.catalogHandler.HandleBaselines)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError maps calculator error kinds onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", err)
	case errors.Is(err, ErrBadRequest), errors.Is(err, model.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, fatigue.ErrZeroBaseline):
		writeError(w, http.StatusUnprocessableEntity, "zero_baseline", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// decodeJSON reads exactly one JSON document into v, rejecting unknown
// fields and trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("%w: %w", ErrTooLarge, err)
		}
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: body must contain a single JSON object", ErrBadRequest)
	}
	return nil
}
