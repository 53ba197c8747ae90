package api

import (
	"fmt"
	"net/http"

	"go.uber.org/multierr"

	"github.com/okian/musclewise/internal/domain/catalog"
	"github.com/okian/musclewise/internal/domain/model"
	"github.com/okian/musclewise/internal/domain/recommend"
	"github.com/okian/musclewise/internal/domain/recovery"
	"github.com/okian/musclewise/pkg/logger"
)

// fatigueRequest is the body of POST /v1/fatigue. Baselines, when present,
// replace the catalog table for this call.
type fatigueRequest struct {
	Workout   *model.Workout     `json:"workout"`
	Baselines map[string]float64 `json:"baselines,omitempty"`
}

// baselineCheckRequest is the body of POST /v1/baselines/check.
type baselineCheckRequest struct {
	Exercises   []model.WorkoutExercise `json:"exercises"`
	WorkoutDate string                  `json:"workoutDate"`
}

// recoveryMuscle keeps fatiguePercent optional so a missing value can be
// told apart from zero.
type recoveryMuscle struct {
	Muscle         string   `json:"muscle"`
	FatiguePercent *float64 `json:"fatiguePercent"`
}

// recoveryRequest is the body of POST /v1/recovery.
type recoveryRequest struct {
	MuscleStates     []recoveryMuscle `json:"muscleStates"`
	WorkoutTimestamp string           `json:"workoutTimestamp"`
	CurrentTimestamp string           `json:"currentTimestamp"`
}

func (r recoveryRequest) inputs() ([]recovery.Input, error) {
	var errs error
	out := make([]recovery.Input, 0, len(r.MuscleStates))
	for i, m := range r.MuscleStates {
		if m.FatiguePercent == nil {
			errs = multierr.Append(errs, fmt.Errorf("%w: muscleStates[%d].fatiguePercent is required", model.ErrInvalidInput, i))
			continue
		}
		out = append(out, recovery.Input{Muscle: m.Muscle, FatiguePercent: *m.FatiguePercent})
	}
	return out, errs
}

// recommendationRequest is the body of POST /v1/recommendations.
type recommendationRequest struct {
	TargetMuscle string                    `json:"targetMuscle"`
	MuscleStates []recommend.MuscleFatigue `json:"muscleStates"`
	Options      recommend.Options         `json:"options"`
}

// CalculationHandler serves the four calculation routes.
type CalculationHandler struct {
	deps         Dependencies
	maxBodyBytes int64
	logger       logger.Logger
}

// NewCalculationHandler creates a new calculation handler.
func NewCalculationHandler(deps Dependencies, maxBodyBytes int64, l logger.Logger) *CalculationHandler {
	return &CalculationHandler{deps: deps, maxBodyBytes: maxBodyBytes, logger: l}
}

// HandleFatigue handles POST /v1/fatigue requests.
func (h *CalculationHandler) HandleFatigue(w http.ResponseWriter, r *http.Request) {
	var req fatigueRequest
	if !h.decode(w, r, &req) {
		return
	}

	var baselines catalog.Baselines
	if req.Baselines != nil {
		baselines = catalog.Baselines(req.Baselines)
	}
	res, err := h.deps.CalculateFatigue(r.Context(), req.Workout, baselines)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleBaselineCheck handles POST /v1/baselines/check requests.
func (h *CalculationHandler) HandleBaselineCheck(w http.ResponseWriter, r *http.Request) {
	var req baselineCheckRequest
	if !h.decode(w, r, &req) {
		return
	}

	suggestions, err := h.deps.CheckForBaselineUpdates(r.Context(), req.Exercises, req.WorkoutDate)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

// HandleRecovery handles POST /v1/recovery requests.
func (h *CalculationHandler) HandleRecovery(w http.ResponseWriter, r *http.Request) {
	var req recoveryRequest
	if !h.decode(w, r, &req) {
		return
	}
	states, err := req.inputs()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	res, err := h.deps.CalculateRecovery(r.Context(), states, req.WorkoutTimestamp, req.CurrentTimestamp)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleRecommendations handles POST /v1/recommendations requests.
func (h *CalculationHandler) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	var req recommendationRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.deps.RecommendExercises(r.Context(), req.TargetMuscle, req.MuscleStates, req.Options)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// decode enforces POST and decodes the body, writing the error response on
// failure.
func (h *CalculationHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
		return false
	}
	if err := decodeJSON(w, r, h.maxBodyBytes, v); err != nil {
		h.logger.Debug(r.Context(), "rejected request body",
			logger.String("path", r.URL.Path),
			logger.String("request_id", RequestIDFromContext(r.Context())),
			logger.Error(err),
		)
		writeDomainError(w, err)
		return false
	}
	return true
}
