package api

import (
	"context"
	"net/http"

	"github.com/okian/musclewise/internal/domain/catalog"
)

// CatalogDependencies defines the interface for catalog reads.
type CatalogDependencies interface {
	Exercises(ctx context.Context) ([]catalog.Exercise, error)
	Baselines(ctx context.Context) ([]catalog.Baseline, error)
}

// CatalogHandler serves the exercise library and baseline table.
type CatalogHandler struct {
	deps CatalogDependencies
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(deps CatalogDependencies) *CatalogHandler {
	return &CatalogHandler{deps: deps}
}

// HandleExercises handles GET /v1/exercises requests.
func (h *CatalogHandler) HandleExercises(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	exercises, err := h.deps.Exercises(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"exercises": exercises})
}

// HandleBaselines handles GET /v1/baselines requests.
func (h *CatalogHandler) HandleBaselines(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	baselines, err := h.deps.Baselines(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"baselines": baselines})
}
