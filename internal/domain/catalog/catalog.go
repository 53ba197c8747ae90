// Package catalog holds the immutable exercise library and baseline capacity
// table the calculators read from.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/multierr"
)

// Sentinel error kinds for catalog construction.
var (
	ErrInvalidCatalog = errors.New("invalid catalog")
	ErrLoadCatalog    = errors.New("load catalog failed")
)

// MuscleEngagement is the share of an exercise's volume attributed to one muscle.
type MuscleEngagement struct {
	Muscle     string  `json:"muscle" yaml:"muscle"`
	Percentage float64 `json:"percentage" yaml:"percentage"`
	Primary    bool    `json:"primary" yaml:"primary"`
}

// Exercise is a catalog entry.
type Exercise struct {
	ID        string             `json:"id" yaml:"id"`
	Name      string             `json:"name" yaml:"name"`
	Equipment string             `json:"equipment" yaml:"equipment"`
	Category  string             `json:"category" yaml:"category"`
	Muscles   []MuscleEngagement `json:"muscles" yaml:"muscles"`
}

// Engagement returns the engagement entry for a canonical muscle name.
func (e Exercise) Engagement(muscle string) (MuscleEngagement, bool) {
	for _, m := range e.Muscles {
		if NormalizeMuscle(m.Muscle) == muscle {
			return m, true
		}
	}
	return MuscleEngagement{}, false
}

func (e Exercise) clone() Exercise {
	e.Muscles = append([]MuscleEngagement(nil), e.Muscles...)
	return e
}

// Baseline is one row of the baseline table.
type Baseline struct {
	Muscle           string  `json:"muscle" yaml:"muscle"`
	BaselineCapacity float64 `json:"baselineCapacity" yaml:"baselineCapacity"`
}

// Baselines maps a canonical muscle name to its baseline capacity.
type Baselines map[string]float64

// Lookup returns the baseline for an exact canonical muscle name.
func (b Baselines) Lookup(muscle string) (float64, bool) {
	v, ok := b[muscle]
	return v, ok
}

// Muscles returns the muscle names in ascending order.
func (b Baselines) Muscles() []string {
	out := make([]string, 0, len(b))
	for m := range b {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy.
func (b Baselines) Clone() Baselines {
	if b == nil {
		return nil
	}
	out := make(Baselines, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Library is an immutable, id-indexed set of exercises.
type Library struct {
	exercises []Exercise
	byID      map[string]int
}

// NewLibrary indexes exercises by id. Later duplicates shadow earlier ones.
func NewLibrary(exercises []Exercise) *Library {
	l := &Library{
		exercises: make([]Exercise, 0, len(exercises)),
		byID:      make(map[string]int, len(exercises)),
	}
	for _, ex := range exercises {
		if i, ok := l.byID[ex.ID]; ok {
			l.exercises[i] = ex.clone()
			continue
		}
		l.byID[ex.ID] = len(l.exercises)
		l.exercises = append(l.exercises, ex.clone())
	}
	return l
}

// Lookup finds an exercise by id.
func (l *Library) Lookup(id string) (Exercise, bool) {
	i, ok := l.byID[id]
	if !ok {
		return Exercise{}, false
	}
	return l.exercises[i].clone(), true
}

// Exercises returns a copy of all exercises in catalog order.
func (l *Library) Exercises() []Exercise {
	out := make([]Exercise, len(l.exercises))
	for i, ex := range l.exercises {
		out[i] = ex.clone()
	}
	return out
}

// Len returns the number of exercises.
func (l *Library) Len() int { return len(l.exercises) }

// Catalog bundles the library with the baseline table.
type Catalog struct {
	library      *Library
	baselines    Baselines
	baselineData []Baseline
}

// New validates the raw catalog data and builds an immutable Catalog.
// Baseline muscle names are normalized to canonical keys.
func New(exercises []Exercise, baselines []Baseline) (*Catalog, error) {
	var errs error
	seen := make(map[string]struct{}, len(exercises))
	for i, ex := range exercises {
		if strings.TrimSpace(ex.ID) == "" {
			errs = multierr.Append(errs, fmt.Errorf("%w: exercises[%d].id is required", ErrInvalidCatalog, i))
			continue
		}
		if _, dup := seen[ex.ID]; dup {
			errs = multierr.Append(errs, fmt.Errorf("%w: duplicate exercise id %q", ErrInvalidCatalog, ex.ID))
		}
		seen[ex.ID] = struct{}{}
		for j, m := range ex.Muscles {
			if strings.TrimSpace(m.Muscle) == "" {
				errs = multierr.Append(errs, fmt.Errorf("%w: %s.muscles[%d].muscle is required", ErrInvalidCatalog, ex.ID, j))
			}
			if m.Percentage < 0 || m.Percentage > 100 {
				errs = multierr.Append(errs, fmt.Errorf("%w: %s.muscles[%d].percentage %.1f outside 0-100", ErrInvalidCatalog, ex.ID, j, m.Percentage))
			}
		}
	}

	table := make(Baselines, len(baselines))
	data := make([]Baseline, 0, len(baselines))
	for i, b := range baselines {
		muscle := NormalizeMuscle(b.Muscle)
		switch {
		case muscle == "":
			errs = multierr.Append(errs, fmt.Errorf("%w: baselines[%d].muscle is required", ErrInvalidCatalog, i))
			continue
		case b.BaselineCapacity < 0:
			errs = multierr.Append(errs, fmt.Errorf("%w: baseline for %s is negative", ErrInvalidCatalog, muscle))
			continue
		}
		if _, dup := table[muscle]; dup {
			errs = multierr.Append(errs, fmt.Errorf("%w: duplicate baseline for %s", ErrInvalidCatalog, muscle))
			continue
		}
		table[muscle] = b.BaselineCapacity
		data = append(data, Baseline{Muscle: muscle, BaselineCapacity: b.BaselineCapacity})
	}
	if errs != nil {
		return nil, errs
	}

	return &Catalog{
		library:      NewLibrary(exercises),
		baselines:    table,
		baselineData: data,
	}, nil
}

// Library returns the exercise library.
func (c *Catalog) Library() *Library { return c.library }

// Baselines returns a copy of the baseline table.
func (c *Catalog) Baselines() Baselines { return c.baselines.Clone() }

// BaselineData returns the baseline rows in catalog order.
func (c *Catalog) BaselineData() []Baseline {
	return append([]Baseline(nil), c.baselineData...)
}
