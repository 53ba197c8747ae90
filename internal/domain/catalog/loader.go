package catalog

import (
	"context"
	"embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/exercises.yaml data/baselines.yaml
var defaultData embed.FS

const (
	defaultExercisesFile = "data/exercises.yaml"
	defaultBaselinesFile = "data/baselines.yaml"
)

// LoadOption configures where Load reads the catalogs from.
type LoadOption func(*loadSettings)

type loadSettings struct {
	exercisesPath string
	baselinesPath string
}

// WithExercisesFile reads the exercise library from a YAML or JSON file
// instead of the embedded default.
func WithExercisesFile(path string) LoadOption {
	return func(s *loadSettings) {
		if path != "" {
			s.exercisesPath = path
		}
	}
}

// WithBaselinesFile reads the baseline table from a YAML or JSON file
// instead of the embedded default.
func WithBaselinesFile(path string) LoadOption {
	return func(s *loadSettings) {
		if path != "" {
			s.baselinesPath = path
		}
	}
}

// Load reads both catalogs and builds a validated Catalog. Either document
// may be a bare list or an object wrapping the list under "exercises" /
// "baselines".
func Load(_ context.Context, opts ...LoadOption) (*Catalog, error) {
	s := &loadSettings{}
	for _, opt := range opts {
		opt(s)
	}

	exData, err := readSource(s.exercisesPath, defaultExercisesFile)
	if err != nil {
		return nil, err
	}
	blData, err := readSource(s.baselinesPath, defaultBaselinesFile)
	if err != nil {
		return nil, err
	}

	exercises, err := decodeList[Exercise](exData, "exercises")
	if err != nil {
		return nil, fmt.Errorf("%w: decode exercises: %w", ErrLoadCatalog, err)
	}
	baselines, err := decodeList[Baseline](blData, "baselines")
	if err != nil {
		return nil, fmt.Errorf("%w: decode baselines: %w", ErrLoadCatalog, err)
	}

	return New(exercises, baselines)
}

func readSource(path, embedded string) ([]byte, error) {
	if path == "" {
		data, err := defaultData.ReadFile(embedded)
		if err != nil {
			return nil, fmt.Errorf("%w: read embedded %s: %w", ErrLoadCatalog, embedded, err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadCatalog, err)
	}
	return data, nil
}

// decodeList accepts either a top-level list or a mapping holding the list
// under key. JSON documents decode through the same path.
func decodeList[T any](data []byte, key string) ([]T, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	root := node.Content[0]

	switch root.Kind {
	case yaml.SequenceNode:
		var out []T
		if err := root.Decode(&out); err != nil {
			return nil, err
		}
		return out, nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(root.Content); i += 2 {
			if root.Content[i].Value == key {
				var out []T
				if err := root.Content[i+1].Decode(&out); err != nil {
					return nil, err
				}
				return out, nil
			}
		}
		return nil, fmt.Errorf("missing %q list", key)
	default:
		return nil, fmt.Errorf("expected a list or an object with %q", key)
	}
}

// Provider lazily loads the catalog once and serves the same immutable
// instance afterwards. It is safe for concurrent first access.
type Provider struct {
	opts []LoadOption

	once    sync.Once
	catalog *Catalog
	err     error
}

// NewProvider returns a Provider that will call Load with opts on first use.
func NewProvider(opts ...LoadOption) *Provider {
	return &Provider{opts: opts}
}

// Get returns the cached catalog, loading it on the first call. A failed
// load is cached too; build a new Provider to retry.
func (p *Provider) Get(ctx context.Context) (*Catalog, error) {
	p.once.Do(func() {
		p.catalog, p.err = Load(ctx, p.opts...)
	})
	return p.catalog, p.err
}
