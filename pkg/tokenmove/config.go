package tokenmove

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"tokenmove/internal/core"
	"tokenmove/internal/movement"
	"tokenmove/internal/observability/log"
	"tokenmove/internal/spatial"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds configuration for the engine
type Config struct {
	WorldBounds  Bounds      `yaml:"world_bounds" json:"world_bounds"`
	Index        IndexConfig `yaml:"index" json:"index"`
	GridlessStep float64     `yaml:"gridless_step" json:"gridless_step"`
	Snap         SnapConfig  `yaml:"snap" json:"snap"`
	LogLevel     string      `yaml:"log_level" json:"log_level"`
	// BatchConcurrency limits the goroutines used by ValidateBatch; zero
	// means no limit
	BatchConcurrency int `yaml:"batch_concurrency" json:"batch_concurrency"`
}

// Bounds is the indexed area of the map, in world units
type Bounds struct {
	MinX float64 `yaml:"min_x" json:"min_x"`
	MinY float64 `yaml:"min_y" json:"min_y"`
	MaxX float64 `yaml:"max_x" json:"max_x"`
	MaxY float64 `yaml:"max_y" json:"max_y"`
}

// AABB converts the bounds to a core box
func (b Bounds) AABB() core.AABB {
	return core.NewAABB(b.MinX, b.MinY, b.MaxX, b.MaxY)
}

// IndexConfig tunes the quadtree
type IndexConfig struct {
	MaxObjectsPerNode int `yaml:"max_objects_per_node" json:"max_objects_per_node"`
	MaxDepth          int `yaml:"max_depth" json:"max_depth"`
}

// SnapConfig tunes the snap search. Zero fields take the defaults.
type SnapConfig struct {
	MaxBackwardSteps   int     `yaml:"max_backward_steps" json:"max_backward_steps"`
	RefineDivisor      int     `yaml:"refine_divisor" json:"refine_divisor"`
	GradientIterations int     `yaml:"gradient_iterations" json:"gradient_iterations"`
	MinStepScale       float64 `yaml:"min_step_scale" json:"min_step_scale"`
	DefaultBackoff     float64 `yaml:"default_backoff" json:"default_backoff"`
	SeparationBuffer   float64 `yaml:"separation_buffer" json:"separation_buffer"`
}

func (s SnapConfig) params() movement.SnapParams {
	return movement.SnapParams{
		MaxBackwardSteps:   s.MaxBackwardSteps,
		RefineDivisor:      s.RefineDivisor,
		GradientIterations: s.GradientIterations,
		MinStepScale:       s.MinStepScale,
		DefaultBackoff:     s.DefaultBackoff,
		SeparationBuffer:   s.SeparationBuffer,
	}
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	snap := movement.DefaultSnapParams()
	return &Config{
		WorldBounds: Bounds{MinX: -1000, MinY: -1000, MaxX: 1000, MaxY: 1000},
		Index: IndexConfig{
			MaxObjectsPerNode: spatial.DefaultMaxObjectsPerNode,
			MaxDepth:          spatial.DefaultMaxDepth,
		},
		GridlessStep: movement.DefaultGridlessStep,
		Snap: SnapConfig{
			MaxBackwardSteps:   snap.MaxBackwardSteps,
			RefineDivisor:      snap.RefineDivisor,
			GradientIterations: snap.GradientIterations,
			MinStepScale:       snap.MinStepScale,
			DefaultBackoff:     snap.DefaultBackoff,
			SeparationBuffer:   snap.SeparationBuffer,
		},
		LogLevel: "info",
	}
}

// LoadConfig decodes a YAML configuration. Keys missing from r keep their
// DefaultConfig values.
func LoadConfig(r io.Reader) (*Config, error) {
	c := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadConfigFile reads a YAML configuration from path
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	c, err := LoadConfig(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Validate reports the first problem found in c
func (c *Config) Validate() error {
	b := c.WorldBounds
	switch {
	case b.MaxX <= b.MinX || b.MaxY <= b.MinY:
		return fmt.Errorf("%w: world bounds must have positive area", ErrInvalidConfig)
	case c.Index.MaxObjectsPerNode <= 0:
		return fmt.Errorf("%w: index.max_objects_per_node must be positive", ErrInvalidConfig)
	case c.Index.MaxDepth < 0:
		return fmt.Errorf("%w: index.max_depth must not be negative", ErrInvalidConfig)
	case c.GridlessStep <= 0:
		return fmt.Errorf("%w: gridless_step must be positive", ErrInvalidConfig)
	case c.Snap.RefineDivisor < 0 || c.Snap.GradientIterations < 0:
		return fmt.Errorf("%w: snap iteration counts must not be negative", ErrInvalidConfig)
	case c.Snap.MinStepScale < 0 || c.Snap.DefaultBackoff < 0 || c.Snap.SeparationBuffer < 0:
		return fmt.Errorf("%w: snap tunables must not be negative", ErrInvalidConfig)
	case c.BatchConcurrency < 0:
		return fmt.Errorf("%w: batch_concurrency must not be negative", ErrInvalidConfig)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
