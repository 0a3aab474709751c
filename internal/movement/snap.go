package movement

import (
	"math"

	"tokenmove/internal/collision"
	"tokenmove/internal/core"
	"tokenmove/internal/observability/log"
)

// Snap failure reasons
const (
	ReasonNoMovement     = "No movement detected"
	ReasonNoSnapPosition = "No valid snap position along path"
)

// Default snap tuning. The gradient constants were tuned by hand and are
// kept overridable through SnapParams.
const (
	DefaultMaxBackwardSteps   = 200
	DefaultRefineDivisor      = 10
	DefaultGradientIterations = 20
	DefaultMinStepScale       = 0.001
	DefaultBackoff            = 0.1
	DefaultSeparationBuffer   = 0.1
)

// SnapParams tunes the snap search. Path fractions (t) run from 0 at the
// start of the move to 1 at its target. Zero fields take the defaults.
type SnapParams struct {
	// MaxBackwardSteps caps the linear backward search, which steps back
	// one world unit at a time; the fallback search takes over once the
	// cap runs out. A negative value skips the linear search.
	MaxBackwardSteps int
	// RefineDivisor splits one coarse step into forward refinement steps
	RefineDivisor int
	// GradientIterations caps the fallback search
	GradientIterations int
	// MinStepScale ends the fallback search once its step (in t) gets smaller
	MinStepScale float64
	// DefaultBackoff is the fallback start offset (in t) for movers without a radius
	DefaultBackoff float64
	// SeparationBuffer is backed off along the path after a success, in world units
	SeparationBuffer float64
}

// DefaultSnapParams returns the default snap tuning
func DefaultSnapParams() SnapParams {
	return SnapParams{
		MaxBackwardSteps:   DefaultMaxBackwardSteps,
		RefineDivisor:      DefaultRefineDivisor,
		GradientIterations: DefaultGradientIterations,
		MinStepScale:       DefaultMinStepScale,
		DefaultBackoff:     DefaultBackoff,
		SeparationBuffer:   DefaultSeparationBuffer,
	}
}

func (p SnapParams) withDefaults() SnapParams {
	d := DefaultSnapParams()
	if p.MaxBackwardSteps == 0 {
		p.MaxBackwardSteps = d.MaxBackwardSteps
	}
	if p.RefineDivisor <= 0 {
		p.RefineDivisor = d.RefineDivisor
	}
	if p.GradientIterations <= 0 {
		p.GradientIterations = d.GradientIterations
	}
	if p.MinStepScale <= 0 {
		p.MinStepScale = d.MinStepScale
	}
	if p.DefaultBackoff <= 0 {
		p.DefaultBackoff = d.DefaultBackoff
	}
	if p.SeparationBuffer <= 0 {
		p.SeparationBuffer = d.SeparationBuffer
	}
	return p
}

// SnapCalculator finds the closest legal position along a blocked move.
// It holds no mutable state and is safe for concurrent use.
type SnapCalculator struct {
	detector *collision.Detector
	params   SnapParams
	log      log.Log
}

// NewSnapCalculator creates a snap calculator that tests candidates with detector
func NewSnapCalculator(detector *collision.Detector, opts ...Option) *SnapCalculator {
	s := newSettings(opts)
	return &SnapCalculator{
		detector: detector,
		params:   s.snap,
		log:      s.log,
	}
}

// Params returns the tuning in use
func (c *SnapCalculator) Params() SnapParams { return c.params }

// CalculateSnapPosition searches the segment start→target for the position
// closest to collisionPoint where mover overlaps neither blocking nor any of
// others. As in ValidateMovement, the mover's volume is taken to be at start.
// The result never lies beyond collisionPoint.
func (c *SnapCalculator) CalculateSnapPosition(
	mover core.Entity,
	start, target core.Vector3,
	blocking core.Entity,
	others []core.Entity,
	collisionPoint core.Vector3,
) SnapResult {
	length := start.Distance(target)
	if length < core.Epsilon {
		return SnapResult{Reason: ReasonNoMovement}
	}

	obstacles := make([]core.Entity, 0, len(others)+1)
	if blocking != nil {
		obstacles = append(obstacles, blocking)
	}
	obstacles = append(obstacles, others...)

	s := snapSearch{
		detector:  c.detector,
		mover:     mover,
		volume:    mover.Volume(),
		start:     start,
		target:    target,
		obstacles: obstacles,
	}
	tCollision := clamp01(start.Distance(collisionPoint) / length)

	t, ok := c.linearSearch(&s, tCollision, length)
	if !ok {
		t, ok = c.gradientSearch(&s, tCollision, length)
		if ok && c.log.Enabled(log.LevelDebug) {
			c.log.Debug("snap resolved by gradient fallback",
				log.String("mover", mover.ID()),
				log.Float64("t", t),
				log.Int("checks", s.checks),
			)
		}
	}
	if !ok {
		c.log.Warn("no snap position along path",
			log.String("mover", mover.ID()),
			log.Float64("path_length", length),
			log.Int("checks", s.checks),
		)
		return SnapResult{Reason: ReasonNoSnapPosition}
	}

	// the buffered point can still touch something behind the mover
	if buffered := math.Max(t-c.params.SeparationBuffer/length, 0); buffered != t && s.free(buffered) {
		t = buffered
	}
	return SnapResult{
		Success:    true,
		Position:   start.Lerp(target, t),
		SnapTarget: blocking,
	}
}

// linearSearch steps back from tCollision one world unit at a time until a
// free fraction is found, then creeps forward in finer steps while it stays
// free. It gives up after MaxBackwardSteps steps.
func (c *SnapCalculator) linearSearch(s *snapSearch, tCollision, length float64) (float64, bool) {
	p := c.params
	if p.MaxBackwardSteps < 0 {
		return 0, false
	}

	coarse := 1 / length
	t, found := 0.0, false
	for k := 1; k <= p.MaxBackwardSteps; k++ {
		t = math.Max(tCollision-float64(k)*coarse, 0)
		if s.free(t) {
			found = true
			break
		}
		if t == 0 {
			break
		}
	}
	if !found {
		return 0, false
	}

	fine := coarse / float64(p.RefineDivisor)
	for i := 0; i < p.RefineDivisor; i++ {
		next := t + fine
		if next > tCollision || !s.free(next) {
			break
		}
		t = next
	}
	return t, true
}

// gradientSearch starts one mover diameter before tCollision. Colliding
// points step back with a shrinking scale; free points are kept as the best
// so far and the search tries to advance half the remaining way.
func (c *SnapCalculator) gradientSearch(s *snapSearch, tCollision, length float64) (float64, bool) {
	p := c.params
	backoff := p.DefaultBackoff
	if r := moverRadius(s.volume); r > 0 {
		backoff = 2 * r / length
	}

	t := math.Max(tCollision-backoff, 0)
	scale := backoff
	best, found := 0.0, false
	for i := 0; i < p.GradientIterations && scale >= p.MinStepScale; i++ {
		if !found || t != best {
			if !s.free(t) {
				t = math.Max(t-scale, 0)
				scale /= 2
				continue
			}
			best, found = t, true
		}

		advance := math.Min(scale, (tCollision-t)/2)
		if advance < p.MinStepScale {
			break
		}
		if next := t + advance; s.free(next) {
			t, best = next, next
		} else {
			scale /= 2
		}
	}
	return best, found
}

// moverRadius is the footprint radius used to size the fallback backoff;
// zero when the shape has none
func moverRadius(volume core.SpatialVolume) float64 {
	switch s := volume.(type) {
	case core.Sphere:
		return math.Abs(s.Radius)
	case core.Cylinder:
		return math.Abs(s.Radius)
	case core.Capsule:
		return math.Abs(s.Radius)
	case core.Box:
		return math.Min(s.Width, s.Depth) / 2
	case core.Mesh, core.ConvexHull, core.ExtrudedPolygon:
		return 0
	default:
		core.UnhandledVolume(volume)
		return 0
	}
}

// snapSearch evaluates candidate path fractions for one snap request
type snapSearch struct {
	detector  *collision.Detector
	mover     core.Entity
	volume    core.SpatialVolume
	start     core.Vector3
	target    core.Vector3
	obstacles []core.Entity
	checks    int
}

// free reports whether the mover overlaps nothing at path fraction t
func (s *snapSearch) free(t float64) bool {
	s.checks++
	offset := s.start.Lerp(s.target, t).Sub(s.start)
	probe := core.Relocate(s.mover, s.volume.Translate(offset))
	for _, obstacle := range s.obstacles {
		if s.detector.CheckSingleCollision(probe, obstacle) {
			return false
		}
	}
	return true
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
