package movement

import (
	"math"

	"tokenmove/internal/collision"
	"tokenmove/internal/core"
	"tokenmove/internal/observability/log"
)

const (
	// DefaultGridlessStep is the sampling step for long moves, in world units
	DefaultGridlessStep = 10.0

	shortMoveMinStep  = 1.0
	mediumMoveMinStep = 2.0
	// moves shorter than this many shape sizes count as medium
	mediumMoveFactor = 5.0
)

// Options are the per-call movement options
type Options struct {
	// MaxDistance caps the straight-line length of the move; zero or
	// negative means no cap
	MaxDistance float64
	// IgnoreElevation measures the cap in 2D and skips elevation culling
	IgnoreElevation bool
}

type settings struct {
	log          log.Log
	gridlessStep float64
	snap         SnapParams
}

// Option configures a Validator or a SnapCalculator
type Option func(*settings)

// WithLogger attaches a logger; blocked moves and snap fallbacks are
// reported at debug level
func WithLogger(l log.Log) Option {
	return func(s *settings) { s.log = log.OrNop(l) }
}

// WithGridlessStep sets the sampling step used for long moves
func WithGridlessStep(step float64) Option {
	return func(s *settings) {
		if step > 0 {
			s.gridlessStep = step
		}
	}
}

// WithSnapParams overrides the snap search tuning
func WithSnapParams(p SnapParams) Option {
	return func(s *settings) { s.snap = p.withDefaults() }
}

func newSettings(opts []Option) settings {
	s := settings{
		log:          log.Nop(),
		gridlessStep: DefaultGridlessStep,
		snap:         DefaultSnapParams(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Validator samples a straight move and reports the first blocking step.
// It holds no mutable state and is safe for concurrent use.
type Validator struct {
	detector     *collision.Detector
	gridlessStep float64
	log          log.Log
}

// NewValidator creates a validator that tests samples with detector
func NewValidator(detector *collision.Detector, opts ...Option) *Validator {
	s := newSettings(opts)
	return &Validator{
		detector:     detector,
		gridlessStep: s.gridlessStep,
		log:          s.log,
	}
}

// ValidateMovement checks moving mover in a straight line from start to end.
// The mover's volume is taken to be at start; each sample translates it by
// the offset from start.
func (v *Validator) ValidateMovement(mover core.Entity, start, end core.Vector3, obstacles []core.Entity, opts Options) Result {
	if opts.MaxDistance > 0 {
		distance := start.Distance(end)
		if opts.IgnoreElevation {
			distance = start.Distance2D(end)
		}
		if distance > opts.MaxDistance {
			return Result{
				Status:   StatusInvalid,
				Position: start,
				Reason:   ReasonExceedsMaxDistance,
				Details: map[string]float64{
					"distance":     distance,
					"max_distance": opts.MaxDistance,
				},
			}
		}
	}

	distance := start.Distance(end)
	if distance < core.Epsilon || len(obstacles) == 0 {
		return Result{Status: StatusValid, Position: end}
	}

	volume := mover.Volume()
	step := v.StepSize(volume, distance)
	steps := int(math.Max(1, math.Ceil(distance/step)))

	lastValid := start
	for i := 1; i <= steps; i++ {
		sample := end
		if i < steps {
			sample = start.Lerp(end, float64(i)/float64(steps))
		}

		probe := core.Relocate(mover, volume.Translate(sample.Sub(start)))
		if blockers := v.blockers(probe, obstacles, opts.IgnoreElevation); len(blockers) > 0 {
			if v.log.Enabled(log.LevelDebug) {
				v.log.Debug("movement blocked",
					log.String("mover", mover.ID()),
					log.Int("step", i),
					log.Int("steps", steps),
					log.Float64("step_size", step),
					log.Strings("blockers", entityIDs(blockers)),
				)
			}
			return Result{
				Status:          StatusBlocked,
				Position:        lastValid,
				Blockers:        blockers,
				CollisionPoints: []core.Vector3{sample},
			}
		}
		lastValid = sample
	}

	return Result{Status: StatusValid, Position: end}
}

// ValidateTeleport checks only the destination: the mover's volume is moved
// so that its centre is destination, without sampling a path. Unlike
// ValidateMovement, destination and the blocked Position are volume centres,
// not positions offset from a start. A move from mover.Volume().Center() to q
// ends at the same placement as a teleport to q.
func (v *Validator) ValidateTeleport(mover core.Entity, destination core.Vector3, obstacles []core.Entity) Result {
	volume := mover.Volume()
	probe := core.Relocate(mover, core.MoveTo(volume, destination))
	if blockers := v.blockers(probe, obstacles, false); len(blockers) > 0 {
		return Result{
			Status:          StatusBlocked,
			Position:        volume.Center(),
			Blockers:        blockers,
			CollisionPoints: []core.Vector3{destination},
		}
	}
	return Result{Status: StatusValid, Position: destination}
}

// StepSize returns the sampling step for a move of the given length:
//   - shorter than the shape: distance/10, at least 1
//   - shorter than five shapes: shape/10, at least 2
//   - otherwise: the gridless step or shape/5, whichever is larger
func (v *Validator) StepSize(volume core.SpatialVolume, distance float64) float64 {
	size := ShapeSize(volume)
	switch {
	case distance < size:
		return math.Max(distance/10, shortMoveMinStep)
	case distance < mediumMoveFactor*size:
		return math.Max(size/10, mediumMoveMinStep)
	default:
		return math.Max(math.Max(v.gridlessStep, size/5), shortMoveMinStep)
	}
}

// ShapeSize returns the smallest dimension of a volume: the diameter of
// round shapes, the shortest side of a box, and the shortest side of the
// ground footprint for vertex based shapes
func ShapeSize(volume core.SpatialVolume) float64 {
	switch s := volume.(type) {
	case core.Sphere:
		return 2 * math.Abs(s.Radius)
	case core.Cylinder:
		return 2 * math.Abs(s.Radius)
	case core.Capsule:
		return 2 * math.Abs(s.Radius)
	case core.Box:
		return math.Min(s.Width, math.Min(s.Depth, s.Height))
	case core.Mesh, core.ConvexHull, core.ExtrudedPolygon:
		b := s.Bounds()
		return math.Min(b.Width(), b.Height())
	default:
		core.UnhandledVolume(volume)
		return 0
	}
}

// blockers returns every obstacle the probe overlaps
func (v *Validator) blockers(probe core.Entity, obstacles []core.Entity, ignoreElevation bool) []core.Entity {
	var hits []core.Entity
	volume := probe.Volume()
	for _, obstacle := range obstacles {
		if v.detector.QuickReject(volume, obstacle.Volume()) {
			continue
		}
		if v.detector.Collides(probe, obstacle, ignoreElevation) {
			hits = append(hits, obstacle)
		}
	}
	return hits
}

func entityIDs(entities []core.Entity) []string {
	ids := make([]string, len(entities))
	for i, e := range entities {
		ids[i] = e.ID()
	}
	return ids
}
