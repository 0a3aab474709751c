package collision

import (
	"tokenmove/internal/core"
	"tokenmove/internal/observability/log"
)

// QuickRejectBuffer widens the summed radii in the coarse cylinder pre-check
const QuickRejectBuffer = 1.1

// Result represents the result of a collision check against several obstacles
type Result struct {
	IsColliding   bool
	CollidingWith []core.Entity
}

// Detector handles narrow-phase collision detection between entities.
// It holds no mutable state and is safe for concurrent use.
type Detector struct {
	log log.Log
}

// Option configures a Detector
type Option func(*Detector)

// WithLogger attaches a logger; fallback approximations are reported at debug level
func WithLogger(l log.Log) Option {
	return func(d *Detector) { d.log = log.OrNop(l) }
}

// NewDetector creates a new collision detector
func NewDetector(opts ...Option) *Detector {
	d := &Detector{log: log.Nop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// CheckCollision checks mover against every obstacle and collects those it overlaps
func (d *Detector) CheckCollision(mover core.Entity, obstacles []core.Entity) Result {
	var result Result
	for _, obstacle := range obstacles {
		if d.Collides(mover, obstacle, false) {
			result.CollidingWith = append(result.CollidingWith, obstacle)
		}
	}
	result.IsColliding = len(result.CollidingWith) > 0
	return result
}

// CheckSingleCollision checks if two entities overlap
func (d *Detector) CheckSingleCollision(a, b core.Entity) bool {
	return d.Collides(a, b, false)
}

// Collides checks if two entities overlap. An entity never collides with
// itself, and a pair where both sides allow pass-through never collides
// regardless of geometry. Elevation culling is skipped when ignoreElevation is set.
func (d *Detector) Collides(a, b core.Entity, ignoreElevation bool) bool {
	if a.ID() == b.ID() {
		return false
	}
	if a.CanPassThrough(b) && b.CanPassThrough(a) {
		return false
	}
	if !ignoreElevation && !a.VerticalExtent().Overlaps(b.VerticalExtent()) {
		return false
	}
	return d.shapes(a.Volume(), b.Volume(), ignoreElevation)
}

// CheckShapeCollision checks if two volumes overlap, ignoring game rules
func (d *Detector) CheckShapeCollision(a, b core.SpatialVolume) bool {
	return d.shapes(a, b, false)
}

// QuickReject reports whether a cheap 2D centre-distance test already proves
// that two upright cylinders are apart. It never rejects other shape pairs.
func (d *Detector) QuickReject(a, b core.SpatialVolume) bool {
	ca, ok := a.(core.Cylinder)
	if !ok || !ca.IsVertical() {
		return false
	}
	cb, ok := b.(core.Cylinder)
	if !ok || !cb.IsVertical() {
		return false
	}
	limit := (ca.Radius + cb.Radius) * QuickRejectBuffer
	return ca.Position.XY().DistanceSquared(cb.Position.XY()) > limit*limit
}

func (d *Detector) shapes(a, b core.SpatialVolume, ignoreElevation bool) bool {
	if !ignoreElevation && !a.VerticalExtent().Overlaps(b.VerticalExtent()) {
		return false
	}
	if !a.Bounds().Intersects(b.Bounds()) {
		return false
	}
	return d.narrow(a, b, ignoreElevation)
}

// narrow dispatches on the shape pair, most common pairs first
func (d *Detector) narrow(a, b core.SpatialVolume, ignoreElevation bool) bool {
	switch sa := a.(type) {
	case core.Cylinder:
		if sa.IsVertical() {
			switch sb := b.(type) {
			case core.Cylinder:
				if sb.IsVertical() {
					return CircleCircleIntersects(sa.Position.XY(), sa.Radius, sb.Position.XY(), sb.Radius)
				}
			case core.ExtrudedPolygon:
				return CirclePolygonIntersects(sa.Position.XY(), sa.Radius, sb.Polygon)
			}
		}
	case core.ExtrudedPolygon:
		switch sb := b.(type) {
		case core.Cylinder:
			if sb.IsVertical() {
				return CirclePolygonIntersects(sb.Position.XY(), sb.Radius, sa.Polygon)
			}
		case core.ExtrudedPolygon:
			return PolygonsIntersect(sa.Polygon, sb.Polygon)
		}
	}
	return d.general(a, b, ignoreElevation)
}

// general is the conservative fallback for every other pair: bounding spheres
// may report overlap for shapes that only come close, never the reverse.
func (d *Detector) general(a, b core.SpatialVolume, ignoreElevation bool) bool {
	sa := BoundingSphere(a)
	sb := BoundingSphere(b)
	if d.log.Enabled(log.LevelDebug) {
		d.log.Debug("bounding sphere fallback",
			log.String("a", a.Kind().String()),
			log.String("b", b.Kind().String()),
		)
	}
	if ignoreElevation {
		return CircleCircleIntersects(sa.Position.XY(), sa.Radius, sb.Position.XY(), sb.Radius)
	}
	return SphereSphereIntersects(sa, sb)
}
