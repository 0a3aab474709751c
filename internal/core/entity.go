package core

import (
	"github.com/google/uuid"
)

// Entity is anything taking part in collision: a mover or an obstacle.
// Entities are owned by the caller; the core only reads them.
type Entity interface {
	ID() string
	Volume() SpatialVolume
	Bounds() AABB
	VerticalExtent() VerticalExtent
	// CanPassThrough is a game rule, not a geometric one: it reports whether
	// this entity allows other to overlap it
	CanPassThrough(other Entity) bool
}

// Relocate returns a read-only view of e occupying volume instead of its own.
// Identity and pass-through behaviour are those of e.
func Relocate(e Entity, volume SpatialVolume) Entity {
	if r, ok := e.(relocated); ok {
		e = r.Entity
	}
	return relocated{Entity: e, volume: volume}
}

// Unwrap returns the entity behind a Relocate view, or e itself
func Unwrap(e Entity) Entity {
	if r, ok := e.(relocated); ok {
		return r.Entity
	}
	return e
}

type relocated struct {
	Entity
	volume SpatialVolume
}

func (r relocated) Volume() SpatialVolume { return r.volume }
func (r relocated) Bounds() AABB { return r.volume.Bounds() }
func (r relocated) VerticalExtent() VerticalExtent { return r.volume.VerticalExtent() }
func (r relocated) CanPassThrough(other Entity) bool { return r.Entity.CanPassThrough(other) }

// Disposition is a token's attitude towards the party
type Disposition int8

const (
	DispositionSecret   Disposition = -2
	DispositionHostile  Disposition = -1
	DispositionNeutral  Disposition = 0
	DispositionFriendly Disposition = 1
)

func (d Disposition) String() string {
	switch d {
	case DispositionSecret:
		return "secret"
	case DispositionHostile:
		return "hostile"
	case DispositionNeutral:
		return "neutral"
	case DispositionFriendly:
		return "friendly"
	default:
		return "unknown"
	}
}

// Disposed is implemented by entities carrying a disposition
type Disposed interface {
	Disposition() Disposition
}

// DispositionOf reports the disposition of e, looking through Relocate views
func DispositionOf(e Entity) (Disposition, bool) {
	d, ok := Unwrap(e).(Disposed)
	if !ok {
		return 0, false
	}
	return d.Disposition(), true
}

// Token is a game piece standing on the map, represented by a volume
// (usually an upright cylinder) and a disposition
type Token struct {
	id          string
	volume      SpatialVolume
	disposition Disposition
}

// NewToken creates a token; an empty id is replaced by a random UUID
func NewToken(id string, volume SpatialVolume, disposition Disposition) *Token {
	if id == "" {
		id = uuid.NewString()
	}
	return &Token{id: id, volume: volume, disposition: disposition}
}

// NewCylinderToken creates a token whose volume is an upright cylinder
// standing on base
func NewCylinderToken(id string, base Vector3, radius, height float64, disposition Disposition) *Token {
	return NewToken(id, VerticalCylinder(base, radius, height), disposition)
}

func (t *Token) ID() string { return t.id }
func (t *Token) Volume() SpatialVolume { return t.volume }
func (t *Token) Bounds() AABB { return t.volume.Bounds() }
func (t *Token) VerticalExtent() VerticalExtent { return t.volume.VerticalExtent() }
func (t *Token) Disposition() Disposition { return t.disposition }

// CanPassThrough allows overlap with tokens of the same disposition or when
// either side is neutral. Secret tokens and non-token entities never pass.
func (t *Token) CanPassThrough(other Entity) bool {
	od, ok := DispositionOf(other)
	if !ok {
		return false
	}
	if t.disposition == DispositionSecret || od == DispositionSecret {
		return false
	}
	return t.disposition == od || t.disposition == DispositionNeutral || od == DispositionNeutral
}

// WithVolume returns a copy of the token occupying volume
func (t *Token) WithVolume(volume SpatialVolume) *Token {
	return &Token{id: t.id, volume: volume, disposition: t.disposition}
}

// Wall is an impassable extruded polygon
type Wall struct {
	id     string
	volume ExtrudedPolygon
}

// NewWall creates a wall from a footprint polygon and a vertical extent
func NewWall(id string, footprint Polygon2D, extent VerticalExtent) *Wall {
	if id == "" {
		id = uuid.NewString()
	}
	return &Wall{id: id, volume: ExtrudedPolygon{Polygon: footprint, Extent: extent}}
}

// NewWallSegment creates a wall of the given thickness along the segment a-b.
// A zero-length segment produces a square of side thickness around a.
func NewWallSegment(id string, a, b Vector2, thickness float64, extent VerticalExtent) *Wall {
	half := thickness / 2
	dir := b.Sub(a).Normalize()
	if dir == (Vector2{}) {
		return NewWall(id, RectanglePolygon(AABBFromCircle(a, half)), extent)
	}
	n := dir.Perp().Scale(half)
	back := dir.Scale(-half)
	front := dir.Scale(half)
	footprint := Polygon2D{vertices: []Vector2{
		a.Add(back).Sub(n),
		b.Add(front).Sub(n),
		b.Add(front).Add(n),
		a.Add(back).Add(n),
	}}
	return NewWall(id, footprint, extent)
}

func (w *Wall) ID() string { return w.id }
func (w *Wall) Volume() SpatialVolume { return w.volume }
func (w *Wall) Bounds() AABB { return w.volume.Bounds() }
func (w *Wall) VerticalExtent() VerticalExtent { return w.volume.Extent }
func (w *Wall) CanPassThrough(Entity) bool { return false }
