package core

import (
	"errors"
	"fmt"
	"math"
)

// ErrEmptyVertexSet is returned when a mesh or hull is built without vertices
var ErrEmptyVertexSet = errors.New("vertex set cannot be empty")

// VolumeKind tags the concrete shape behind a SpatialVolume
type VolumeKind uint8

const (
	KindSphere VolumeKind = iota + 1
	KindCylinder
	KindBox
	KindCapsule
	KindMesh
	KindConvexHull
	KindExtrudedPolygon
)

func (k VolumeKind) String() string {
	switch k {
	case KindSphere:
		return "sphere"
	case KindCylinder:
		return "cylinder"
	case KindBox:
		return "box"
	case KindCapsule:
		return "capsule"
	case KindMesh:
		return "mesh"
	case KindConvexHull:
		return "convexHull"
	case KindExtrudedPolygon:
		return "extrudedPolygon"
	default:
		return fmt.Sprintf("VolumeKind(%d)", uint8(k))
	}
}

// SpatialVolume is the 3D collision geometry of an entity. The set of
// implementations is closed: Sphere, Cylinder, Box, Capsule, Mesh,
// ConvexHull and ExtrudedPolygon. Code switching over volumes must handle
// all seven and call UnhandledVolume in the default branch.
type SpatialVolume interface {
	Kind() VolumeKind
	Center() Vector3
	// Bounds is the 2D footprint used for broad-phase indexing
	Bounds() AABB
	VerticalExtent() VerticalExtent
	// Translate returns a copy of the volume moved by offset
	Translate(offset Vector3) SpatialVolume

	sealed()
}

// UnhandledVolume panics; it marks a dispatch site reached by a volume it
// does not know, which means a new variant was added without updating it.
func UnhandledVolume(v SpatialVolume) {
	panic(fmt.Sprintf("core: unhandled spatial volume %T", v))
}

// MoveTo returns a copy of v whose Center is center
func MoveTo(v SpatialVolume, center Vector3) SpatialVolume {
	return v.Translate(center.Sub(v.Center()))
}

// Sphere volume centred on Position
type Sphere struct {
	Position Vector3
	Radius   float64
}

func (s Sphere) Kind() VolumeKind { return KindSphere }
func (s Sphere) Center() Vector3 { return s.Position }
func (s Sphere) Bounds() AABB { return AABBFromCircle(s.Position.XY(), s.Radius) }
func (s Sphere) VerticalExtent() VerticalExtent {
	return ExtentAround(s.Position.Z, 2*s.Radius)
}
func (s Sphere) Translate(offset Vector3) SpatialVolume {
	return Sphere{Position: s.Position.Add(offset), Radius: s.Radius}
}
func (Sphere) sealed() {}

// Cylinder volume. Position is the middle of the axis; a zero Axis means vertical.
type Cylinder struct {
	Position Vector3
	Radius   float64
	Height   float64
	Axis     Vector3
}

// VerticalCylinder creates an upright cylinder standing on base (the bottom centre)
func VerticalCylinder(base Vector3, radius, height float64) Cylinder {
	return Cylinder{
		Position: Vector3{X: base.X, Y: base.Y, Z: base.Z + height/2},
		Radius:   radius,
		Height:   height,
	}
}

// UnitAxis returns the normalised axis, defaulting to +Z
func (c Cylinder) UnitAxis() Vector3 {
	if c.Axis.LengthSquared() == 0 {
		return Vector3{Z: 1}
	}
	return c.Axis.Normalize()
}

// IsVertical reports whether the cylinder axis is parallel to Z
func (c Cylinder) IsVertical() bool {
	a := c.UnitAxis()
	return math.Abs(a.X) < Epsilon && math.Abs(a.Y) < Epsilon
}

func (c Cylinder) Kind() VolumeKind { return KindCylinder }
func (c Cylinder) Center() Vector3 { return c.Position }

func (c Cylinder) Bounds() AABB {
	if c.IsVertical() {
		return AABBFromCircle(c.Position.XY(), c.Radius)
	}
	a := c.UnitAxis()
	hx := c.halfExtent(a.X)
	hy := c.halfExtent(a.Y)
	return AABB{
		Min: Vector2{X: c.Position.X - hx, Y: c.Position.Y - hy},
		Max: Vector2{X: c.Position.X + hx, Y: c.Position.Y + hy},
	}
}

func (c Cylinder) VerticalExtent() VerticalExtent {
	if c.IsVertical() {
		return ExtentAround(c.Position.Z, c.Height)
	}
	hz := c.halfExtent(c.UnitAxis().Z)
	return VerticalExtent{Min: c.Position.Z - hz, Max: c.Position.Z + hz}
}

// halfExtent is the cylinder's half size along a world axis whose cosine
// with the cylinder axis is cos
func (c Cylinder) halfExtent(cos float64) float64 {
	return math.Abs(cos)*c.Height/2 + c.Radius*math.Sqrt(math.Max(0, 1-cos*cos))
}

func (c Cylinder) Translate(offset Vector3) SpatialVolume {
	c.Position = c.Position.Add(offset)
	return c
}
func (Cylinder) sealed() {}

// Box volume centred on Position. Width runs along X, Depth along Y and
// Height along Z before Rotation (radians about the vertical axis) is applied.
type Box struct {
	Position Vector3
	Width    float64
	Depth    float64
	Height   float64
	Rotation float64
}

func (b Box) Kind() VolumeKind { return KindBox }
func (b Box) Center() Vector3 { return b.Position }
func (b Box) Bounds() AABB {
	return AABBFromRotatedRect(b.Position.XY(), b.Width, b.Depth, b.Rotation)
}
func (b Box) VerticalExtent() VerticalExtent { return ExtentAround(b.Position.Z, b.Height) }

// Footprint returns the rotated ground rectangle of the box
func (b Box) Footprint() Polygon2D {
	c := b.Position.XY()
	rect := RectanglePolygon(AABB{
		Min: Vector2{X: c.X - b.Width/2, Y: c.Y - b.Depth/2},
		Max: Vector2{X: c.X + b.Width/2, Y: c.Y + b.Depth/2},
	})
	if b.Rotation == 0 {
		return rect
	}
	return rect.Rotate(b.Rotation, c)
}

func (b Box) Translate(offset Vector3) SpatialVolume {
	b.Position = b.Position.Add(offset)
	return b
}
func (Box) sealed() {}

// Capsule volume: a swept sphere between Start and End
type Capsule struct {
	Start, End Vector3
	Radius     float64
}

func (c Capsule) Kind() VolumeKind { return KindCapsule }
func (c Capsule) Center() Vector3 { return c.Start.Lerp(c.End, 0.5) }
func (c Capsule) Bounds() AABB {
	return AABBFromPoints([]Vector2{c.Start.XY(), c.End.XY()}).Expand(math.Abs(c.Radius))
}
func (c Capsule) VerticalExtent() VerticalExtent {
	r := math.Abs(c.Radius)
	return VerticalExtent{
		Min: math.Min(c.Start.Z, c.End.Z) - r,
		Max: math.Max(c.Start.Z, c.End.Z) + r,
	}
}
func (c Capsule) Translate(offset Vector3) SpatialVolume {
	return Capsule{Start: c.Start.Add(offset), End: c.End.Add(offset), Radius: c.Radius}
}
func (Capsule) sealed() {}

// Mesh volume: a triangle soup over an owned vertex list
type Mesh struct {
	vertices  []Vector3
	triangles [][3]int
}

// NewMesh copies the vertex and triangle lists; triangle indices must be in range
func NewMesh(vertices []Vector3, triangles [][3]int) (Mesh, error) {
	if len(vertices) == 0 {
		return Mesh{}, ErrEmptyVertexSet
	}
	for i, tri := range triangles {
		for _, idx := range tri {
			if idx < 0 || idx >= len(vertices) {
				return Mesh{}, fmt.Errorf("triangle %d references vertex %d out of %d", i, idx, len(vertices))
			}
		}
	}
	vs := make([]Vector3, len(vertices))
	copy(vs, vertices)
	ts := make([][3]int, len(triangles))
	copy(ts, triangles)
	return Mesh{vertices: vs, triangles: ts}, nil
}

func (m Mesh) Vertices() []Vector3 { return cloneVertices(m.vertices) }
func (m Mesh) Triangles() [][3]int {
	ts := make([][3]int, len(m.triangles))
	copy(ts, m.triangles)
	return ts
}
func (m Mesh) Kind() VolumeKind { return KindMesh }
func (m Mesh) Center() Vector3 { return meanVertex(m.vertices) }
func (m Mesh) Bounds() AABB { return footprint(m.vertices) }
func (m Mesh) VerticalExtent() VerticalExtent { return elevationRange(m.vertices) }
func (m Mesh) Translate(offset Vector3) SpatialVolume {
	// triangles only hold indices, so they can be shared
	return Mesh{vertices: translateVertices(m.vertices, offset), triangles: m.triangles}
}
func (Mesh) sealed() {}

// ConvexHull volume described by its vertices
type ConvexHull struct {
	vertices []Vector3
}

func NewConvexHull(vertices []Vector3) (ConvexHull, error) {
	if len(vertices) == 0 {
		return ConvexHull{}, ErrEmptyVertexSet
	}
	return ConvexHull{vertices: cloneVertices(vertices)}, nil
}

func (h ConvexHull) Vertices() []Vector3 { return cloneVertices(h.vertices) }
func (h ConvexHull) Kind() VolumeKind { return KindConvexHull }
func (h ConvexHull) Center() Vector3 { return meanVertex(h.vertices) }
func (h ConvexHull) Bounds() AABB { return footprint(h.vertices) }
func (h ConvexHull) VerticalExtent() VerticalExtent { return elevationRange(h.vertices) }
func (h ConvexHull) Translate(offset Vector3) SpatialVolume {
	return ConvexHull{vertices: translateVertices(h.vertices, offset)}
}
func (ConvexHull) sealed() {}

// ExtrudedPolygon is a 2D polygon swept through a vertical extent; walls use it
type ExtrudedPolygon struct {
	Polygon Polygon2D
	Extent  VerticalExtent
}

func (e ExtrudedPolygon) Kind() VolumeKind { return KindExtrudedPolygon }
func (e ExtrudedPolygon) Center() Vector3 {
	return e.Polygon.Centroid().Extend(e.Extent.Center())
}
func (e ExtrudedPolygon) Bounds() AABB { return e.Polygon.Bounds() }
func (e ExtrudedPolygon) VerticalExtent() VerticalExtent { return e.Extent }
func (e ExtrudedPolygon) Translate(offset Vector3) SpatialVolume {
	return ExtrudedPolygon{
		Polygon: e.Polygon.Translate(offset.XY()),
		Extent:  e.Extent.Translate(offset.Z),
	}
}
func (ExtrudedPolygon) sealed() {}

func cloneVertices(vs []Vector3) []Vector3 {
	out := make([]Vector3, len(vs))
	copy(out, vs)
	return out
}

func translateVertices(vs []Vector3, offset Vector3) []Vector3 {
	out := make([]Vector3, len(vs))
	for i, v := range vs {
		out[i] = v.Add(offset)
	}
	return out
}

func meanVertex(vs []Vector3) Vector3 {
	var sum Vector3
	if len(vs) == 0 {
		return sum
	}
	for _, v := range vs {
		sum = sum.Add(v)
	}
	return sum.Scale(1 / float64(len(vs)))
}

func footprint(vs []Vector3) AABB {
	points := make([]Vector2, len(vs))
	for i, v := range vs {
		points[i] = v.XY()
	}
	return AABBFromPoints(points)
}

func elevationRange(vs []Vector3) VerticalExtent {
	if len(vs) == 0 {
		return VerticalExtent{}
	}
	ext := VerticalExtent{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, v := range vs {
		ext.Min = math.Min(ext.Min, v.Z)
		ext.Max = math.Max(ext.Max, v.Z)
	}
	return ext
}
