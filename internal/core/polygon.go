package core

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/cespare/xxhash/v2"
)

// ErrTooFewVertices is returned when a polygon would have fewer than three vertices
var ErrTooFewVertices = errors.New("polygon requires at least 3 vertices")

// Winding is the orientation of a polygon's vertex sequence
type Winding int8

const (
	WindingDegenerate Winding = iota
	WindingCounterClockwise
	WindingClockwise
)

// Edge2D is a directed segment between two polygon vertices
type Edge2D struct {
	Start, End Vector2
}

// Vector returns End - Start
func (e Edge2D) Vector() Vector2 { return e.End.Sub(e.Start) }

func (e Edge2D) Length() float64 { return e.Vector().Length() }

// Normal returns the unit normal of the edge (right-hand side of its direction)
func (e Edge2D) Normal() Vector2 {
	d := e.Vector()
	return Vector2{X: d.Y, Y: -d.X}.Normalize()
}

// ClosestPoint returns the point on the segment nearest to p
func (e Edge2D) ClosestPoint(p Vector2) Vector2 {
	d := e.Vector()
	lengthSq := d.LengthSquared()
	if lengthSq == 0 {
		return e.Start
	}
	t := p.Sub(e.Start).Dot(d) / lengthSq
	t = math.Max(0, math.Min(1, t))
	return e.Start.Add(d.Scale(t))
}

// DistanceToPoint returns the shortest distance between the segment and p
func (e Edge2D) DistanceToPoint(p Vector2) float64 {
	return e.ClosestPoint(p).Distance(p)
}

// Polygon2D is an immutable, ordered vertex list with at least three vertices.
// The backing slice is never shared with callers.
type Polygon2D struct {
	vertices []Vector2
}

// NewPolygon2D copies vertices into a new polygon
func NewPolygon2D(vertices []Vector2) (Polygon2D, error) {
	if len(vertices) < 3 {
		return Polygon2D{}, ErrTooFewVertices
	}
	vs := make([]Vector2, len(vertices))
	copy(vs, vertices)
	return Polygon2D{vertices: vs}, nil
}

// MustPolygon2D is like NewPolygon2D but panics on invalid input
func MustPolygon2D(vertices ...Vector2) Polygon2D {
	p, err := NewPolygon2D(vertices)
	if err != nil {
		panic(err)
	}
	return p
}

// RectanglePolygon builds the axis-aligned rectangle described by box, counter-clockwise
func RectanglePolygon(box AABB) Polygon2D {
	return Polygon2D{vertices: []Vector2{
		box.Min,
		{X: box.Max.X, Y: box.Min.Y},
		box.Max,
		{X: box.Min.X, Y: box.Max.Y},
	}}
}

func (p Polygon2D) Len() int { return len(p.vertices) }
func (p Polygon2D) Vertex(i int) Vector2 { return p.vertices[i] }
func (p Polygon2D) IsZero() bool { return len(p.vertices) == 0 }

// Vertices returns a copy of the vertex list
func (p Polygon2D) Vertices() []Vector2 {
	vs := make([]Vector2, len(p.vertices))
	copy(vs, p.vertices)
	return vs
}

// Edge returns the i-th edge, from vertex i to vertex i+1 (wrapping)
func (p Polygon2D) Edge(i int) Edge2D {
	return Edge2D{Start: p.vertices[i], End: p.vertices[(i+1)%len(p.vertices)]}
}

// Edges returns all edges of the closed polygon
func (p Polygon2D) Edges() []Edge2D {
	edges := make([]Edge2D, len(p.vertices))
	for i := range p.vertices {
		edges[i] = p.Edge(i)
	}
	return edges
}

// ContainsPoint tests point containment by ray casting
func (p Polygon2D) ContainsPoint(pt Vector2) bool {
	inside := false
	n := len(p.vertices)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		vi, vj := p.vertices[i], p.vertices[j]
		if (vi.Y > pt.Y) != (vj.Y > pt.Y) &&
			pt.X < (vj.X-vi.X)*(pt.Y-vi.Y)/(vj.Y-vi.Y)+vi.X {
			inside = !inside
		}
	}
	return inside
}

// SignedArea is positive for counter-clockwise polygons (y-up)
func (p Polygon2D) SignedArea() float64 {
	sum := 0.0
	for i := range p.vertices {
		sum += p.vertices[i].Cross(p.vertices[(i+1)%len(p.vertices)])
	}
	return sum / 2
}

func (p Polygon2D) Area() float64 { return math.Abs(p.SignedArea()) }

func (p Polygon2D) Winding() Winding {
	area := p.SignedArea()
	switch {
	case area > 0:
		return WindingCounterClockwise
	case area < 0:
		return WindingClockwise
	default:
		return WindingDegenerate
	}
}

// Centroid returns the area centroid, falling back to the vertex mean for
// degenerate (zero-area) polygons
func (p Polygon2D) Centroid() Vector2 {
	area := p.SignedArea()
	if math.Abs(area) < Epsilon {
		var sum Vector2
		for _, v := range p.vertices {
			sum = sum.Add(v)
		}
		return sum.Scale(1 / float64(len(p.vertices)))
	}

	var cx, cy float64
	for i := range p.vertices {
		a, b := p.vertices[i], p.vertices[(i+1)%len(p.vertices)]
		cross := a.Cross(b)
		cx += (a.X + b.X) * cross
		cy += (a.Y + b.Y) * cross
	}
	factor := 1 / (6 * area)
	return Vector2{X: cx * factor, Y: cy * factor}
}

func (p Polygon2D) Bounds() AABB { return AABBFromPoints(p.vertices) }

// Project returns the scalar interval of the polygon projected onto axis
func (p Polygon2D) Project(axis Vector2) (min, max float64) {
	min = math.Inf(1)
	max = math.Inf(-1)
	for _, v := range p.vertices {
		d := v.Dot(axis)
		min = math.Min(min, d)
		max = math.Max(max, d)
	}
	return min, max
}

// Translate returns a copy moved by offset
func (p Polygon2D) Translate(offset Vector2) Polygon2D {
	return p.transform(func(v Vector2) Vector2 { return v.Add(offset) })
}

// Scale returns a copy scaled by factor about origin
func (p Polygon2D) Scale(factor float64, origin Vector2) Polygon2D {
	return p.transform(func(v Vector2) Vector2 {
		return origin.Add(v.Sub(origin).Scale(factor))
	})
}

// Rotate returns a copy rotated by angle radians about origin
func (p Polygon2D) Rotate(angle float64, origin Vector2) Polygon2D {
	return p.transform(func(v Vector2) Vector2 {
		return origin.Add(v.Sub(origin).Rotate(angle))
	})
}

func (p Polygon2D) transform(fn func(Vector2) Vector2) Polygon2D {
	vs := make([]Vector2, len(p.vertices))
	for i, v := range p.vertices {
		vs[i] = fn(v)
	}
	return Polygon2D{vertices: vs}
}

// Equal reports whether both vertex sequences match exactly
func (p Polygon2D) Equal(o Polygon2D) bool {
	if len(p.vertices) != len(o.vertices) {
		return false
	}
	for i := range p.vertices {
		if p.vertices[i] != o.vertices[i] {
			return false
		}
	}
	return true
}

// Hash is derived from the vertex coordinates; equal polygons hash equally.
// Adding zero folds -0 into +0 so the hash agrees with Equal.
func (p Polygon2D) Hash() uint64 {
	d := xxhash.New()
	var buf [16]byte
	for _, v := range p.vertices {
		binary.LittleEndian.PutUint64(buf[:8], math.Float64bits(v.X+0))
		binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(v.Y+0))
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}
