package collision

import (
	"math"

	"tokenmove/internal/core"
)

// Collision test functions

// CircleCircleIntersects checks if two circles overlap; touching counts
func CircleCircleIntersects(ca core.Vector2, ra float64, cb core.Vector2, rb float64) bool {
	radiusSum := ra + rb
	return ca.DistanceSquared(cb) <= radiusSum*radiusSum
}

// CirclePolygonIntersects checks if a circle overlaps a polygon: either the
// centre is inside the polygon or some edge passes within radius of it
func CirclePolygonIntersects(center core.Vector2, radius float64, poly core.Polygon2D) bool {
	if poly.ContainsPoint(center) {
		return true
	}
	for i := 0; i < poly.Len(); i++ {
		if poly.Edge(i).DistanceToPoint(center) <= radius {
			return true
		}
	}
	return false
}

// PolygonsIntersect checks if two polygons overlap using SAT (Separating Axis
// Theorem) over the edge normals of both. Exact for convex polygons.
func PolygonsIntersect(a, b core.Polygon2D) bool {
	return !hasSeparatingAxis(a, b) && !hasSeparatingAxis(b, a)
}

func hasSeparatingAxis(owner, other core.Polygon2D) bool {
	for i := 0; i < owner.Len(); i++ {
		axis := owner.Edge(i).Normal()
		if axis == (core.Vector2{}) {
			continue
		}
		minA, maxA := owner.Project(axis)
		minB, maxB := other.Project(axis)
		if maxA < minB || maxB < minA {
			return true
		}
	}
	return false
}

// SphereSphereIntersects checks if two spheres intersect
func SphereSphereIntersects(a, b core.Sphere) bool {
	radiusSum := a.Radius + b.Radius
	return a.Position.Sub(b.Position).LengthSquared() <= radiusSum*radiusSum
}

// BoundingSphere returns a conservative sphere enclosing v:
//   - sphere: itself
//   - cylinder: centre, sqrt(r² + (h/2)²)
//   - box: centre, half the 3D diagonal
//   - capsule: midpoint, half-length + r
//   - mesh, hull: vertex mean, farthest vertex distance
//   - extruded polygon: centroid at mid height, farthest vertex and half height combined
func BoundingSphere(v core.SpatialVolume) core.Sphere {
	switch s := v.(type) {
	case core.Sphere:
		return s
	case core.Cylinder:
		half := s.Height / 2
		return core.Sphere{Position: s.Position, Radius: math.Sqrt(s.Radius*s.Radius + half*half)}
	case core.Box:
		diagonal := math.Sqrt(s.Width*s.Width + s.Depth*s.Depth + s.Height*s.Height)
		return core.Sphere{Position: s.Position, Radius: diagonal / 2}
	case core.Capsule:
		return core.Sphere{Position: s.Center(), Radius: s.Start.Distance(s.End)/2 + math.Abs(s.Radius)}
	case core.Mesh:
		return enclosingSphere(s.Center(), s.Vertices())
	case core.ConvexHull:
		return enclosingSphere(s.Center(), s.Vertices())
	case core.ExtrudedPolygon:
		center := s.Center()
		farthest := 0.0
		for _, vtx := range s.Polygon.Vertices() {
			farthest = math.Max(farthest, vtx.DistanceSquared(center.XY()))
		}
		half := s.Extent.Height() / 2
		return core.Sphere{Position: center, Radius: math.Sqrt(farthest + half*half)}
	default:
		core.UnhandledVolume(v)
		return core.Sphere{}
	}
}

func enclosingSphere(center core.Vector3, vertices []core.Vector3) core.Sphere {
	farthest := 0.0
	for _, vtx := range vertices {
		farthest = math.Max(farthest, vtx.Sub(center).LengthSquared())
	}
	return core.Sphere{Position: center, Radius: math.Sqrt(farthest)}
}
