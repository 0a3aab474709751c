package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon is the default tolerance for approximate comparisons
const Epsilon = 1e-9

// Vector2 represents a 2D coordinate/vector
type Vector2 struct {
	X, Y float64
}

// Vector3 represents a 3D coordinate/vector; Z is elevation
type Vector3 struct {
	X, Y, Z float64
}

// Vec2 creates a new 2D vector
func Vec2(x, y float64) Vector2 {
	return Vector2{X: x, Y: y}
}

// Vec3 creates a new 3D vector
func Vec3(x, y, z float64) Vector3 {
	return Vector3{X: x, Y: y, Z: z}
}

func (v Vector2) Add(o Vector2) Vector2 { return Vector2{X: v.X + o.X, Y: v.Y + o.Y} }
func (v Vector2) Sub(o Vector2) Vector2 { return Vector2{X: v.X - o.X, Y: v.Y - o.Y} }
func (v Vector2) Scale(s float64) Vector2 {
	return Vector2{X: v.X * s, Y: v.Y * s}
}

// Dot returns the dot product of v and o
func (v Vector2) Dot(o Vector2) float64 { return v.X*o.X + v.Y*o.Y }

// Cross returns the z component of the 3D cross product of v and o
func (v Vector2) Cross(o Vector2) float64 { return v.X*o.Y - v.Y*o.X }

func (v Vector2) LengthSquared() float64 { return v.X*v.X + v.Y*v.Y }
func (v Vector2) Length() float64 { return math.Sqrt(v.LengthSquared()) }

// Normalize returns v scaled to unit length; the zero vector stays zero
func (v Vector2) Normalize() Vector2 {
	length := v.Length()
	if length == 0 {
		return Vector2{}
	}
	return Vector2{X: v.X / length, Y: v.Y / length}
}

// Perp returns v rotated 90 degrees counter-clockwise
func (v Vector2) Perp() Vector2 { return Vector2{X: -v.Y, Y: v.X} }

func (v Vector2) Distance(o Vector2) float64 { return v.Sub(o).Length() }
func (v Vector2) DistanceSquared(o Vector2) float64 { return v.Sub(o).LengthSquared() }

// Lerp linearly interpolates between v and o
func (v Vector2) Lerp(o Vector2, t float64) Vector2 {
	return Vector2{
		X: v.X + (o.X-v.X)*t,
		Y: v.Y + (o.Y-v.Y)*t,
	}
}

// Rotate rotates v about the origin by angle radians
func (v Vector2) Rotate(angle float64) Vector2 {
	r := mgl64.Rotate2D(angle).Mul2x1(mgl64.Vec2{v.X, v.Y})
	return Vector2{X: r[0], Y: r[1]}
}

// ApproxEqual reports whether every component differs by at most eps
func (v Vector2) ApproxEqual(o Vector2, eps float64) bool {
	return math.Abs(v.X-o.X) <= eps && math.Abs(v.Y-o.Y) <= eps
}

// Extend lifts v into 3D at the given elevation
func (v Vector2) Extend(z float64) Vector3 { return Vector3{X: v.X, Y: v.Y, Z: z} }

func (v Vector3) Add(o Vector3) Vector3 { return Vector3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z} }
func (v Vector3) Sub(o Vector3) Vector3 { return Vector3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z} }
func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

func (v Vector3) Dot(o Vector3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

// Cross returns the cross product v × o
func (v Vector3) Cross(o Vector3) Vector3 {
	return fromMgl(v.mgl().Cross(o.mgl()))
}

func (v Vector3) LengthSquared() float64 { return v.Dot(v) }
func (v Vector3) Length() float64 { return math.Sqrt(v.LengthSquared()) }

// Normalize returns v scaled to unit length; the zero vector stays zero
func (v Vector3) Normalize() Vector3 {
	if v.LengthSquared() == 0 {
		return Vector3{}
	}
	return fromMgl(v.mgl().Normalize())
}

func (v Vector3) Distance(o Vector3) float64 { return v.Sub(o).Length() }

// Distance2D ignores the elevation component
func (v Vector3) Distance2D(o Vector3) float64 { return v.XY().Distance(o.XY()) }

// Lerp linearly interpolates between v and o
func (v Vector3) Lerp(o Vector3, t float64) Vector3 {
	return Vector3{
		X: v.X + (o.X-v.X)*t,
		Y: v.Y + (o.Y-v.Y)*t,
		Z: v.Z + (o.Z-v.Z)*t,
	}
}

// ApproxEqual reports whether every component differs by at most eps
func (v Vector3) ApproxEqual(o Vector3, eps float64) bool {
	return math.Abs(v.X-o.X) <= eps && math.Abs(v.Y-o.Y) <= eps && math.Abs(v.Z-o.Z) <= eps
}

// XY projects v onto the ground plane
func (v Vector3) XY() Vector2 { return Vector2{X: v.X, Y: v.Y} }

func (v Vector3) mgl() mgl64.Vec3 { return mgl64.Vec3{v.X, v.Y, v.Z} }

func fromMgl(v mgl64.Vec3) Vector3 { return Vector3{X: v[0], Y: v[1], Z: v[2]} }
