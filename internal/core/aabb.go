package core

import "math"

// VerticalExtent is the [Min, Max] elevation interval an entity occupies
type VerticalExtent struct {
	Min, Max float64
}

// NewVerticalExtent creates an extent, swapping the bounds if needed so Min <= Max
func NewVerticalExtent(a, b float64) VerticalExtent {
	if a > b {
		a, b = b, a
	}
	return VerticalExtent{Min: a, Max: b}
}

// ExtentAround creates an extent of the given height centred on z
func ExtentAround(z, height float64) VerticalExtent {
	half := math.Abs(height) / 2
	return VerticalExtent{Min: z - half, Max: z + half}
}

// Overlaps reports whether the intervals share at least one elevation (touching counts)
func (e VerticalExtent) Overlaps(o VerticalExtent) bool {
	return e.Min <= o.Max && o.Min <= e.Max
}

func (e VerticalExtent) Contains(z float64) bool { return z >= e.Min && z <= e.Max }
func (e VerticalExtent) Height() float64 { return e.Max - e.Min }
func (e VerticalExtent) Center() float64 { return (e.Min + e.Max) / 2 }

// Translate shifts the extent by dz
func (e VerticalExtent) Translate(dz float64) VerticalExtent {
	return VerticalExtent{Min: e.Min + dz, Max: e.Max + dz}
}

// AABB (Axis-Aligned Bounding Box) represents a rectangular boundary on the ground plane
type AABB struct {
	Min, Max Vector2
}

// NewAABB creates a new axis-aligned bounding box
func NewAABB(minX, minY, maxX, maxY float64) AABB {
	return AABB{
		Min: Vector2{X: math.Min(minX, maxX), Y: math.Min(minY, maxY)},
		Max: Vector2{X: math.Max(minX, maxX), Y: math.Max(minY, maxY)},
	}
}

// AABBFromPoints returns the tightest box around points; an empty set yields the zero box
func AABBFromPoints(points []Vector2) AABB {
	if len(points) == 0 {
		return AABB{}
	}
	box := AABB{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		box.Min.X = math.Min(box.Min.X, p.X)
		box.Min.Y = math.Min(box.Min.Y, p.Y)
		box.Max.X = math.Max(box.Max.X, p.X)
		box.Max.Y = math.Max(box.Max.Y, p.Y)
	}
	return box
}

// AABBFromCircle creates the box enclosing a circle
func AABBFromCircle(center Vector2, radius float64) AABB {
	r := math.Abs(radius)
	return AABB{
		Min: Vector2{X: center.X - r, Y: center.Y - r},
		Max: Vector2{X: center.X + r, Y: center.Y + r},
	}
}

// AABBFromRotatedRect creates a conservative box around a width×height
// rectangle centred on center and rotated by rotation radians
func AABBFromRotatedRect(center Vector2, width, height, rotation float64) AABB {
	cos := math.Abs(math.Cos(rotation))
	sin := math.Abs(math.Sin(rotation))
	halfW := (width*cos + height*sin) / 2
	halfH := (width*sin + height*cos) / 2
	return AABB{
		Min: Vector2{X: center.X - halfW, Y: center.Y - halfH},
		Max: Vector2{X: center.X + halfW, Y: center.Y + halfH},
	}
}

// Intersects reports whether the boxes overlap; shared edges count
func (b AABB) Intersects(o AABB) bool {
	return b.Min.X <= o.Max.X && o.Min.X <= b.Max.X &&
		b.Min.Y <= o.Max.Y && o.Min.Y <= b.Max.Y
}

// Contains reports whether o lies completely within b
func (b AABB) Contains(o AABB) bool {
	return o.Min.X >= b.Min.X && o.Max.X <= b.Max.X &&
		o.Min.Y >= b.Min.Y && o.Max.Y <= b.Max.Y
}

// ContainsPoint reports whether p lies inside or on the boundary of b
func (b AABB) ContainsPoint(p Vector2) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

// Expand grows the box by amount on every side
func (b AABB) Expand(amount float64) AABB {
	return AABB{
		Min: Vector2{X: b.Min.X - amount, Y: b.Min.Y - amount},
		Max: Vector2{X: b.Max.X + amount, Y: b.Max.Y + amount},
	}
}

// Union returns the smallest box holding both boxes
func (b AABB) Union(o AABB) AABB {
	return AABB{
		Min: Vector2{X: math.Min(b.Min.X, o.Min.X), Y: math.Min(b.Min.Y, o.Min.Y)},
		Max: Vector2{X: math.Max(b.Max.X, o.Max.X), Y: math.Max(b.Max.Y, o.Max.Y)},
	}
}

func (b AABB) Translate(offset Vector2) AABB {
	return AABB{Min: b.Min.Add(offset), Max: b.Max.Add(offset)}
}

func (b AABB) Width() float64 { return b.Max.X - b.Min.X }
func (b AABB) Height() float64 { return b.Max.Y - b.Min.Y }
func (b AABB) Area() float64 { return b.Width() * b.Height() }

func (b AABB) Center() Vector2 {
	return Vector2{X: (b.Min.X + b.Max.X) / 2, Y: (b.Min.Y + b.Max.Y) / 2}
}

// IsDegenerate reports whether the box has no area
func (b AABB) IsDegenerate() bool {
	return b.Width() <= 0 || b.Height() <= 0
}
