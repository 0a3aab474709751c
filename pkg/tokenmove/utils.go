package tokenmove

import (
	"fmt"

	"tokenmove/internal/core"
)

// Vector utility functions

// NewVector2 creates a new 2D vector
func NewVector2(x, y float64) Vector2 {
	return core.Vec2(x, y)
}

// NewVector3 creates a new 3D vector; z is the elevation
func NewVector3(x, y, z float64) Vector3 {
	return core.Vec3(x, y, z)
}

// AABB utility functions

// NewAABB creates a new axis-aligned bounding box
func NewAABB(minX, minY, maxX, maxY float64) AABB {
	return core.NewAABB(minX, minY, maxX, maxY)
}

// AABBFromCenterSize creates an AABB from center point and size
func AABBFromCenterSize(center Vector2, width, height float64) AABB {
	return core.NewAABB(
		center.X-width/2, center.Y-height/2,
		center.X+width/2, center.Y+height/2,
	)
}

// Entity utility functions

// TokenCenter returns the centre of a square token whose top-left corner is
// at position
func TokenCenter(position Vector2, size float64) Vector2 {
	return position.Add(core.Vec2(size/2, size/2))
}

// NewTokenAt creates a token occupying a size×size square whose top-left
// corner is at position. Its volume is an upright cylinder of diameter size,
// as tall as it is wide, standing at elevation.
func NewTokenAt(id string, position Vector2, elevation, size float64, disposition Disposition) *Token {
	base := TokenCenter(position, size).Extend(elevation)
	return core.NewCylinderToken(id, base, size/2, size, disposition)
}

// NewWall creates a straight wall of the given thickness from a to b,
// spanning elevations bottom to top
func NewWall(id string, a, b Vector2, thickness, bottom, top float64) *Wall {
	return core.NewWallSegment(id, a, b, thickness, core.NewVerticalExtent(bottom, top))
}

// NewPolygonWall creates a wall from a footprint outline
func NewPolygonWall(id string, vertices []Vector2, bottom, top float64) (*Wall, error) {
	footprint, err := core.NewPolygon2D(vertices)
	if err != nil {
		return nil, fmt.Errorf("wall %q: %w", id, err)
	}
	return core.NewWall(id, footprint, core.NewVerticalExtent(bottom, top)), nil
}
