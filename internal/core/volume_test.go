package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allVolumes(t *testing.T) []SpatialVolume {
	t.Helper()
	mesh, err := NewMesh(
		[]Vector3{{X: 0, Y: 0, Z: 0}, {X: 4, Y: 0, Z: 0}, {X: 0, Y: 4, Z: 2}},
		[][3]int{{0, 1, 2}},
	)
	require.NoError(t, err)
	hull, err := NewConvexHull([]Vector3{{X: 1, Y: 1, Z: 1}, {X: 3, Y: 1, Z: 1}, {X: 2, Y: 3, Z: 5}})
	require.NoError(t, err)

	return []SpatialVolume{
		Sphere{Position: Vec3(1, 2, 3), Radius: 2},
		VerticalCylinder(Vec3(0, 0, 0), 5, 10),
		Box{Position: Vec3(0, 0, 5), Width: 4, Depth: 2, Height: 10},
		Capsule{Start: Vec3(0, 0, 0), End: Vec3(10, 0, 0), Radius: 1},
		mesh,
		hull,
		ExtrudedPolygon{Polygon: RectanglePolygon(NewAABB(0, 0, 4, 4)), Extent: NewVerticalExtent(0, 8)},
	}
}

func TestVolumeKinds(t *testing.T) {
	seen := make(map[VolumeKind]bool)
	for _, v := range allVolumes(t) {
		assert.NotContains(t, v.Kind().String(), "VolumeKind(")
		seen[v.Kind()] = true
	}
	assert.Len(t, seen, 7)
	assert.Equal(t, "VolumeKind(99)", VolumeKind(99).String())
}

func TestVolumeBoundsAndExtents(t *testing.T) {
	tests := []struct {
		name   string
		volume SpatialVolume
		bounds AABB
		extent VerticalExtent
		center Vector3
	}{
		{"sphere", Sphere{Position: Vec3(1, 2, 3), Radius: 2}, NewAABB(-1, 0, 3, 4), VerticalExtent{Min: 1, Max: 5}, Vec3(1, 2, 3)},
		{"vertical cylinder", VerticalCylinder(Vec3(10, 10, 2), 5, 10), NewAABB(5, 5, 15, 15), VerticalExtent{Min: 2, Max: 12}, Vec3(10, 10, 7)},
		{"box", Box{Position: Vec3(0, 0, 5), Width: 4, Depth: 2, Height: 10}, NewAABB(-2, -1, 2, 1), VerticalExtent{Min: 0, Max: 10}, Vec3(0, 0, 5)},
		{"capsule", Capsule{Start: Vec3(0, 0, 0), End: Vec3(10, 0, 4), Radius: 1}, NewAABB(-1, -1, 11, 1), VerticalExtent{Min: -1, Max: 5}, Vec3(5, 0, 2)},
		{"extruded polygon", ExtrudedPolygon{Polygon: RectanglePolygon(NewAABB(0, 0, 4, 4)), Extent: NewVerticalExtent(0, 8)}, NewAABB(0, 0, 4, 4), VerticalExtent{Min: 0, Max: 8}, Vec3(2, 2, 4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.bounds, tt.volume.Bounds())
			assert.Equal(t, tt.extent, tt.volume.VerticalExtent())
			assert.True(t, tt.volume.Center().ApproxEqual(tt.center, 1e-9), "center %v", tt.volume.Center())
		})
	}
}

func TestTiltedCylinder(t *testing.T) {
	c := Cylinder{Position: Vec3(0, 0, 10), Radius: 2, Height: 8, Axis: Vec3(1, 0, 0)}
	require.False(t, c.IsVertical())

	b := c.Bounds()
	assert.InDelta(t, -4, b.Min.X, 1e-9)
	assert.InDelta(t, 4, b.Max.X, 1e-9)
	assert.InDelta(t, 2, b.Max.Y, 1e-9)

	e := c.VerticalExtent()
	assert.InDelta(t, 8, e.Min, 1e-9)
	assert.InDelta(t, 12, e.Max, 1e-9)

	assert.True(t, VerticalCylinder(Vector3{}, 1, 1).IsVertical())
	assert.True(t, Cylinder{Axis: Vec3(0, 0, -3)}.IsVertical())
}

func TestMeshAndHull(t *testing.T) {
	_, err := NewMesh(nil, nil)
	assert.ErrorIs(t, err, ErrEmptyVertexSet)
	_, err = NewMesh([]Vector3{{}}, [][3]int{{0, 1, 2}})
	assert.Error(t, err)
	_, err = NewConvexHull(nil)
	assert.ErrorIs(t, err, ErrEmptyVertexSet)

	vertices := []Vector3{{X: 0, Y: 0, Z: 0}, {X: 4, Y: 0, Z: 0}, {X: 0, Y: 4, Z: 2}}
	mesh, err := NewMesh(vertices, [][3]int{{0, 1, 2}})
	require.NoError(t, err)
	vertices[0] = Vec3(100, 100, 100)

	assert.Equal(t, NewAABB(0, 0, 4, 4), mesh.Bounds())
	assert.Equal(t, VerticalExtent{Min: 0, Max: 2}, mesh.VerticalExtent())
	assert.Len(t, mesh.Triangles(), 1)
}

func TestTranslatePreservesShape(t *testing.T) {
	offset := Vec3(3, -2, 1)
	for _, v := range allVolumes(t) {
		t.Run(v.Kind().String(), func(t *testing.T) {
			moved := v.Translate(offset)
			assert.Equal(t, v.Kind(), moved.Kind())
			assert.True(t, moved.Center().ApproxEqual(v.Center().Add(offset), 1e-9))

			b, mb := v.Bounds(), moved.Bounds()
			assert.InDelta(t, b.Width(), mb.Width(), 1e-9)
			assert.InDelta(t, b.Height(), mb.Height(), 1e-9)
			assert.InDelta(t, b.Min.X+offset.X, mb.Min.X, 1e-9)

			e, me := v.VerticalExtent(), moved.VerticalExtent()
			assert.InDelta(t, e.Min+offset.Z, me.Min, 1e-9)
			assert.InDelta(t, e.Height(), me.Height(), 1e-9)
		})
	}
}

func TestMoveTo(t *testing.T) {
	target := Vec3(50, 60, 70)
	for _, v := range allVolumes(t) {
		assert.True(t, MoveTo(v, target).Center().ApproxEqual(target, 1e-9), v.Kind().String())
	}
}

func TestBoxFootprint(t *testing.T) {
	b := Box{Position: Vec3(0, 0, 0), Width: 4, Depth: 2, Height: 1}
	assert.Equal(t, NewAABB(-2, -1, 2, 1), b.Footprint().Bounds())

	b.Rotation = math.Pi / 2
	fb := b.Footprint().Bounds()
	assert.InDelta(t, 1, fb.Max.X, 1e-9)
	assert.InDelta(t, 2, fb.Max.Y, 1e-9)
	assert.InDelta(t, 8, b.Footprint().Area(), 1e-9)
}

type unknownVolume struct {
	SpatialVolume
}

func TestUnhandledVolumePanics(t *testing.T) {
	assert.PanicsWithValue(t, "core: unhandled spatial volume core.unknownVolume", func() {
		UnhandledVolume(unknownVolume{Sphere{}})
	})
}
