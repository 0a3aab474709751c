package spatial

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenmove/internal/core"
)

func box(minX, minY, maxX, maxY float64) core.AABB {
	return core.NewAABB(minX, minY, maxX, maxY)
}

func ids(objects []Object) []string {
	out := make([]string, len(objects))
	for i, o := range objects {
		out[i] = o.ID
	}
	sort.Strings(out)
	return out
}

func TestQuadTreeBasicOperations(t *testing.T) {
	qt := NewQuadTree(box(-50, -50, 50, 50))

	qt.Insert(Object{ID: "token-1", Bounds: box(9, 9, 11, 11), Payload: 42})

	results := qt.Query(box(5, 5, 15, 15))
	require.Len(t, results, 1)
	assert.Equal(t, "token-1", results[0].ID)
	assert.Equal(t, 42, results[0].Payload)

	assert.True(t, qt.Remove("token-1"))
	assert.Empty(t, qt.Query(box(5, 5, 15, 15)))
	assert.False(t, qt.Remove("token-1"), "second removal reports unknown id")
	assert.Equal(t, 0, qt.Len())
}

func TestQuadTreeRadiusQuery(t *testing.T) {
	qt := NewQuadTree(box(-50, -50, 50, 50))
	qt.Insert(Object{ID: "a", Bounds: box(-1, -1, 1, 1)})
	qt.Insert(Object{ID: "b", Bounds: box(4, -1, 6, 1)})
	qt.Insert(Object{ID: "c", Bounds: box(14, -1, 16, 1)})

	results := qt.QueryRadius(core.Vec2(0, 0), 10)
	assert.Equal(t, []string{"a", "b"}, ids(results))
}

func TestQuadTreeUpdate(t *testing.T) {
	qt := NewQuadTree(box(-50, -50, 50, 50))
	qt.Insert(Object{ID: "token", Bounds: box(-1, -1, 1, 1)})

	qt.Update(Object{ID: "token", Bounds: box(19, 19, 21, 21)})

	assert.Empty(t, qt.Query(box(-5, -5, 5, 5)), "old position must be empty")
	results := qt.Query(box(15, 15, 25, 25))
	require.Len(t, results, 1)
	assert.Equal(t, "token", results[0].ID)
	assert.Equal(t, 1, qt.Len())
}

func TestQuadTreeInsertDuplicateReplaces(t *testing.T) {
	qt := NewQuadTree(box(0, 0, 100, 100))
	qt.Insert(Object{ID: "dup", Bounds: box(1, 1, 2, 2)})
	qt.Insert(Object{ID: "dup", Bounds: box(80, 80, 82, 82)})

	assert.Equal(t, 1, qt.Len())
	assert.Empty(t, qt.Query(box(0, 0, 10, 10)))
	assert.Len(t, qt.Query(box(75, 75, 90, 90)), 1)
}

func TestQuadTreeSplitsAndKeepsStraddlers(t *testing.T) {
	qt := NewQuadTree(box(0, 0, 100, 100), WithMaxObjectsPerNode(2))

	// straddles the vertical mid line
	qt.Insert(Object{ID: "straddler", Bounds: box(45, 10, 55, 20)})
	qt.Insert(Object{ID: "tl", Bounds: box(10, 10, 20, 20)})
	qt.Insert(Object{ID: "br", Bounds: box(70, 70, 80, 80)})

	assert.Equal(t, 5, qt.NodeCount(), "root split into four children")
	assert.Equal(t, 1, qt.MaxDepth())
	assert.Equal(t, 1, qt.Stats().RootObjects, "only the straddler stays at the root")

	assert.Equal(t, []string{"straddler", "tl"}, ids(qt.Query(box(0, 0, 50, 25))))
	assert.Equal(t, []string{"br"}, ids(qt.Query(box(60, 60, 100, 100))))
}

func TestQuadTreeRespectsDepthCeiling(t *testing.T) {
	qt := NewQuadTree(box(0, 0, 1024, 1024), WithMaxObjectsPerNode(1), WithMaxDepth(3))
	for i := 0; i < 50; i++ {
		// all tiny objects crammed into the same corner
		qt.Insert(Object{ID: fmt.Sprintf("o%d", i), Bounds: box(1, 1, 2, 2)})
	}

	stats := qt.Stats()
	assert.Equal(t, 50, stats.Objects)
	assert.Equal(t, 3, stats.MaxDepthReached)
	assert.Equal(t, 3, stats.DepthLimit)
	assert.Len(t, qt.Query(box(0, 0, 4, 4)), 50)
}

func TestQuadTreeOutOfBoundsObjectsRemainQueryable(t *testing.T) {
	qt := NewQuadTree(box(0, 0, 100, 100))
	qt.Insert(Object{ID: "outside", Bounds: box(200, 200, 210, 210)})

	assert.Len(t, qt.Query(box(190, 190, 220, 220)), 1)
}

func TestQuadTreeDegenerateQuery(t *testing.T) {
	qt := NewQuadTree(box(0, 0, 100, 100))
	qt.Insert(Object{ID: "a", Bounds: box(10, 10, 20, 20)})

	assert.Empty(t, qt.Query(box(15, 15, 15, 15)))
	assert.Empty(t, qt.Query(box(15, 10, 15, 20)))
}

func TestQuadTreeClear(t *testing.T) {
	qt := NewQuadTree(box(0, 0, 100, 100), WithMaxObjectsPerNode(1))
	for i := 0; i < 10; i++ {
		x := float64(i * 10)
		qt.Insert(Object{ID: fmt.Sprintf("o%d", i), Bounds: box(x, x, x+1, x+1)})
	}
	require.Greater(t, qt.NodeCount(), 1)

	qt.Clear()

	assert.Equal(t, 0, qt.Len())
	assert.Equal(t, 1, qt.NodeCount())
	assert.Empty(t, qt.Query(box(0, 0, 100, 100)))
	_, ok := qt.Get("o1")
	assert.False(t, ok)
}

func TestQuadTreeReusesFreedHandles(t *testing.T) {
	qt := NewQuadTree(box(0, 0, 100, 100))
	qt.Insert(Object{ID: "a", Bounds: box(1, 1, 2, 2)})
	qt.Insert(Object{ID: "b", Bounds: box(3, 3, 4, 4)})
	qt.Remove("a")
	qt.Insert(Object{ID: "c", Bounds: box(5, 5, 6, 6)})

	assert.Len(t, qt.objects, 2, "arena slot of a is reused")
	obj, ok := qt.Get("c")
	require.True(t, ok)
	assert.Equal(t, box(5, 5, 6, 6), obj.Bounds)
}

// For any set of objects, Query(R) returns exactly the objects whose bounds
// intersect R.
func TestQuadTreeQueryMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	world := box(0, 0, 1000, 1000)
	qt := NewQuadTree(world)

	all := make(map[string]core.AABB)
	randomBox := func(maxSize float64) core.AABB {
		x, y := rng.Float64()*1000, rng.Float64()*1000
		return box(x, y, x+1+rng.Float64()*maxSize, y+1+rng.Float64()*maxSize)
	}

	for i := 0; i < 500; i++ {
		id := fmt.Sprintf("o%d", i)
		b := randomBox(60)
		all[id] = b
		qt.Insert(Object{ID: id, Bounds: b})
	}
	// churn: remove and move some of them
	for i := 0; i < 500; i += 3 {
		id := fmt.Sprintf("o%d", i)
		if i%2 == 0 {
			require.True(t, qt.Remove(id))
			delete(all, id)
			continue
		}
		b := randomBox(60)
		all[id] = b
		qt.Update(Object{ID: id, Bounds: b})
	}

	for q := 0; q < 200; q++ {
		r := randomBox(200)
		var want []string
		for id, b := range all {
			if b.Intersects(r) {
				want = append(want, id)
			}
		}
		sort.Strings(want)

		got := ids(qt.Query(r))
		if len(want) == 0 {
			assert.Empty(t, got)
			continue
		}
		assert.Equal(t, want, got, "query %v", r)
	}
	assert.Equal(t, len(all), qt.Len())
}

func BenchmarkQuadTreeQuery(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	qt := NewQuadTree(box(0, 0, 4000, 4000))
	for i := 0; i < 2000; i++ {
		x, y := rng.Float64()*4000, rng.Float64()*4000
		qt.Insert(Object{ID: fmt.Sprintf("o%d", i), Bounds: box(x, y, x+50, y+50)})
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		x, y := float64(i%40)*100, float64(i%37)*100
		_ = qt.Query(box(x, y, x+200, y+200))
	}
}
