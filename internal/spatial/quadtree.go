package spatial

import (
	"tokenmove/internal/core"
	"tokenmove/internal/observability/log"
)

const (
	// DefaultMaxObjectsPerNode defines when to split a quadtree node
	DefaultMaxObjectsPerNode = 8
	// DefaultMaxDepth defines maximum depth of the quadtree
	DefaultMaxDepth = 6
)

// Quadrant indices, counter-clockwise from top-right. "Top" is the low-Y
// half, matching screen/canvas coordinates.
const (
	TopRight = iota
	TopLeft
	BottomLeft
	BottomRight
)

const (
	noNode   = -1
	noHandle = -1
)

// Object is an indexed item: an id, its 2D bounds and an opaque payload
type Object struct {
	ID      string
	Bounds  core.AABB
	Payload any
}

// Stats describes the shape of the tree
type Stats struct {
	Objects           int
	Nodes             int
	MaxDepthReached   int
	MaxObjectsPerNode int
	DepthLimit        int
	// RootObjects counts objects kept at the root because they straddle
	// quadrants or lie outside the world bounds
	RootObjects int
}

// QuadTree implements a spatial index using quadtree data structure.
// Objects live in a flat arena addressed by integer handles and nodes hold
// handle lists, so removal never chases pointers. A QuadTree is not safe for
// concurrent mutation; concurrent Query calls are fine while nothing writes.
type QuadTree struct {
	bounds     core.AABB
	maxObjects int
	maxDepth   int
	log        log.Log

	objects []Object
	owner   []int // handle -> node index, noNode when the slot is free
	free    []int
	handles map[string]int

	nodes []quadNode
}

// quadNode represents a node in the quadtree
type quadNode struct {
	bounds     core.AABB
	depth      int
	items      []int
	firstChild int // children occupy firstChild..firstChild+3, noNode when a leaf
}

// Option configures a QuadTree
type Option func(*QuadTree)

// WithMaxObjectsPerNode sets the split threshold
func WithMaxObjectsPerNode(n int) Option {
	return func(qt *QuadTree) {
		if n > 0 {
			qt.maxObjects = n
		}
	}
}

// WithMaxDepth sets the depth ceiling
func WithMaxDepth(depth int) Option {
	return func(qt *QuadTree) {
		if depth >= 0 {
			qt.maxDepth = depth
		}
	}
}

// WithLogger attaches a logger; subdivisions are reported at debug level
func WithLogger(l log.Log) Option {
	return func(qt *QuadTree) { qt.log = log.OrNop(l) }
}

// NewQuadTree creates a new quadtree with the given bounds
func NewQuadTree(bounds core.AABB, opts ...Option) *QuadTree {
	qt := &QuadTree{
		bounds:     bounds,
		maxObjects: DefaultMaxObjectsPerNode,
		maxDepth:   DefaultMaxDepth,
		log:        log.Nop(),
	}
	for _, opt := range opts {
		opt(qt)
	}
	qt.Clear()
	return qt
}

// Bounds returns the region covered by the root node
func (qt *QuadTree) Bounds() core.AABB { return qt.bounds }

// Len returns the number of indexed objects
func (qt *QuadTree) Len() int { return len(qt.handles) }

// Insert adds an object. An object with an id already present replaces it.
// Objects outside the tree bounds are kept at the root and stay queryable.
func (qt *QuadTree) Insert(obj Object) {
	if _, exists := qt.handles[obj.ID]; exists {
		qt.Remove(obj.ID)
	}

	handle := qt.alloc(obj)
	qt.handles[obj.ID] = handle
	qt.insert(0, handle)
}

// Remove deletes the object with the given id, reporting whether it existed
func (qt *QuadTree) Remove(id string) bool {
	handle, exists := qt.handles[id]
	if !exists {
		return false
	}

	n := &qt.nodes[qt.owner[handle]]
	for i, h := range n.items {
		if h == handle {
			n.items = append(n.items[:i], n.items[i+1:]...)
			break
		}
	}

	delete(qt.handles, id)
	qt.objects[handle] = Object{}
	qt.owner[handle] = noNode
	qt.free = append(qt.free, handle)
	return true
}

// Update re-indexes an object after its bounds changed (remove + insert)
func (qt *QuadTree) Update(obj Object) {
	qt.Remove(obj.ID)
	qt.Insert(obj)
}

// Get returns the indexed object with the given id
func (qt *QuadTree) Get(id string) (Object, bool) {
	handle, exists := qt.handles[id]
	if !exists {
		return Object{}, false
	}
	return qt.objects[handle], true
}

// Query returns all objects whose bounds intersect bounds, in no particular
// order. Zero-area query boxes match nothing.
func (qt *QuadTree) Query(bounds core.AABB) []Object {
	if bounds.IsDegenerate() {
		return nil
	}
	var results []Object
	qt.query(0, bounds, &results)
	return results
}

// QueryRadius returns all objects whose bounds come within radius of center
func (qt *QuadTree) QueryRadius(center core.Vector2, radius float64) []Object {
	candidates := qt.Query(core.AABBFromCircle(center, radius))
	results := candidates[:0]
	for _, obj := range candidates {
		if distanceToAABB(center, obj.Bounds) <= radius {
			results = append(results, obj)
		}
	}
	return results
}

// Clear removes all objects and collapses the tree to a single root node
func (qt *QuadTree) Clear() {
	qt.objects = qt.objects[:0]
	qt.owner = qt.owner[:0]
	qt.free = qt.free[:0]
	qt.handles = make(map[string]int)
	qt.nodes = append(qt.nodes[:0], quadNode{
		bounds:     qt.bounds,
		firstChild: noNode,
	})
}

// NodeCount returns the number of allocated nodes, root included
func (qt *QuadTree) NodeCount() int { return len(qt.nodes) }

// MaxDepth returns the deepest level reached so far (the root is level 0)
func (qt *QuadTree) MaxDepth() int {
	depth := 0
	for i := range qt.nodes {
		if qt.nodes[i].depth > depth {
			depth = qt.nodes[i].depth
		}
	}
	return depth
}

// Stats returns a snapshot of the tree shape
func (qt *QuadTree) Stats() Stats {
	return Stats{
		Objects:           qt.Len(),
		Nodes:             qt.NodeCount(),
		MaxDepthReached:   qt.MaxDepth(),
		MaxObjectsPerNode: qt.maxObjects,
		DepthLimit:        qt.maxDepth,
		RootObjects:       len(qt.nodes[0].items),
	}
}

func (qt *QuadTree) alloc(obj Object) int {
	if n := len(qt.free); n > 0 {
		handle := qt.free[n-1]
		qt.free = qt.free[:n-1]
		qt.objects[handle] = obj
		return handle
	}
	qt.objects = append(qt.objects, obj)
	qt.owner = append(qt.owner, noNode)
	return len(qt.objects) - 1
}

// insert adds a handle to node idx or the single child that fully holds it
func (qt *QuadTree) insert(idx, handle int) {
	if first := qt.nodes[idx].firstChild; first != noNode {
		if q := qt.quadrant(idx, qt.objects[handle].Bounds); q != noHandle {
			qt.insert(first+q, handle)
			return
		}
	}

	qt.nodes[idx].items = append(qt.nodes[idx].items, handle)
	qt.owner[handle] = idx

	n := &qt.nodes[idx]
	if n.firstChild == noNode && len(n.items) > qt.maxObjects && n.depth < qt.maxDepth {
		qt.split(idx)
	}
}

// split divides node idx into four children and redistributes its items.
// Items straddling a quadrant boundary stay at idx.
func (qt *QuadTree) split(idx int) {
	b := qt.nodes[idx].bounds
	depth := qt.nodes[idx].depth + 1
	mid := b.Center()

	childBounds := [4]core.AABB{
		TopRight:    {Min: core.Vector2{X: mid.X, Y: b.Min.Y}, Max: core.Vector2{X: b.Max.X, Y: mid.Y}},
		TopLeft:     {Min: b.Min, Max: mid},
		BottomLeft:  {Min: core.Vector2{X: b.Min.X, Y: mid.Y}, Max: core.Vector2{X: mid.X, Y: b.Max.Y}},
		BottomRight: {Min: mid, Max: b.Max},
	}

	first := len(qt.nodes)
	for _, cb := range childBounds {
		qt.nodes = append(qt.nodes, quadNode{bounds: cb, depth: depth, firstChild: noNode})
	}
	qt.nodes[idx].firstChild = first

	items := qt.nodes[idx].items
	qt.nodes[idx].items = nil
	for _, handle := range items {
		qt.insert(idx, handle)
	}

	qt.log.Debug("quadtree node split",
		log.Int("depth", depth-1),
		log.Int("items", len(items)),
		log.Int("kept", len(qt.nodes[idx].items)),
	)
}

// quadrant returns which child quadrant of node idx fully contains bounds,
// or noHandle when it spans more than one
func (qt *QuadTree) quadrant(idx int, bounds core.AABB) int {
	first := qt.nodes[idx].firstChild
	for q := 0; q < 4; q++ {
		if qt.nodes[first+q].bounds.Contains(bounds) {
			return q
		}
	}
	return noHandle
}

// query collects intersecting objects of node idx and its intersecting children
func (qt *QuadTree) query(idx int, bounds core.AABB, results *[]Object) {
	n := &qt.nodes[idx]
	if first := n.firstChild; first != noNode {
		for q := 0; q < 4; q++ {
			if qt.nodes[first+q].bounds.Intersects(bounds) {
				qt.query(first+q, bounds, results)
			}
		}
	}

	for _, handle := range n.items {
		if qt.objects[handle].Bounds.Intersects(bounds) {
			*results = append(*results, qt.objects[handle])
		}
	}
}

func distanceToAABB(point core.Vector2, bounds core.AABB) float64 {
	closest := core.Vector2{
		X: clamp(point.X, bounds.Min.X, bounds.Max.X),
		Y: clamp(point.Y, bounds.Min.Y, bounds.Max.Y),
	}
	return closest.Distance(point)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
