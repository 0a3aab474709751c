package scene

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"tokenmove/internal/core"
	"tokenmove/internal/observability/log"
	"tokenmove/internal/spatial"
)

var (
	ErrNilEntity      = errors.New("entity cannot be nil")
	ErrEntityExists   = errors.New("entity already exists")
	ErrEntityNotFound = errors.New("entity not found")
)

// Kind classifies registered entities for counting and filtering
type Kind uint8

const (
	KindOther Kind = iota
	KindToken
	KindWall
)

func (k Kind) String() string {
	switch k {
	case KindToken:
		return "token"
	case KindWall:
		return "wall"
	default:
		return "other"
	}
}

// KindOf classifies an entity, looking through relocated views
func KindOf(e core.Entity) Kind {
	switch core.Unwrap(e).(type) {
	case *core.Token:
		return KindToken
	case *core.Wall:
		return KindWall
	default:
		return KindOther
	}
}

// Manager handles the entities on a map and keeps the spatial index in sync
// with them. All methods are safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	entities map[string]core.Entity
	index    *spatial.QuadTree
	bounds   core.AABB
	log      log.Log

	// Entity kind indices for fast counting
	byKind map[Kind]map[string]core.Entity
}

type options struct {
	log   log.Log
	index []spatial.Option
}

// Option configures a Manager
type Option func(*options)

// WithLogger attaches a logger to the manager and its spatial index
func WithLogger(l log.Log) Option {
	return func(o *options) {
		o.log = log.OrNop(l)
		o.index = append(o.index, spatial.WithLogger(l))
	}
}

// WithIndexOptions passes tuning options to the underlying quadtree
func WithIndexOptions(opts ...spatial.Option) Option {
	return func(o *options) { o.index = append(o.index, opts...) }
}

// NewManager creates a new manager indexing the given world bounds
func NewManager(bounds core.AABB, opts ...Option) *Manager {
	o := options{log: log.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	return &Manager{
		entities: make(map[string]core.Entity),
		index:    spatial.NewQuadTree(bounds, o.index...),
		bounds:   bounds,
		log:      o.log,
		byKind:   newKindIndex(),
	}
}

// Add registers a new entity
func (m *Manager) Add(entity core.Entity) error {
	if entity == nil {
		return ErrNilEntity
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := entity.ID()
	if _, exists := m.entities[id]; exists {
		return fmt.Errorf("entity %q: %w", id, ErrEntityExists)
	}

	m.index.Insert(objectOf(entity))
	m.entities[id] = entity
	m.byKind[KindOf(entity)][id] = entity

	m.log.Debug("entity added",
		log.String("id", id),
		log.String("kind", KindOf(entity).String()),
	)
	return nil
}

// Remove unregisters an entity
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entity, exists := m.entities[id]
	if !exists {
		return fmt.Errorf("entity %q: %w", id, ErrEntityNotFound)
	}

	m.index.Remove(id)
	delete(m.byKind[KindOf(entity)], id)
	delete(m.entities, id)
	return nil
}

// Update replaces a registered entity, typically after it moved, and
// re-indexes its footprint
func (m *Manager) Update(entity core.Entity) error {
	if entity == nil {
		return ErrNilEntity
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkRegistered(entity); err != nil {
		return err
	}
	m.replace(entity)
	return nil
}

// BatchUpdate replaces several entities at once. Nothing is changed unless
// every entity is already registered.
func (m *Manager) BatchUpdate(entities []core.Entity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, entity := range entities {
		if entity == nil {
			return ErrNilEntity
		}
		if err := m.checkRegistered(entity); err != nil {
			return err
		}
	}
	for _, entity := range entities {
		m.replace(entity)
	}
	return nil
}

// Get retrieves an entity by id
func (m *Manager) Get(id string) (core.Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entity, exists := m.entities[id]
	if !exists {
		return nil, fmt.Errorf("entity %q: %w", id, ErrEntityNotFound)
	}
	return entity, nil
}

// Query returns the entities whose footprint intersects bounds, ordered by id
func (m *Manager) Query(bounds core.AABB) []core.Entity {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return entitiesOf(m.index.Query(bounds))
}

// QueryRadius returns the entities whose footprint comes within radius of
// center, ordered by id
func (m *Manager) QueryRadius(center core.Vector2, radius float64) []core.Entity {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return entitiesOf(m.index.QueryRadius(center, radius))
}

// QueryAround returns every entity other than the one with excludeID whose
// footprint intersects bounds, ordered by id. Zero-area bounds, such as the
// footprint of a point-sized mover, are widened slightly so they still hit.
func (m *Manager) QueryAround(bounds core.AABB, excludeID string) []core.Entity {
	if bounds.IsDegenerate() {
		bounds = bounds.Expand(core.Epsilon)
	}

	candidates := m.Query(bounds)
	found := candidates[:0]
	for _, e := range candidates {
		if e.ID() != excludeID {
			found = append(found, e)
		}
	}
	return found
}

// QueryPath returns the candidate obstacles for moving mover from start to
// end: every other entity whose footprint intersects the area the mover's
// footprint sweeps along the move
func (m *Manager) QueryPath(mover core.Entity, start, end core.Vector3) []core.Entity {
	footprint := mover.Bounds()
	swept := footprint.Union(footprint.Translate(end.Sub(start).XY()))
	return m.QueryAround(swept, mover.ID())
}

// Entities returns every registered entity, ordered by id
func (m *Manager) Entities() []core.Entity {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return sortedValues(m.entities)
}

// EntitiesByKind returns the registered entities of one kind, ordered by id
func (m *Manager) EntitiesByKind(kind Kind) []core.Entity {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return sortedValues(m.byKind[kind])
}

// Count returns the total number of entities
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entities)
}

// CountByKind returns the number of entities of one kind
func (m *Manager) CountByKind(kind Kind) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.byKind[kind])
}

// IndexStats returns the shape of the spatial index
func (m *Manager) IndexStats() spatial.Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.index.Stats()
}

// Bounds returns the world bounds covered by the index
func (m *Manager) Bounds() core.AABB {
	return m.bounds
}

// Clear removes all entities
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entities = make(map[string]core.Entity)
	m.byKind = newKindIndex()
	m.index.Clear()
}

func (m *Manager) checkRegistered(entity core.Entity) error {
	if _, exists := m.entities[entity.ID()]; !exists {
		return fmt.Errorf("entity %q: %w", entity.ID(), ErrEntityNotFound)
	}
	return nil
}

// replace swaps in a registered entity; callers hold the write lock
func (m *Manager) replace(entity core.Entity) {
	id := entity.ID()
	existing := m.entities[id]

	m.index.Update(objectOf(entity))
	if oldKind, newKind := KindOf(existing), KindOf(entity); oldKind != newKind {
		delete(m.byKind[oldKind], id)
	}
	m.byKind[KindOf(entity)][id] = entity
	m.entities[id] = entity
}

// Helper functions

func newKindIndex() map[Kind]map[string]core.Entity {
	return map[Kind]map[string]core.Entity{
		KindOther: make(map[string]core.Entity),
		KindToken: make(map[string]core.Entity),
		KindWall:  make(map[string]core.Entity),
	}
}

func objectOf(entity core.Entity) spatial.Object {
	return spatial.Object{ID: entity.ID(), Bounds: entity.Bounds(), Payload: entity}
}

func entitiesOf(objects []spatial.Object) []core.Entity {
	entities := make([]core.Entity, len(objects))
	for i, obj := range objects {
		entities[i] = obj.Payload.(core.Entity)
	}
	sortByID(entities)
	return entities
}

func sortedValues(m map[string]core.Entity) []core.Entity {
	entities := make([]core.Entity, 0, len(m))
	for _, e := range m {
		entities = append(entities, e)
	}
	sortByID(entities)
	return entities
}

func sortByID(entities []core.Entity) {
	sort.Slice(entities, func(i, j int) bool {
		return entities[i].ID() < entities[j].ID()
	})
}
