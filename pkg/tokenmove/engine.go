package tokenmove

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"tokenmove/internal/collision"
	"tokenmove/internal/core"
	"tokenmove/internal/movement"
	"tokenmove/internal/observability/log"
	"tokenmove/internal/scene"
	"tokenmove/internal/spatial"
)

var ErrNilMover = errors.New("mover cannot be nil")

// Engine is the entry point for token movement: it owns the scene registry
// and answers movement, teleport and snap questions against it
type Engine struct {
	scene     *scene.Manager
	detector  *collision.Detector
	validator *movement.Validator
	snapper   *movement.SnapCalculator
	config    *Config
	log       log.Log
}

type engineOptions struct {
	log log.Log
}

// Option configures an Engine
type Option func(*engineOptions)

// WithLogger replaces the logger built from Config.LogLevel
func WithLogger(l log.Log) Option {
	return func(o *engineOptions) { o.log = log.OrNop(l) }
}

// NewEngine creates a new engine; a nil config means DefaultConfig
func NewEngine(config *Config, opts ...Option) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var o engineOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		level, _ := log.ParseLevel(config.LogLevel)
		l, err := log.New(level)
		if err != nil {
			return nil, fmt.Errorf("build logger: %w", err)
		}
		o.log = l
	}

	detector := collision.NewDetector(collision.WithLogger(o.log))
	movementOpts := []movement.Option{
		movement.WithLogger(o.log),
		movement.WithGridlessStep(config.GridlessStep),
		movement.WithSnapParams(config.Snap.params()),
	}

	e := &Engine{
		scene: scene.NewManager(config.WorldBounds.AABB(),
			scene.WithLogger(o.log),
			scene.WithIndexOptions(
				spatial.WithMaxObjectsPerNode(config.Index.MaxObjectsPerNode),
				spatial.WithMaxDepth(config.Index.MaxDepth),
			),
		),
		detector:  detector,
		validator: movement.NewValidator(detector, movementOpts...),
		snapper:   movement.NewSnapCalculator(detector, movementOpts...),
		config:    config,
		log:       o.log,
	}

	o.log.Info("engine configured",
		log.Any("world_bounds", config.WorldBounds),
		log.Int("max_objects_per_node", config.Index.MaxObjectsPerNode),
		log.Int("max_depth", config.Index.MaxDepth),
		log.Float64("gridless_step", config.GridlessStep),
	)
	return e, nil
}

// Entity Management

// AddEntity adds a new entity to the scene
func (e *Engine) AddEntity(entity core.Entity) error {
	return e.scene.Add(entity)
}

// AddEntities adds several entities, stopping at the first failure
func (e *Engine) AddEntities(entities ...core.Entity) error {
	for i, entity := range entities {
		if err := e.scene.Add(entity); err != nil {
			return fmt.Errorf("failed to add entity %d: %w", i, err)
		}
	}
	return nil
}

// RemoveEntity removes an entity from the scene
func (e *Engine) RemoveEntity(id string) error {
	return e.scene.Remove(id)
}

// UpdateEntity replaces a registered entity, typically after it moved
func (e *Engine) UpdateEntity(entity core.Entity) error {
	return e.scene.Update(entity)
}

// GetEntity retrieves an entity by id
func (e *Engine) GetEntity(id string) (core.Entity, error) {
	return e.scene.Get(id)
}

// Movement

// ValidateMovement checks moving mover from start to end. A nil obstacles
// slice means every registered entity near the path.
func (e *Engine) ValidateMovement(mover core.Entity, start, end core.Vector3, obstacles []core.Entity, opts movement.Options) movement.Result {
	if obstacles == nil {
		obstacles = e.scene.QueryPath(mover, start, end)
	}
	return e.validator.ValidateMovement(mover, start, end, obstacles, opts)
}

// ValidateTeleport checks placing mover's volume centre at destination.
// Unlike ValidateMovement, destination is a volume centre rather than a
// token position. A nil obstacles slice means every registered entity around
// the destination.
func (e *Engine) ValidateTeleport(mover core.Entity, destination core.Vector3, obstacles []core.Entity) movement.Result {
	if obstacles == nil {
		bounds := core.MoveTo(mover.Volume(), destination).Bounds()
		obstacles = e.scene.QueryAround(bounds, mover.ID())
	}
	return e.validator.ValidateTeleport(mover, destination, obstacles)
}

// CalculateSnapPosition finds the closest legal position before
// collisionPoint. A nil others slice means every registered entity near the
// path apart from blocking.
func (e *Engine) CalculateSnapPosition(
	mover core.Entity,
	start, target core.Vector3,
	blocking core.Entity,
	others []core.Entity,
	collisionPoint core.Vector3,
) movement.SnapResult {
	if others == nil {
		others = e.scene.QueryPath(mover, start, target)
		if blocking != nil {
			others = without(others, blocking.ID())
		}
	}
	return e.snapper.CalculateSnapPosition(mover, start, target, blocking, others, collisionPoint)
}

// Resolution is the outcome of ResolveMovement
type Resolution struct {
	Movement movement.Result
	// Snap is set when the move was blocked
	Snap *movement.SnapResult
	// Final is where the mover ends up: the destination when the move is
	// valid, the snap position when one was found, start otherwise
	Final core.Vector3
}

// Moved reports whether the mover ends up away from start
func (r Resolution) Moved(start core.Vector3) bool {
	return !r.Final.ApproxEqual(start, core.Epsilon)
}

// ResolveMovement validates a move and, when it is blocked, snaps the mover
// against the first blocker
func (e *Engine) ResolveMovement(mover core.Entity, start, end core.Vector3, opts movement.Options) Resolution {
	obstacles := e.scene.QueryPath(mover, start, end)
	result := e.validator.ValidateMovement(mover, start, end, obstacles, opts)

	switch result.Status {
	case movement.StatusValid:
		return Resolution{Movement: result, Final: end}
	case movement.StatusInvalid:
		return Resolution{Movement: result, Final: start}
	}

	point, _ := result.FirstCollisionPoint()
	blocking := result.Blockers[0]
	snap := e.snapper.CalculateSnapPosition(mover, start, end, blocking, without(obstacles, blocking.ID()), point)

	final := start
	if snap.Success {
		final = snap.Position
	}
	return Resolution{Movement: result, Snap: &snap, Final: final}
}

// MoveEntity resolves moving a registered entity from start to end and
// stores it at the resolved position
func (e *Engine) MoveEntity(id string, start, end core.Vector3, opts movement.Options) (Resolution, error) {
	entity, err := e.scene.Get(id)
	if err != nil {
		return Resolution{}, err
	}

	resolution := e.ResolveMovement(entity, start, end, opts)
	if !resolution.Moved(start) {
		return resolution, nil
	}

	moved := withVolume(entity, entity.Volume().Translate(resolution.Final.Sub(start)))
	if err := e.scene.Update(moved); err != nil {
		return resolution, fmt.Errorf("failed to move entity %q: %w", id, err)
	}
	return resolution, nil
}

// Batch Operations

// MoveRequest is one entry of a ValidateBatch call
type MoveRequest struct {
	Mover   core.Entity
	Start   core.Vector3
	End     core.Vector3
	Options movement.Options
}

// ValidateBatch validates independent moves in parallel against the current
// scene. Results are in request order. Cancelling ctx stops requests that have
// not started yet.
func (e *Engine) ValidateBatch(ctx context.Context, requests []MoveRequest) ([]movement.Result, error) {
	results := make([]movement.Result, len(requests))

	g, ctx := errgroup.WithContext(ctx)
	if e.config.BatchConcurrency > 0 {
		g.SetLimit(e.config.BatchConcurrency)
	}
	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if req.Mover == nil {
				return fmt.Errorf("request %d: %w", i, ErrNilMover)
			}
			results[i] = e.ValidateMovement(req.Mover, req.Start, req.End, nil, req.Options)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		e.log.Error("batch validation failed",
			log.Int("requests", len(requests)),
			log.Error(err),
		)
		return nil, err
	}
	return results, nil
}

// Collision Detection

// CheckCollision reports what mover overlaps where it stands. A nil
// obstacles slice means every registered entity around it.
func (e *Engine) CheckCollision(mover core.Entity, obstacles []core.Entity) collision.Result {
	if obstacles == nil {
		obstacles = e.scene.QueryAround(mover.Bounds(), mover.ID())
	}
	return e.detector.CheckCollision(mover, obstacles)
}

// Spatial Queries

// GetEntitiesInArea returns the entities whose footprint intersects bounds
func (e *Engine) GetEntitiesInArea(bounds core.AABB) []core.Entity {
	return e.scene.Query(bounds)
}

// GetEntitiesInRadius returns the entities within radius of center
func (e *Engine) GetEntitiesInRadius(center core.Vector2, radius float64) []core.Entity {
	return e.scene.QueryRadius(center, radius)
}

// Scene Management

// EntityCount returns the total number of entities in the scene
func (e *Engine) EntityCount() int {
	return e.scene.Count()
}

// ClearScene removes all entities from the scene
func (e *Engine) ClearScene() {
	e.scene.Clear()
}

// Config returns the engine configuration
func (e *Engine) Config() *Config {
	return e.config
}

// Stats represents scene statistics
type Stats struct {
	EntityCount int
	TokenCount  int
	WallCount   int
	OtherCount  int
	WorldBounds core.AABB
	Index       spatial.Stats
}

// Stats returns scene statistics
func (e *Engine) Stats() Stats {
	return Stats{
		EntityCount: e.scene.Count(),
		TokenCount:  e.scene.CountByKind(scene.KindToken),
		WallCount:   e.scene.CountByKind(scene.KindWall),
		OtherCount:  e.scene.CountByKind(scene.KindOther),
		WorldBounds: e.scene.Bounds(),
		Index:       e.scene.IndexStats(),
	}
}

// Helper functions

func without(entities []core.Entity, id string) []core.Entity {
	out := make([]core.Entity, 0, len(entities))
	for _, entity := range entities {
		if entity.ID() != id {
			out = append(out, entity)
		}
	}
	return out
}

// withVolume returns entity occupying volume, keeping tokens concrete
func withVolume(entity core.Entity, volume core.SpatialVolume) core.Entity {
	if token, ok := core.Unwrap(entity).(*core.Token); ok {
		return token.WithVolume(volume)
	}
	return core.Relocate(entity, volume)
}
