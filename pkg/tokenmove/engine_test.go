package tokenmove

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"tokenmove/internal/observability/log"
)

const tokenSize = 55.0

func newTestEngine(t *testing.T, config *Config) *Engine {
	t.Helper()
	e, err := NewEngine(config, WithLogger(log.Nop()))
	require.NoError(t, err)
	return e
}

// scenario: a friendly token at (100,100) heading east towards a hostile one at (200,100)
func newScenario(t *testing.T) (*Engine, *Token, *Token) {
	t.Helper()
	e := newTestEngine(t, nil)
	mover := NewTokenAt("mover", NewVector2(100, 100), 0, tokenSize, DispositionFriendly)
	blocker := NewTokenAt("blocker", NewVector2(200, 100), 0, tokenSize, DispositionHostile)
	require.NoError(t, e.AddEntities(mover, blocker))
	return e, mover, blocker
}

func TestNewEngine(t *testing.T) {
	e, err := NewEngine(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), e.Config())

	bad := DefaultConfig()
	bad.GridlessStep = 0
	_, err = NewEngine(bad)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewEngineLogsConfiguration(t *testing.T) {
	obsCore, logs := observer.New(zapcore.InfoLevel)
	_, err := NewEngine(nil, WithLogger(log.Wrap(zap.New(obsCore))))
	require.NoError(t, err)

	entries := logs.FilterMessage("engine configured").All()
	require.Len(t, entries, 1)
	assert.Equal(t, 10.0, entries[0].ContextMap()["gridless_step"])
}

func TestEngineEntityManagement(t *testing.T) {
	e, mover, _ := newScenario(t)

	assert.ErrorIs(t, e.AddEntity(mover), ErrEntityExists)
	err := e.AddEntities(NewTokenAt("third", NewVector2(0, 0), 0, tokenSize, DispositionNeutral), nil)
	assert.ErrorIs(t, err, ErrNilEntity)
	assert.Contains(t, err.Error(), "failed to add entity 1")

	got, err := e.GetEntity("mover")
	require.NoError(t, err)
	assert.Same(t, mover, got)

	require.NoError(t, e.RemoveEntity("third"))
	assert.ErrorIs(t, e.RemoveEntity("third"), ErrEntityNotFound)
	assert.ErrorIs(t, e.UpdateEntity(NewTokenAt("ghost", NewVector2(0, 0), 0, tokenSize, DispositionNeutral)), ErrEntityNotFound)
	assert.Equal(t, 2, e.EntityCount())

	e.ClearScene()
	assert.Equal(t, 0, e.EntityCount())
}

func TestEngineValidateMovementUsesScene(t *testing.T) {
	e, mover, blocker := newScenario(t)
	start := NewVector3(100, 100, 0)

	blocked := e.ValidateMovement(mover, start, NewVector3(300, 100, 0), nil, MoveOptions{})
	require.Equal(t, StatusBlocked, blocked.Status)
	assert.Equal(t, []string{"blocker"}, blocked.BlockerIDs())
	assert.Same(t, blocker, blocked.Blockers[0])

	openPath := e.ValidateMovement(mover, start, NewVector3(100, 300, 0), nil, MoveOptions{})
	assert.Equal(t, StatusValid, openPath.Status)

	explicit := e.ValidateMovement(mover, start, NewVector3(300, 100, 0), []Entity{}, MoveOptions{})
	assert.Equal(t, StatusValid, explicit.Status, "an empty obstacle list is taken as given")
}

func TestEngineResolveMovement(t *testing.T) {
	e, mover, blocker := newScenario(t)
	start := NewVector3(100, 100, 0)

	t.Run("blocked move snaps", func(t *testing.T) {
		r := e.ResolveMovement(mover, start, NewVector3(300, 100, 0), MoveOptions{})
		require.Equal(t, StatusBlocked, r.Movement.Status)
		require.NotNil(t, r.Snap)
		require.True(t, r.Snap.Success)
		assert.Same(t, blocker, r.Snap.SnapTarget)
		assert.Greater(t, r.Final.X, 144.7)
		assert.Less(t, r.Final.X, 145.0)
		assert.Equal(t, 100.0, r.Final.Y)
		assert.True(t, r.Moved(start))
	})

	t.Run("valid move", func(t *testing.T) {
		end := NewVector3(100, 300, 0)
		r := e.ResolveMovement(mover, start, end, MoveOptions{})
		assert.Equal(t, StatusValid, r.Movement.Status)
		assert.Nil(t, r.Snap)
		assert.Equal(t, end, r.Final)
	})

	t.Run("too far", func(t *testing.T) {
		r := e.ResolveMovement(mover, start, NewVector3(300, 100, 0), MoveOptions{MaxDistance: 50})
		assert.Equal(t, StatusInvalid, r.Movement.Status)
		assert.Nil(t, r.Snap)
		assert.Equal(t, start, r.Final)
		assert.False(t, r.Moved(start))
	})
}

func TestEngineMoveEntity(t *testing.T) {
	e, _, _ := newScenario(t)
	start := NewVector3(100, 100, 0)

	r, err := e.MoveEntity("mover", start, NewVector3(300, 100, 0), MoveOptions{})
	require.NoError(t, err)
	require.True(t, r.Snap.Success)

	moved, err := e.GetEntity("mover")
	require.NoError(t, err)
	center := moved.Volume().Center()
	assert.InDelta(t, 127.5+r.Final.X-100, center.X, 1e-9)
	assert.InDelta(t, 127.5, center.Y, 1e-9)
	assert.IsType(t, &Token{}, moved)
	assert.False(t, e.CheckCollision(moved, nil).IsColliding)

	found := e.GetEntitiesInArea(AABBFromCenterSize(center.XY(), 2, 2))
	assert.Equal(t, "mover", found[0].ID())

	_, err = e.MoveEntity("ghost", start, start, MoveOptions{})
	assert.ErrorIs(t, err, ErrEntityNotFound)
}

func TestEngineValidateTeleport(t *testing.T) {
	e, mover, blocker := newScenario(t)

	onBlocker := e.ValidateTeleport(mover, blocker.Volume().Center(), nil)
	require.Equal(t, StatusBlocked, onBlocker.Status)
	assert.Equal(t, []string{"blocker"}, onBlocker.BlockerIDs())
	assert.Equal(t, mover.Volume().Center(), onBlocker.Position)

	open := e.ValidateTeleport(mover, NewVector3(600, 600, 27.5), nil)
	assert.Equal(t, StatusValid, open.Status)
}

func TestEngineCalculateSnapPositionUsesScene(t *testing.T) {
	e, mover, blocker := newScenario(t)
	require.NoError(t, e.AddEntity(NewWall("wall", NewVector2(170, 120), NewVector2(170, 200), 4, 0, 100)))
	start, target := NewVector3(100, 100, 0), NewVector3(300, 100, 0)

	// the wall face at x = 168 stands between the mover and the blocker; the
	// mover's leading edge reaches it once the token position passes 113
	withScene := e.CalculateSnapPosition(mover, start, target, blocker, nil, NewVector3(172.5, 100, 0))
	require.True(t, withScene.Success, withScene.Reason)
	assert.Greater(t, withScene.Position.X, 100.0)
	assert.Less(t, withScene.Position.X, 113.0)

	onlyBlocker := e.CalculateSnapPosition(mover, start, target, blocker, []Entity{}, NewVector3(172.5, 100, 0))
	require.True(t, onlyBlocker.Success)
	assert.Greater(t, onlyBlocker.Position.X, 144.7)
}

func TestEngineCheckCollision(t *testing.T) {
	e, _, _ := newScenario(t)
	intruder := NewTokenAt("intruder", NewVector2(210, 110), 0, tokenSize, DispositionFriendly)

	result := e.CheckCollision(intruder, nil)
	assert.True(t, result.IsColliding)
	require.Len(t, result.CollidingWith, 1)
	assert.Equal(t, "blocker", result.CollidingWith[0].ID())

	ally := NewTokenAt("ally", NewVector2(110, 110), 0, tokenSize, DispositionFriendly)
	assert.False(t, e.CheckCollision(ally, nil).IsColliding, "same disposition passes through")
}

func TestEngineValidateBatch(t *testing.T) {
	e, mover, _ := newScenario(t)
	start := NewVector3(100, 100, 0)
	requests := []MoveRequest{
		{Mover: mover, Start: start, End: NewVector3(300, 100, 0)},
		{Mover: mover, Start: start, End: NewVector3(100, 300, 0)},
		{Mover: mover, Start: start, End: NewVector3(300, 100, 0), Options: MoveOptions{MaxDistance: 10}},
	}

	for _, concurrency := range []int{0, 1} {
		t.Run(fmt.Sprintf("concurrency %d", concurrency), func(t *testing.T) {
			e.config.BatchConcurrency = concurrency
			results, err := e.ValidateBatch(context.Background(), requests)
			require.NoError(t, err)
			require.Len(t, results, 3)
			assert.Equal(t, StatusBlocked, results[0].Status)
			assert.Equal(t, StatusValid, results[1].Status)
			assert.Equal(t, StatusInvalid, results[2].Status)
		})
	}
}

func TestEngineValidateBatchErrors(t *testing.T) {
	e, mover, _ := newScenario(t)
	start := NewVector3(100, 100, 0)

	_, err := e.ValidateBatch(context.Background(), []MoveRequest{
		{Mover: mover, Start: start, End: start},
		{Start: start, End: start},
	})
	assert.ErrorIs(t, err, ErrNilMover)
	assert.Contains(t, err.Error(), "request 1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.ValidateBatch(ctx, []MoveRequest{{Mover: mover, Start: start, End: start}})
	assert.ErrorIs(t, err, context.Canceled)

	results, err := e.ValidateBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestEngineStats(t *testing.T) {
	e, _, _ := newScenario(t)
	require.NoError(t, e.AddEntity(NewWall("wall", NewVector2(0, 0), NewVector2(0, 500), 4, 0, 100)))

	stats := e.Stats()
	assert.Equal(t, 3, stats.EntityCount)
	assert.Equal(t, 2, stats.TokenCount)
	assert.Equal(t, 1, stats.WallCount)
	assert.Equal(t, 0, stats.OtherCount)
	assert.Equal(t, 3, stats.Index.Objects)
	assert.Equal(t, NewAABB(-1000, -1000, 1000, 1000), stats.WorldBounds)
}

func TestNewPolygonWall(t *testing.T) {
	wall, err := NewPolygonWall("pillar", []Vector2{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}, 0, 50)
	require.NoError(t, err)
	assert.Equal(t, NewAABB(0, 0, 10, 10), wall.Bounds())

	_, err = NewPolygonWall("line", []Vector2{{X: 0, Y: 0}, {X: 10, Y: 0}}, 0, 50)
	assert.ErrorIs(t, err, ErrTooFewVertices)
}

func TestNewTokenAt(t *testing.T) {
	token := NewTokenAt("", NewVector2(100, 100), 5, tokenSize, DispositionHostile)
	assert.NotEmpty(t, token.ID())
	assert.Equal(t, NewVector3(127.5, 127.5, 5+27.5), token.Volume().Center())
	assert.Equal(t, NewAABB(100, 100, 155, 155), token.Bounds())
	assert.Equal(t, 5.0, token.VerticalExtent().Min)
	assert.Equal(t, 60.0, token.VerticalExtent().Max)
}

func TestEnginePointSizedMover(t *testing.T) {
	e := newTestEngine(t, nil)
	wall, err := NewPolygonWall("block", []Vector2{{X: 400, Y: 400}, {X: 500, Y: 400}, {X: 500, Y: 500}, {X: 400, Y: 500}}, 0, 100)
	require.NoError(t, err)
	require.NoError(t, e.AddEntity(wall))

	dot := NewTokenAt("dot", NewVector2(0, 0), 10, 0, DispositionHostile)
	center := NewVector3(450, 450, 10)

	teleport := e.ValidateTeleport(dot, center, nil)
	require.Equal(t, StatusBlocked, teleport.Status)
	assert.Equal(t, []string{"block"}, teleport.BlockerIDs())

	inside := NewTokenAt("inside", NewVector2(450, 450), 10, 0, DispositionHostile)
	result := e.CheckCollision(inside, nil)
	assert.True(t, result.IsColliding)
	require.Len(t, result.CollidingWith, 1)
	assert.Equal(t, "block", result.CollidingWith[0].ID())

	runner := NewTokenAt("runner", NewVector2(0, 450), 10, 0, DispositionHostile)
	move := e.ValidateMovement(runner, NewVector3(0, 450, 0), NewVector3(600, 450, 0), nil, MoveOptions{})
	require.Equal(t, StatusBlocked, move.Status)
	assert.Equal(t, []string{"block"}, move.BlockerIDs())
}
