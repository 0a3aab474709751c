package tokenmove

import (
	"tokenmove/internal/collision"
	"tokenmove/internal/core"
	"tokenmove/internal/movement"
	"tokenmove/internal/scene"
)

// Geometry and entity types used by the engine API
type (
	Vector2       = core.Vector2
	Vector3       = core.Vector3
	AABB          = core.AABB
	Entity        = core.Entity
	Token         = core.Token
	Wall          = core.Wall
	Disposition   = core.Disposition
	SpatialVolume = core.SpatialVolume
)

// Result types
type (
	MoveOptions     = movement.Options
	MoveResult      = movement.Result
	MoveStatus      = movement.Status
	SnapResult      = movement.SnapResult
	CollisionResult = collision.Result
)

const (
	DispositionSecret   = core.DispositionSecret
	DispositionHostile  = core.DispositionHostile
	DispositionNeutral  = core.DispositionNeutral
	DispositionFriendly = core.DispositionFriendly
)

const (
	StatusValid   = movement.StatusValid
	StatusInvalid = movement.StatusInvalid
	StatusBlocked = movement.StatusBlocked
)

// Errors returned by the engine
var (
	ErrNilEntity      = scene.ErrNilEntity
	ErrEntityExists   = scene.ErrEntityExists
	ErrEntityNotFound = scene.ErrEntityNotFound
	ErrTooFewVertices = core.ErrTooFewVertices
)
