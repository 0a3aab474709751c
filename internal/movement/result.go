package movement

import "tokenmove/internal/core"

// Status is the outcome category of a movement check
type Status uint8

const (
	// StatusValid means the whole move is legal
	StatusValid Status = iota
	// StatusInvalid means the move breaks a precondition such as the distance cap
	StatusInvalid
	// StatusBlocked means an obstacle lies on the path
	StatusBlocked
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusInvalid:
		return "invalid"
	case StatusBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// Reason codes carried by invalid results
const (
	ReasonExceedsMaxDistance = "exceeds_max_distance"
)

// Result is the outcome of validating a move. Position is the destination
// for valid moves and the last collision-free sample for blocked ones.
type Result struct {
	Status   Status
	Position core.Vector3
	Reason   string
	// Details holds numeric diagnostics for invalid results, e.g. the
	// measured and allowed distance
	Details         map[string]float64
	Blockers        []core.Entity
	CollisionPoints []core.Vector3
}

// Valid reports whether the move can be applied as requested
func (r Result) Valid() bool { return r.Status == StatusValid }

// FirstCollisionPoint returns the first recorded collision point, if any
func (r Result) FirstCollisionPoint() (core.Vector3, bool) {
	if len(r.CollisionPoints) == 0 {
		return core.Vector3{}, false
	}
	return r.CollisionPoints[0], true
}

// BlockerIDs lists the ids of the blocking entities in detection order
func (r Result) BlockerIDs() []string { return entityIDs(r.Blockers) }

// SnapResult is the outcome of a snap calculation. Position and SnapTarget
// are only meaningful when Success is set; Reason explains a failure.
type SnapResult struct {
	Success    bool
	Position   core.Vector3
	SnapTarget core.Entity
	Reason     string
}
