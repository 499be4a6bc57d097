package placement

import (
	"github.com/graphlapse/graphlapse/pkg/snapshot"
)

// Params are the clamped tuning options shared across strategies. Zero
// values are not valid; the engine fills defaults before calling in.
type Params struct {
	Quality   float64 // simulation effort multiplier [0.5, 1.5]
	Stability float64 // temporal blend factor [0, 0.95]
	Spacing   float64 // base spatial unit [4, 20]

	Iterations           int     // explicit simulation iteration override; 0 = auto
	Attraction           float64 // spring force along edges
	Repulsion            float64 // pairwise electrical force
	Gravity              float64 // pull toward the community anchor
	RefinementIterations int     // extra separation sweeps after ring placement
}

// Context is one community's placement problem. Neighbors is restricted to
// the community's members; positions from other communities never influence
// intra-community forces.
type Context struct {
	Members   []string            // sorted
	Neighbors map[string][]string // sorted, members only

	Anchor     snapshot.Position
	PrevAnchor *snapshot.Position
	Radius     float64

	// PrevPositions holds previous-frame coordinates (previous frame's
	// coordinate space) for members that existed then.
	PrevPositions map[string]snapshot.Position

	Params Params
}

// Strategy computes a target layout for one community. The temporal
// stability contract (rotation alignment, blending, containment, collision
// cleanup) is applied uniformly by Place regardless of strategy.
type Strategy interface {
	Name() string
	Targets(ctx *Context) map[string]snapshot.Position
}

const (
	// containmentSlack is how far past the community radius a node may sit
	// after clamping.
	containmentSlack = 1.05

	// minSeparationFactor scales Params.Spacing into the minimum allowed
	// node distance for the collision cleanup pass.
	minSeparationFactor = 1.5

	// collisionIterations bounds the cleanup pass; it is not the primary
	// layout mechanism.
	collisionIterations = 2

	// maxMoveFactor scales Params.Spacing into the absolute per-frame
	// movement cap for nodes with history.
	maxMoveFactor = 10.0

	// idealEdgeFactor scales Params.Spacing into the spring rest length.
	idealEdgeFactor = 2.5
)
