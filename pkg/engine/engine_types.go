package engine

import (
	"errors"
	"time"
)

// ErrInvalidStrategy is the engine's one fatal condition: the caller named
// a placement strategy that does not exist. There is no sensible default to
// substitute, so no partial layout is produced.
var ErrInvalidStrategy = errors.New("invalid layout strategy")

// Input is one frame's layout request. The engine never mutates NodeIDs or
// Adjacency; PreviousState is the opaque blob the caller got back from the
// preceding frame (nil on cold start).
type Input struct {
	NodeIDs       []string            `json:"nodeIds"`
	Adjacency     map[string][]string `json:"adjacencyByNodeId"`
	PreviousState []byte              `json:"previousState,omitempty"`
	Strategy      string              `json:"strategy,omitempty"`
	Options       map[string]float64  `json:"strategyConfig,omitempty"`
}

// ComponentLayout is one connected component's output row.
type ComponentLayout struct {
	ComponentID string   `json:"componentId"`
	NodeIDs     []string `json:"nodeIds"`
	AnchorX     float64  `json:"anchorX"`
	AnchorY     float64  `json:"anchorY"`
}

// CommunityLayout is one community's output row.
type CommunityLayout struct {
	CommunityID string   `json:"communityId"`
	ComponentID string   `json:"componentId"`
	NodeIDs     []string `json:"nodeIds"`
	AnchorX     float64  `json:"anchorX"`
	AnchorY     float64  `json:"anchorY"`
}

// NodeTarget is one node's placement. NeighborX/Y is the mean position of
// the node's placed current-frame neighbors (the node's own position when
// it has none), for consumer-side rendering smoothing.
type NodeTarget struct {
	NodeID      string  `json:"nodeId"`
	ComponentID string  `json:"componentId"`
	CommunityID string  `json:"communityId"`
	TargetX     float64 `json:"targetX"`
	TargetY     float64 `json:"targetY"`
	NeighborX   float64 `json:"neighborX"`
	NeighborY   float64 `json:"neighborY"`
	AnchorX     float64 `json:"anchorX"`
	AnchorY     float64 `json:"anchorY"`
}

// Layout is the renderable portion of a frame's output.
type Layout struct {
	Components  []ComponentLayout `json:"components"`
	Communities []CommunityLayout `json:"communities"`
	NodeTargets []NodeTarget      `json:"nodeTargets"`
}

// Metadata carries the opaque state to thread into the next frame, plus
// frame accounting for hosts that want it.
type Metadata struct {
	State       []byte        `json:"state"`
	Strategy    string        `json:"strategy"`
	NodeCount   int           `json:"nodeCount"`
	Components  int           `json:"componentCount"`
	Communities int           `json:"communityCount"`
	Duration    time.Duration `json:"-"`
}

// Output is one frame's layout result.
type Output struct {
	Layout   Layout   `json:"layout"`
	Metadata Metadata `json:"metadata"`
}
