package anchors

import (
	"github.com/graphlapse/graphlapse/pkg/snapshot"
)

// Spec describes one group entering an anchor-planning pass. The same shape
// drives both passes: components packed around the origin, then communities
// packed around their component's anchor.
type Spec struct {
	ID     string
	Weight float64 // member count; heavier groups move less during separation
	Radius float64

	// PrevAnchor is the same-id anchor from the previous frame, already
	// translated by the parent's displacement for the community pass. Groups
	// with a previous anchor participate in drift correction.
	PrevAnchor *snapshot.Position

	// Seed is the barycenter of previously-known member positions, used
	// when no same-id anchor exists. Nil means no history at all.
	Seed *snapshot.Position
}

// Config tunes an anchor-planning pass.
type Config struct {
	Center  snapshot.Position
	Spacing float64 // base spatial unit (nodeSpacing)
}

const (
	separationIterations = 80
	paddingFactor        = 2.0
)
