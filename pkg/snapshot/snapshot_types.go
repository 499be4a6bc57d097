package snapshot

// CurrentVersion is the snapshot wire format version this codec writes.
// Older or unknown versions decode to absent.
const CurrentVersion = 1

// Position represents a 2D coordinate
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Component records a connected component's identity and packing frame
// as persisted between frames.
type Component struct {
	ID      string   `json:"id"`
	Members []string `json:"members"` // sorted node ids
	AnchorX float64  `json:"ax"`
	AnchorY float64  `json:"ay"`
	Radius  float64  `json:"r"`
}

// Community records a community's identity, its parent component, and its
// packing frame as persisted between frames.
type Community struct {
	ID          string   `json:"id"`
	ComponentID string   `json:"component"`
	Members     []string `json:"members"` // sorted node ids
	AnchorX     float64  `json:"ax"`
	AnchorY     float64  `json:"ay"`
	Radius      float64  `json:"r"`
}

// Snapshot is the layout state threaded from one frame to the next. The
// engine treats the previous snapshot as read-only and emits a fresh one.
type Snapshot struct {
	Version       int                 `json:"version"`
	Components    []Component         `json:"components"`
	Communities   []Community         `json:"communities"`
	NodePositions map[string]Position `json:"positions"`
}
