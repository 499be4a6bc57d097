package snapshot

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/golang/snappy"
)

// Encode serializes a snapshot for the caller to thread into the next frame.
// The payload is JSON compressed with snappy, same framing as engine-owned
// state everywhere else; there is nothing to validate on the way out.
func Encode(s *Snapshot) []byte {
	if s == nil {
		return nil
	}
	out := *s
	out.Version = CurrentVersion
	raw, err := json.Marshal(&out)
	if err != nil {
		// Snapshot contains only plain structs and finite floats; marshal
		// cannot fail for engine-produced state.
		return nil
	}
	return snappy.Encode(nil, raw)
}

// Decode parses a previous-frame state blob. It never fails: malformed or
// unrecognized input decodes to nil, and individually malformed groups or
// positions are dropped, which the pipeline treats as a cold start for the
// affected groups only.
func Decode(raw []byte) *Snapshot {
	if len(raw) == 0 {
		return nil
	}

	decoded, err := snappy.Decode(nil, raw)
	if err != nil {
		return nil
	}

	// Decode the envelope field-by-field so one bad section does not
	// discard the rest.
	var wire struct {
		Version     *int            `json:"version"`
		Components  json.RawMessage `json:"components"`
		Communities json.RawMessage `json:"communities"`
		Positions   json.RawMessage `json:"positions"`
	}
	if err := json.Unmarshal(decoded, &wire); err != nil {
		return nil
	}
	if wire.Version == nil || *wire.Version != CurrentVersion {
		return nil
	}

	snap := &Snapshot{
		Version:       CurrentVersion,
		NodePositions: make(map[string]Position),
	}

	if len(wire.Components) > 0 {
		var comps []json.RawMessage
		if json.Unmarshal(wire.Components, &comps) == nil {
			for _, rc := range comps {
				var c Component
				if json.Unmarshal(rc, &c) != nil {
					continue
				}
				if !componentValid(&c) {
					continue
				}
				sort.Strings(c.Members)
				snap.Components = append(snap.Components, c)
			}
		}
	}

	if len(wire.Communities) > 0 {
		var comms []json.RawMessage
		if json.Unmarshal(wire.Communities, &comms) == nil {
			for _, rc := range comms {
				var c Community
				if json.Unmarshal(rc, &c) != nil {
					continue
				}
				if c.ID == "" || c.ComponentID == "" || len(c.Members) == 0 {
					continue
				}
				if !finite(c.AnchorX) || !finite(c.AnchorY) || !finite(c.Radius) {
					continue
				}
				sort.Strings(c.Members)
				snap.Communities = append(snap.Communities, c)
			}
		}
	}

	if len(wire.Positions) > 0 {
		var positions map[string]json.RawMessage
		if json.Unmarshal(wire.Positions, &positions) == nil {
			for id, rp := range positions {
				if id == "" {
					continue
				}
				var p Position
				if json.Unmarshal(rp, &p) != nil {
					continue
				}
				if !finite(p.X) || !finite(p.Y) {
					continue
				}
				snap.NodePositions[id] = p
			}
		}
	}

	return snap
}

func componentValid(c *Component) bool {
	if c.ID == "" || len(c.Members) == 0 {
		return false
	}
	return finite(c.AnchorX) && finite(c.AnchorY) && finite(c.Radius)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ComponentByID indexes a snapshot's components.
func (s *Snapshot) ComponentByID(id string) *Component {
	if s == nil {
		return nil
	}
	for i := range s.Components {
		if s.Components[i].ID == id {
			return &s.Components[i]
		}
	}
	return nil
}

// CommunityByID indexes a snapshot's communities.
func (s *Snapshot) CommunityByID(id string) *Community {
	if s == nil {
		return nil
	}
	for i := range s.Communities {
		if s.Communities[i].ID == id {
			return &s.Communities[i]
		}
	}
	return nil
}
