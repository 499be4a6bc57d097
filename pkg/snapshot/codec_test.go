package snapshot

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"

	"github.com/golang/snappy"
)

func sampleSnapshot() *Snapshot {
	return &Snapshot{
		Version: CurrentVersion,
		Components: []Component{
			{ID: "comp-1", Members: []string{"A", "B", "C"}, AnchorX: 10, AnchorY: -4, Radius: 55},
			{ID: "comp-2", Members: []string{"D"}, AnchorX: -80, AnchorY: 12, Radius: 30},
		},
		Communities: []Community{
			{ID: "comm-1", ComponentID: "comp-1", Members: []string{"A", "B"}, AnchorX: 8, AnchorY: -2, Radius: 28},
			{ID: "comm-2", ComponentID: "comp-1", Members: []string{"C"}, AnchorX: 20, AnchorY: -9, Radius: 25},
			{ID: "comm-3", ComponentID: "comp-2", Members: []string{"D"}, AnchorX: -80, AnchorY: 12, Radius: 25},
		},
		NodePositions: map[string]Position{
			"A": {X: 7, Y: -1},
			"B": {X: 9.5, Y: -3},
			"C": {X: 19, Y: -8},
			"D": {X: -80, Y: 12},
		},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := sampleSnapshot()

	decoded := Decode(Encode(original))
	if decoded == nil {
		t.Fatal("Decode returned nil for engine-produced state")
	}

	if !reflect.DeepEqual(original.Components, decoded.Components) {
		t.Errorf("components round-trip mismatch:\n got %+v\nwant %+v", decoded.Components, original.Components)
	}
	if !reflect.DeepEqual(original.Communities, decoded.Communities) {
		t.Errorf("communities round-trip mismatch:\n got %+v\nwant %+v", decoded.Communities, original.Communities)
	}
	if !reflect.DeepEqual(original.NodePositions, decoded.NodePositions) {
		t.Errorf("positions round-trip mismatch:\n got %+v\nwant %+v", decoded.NodePositions, original.NodePositions)
	}
}

func TestDecodeAbsent(t *testing.T) {
	if got := Decode(nil); got != nil {
		t.Errorf("Decode(nil) = %+v, want nil", got)
	}
	if got := Decode([]byte{}); got != nil {
		t.Errorf("Decode(empty) = %+v, want nil", got)
	}
}

func TestDecodeGarbage(t *testing.T) {
	if got := Decode([]byte("not snappy at all")); got != nil {
		t.Errorf("Decode(garbage) = %+v, want nil", got)
	}

	// Valid snappy framing around non-JSON payload.
	raw := snappy.Encode(nil, []byte("{{{{"))
	if got := Decode(raw); got != nil {
		t.Errorf("Decode(bad json) = %+v, want nil", got)
	}
}

func TestDecodeUnknownVersion(t *testing.T) {
	payload := map[string]any{"version": 99}
	raw, _ := json.Marshal(payload)
	if got := Decode(snappy.Encode(nil, raw)); got != nil {
		t.Errorf("Decode(version 99) = %+v, want nil", got)
	}

	// Missing version entirely.
	raw, _ = json.Marshal(map[string]any{"components": []any{}})
	if got := Decode(snappy.Encode(nil, raw)); got != nil {
		t.Errorf("Decode(no version) = %+v, want nil", got)
	}
}

func TestDecodeDropsMalformedEntries(t *testing.T) {
	payload := map[string]any{
		"version": CurrentVersion,
		"components": []any{
			map[string]any{"id": "comp-ok", "members": []string{"A"}, "ax": 1, "ay": 2, "r": 10},
			map[string]any{"id": "", "members": []string{"B"}, "ax": 1, "ay": 2, "r": 10},
			map[string]any{"id": "comp-empty", "members": []string{}, "ax": 1, "ay": 2, "r": 10},
			"not even an object",
		},
		"communities": []any{
			map[string]any{"id": "comm-ok", "component": "comp-ok", "members": []string{"A"}, "ax": 1, "ay": 2, "r": 5},
			map[string]any{"id": "comm-orphan", "component": "", "members": []string{"A"}, "ax": 1, "ay": 2, "r": 5},
		},
		"positions": map[string]any{
			"A":   map[string]any{"x": 1.5, "y": 2.5},
			"bad": map[string]any{"x": "NaN", "y": 0},
			"":    map[string]any{"x": 3, "y": 4},
		},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}

	snap := Decode(snappy.Encode(nil, raw))
	if snap == nil {
		t.Fatal("Decode returned nil; partial decode expected")
	}

	if len(snap.Components) != 1 || snap.Components[0].ID != "comp-ok" {
		t.Errorf("components = %+v, want only comp-ok", snap.Components)
	}
	if len(snap.Communities) != 1 || snap.Communities[0].ID != "comm-ok" {
		t.Errorf("communities = %+v, want only comm-ok", snap.Communities)
	}
	if len(snap.NodePositions) != 1 {
		t.Errorf("positions = %+v, want only A", snap.NodePositions)
	}
	if p, ok := snap.NodePositions["A"]; !ok || p.X != 1.5 || p.Y != 2.5 {
		t.Errorf("position A = %+v, want {1.5 2.5}", p)
	}
}

func TestDecodeRejectsNonFinite(t *testing.T) {
	// JSON cannot carry Inf/NaN literals, but a hostile or buggy encoder
	// could send huge exponents that parse to +Inf.
	payload := `{"version":1,"components":[{"id":"c","members":["A"],"ax":1e999,"ay":0,"r":1}],"positions":{}}`
	snap := Decode(snappy.Encode(nil, []byte(payload)))
	if snap == nil {
		t.Fatal("Decode returned nil")
	}
	if len(snap.Components) != 0 {
		t.Errorf("non-finite anchor survived decode: %+v", snap.Components)
	}
}

func TestDecodeSortsMembers(t *testing.T) {
	payload := map[string]any{
		"version": CurrentVersion,
		"components": []any{
			map[string]any{"id": "c", "members": []string{"Z", "A", "M"}, "ax": 0, "ay": 0, "r": 1},
		},
	}
	raw, _ := json.Marshal(payload)

	snap := Decode(snappy.Encode(nil, raw))
	if snap == nil {
		t.Fatal("Decode returned nil")
	}
	want := []string{"A", "M", "Z"}
	if !reflect.DeepEqual(snap.Components[0].Members, want) {
		t.Errorf("members = %v, want %v", snap.Components[0].Members, want)
	}
}

func TestEncodeNil(t *testing.T) {
	if got := Encode(nil); got != nil {
		t.Errorf("Encode(nil) = %v, want nil", got)
	}
}

func TestFinite(t *testing.T) {
	if finite(math.NaN()) || finite(math.Inf(1)) || finite(math.Inf(-1)) {
		t.Error("finite accepted a non-finite value")
	}
	if !finite(0) || !finite(-123.75) {
		t.Error("finite rejected a finite value")
	}
}
