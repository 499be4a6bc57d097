package engine

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/graphlapse/graphlapse/pkg/snapshot"
)

func graphInput(nodes []string, edges []string) Input {
	adjacency := make(map[string][]string)
	for _, e := range edges {
		parts := strings.Split(e, "-")
		adjacency[parts[0]] = append(adjacency[parts[0]], parts[1])
		adjacency[parts[1]] = append(adjacency[parts[1]], parts[0])
	}
	return Input{NodeIDs: nodes, Adjacency: adjacency}
}

func nodeTarget(t *testing.T, out *Output, id string) NodeTarget {
	t.Helper()
	for _, nt := range out.Layout.NodeTargets {
		if nt.NodeID == id {
			return nt
		}
	}
	t.Fatalf("node %s missing from output", id)
	return NodeTarget{}
}

func moveDist(a, b NodeTarget) float64 {
	dx := a.TargetX - b.TargetX
	dy := a.TargetY - b.TargetY
	return math.Sqrt(dx*dx + dy*dy)
}

func TestComputeFrameInvalidStrategy(t *testing.T) {
	e := New(nil)
	in := graphInput([]string{"A"}, nil)
	in.Strategy = "quantum"

	out, err := e.ComputeFrame(in)
	if !errors.Is(err, ErrInvalidStrategy) {
		t.Fatalf("err = %v, want ErrInvalidStrategy", err)
	}
	if out != nil {
		t.Fatal("expected nil output on invalid strategy")
	}
}

func TestComputeFrameEmptyGraph(t *testing.T) {
	e := New(nil)
	out, err := e.ComputeFrame(Input{})
	if err != nil {
		t.Fatalf("ComputeFrame: %v", err)
	}
	if len(out.Layout.NodeTargets) != 0 || out.Metadata.NodeCount != 0 {
		t.Errorf("empty graph produced nodes: %+v", out.Layout)
	}
	if len(out.Metadata.State) == 0 {
		t.Error("empty frame must still produce threadable state")
	}
}

func TestComputeFrameColdStartPair(t *testing.T) {
	e := New(nil)
	out, err := e.ComputeFrame(graphInput([]string{"A", "B"}, []string{"A-B"}))
	if err != nil {
		t.Fatalf("ComputeFrame: %v", err)
	}

	if out.Metadata.Components != 1 {
		t.Errorf("components = %d, want 1", out.Metadata.Components)
	}
	if out.Metadata.Communities != 1 {
		t.Errorf("communities = %d, want 1", out.Metadata.Communities)
	}

	a := nodeTarget(t, out, "A")
	b := nodeTarget(t, out, "B")
	if a.CommunityID != b.CommunityID {
		t.Errorf("connected pair split across communities %s / %s", a.CommunityID, b.CommunityID)
	}
	if moveDist(a, b) < 1 {
		t.Errorf("pair placed %v apart, want visible separation", moveDist(a, b))
	}
}

func TestComputeFrameDeterministic(t *testing.T) {
	nodes := []string{"A", "B", "C", "D", "E", "F", "G"}
	edges := []string{"A-B", "B-C", "C-A", "D-E", "E-F", "F-D", "C-D"}

	e := New(nil)
	first, err := e.ComputeFrame(graphInput(nodes, edges))
	if err != nil {
		t.Fatalf("ComputeFrame: %v", err)
	}
	second, err := e.ComputeFrame(graphInput(nodes, edges))
	if err != nil {
		t.Fatalf("ComputeFrame: %v", err)
	}

	if !reflect.DeepEqual(first.Layout, second.Layout) {
		t.Error("identical inputs produced different layouts")
	}
	if !reflect.DeepEqual(first.Metadata.State, second.Metadata.State) {
		t.Error("identical inputs produced different state blobs")
	}
}

func TestComputeFrameShuffledInputOrder(t *testing.T) {
	edgesA := []string{"A-B", "B-C", "C-D"}
	edgesB := []string{"C-D", "A-B", "B-C"}

	e := New(nil)
	first, err := e.ComputeFrame(graphInput([]string{"A", "B", "C", "D"}, edgesA))
	if err != nil {
		t.Fatalf("ComputeFrame: %v", err)
	}
	second, err := e.ComputeFrame(graphInput([]string{"D", "C", "B", "A"}, edgesB))
	if err != nil {
		t.Fatalf("ComputeFrame: %v", err)
	}

	if !reflect.DeepEqual(first.Layout, second.Layout) {
		t.Error("input ordering leaked into the layout")
	}
}

func TestComputeFrameIdentityPersists(t *testing.T) {
	e := New(nil)

	// Two triangles, disconnected.
	frame1, err := e.ComputeFrame(graphInput(
		[]string{"A", "B", "C", "X", "Y", "Z"},
		[]string{"A-B", "B-C", "C-A", "X-Y", "Y-Z", "Z-X"},
	))
	if err != nil {
		t.Fatalf("frame 1: %v", err)
	}

	// One node leaves the second triangle; ids must survive.
	in2 := graphInput(
		[]string{"A", "B", "C", "X", "Y"},
		[]string{"A-B", "B-C", "C-A", "X-Y"},
	)
	in2.PreviousState = frame1.Metadata.State
	frame2, err := e.ComputeFrame(in2)
	if err != nil {
		t.Fatalf("frame 2: %v", err)
	}

	for _, id := range []string{"A", "X"} {
		before := nodeTarget(t, frame1, id)
		after := nodeTarget(t, frame2, id)
		if before.ComponentID != after.ComponentID {
			t.Errorf("node %s component id changed %s -> %s", id, before.ComponentID, after.ComponentID)
		}
		if before.CommunityID != after.CommunityID {
			t.Errorf("node %s community id changed %s -> %s", id, before.CommunityID, after.CommunityID)
		}
	}
}

func TestComputeFrameStabilityDamping(t *testing.T) {
	nodes := []string{"A", "B", "C", "D", "E"}
	edges := []string{"A-B", "B-C", "C-D", "D-E", "E-A"}

	e := New(nil)
	base, err := e.ComputeFrame(graphInput(nodes, edges))
	if err != nil {
		t.Fatalf("base frame: %v", err)
	}

	totalMove := func(stability float64) float64 {
		in := graphInput(nodes, edges)
		in.PreviousState = base.Metadata.State
		in.Options = map[string]float64{"stability": stability}
		out, err := e.ComputeFrame(in)
		if err != nil {
			t.Fatalf("ComputeFrame: %v", err)
		}
		sum := 0.0
		for _, id := range nodes {
			sum += moveDist(nodeTarget(t, base, id), nodeTarget(t, out, id))
		}
		return sum
	}

	calm := totalMove(0.95)
	loose := totalMove(0)
	if calm > loose+1e-9 {
		t.Errorf("high stability moved nodes more (%v) than stability zero (%v)", calm, loose)
	}
}

func TestComputeFrameMovementCap(t *testing.T) {
	nodes := []string{"A", "B", "C", "D"}
	edges := []string{"A-B", "B-C", "C-D", "D-A"}

	e := New(nil)
	base, err := e.ComputeFrame(graphInput(nodes, edges))
	if err != nil {
		t.Fatalf("base frame: %v", err)
	}

	in := graphInput(nodes, edges)
	in.PreviousState = base.Metadata.State
	in.Options = map[string]float64{"stability": 0}
	out, err := e.ComputeFrame(in)
	if err != nil {
		t.Fatalf("ComputeFrame: %v", err)
	}

	// Default spacing 10; the per-frame cap for surviving nodes follows.
	maxMove := 10.0 * 10
	for _, id := range nodes {
		if d := moveDist(nodeTarget(t, base, id), nodeTarget(t, out, id)); d > maxMove+1e-6 {
			t.Errorf("node %s jumped %v in one frame, cap %v", id, d, maxMove)
		}
	}
}

func TestComputeFrameNewNodeAttachesNearNeighbor(t *testing.T) {
	// Hub topology: C touches every other node, F arrives adjacent only
	// to C. F must surface beside C's previous position, not beside any
	// of the non-neighbors the simulation pushed it past.
	e := New(nil)
	base, err := e.ComputeFrame(graphInput(
		[]string{"A", "B", "C", "D", "E"},
		[]string{"A-B", "A-C", "B-C", "C-D", "C-E"},
	))
	if err != nil {
		t.Fatalf("base frame: %v", err)
	}

	in := graphInput(
		[]string{"A", "B", "C", "D", "E", "F"},
		[]string{"A-B", "A-C", "B-C", "C-D", "C-E", "C-F"},
	)
	in.PreviousState = base.Metadata.State
	out, err := e.ComputeFrame(in)
	if err != nil {
		t.Fatalf("ComputeFrame: %v", err)
	}

	f := nodeTarget(t, out, "F")
	c := nodeTarget(t, out, "C")
	if f.CommunityID != c.CommunityID {
		t.Errorf("F landed in community %s, its neighbor C is in %s", f.CommunityID, c.CommunityID)
	}

	dC := moveDist(f, nodeTarget(t, base, "C"))
	for _, other := range []string{"A", "B", "D", "E"} {
		if dOther := moveDist(f, nodeTarget(t, base, other)); dOther < dC {
			t.Errorf("new node F surfaced %v from non-neighbor %s's previous position, but %v from its only neighbor C's",
				dOther, other, dC)
		}
	}
}

func TestComputeFrameOrphanNode(t *testing.T) {
	e := New(nil)
	out, err := e.ComputeFrame(graphInput([]string{"A", "B", "solo"}, []string{"A-B"}))
	if err != nil {
		t.Fatalf("ComputeFrame: %v", err)
	}

	if out.Metadata.Components != 2 {
		t.Errorf("components = %d, want 2", out.Metadata.Components)
	}
	solo := nodeTarget(t, out, "solo")
	if solo.ComponentID == "" || solo.CommunityID == "" {
		t.Errorf("orphan missing group ids: %+v", solo)
	}
	if math.IsNaN(solo.TargetX) || math.IsNaN(solo.TargetY) {
		t.Errorf("orphan got non-finite position: %+v", solo)
	}
}

func TestComputeFrameGarbageStateIsColdStart(t *testing.T) {
	nodes := []string{"A", "B", "C"}
	edges := []string{"A-B", "B-C"}

	e := New(nil)
	clean, err := e.ComputeFrame(graphInput(nodes, edges))
	if err != nil {
		t.Fatalf("clean frame: %v", err)
	}

	in := graphInput(nodes, edges)
	in.PreviousState = []byte("definitely not a snapshot")
	dirty, err := e.ComputeFrame(in)
	if err != nil {
		t.Fatalf("garbage state must not fail: %v", err)
	}

	if !reflect.DeepEqual(clean.Layout, dirty.Layout) {
		t.Error("garbage state did not degrade to a cold start")
	}
}

func TestComputeFrameStateRoundTrip(t *testing.T) {
	e := New(nil)
	out, err := e.ComputeFrame(graphInput([]string{"A", "B", "C"}, []string{"A-B", "B-C", "C-A"}))
	if err != nil {
		t.Fatalf("ComputeFrame: %v", err)
	}

	snap := snapshot.Decode(out.Metadata.State)
	if snap == nil {
		t.Fatal("emitted state does not decode")
	}
	for _, nt := range out.Layout.NodeTargets {
		p, ok := snap.NodePositions[nt.NodeID]
		if !ok {
			t.Fatalf("state missing node %s", nt.NodeID)
		}
		if p.X != nt.TargetX || p.Y != nt.TargetY {
			t.Errorf("state position for %s = %+v, output says (%v, %v)", nt.NodeID, p, nt.TargetX, nt.TargetY)
		}
	}
	if len(snap.Components) != out.Metadata.Components {
		t.Errorf("state has %d components, metadata says %d", len(snap.Components), out.Metadata.Components)
	}
}

func TestComputeFrameNeighborMeans(t *testing.T) {
	e := New(nil)
	out, err := e.ComputeFrame(graphInput([]string{"A", "B", "C", "solo"}, []string{"A-B", "A-C"}))
	if err != nil {
		t.Fatalf("ComputeFrame: %v", err)
	}

	a := nodeTarget(t, out, "A")
	b := nodeTarget(t, out, "B")
	c := nodeTarget(t, out, "C")
	wantX := (b.TargetX + c.TargetX) / 2
	wantY := (b.TargetY + c.TargetY) / 2
	if math.Abs(a.NeighborX-wantX) > 1e-9 || math.Abs(a.NeighborY-wantY) > 1e-9 {
		t.Errorf("A neighbor mean = (%v, %v), want (%v, %v)", a.NeighborX, a.NeighborY, wantX, wantY)
	}

	solo := nodeTarget(t, out, "solo")
	if solo.NeighborX != solo.TargetX || solo.NeighborY != solo.TargetY {
		t.Errorf("isolated node's neighbor mean should be its own position: %+v", solo)
	}
}

func TestComputeFrameRadialStrategy(t *testing.T) {
	in := graphInput([]string{"hub", "a", "b", "c"}, []string{"hub-a", "hub-b", "hub-c"})
	in.Strategy = "radial"

	e := New(nil)
	out, err := e.ComputeFrame(in)
	if err != nil {
		t.Fatalf("ComputeFrame: %v", err)
	}
	if out.Metadata.Strategy != "radial" {
		t.Errorf("metadata strategy = %q", out.Metadata.Strategy)
	}

	hub := nodeTarget(t, out, "hub")
	if math.Abs(hub.TargetX-hub.AnchorX) > 1e-6 || math.Abs(hub.TargetY-hub.AnchorY) > 1e-6 {
		t.Errorf("radial hub not at its community anchor: %+v", hub)
	}
}

func TestResolveOptionsDefaults(t *testing.T) {
	opts := resolveOptions(nil)
	if opts.Quality != 1.0 || opts.Stability != 0.6 || opts.Spacing != 10 {
		t.Errorf("unexpected defaults: %+v", opts)
	}
	if opts.Attraction != 0.12 || opts.Repulsion != 0.85 || opts.Gravity != 0.06 {
		t.Errorf("unexpected force defaults: %+v", opts)
	}
	if opts.CommunityScale != 1.0 {
		t.Errorf("community scale default = %v", opts.CommunityScale)
	}
}

func TestResolveOptionsClamping(t *testing.T) {
	opts := resolveOptions(map[string]float64{
		"quality":     99,
		"stability":   -3,
		"nodeSpacing": 2,
		"mystery":     123, // unknown keys are ignored, never an error
	})
	if opts.Quality != 1.5 {
		t.Errorf("quality = %v, want clamp to 1.5", opts.Quality)
	}
	if opts.Stability != 0 {
		t.Errorf("stability = %v, want clamp to 0", opts.Stability)
	}
	if opts.Spacing != 4 {
		t.Errorf("spacing = %v, want clamp to 4", opts.Spacing)
	}
}

func TestResolveOptionsNaN(t *testing.T) {
	opts := resolveOptions(map[string]float64{"quality": math.NaN()})
	if opts.Quality != 0.5 {
		t.Errorf("NaN quality = %v, want floor 0.5", opts.Quality)
	}
}
