package identity

import (
	"reflect"
	"strings"
	"testing"
)

// adjacency builds the caller-shaped map from "A-B" edge strings.
func adjacency(edges ...string) map[string][]string {
	adj := make(map[string][]string)
	for _, e := range edges {
		parts := strings.Split(e, "-")
		adj[parts[0]] = append(adj[parts[0]], parts[1])
		adj[parts[1]] = append(adj[parts[1]], parts[0])
	}
	return adj
}

func TestBuildIndexOrphans(t *testing.T) {
	// "E" is listed but absent from the adjacency; "X" appears as a
	// neighbor but is not visible. Both are tolerated.
	ix := BuildIndex([]string{"B", "A", "E"}, map[string][]string{
		"A": {"B", "X"},
		"B": {"A"},
	})

	want := []string{"A", "B", "E"}
	if !reflect.DeepEqual(ix.Nodes, want) {
		t.Errorf("Nodes = %v, want %v", ix.Nodes, want)
	}
	if ix.Degree("E") != 0 {
		t.Errorf("Degree(E) = %d, want 0", ix.Degree("E"))
	}
	if ix.Degree("A") != 1 {
		t.Errorf("Degree(A) = %d, want 1 (invisible neighbor dropped)", ix.Degree("A"))
	}
}

func TestBuildIndexSymmetrizes(t *testing.T) {
	// One-sided adjacency still produces a mutual relation.
	ix := BuildIndex([]string{"A", "B"}, map[string][]string{"A": {"B"}})

	if !reflect.DeepEqual(ix.Neighbors["B"], []string{"A"}) {
		t.Errorf("Neighbors(B) = %v, want [A]", ix.Neighbors["B"])
	}
}

func TestConnectedComponentsPartition(t *testing.T) {
	ix := BuildIndex(
		[]string{"A", "B", "C", "D", "E", "F"},
		adjacency("A-B", "B-C", "D-E"),
	)

	comps := ConnectedComponents(ix)
	want := [][]string{
		{"A", "B", "C"},
		{"D", "E"},
		{"F"},
	}
	if !reflect.DeepEqual(comps, want) {
		t.Errorf("components = %v, want %v", comps, want)
	}
}

func TestConnectedComponentsOrdering(t *testing.T) {
	// Two same-size components: smaller first-member id wins.
	ix := BuildIndex([]string{"Z", "Y", "B", "A"}, adjacency("Z-Y", "A-B"))

	comps := ConnectedComponents(ix)
	if comps[0][0] != "A" {
		t.Errorf("first component starts with %q, want A", comps[0][0])
	}
}

func TestConnectedComponentsEmpty(t *testing.T) {
	comps := ConnectedComponents(BuildIndex(nil, nil))
	if len(comps) != 0 {
		t.Errorf("components = %v, want none", comps)
	}
}

func TestPropagateLabelsCliquesStayUniform(t *testing.T) {
	// Tightly-knit groups must not end up internally split, whatever label
	// each one settles on.
	edges := []string{"A-B", "A-C", "B-C", "D-E", "D-F", "E-F", "C-D"}
	members := []string{"A", "B", "C", "D", "E", "F"}
	ix := BuildIndex(members, adjacency(edges...))

	labels := PropagateLabels(ix, members, nil)

	if labels["A"] != labels["B"] || labels["B"] != labels["C"] {
		t.Errorf("first clique split: %v", labels)
	}
	if labels["D"] != labels["E"] || labels["E"] != labels["F"] {
		t.Errorf("second clique split: %v", labels)
	}
}

func TestPropagateLabelsColdStartPair(t *testing.T) {
	// Two connected nodes must settle into a single community.
	members := []string{"A", "B"}
	ix := BuildIndex(members, adjacency("A-B"))

	labels := PropagateLabels(ix, members, nil)
	if labels["A"] != labels["B"] {
		t.Errorf("pair split into %v", labels)
	}
}

func TestPropagateLabelsBiasPreservesSeededSplit(t *testing.T) {
	// Two seeded cliques joined by a bridge keep their previous labels;
	// the self-bias outweighs the single cross-bridge vote.
	edges := []string{
		"A-B", "A-C", "A-D", "B-C", "B-D", "C-D",
		"E-F", "E-G", "E-H", "F-G", "F-H", "G-H",
		"C-E",
	}
	members := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	ix := BuildIndex(members, adjacency(edges...))

	initial := map[string]string{
		"A": "comm-1", "B": "comm-1", "C": "comm-1", "D": "comm-1",
		"E": "comm-2", "F": "comm-2", "G": "comm-2", "H": "comm-2",
	}
	labels := PropagateLabels(ix, members, initial)

	for _, id := range []string{"A", "B", "C", "D"} {
		if labels[id] != "comm-1" {
			t.Errorf("label(%s) = %q, want comm-1", id, labels[id])
		}
	}
	for _, id := range []string{"E", "F", "G", "H"} {
		if labels[id] != "comm-2" {
			t.Errorf("label(%s) = %q, want comm-2", id, labels[id])
		}
	}
}

func TestPropagateLabelsDeterministic(t *testing.T) {
	edges := []string{"A-B", "B-C", "C-D", "D-A", "C-E", "E-F", "F-G", "G-E"}
	members := []string{"A", "B", "C", "D", "E", "F", "G"}

	first := PropagateLabels(BuildIndex(members, adjacency(edges...)), members, nil)
	second := PropagateLabels(BuildIndex(members, adjacency(edges...)), members, nil)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("propagation not deterministic:\n %v\n %v", first, second)
	}
}

func TestPropagateLabelsSeededFromPrevious(t *testing.T) {
	// A stable clique keeps its previous community label.
	edges := []string{"A-B", "A-C", "B-C"}
	members := []string{"A", "B", "C"}
	ix := BuildIndex(members, adjacency(edges...))

	initial := map[string]string{"A": "comm-7", "B": "comm-7", "C": "comm-7"}
	labels := PropagateLabels(ix, members, initial)

	for _, id := range members {
		if labels[id] != "comm-7" {
			t.Errorf("label(%s) = %q, want comm-7", id, labels[id])
		}
	}
}

func TestGroupByLabelOrdering(t *testing.T) {
	members := []string{"A", "B", "C", "D", "E"}
	labels := map[string]string{"A": "x", "B": "x", "C": "y", "D": "y", "E": "y"}

	groups := GroupByLabel(members, labels)
	want := [][]string{{"C", "D", "E"}, {"A", "B"}}
	if !reflect.DeepEqual(groups, want) {
		t.Errorf("groups = %v, want %v", groups, want)
	}
}

func TestAssignIDsBestOverlap(t *testing.T) {
	prev := []PrevGroup{
		{ID: "comp-old-small", Members: []string{"A", "B"}},
		{ID: "comp-old-big", Members: []string{"C", "D", "E", "F"}},
	}
	newGroups := [][]string{
		{"C", "D", "E", "G"}, // 3 shared with comp-old-big
		{"A", "B"},           // 2 shared with comp-old-small
	}

	groups := AssignIDs(newGroups, prev, "comp")
	if groups[0].ID != "comp-old-big" {
		t.Errorf("group 0 id = %q, want comp-old-big", groups[0].ID)
	}
	if groups[1].ID != "comp-old-small" {
		t.Errorf("group 1 id = %q, want comp-old-small", groups[1].ID)
	}
}

func TestAssignIDsClaimedOnlyOnce(t *testing.T) {
	prev := []PrevGroup{{ID: "comp-1", Members: []string{"A", "B", "C", "D"}}}

	// The old component split in two; the larger half keeps the id.
	groups := AssignIDs([][]string{{"A", "B", "C"}, {"D"}}, prev, "comp")
	if groups[0].ID != "comp-1" {
		t.Errorf("larger fragment id = %q, want comp-1", groups[0].ID)
	}
	if groups[1].ID == "comp-1" {
		t.Error("id comp-1 claimed twice")
	}
	if groups[1].ID == "" {
		t.Error("unmatched fragment got empty id")
	}
}

func TestAssignIDsTieBreaksOnRatio(t *testing.T) {
	// Equal overlap counts; the tighter previous group (higher Jaccard)
	// wins.
	prev := []PrevGroup{
		{ID: "comp-loose", Members: []string{"A", "B", "X", "Y", "Z"}},
		{ID: "comp-tight", Members: []string{"A", "B"}},
	}

	groups := AssignIDs([][]string{{"A", "B"}}, prev, "comp")
	if groups[0].ID != "comp-tight" {
		t.Errorf("id = %q, want comp-tight", groups[0].ID)
	}
}

func TestAssignIDsTieBreaksOnSmallestID(t *testing.T) {
	prev := []PrevGroup{
		{ID: "comp-b", Members: []string{"A", "B"}},
		{ID: "comp-a", Members: []string{"A", "B"}},
	}

	groups := AssignIDs([][]string{{"A", "B"}}, prev, "comp")
	if groups[0].ID != "comp-a" {
		t.Errorf("id = %q, want comp-a", groups[0].ID)
	}
}

func TestAssignIDsSyntheticDeterminism(t *testing.T) {
	first := AssignIDs([][]string{{"A", "B"}, {"C"}}, nil, "comp")
	second := AssignIDs([][]string{{"A", "B"}, {"C"}}, nil, "comp")

	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("synthetic ids differ at %d: %q vs %q", i, first[i].ID, second[i].ID)
		}
		if first[i].ID == "" {
			t.Errorf("empty synthetic id at %d", i)
		}
	}
	if first[0].ID == first[1].ID {
		t.Error("distinct groups share a synthetic id")
	}
}
