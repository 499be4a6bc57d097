package graphgen

import (
	"reflect"
	"testing"
)

func TestDeterministic(t *testing.T) {
	a := NewChurnGenerator(9, 50, 0.1)
	b := NewChurnGenerator(9, 50, 0.1)

	for i := 0; i < 5; i++ {
		nodesA, adjA := a.Frame()
		nodesB, adjB := b.Frame()
		if !reflect.DeepEqual(nodesA, nodesB) || !reflect.DeepEqual(adjA, adjB) {
			t.Fatalf("same seed diverged at frame %d", i)
		}
	}
}

func TestChurnReplacesNodes(t *testing.T) {
	g := NewChurnGenerator(1, 100, 0.1)
	first, _ := g.Frame()
	second, _ := g.Frame()

	inFirst := make(map[string]bool, len(first))
	for _, id := range first {
		inFirst[id] = true
	}
	fresh := 0
	for _, id := range second {
		if !inFirst[id] {
			fresh++
		}
	}
	if fresh != 10 {
		t.Errorf("fresh nodes = %d, want 10", fresh)
	}
	if len(second) != 100 {
		t.Errorf("size drifted to %d", len(second))
	}
}

func TestAdjacencyWithinNodeSet(t *testing.T) {
	g := NewChurnGenerator(3, 80, 0.2)
	for i := 0; i < 10; i++ {
		nodes, adjacency := g.Frame()
		present := make(map[string]bool, len(nodes))
		for _, id := range nodes {
			present[id] = true
		}
		for id, targets := range adjacency {
			if !present[id] {
				t.Fatalf("frame %d: adjacency source %s not in node set", i, id)
			}
			for _, tgt := range targets {
				if !present[tgt] {
					t.Fatalf("frame %d: edge %s-%s leaves node set", i, id, tgt)
				}
			}
		}
	}
}
