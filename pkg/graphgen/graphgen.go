// Package graphgen produces deterministic churning graphs for benchmarks
// and demos: a preferential-attachment core where each step retires the
// oldest nodes and attaches fresh ones, mimicking a live timelapse feed.
package graphgen

import "fmt"

// ChurnGenerator holds an evolving graph. Not safe for concurrent use.
type ChurnGenerator struct {
	rng     uint64
	size    int
	churn   float64
	nextID  int
	nodes   []string
	edges   map[string][]string
	degrees []string // node IDs repeated by degree, for preferential attachment
}

// NewChurnGenerator seeds a generator with size nodes. churn is the fraction
// of nodes replaced on each Frame call.
func NewChurnGenerator(seed uint64, size int, churn float64) *ChurnGenerator {
	g := &ChurnGenerator{
		rng:   seed,
		size:  size,
		churn: churn,
		edges: make(map[string][]string),
	}
	for i := 0; i < size; i++ {
		g.addNode()
	}
	return g
}

func (g *ChurnGenerator) next() uint64 {
	// splitmix64
	g.rng += 0x9e3779b97f4a7c15
	z := g.rng
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func (g *ChurnGenerator) addNode() {
	id := fmt.Sprintf("node-%06d", g.nextID)
	g.nextID++

	// Attach to 1-3 existing nodes, biased toward high degree.
	links := 1 + int(g.next()%3)
	for i := 0; i < links && len(g.degrees) > 0; i++ {
		target := g.degrees[g.next()%uint64(len(g.degrees))]
		if target == id {
			continue
		}
		g.edges[id] = append(g.edges[id], target)
		g.degrees = append(g.degrees, target)
	}
	g.nodes = append(g.nodes, id)
	g.degrees = append(g.degrees, id)
}

func (g *ChurnGenerator) removeOldest() {
	if len(g.nodes) == 0 {
		return
	}
	id := g.nodes[0]
	g.nodes = g.nodes[1:]
	delete(g.edges, id)
}

// Frame advances the graph one step and returns its current node list and
// adjacency. Edges referencing retired nodes are dropped.
func (g *ChurnGenerator) Frame() ([]string, map[string][]string) {
	replaced := int(float64(g.size) * g.churn)
	for i := 0; i < replaced; i++ {
		g.removeOldest()
		g.addNode()
	}

	nodeIDs := make([]string, len(g.nodes))
	copy(nodeIDs, g.nodes)

	present := make(map[string]bool, len(g.nodes))
	for _, id := range g.nodes {
		present[id] = true
	}
	adjacency := make(map[string][]string, len(g.edges))
	for id, targets := range g.edges {
		if !present[id] {
			continue
		}
		for _, t := range targets {
			if present[t] {
				adjacency[id] = append(adjacency[id], t)
			}
		}
	}
	return nodeIDs, adjacency
}
