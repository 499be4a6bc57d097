package identity

import (
	"container/list"
	"sort"
)

// BuildIndex normalizes the caller-supplied node set and adjacency into a
// deterministic traversal index. Nodes missing from the adjacency (or
// neighbors naming nodes outside the current set) are tolerated: they end
// up isolated. The relation is symmetrized defensively; the caller's map is
// never mutated.
func BuildIndex(nodeIDs []string, adjacency map[string][]string) *Index {
	ix := &Index{
		Nodes:     make([]string, 0, len(nodeIDs)),
		Neighbors: make(map[string][]string, len(nodeIDs)),
		nodeSet:   make(map[string]bool, len(nodeIDs)),
	}

	for _, id := range nodeIDs {
		if id == "" || ix.nodeSet[id] {
			continue
		}
		ix.nodeSet[id] = true
		ix.Nodes = append(ix.Nodes, id)
	}
	sort.Strings(ix.Nodes)

	sets := make(map[string]map[string]bool, len(ix.Nodes))
	for _, id := range ix.Nodes {
		sets[id] = make(map[string]bool)
	}
	for from, neighbors := range adjacency {
		if !ix.nodeSet[from] {
			continue
		}
		for _, to := range neighbors {
			if to == from || !ix.nodeSet[to] {
				continue
			}
			sets[from][to] = true
			sets[to][from] = true
		}
	}

	for id, set := range sets {
		neighbors := make([]string, 0, len(set))
		for n := range set {
			neighbors = append(neighbors, n)
		}
		sort.Strings(neighbors)
		ix.Neighbors[id] = neighbors
	}

	return ix
}

// Contains reports whether the node is part of the current frame.
func (ix *Index) Contains(id string) bool {
	return ix.nodeSet[id]
}

// Degree returns the node's neighbor count within the current frame.
func (ix *Index) Degree(id string) int {
	return len(ix.Neighbors[id])
}

// ConnectedComponents partitions the current node set via BFS. Start nodes
// are taken in sorted order and neighbors expanded in sorted order, so
// identical graphs always produce identical member lists. Components are
// returned sorted by size descending, then by smallest member id; each
// member list is sorted.
func ConnectedComponents(ix *Index) [][]string {
	visited := make(map[string]bool, len(ix.Nodes))
	components := make([][]string, 0)

	for _, start := range ix.Nodes {
		if visited[start] {
			continue
		}

		members := make([]string, 0)
		queue := list.New()
		queue.PushBack(start)
		visited[start] = true

		for queue.Len() > 0 {
			id := queue.Remove(queue.Front()).(string)
			members = append(members, id)

			for _, neighbor := range ix.Neighbors[id] {
				if !visited[neighbor] {
					visited[neighbor] = true
					queue.PushBack(neighbor)
				}
			}
		}

		sort.Strings(members)
		components = append(components, members)
	}

	sort.Slice(components, func(i, j int) bool {
		if len(components[i]) != len(components[j]) {
			return len(components[i]) > len(components[j])
		}
		return components[i][0] < components[j][0]
	})

	return components
}
