package identity

import (
	"math"
	"sort"
)

// selfBias is the extra weight a node's current label carries against a
// single neighbor vote. Without it, bipartite-ish subgraphs oscillate
// between two labelings instead of converging.
const selfBias = 1.15

// propagationRounds bounds label propagation by component size.
func propagationRounds(n int) int {
	if n < 2 {
		return 1
	}
	rounds := int(math.Ceil(math.Log2(float64(n)))) + 6
	if rounds < 6 {
		rounds = 6
	}
	if rounds > 18 {
		rounds = 18
	}
	return rounds
}

// PropagateLabels runs weighted label propagation over one component's
// members. initial maps a node to its starting label (its previous
// community id when that community stayed inside the same component, else
// the node's own id). Each node adopts the heaviest label among its
// neighbors' current labels, with the self-bias added to its own current
// label where shared; updates are applied in place in sorted node order and
// ties go to the lexicographically smallest label. The loop stops early
// once a full round changes nothing.
func PropagateLabels(ix *Index, members []string, initial map[string]string) map[string]string {
	labels := make(map[string]string, len(members))
	for _, id := range members {
		if label, ok := initial[id]; ok && label != "" {
			labels[id] = label
		} else {
			labels[id] = id
		}
	}

	rounds := propagationRounds(len(members))
	for round := 0; round < rounds; round++ {
		changed := false

		for _, id := range members {
			current := labels[id]
			neighbors := ix.Neighbors[id]
			if len(neighbors) == 0 {
				continue
			}

			weights := make(map[string]float64, len(neighbors)+1)
			for _, neighbor := range neighbors {
				weights[labels[neighbor]]++
			}
			// The bias only counts once the label has at least one neighbor
			// vote. A label nobody else holds carries no community signal,
			// and biasing it would freeze the cold-start all-singleton
			// state forever.
			if _, shared := weights[current]; shared {
				weights[current] += selfBias
			}

			candidates := make([]string, 0, len(weights))
			for label := range weights {
				candidates = append(candidates, label)
			}
			sort.Strings(candidates)

			best := ""
			bestWeight := -1.0
			for _, label := range candidates {
				if weights[label] > bestWeight {
					best = label
					bestWeight = weights[label]
				}
			}

			if best != current {
				labels[id] = best
				changed = true
			}
		}

		if !changed {
			break
		}
	}

	return labels
}

// GroupByLabel splits the component's members into communities by final
// label, sorted by size descending then smallest member id.
func GroupByLabel(members []string, labels map[string]string) [][]string {
	byLabel := make(map[string][]string)
	for _, id := range members {
		byLabel[labels[id]] = append(byLabel[labels[id]], id)
	}

	groups := make([][]string, 0, len(byLabel))
	for _, group := range byLabel {
		sort.Strings(group)
		groups = append(groups, group)
	}

	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i]) != len(groups[j]) {
			return len(groups[i]) > len(groups[j])
		}
		return groups[i][0] < groups[j][0]
	})

	return groups
}
