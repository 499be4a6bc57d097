package identity

import (
	"sort"

	"github.com/graphlapse/graphlapse/pkg/hashutil"
)

// AssignIDs claims stable identifiers for the new groups by greedy
// best-overlap matching against the previous frame's groups. New groups are
// processed largest-first (then smallest member id) and each claims the
// unclaimed previous group with the strictly greatest shared-member count;
// ties fall to the higher overlap ratio (Jaccard), then the
// lexicographically smallest previous id. A group sharing no member with
// any unclaimed previous group mints a deterministic hash-derived id.
//
// newGroups must already be sorted largest-first; ConnectedComponents and
// GroupByLabel return them that way.
func AssignIDs(newGroups [][]string, prev []PrevGroup, idPrefix string) []Group {
	prevSets := make([]map[string]bool, len(prev))
	for i, pg := range prev {
		set := make(map[string]bool, len(pg.Members))
		for _, m := range pg.Members {
			set[m] = true
		}
		prevSets[i] = set
	}

	claimed := make([]bool, len(prev))
	used := make(map[string]bool, len(newGroups))
	out := make([]Group, len(newGroups))

	for gi, members := range newGroups {
		bestIdx := -1
		bestOverlap := 0
		bestRatio := 0.0

		for pi, pg := range prev {
			if claimed[pi] || used[pg.ID] {
				continue
			}
			overlap := 0
			for _, m := range members {
				if prevSets[pi][m] {
					overlap++
				}
			}
			if overlap == 0 {
				continue
			}
			ratio := float64(overlap) / float64(len(members)+len(pg.Members)-overlap)

			switch {
			case overlap > bestOverlap:
			case overlap == bestOverlap && ratio > bestRatio:
			case overlap == bestOverlap && ratio == bestRatio && bestIdx >= 0 && pg.ID < prev[bestIdx].ID:
			default:
				continue
			}
			bestIdx = pi
			bestOverlap = overlap
			bestRatio = ratio
		}

		var id string
		if bestIdx >= 0 {
			claimed[bestIdx] = true
			id = prev[bestIdx].ID
		} else {
			id = hashutil.SyntheticID(idPrefix, members, gi)
			for used[id] {
				id += "x"
			}
		}
		used[id] = true
		out[gi] = Group{ID: id, Members: members}
	}

	return out
}

// SortedKeys returns the map's keys in sorted order; small helper shared by
// the pipeline stages that need deterministic map iteration.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
