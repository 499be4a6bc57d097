package anchors

import (
	"math"

	"github.com/graphlapse/graphlapse/pkg/hashutil"
	"github.com/graphlapse/graphlapse/pkg/snapshot"
)

// goldenAngle spreads spiral-seeded groups so no two share a ray.
var goldenAngle = math.Pi * (3 - math.Sqrt(5))

// CommunityRadius is the containment radius for a community of n members.
func CommunityRadius(spacing float64, n int) float64 {
	return spacing * (2.5 + 1.3*math.Sqrt(float64(n)))
}

// ComponentRadius derives a component's packing radius from the radii of
// the communities it contains.
func ComponentRadius(spacing float64, communityRadii []float64) float64 {
	sum := 0.0
	for _, r := range communityRadii {
		sum += r * r
	}
	return math.Sqrt(sum*1.3) + spacing*5
}

// Plan computes an anchor for every spec: seed from history where it
// exists, resolve overlaps by pairwise separation, then translate the whole
// pass so matched groups stay aligned with their previous anchors on
// average. The returned slice is index-aligned with specs.
func Plan(specs []Spec, cfg Config) []snapshot.Position {
	positions := seed(specs, cfg)
	separate(specs, positions, cfg.Spacing)
	correctDrift(specs, positions)
	return positions
}

// seed places every group at its previous anchor, its member barycenter, or
// a deterministic golden-angle spiral point around the pass center.
func seed(specs []Spec, cfg Config) []snapshot.Position {
	positions := make([]snapshot.Position, len(specs))
	spiralIndex := 0

	for i := range specs {
		switch {
		case specs[i].PrevAnchor != nil:
			positions[i] = *specs[i].PrevAnchor
		case specs[i].Seed != nil:
			positions[i] = *specs[i].Seed
		case specs[i].Weight <= 1:
			// Single members need no packing of their own.
			positions[i] = cfg.Center
			spiralIndex++
		default:
			angle := float64(spiralIndex) * goldenAngle
			dist := (specs[i].Radius + cfg.Spacing*6) * math.Sqrt(float64(spiralIndex))
			positions[i] = snapshot.Position{
				X: cfg.Center.X + dist*math.Cos(angle),
				Y: cfg.Center.Y + dist*math.Sin(angle),
			}
			spiralIndex++
		}
	}

	return positions
}

// separate pushes overlapping pairs apart for a bounded number of rounds.
// Each group's share of the correction is proportional to the other group's
// weight, so large groups stay put and small ones orbit around them.
func separate(specs []Spec, positions []snapshot.Position, spacing float64) {
	padding := spacing * paddingFactor

	for iter := 0; iter < separationIterations; iter++ {
		moved := false

		for i := 0; i < len(specs); i++ {
			for j := i + 1; j < len(specs); j++ {
				minDist := specs[i].Radius + specs[j].Radius + padding

				dx := positions[j].X - positions[i].X
				dy := positions[j].Y - positions[i].Y
				dist := math.Sqrt(dx*dx + dy*dy)

				if dist >= minDist {
					continue
				}

				if dist < 1e-9 {
					angle := hashutil.PairAngle(specs[i].ID, specs[j].ID)
					dx = math.Cos(angle)
					dy = math.Sin(angle)
					dist = 1
				}

				overlap := minDist - dist
				totalWeight := specs[i].Weight + specs[j].Weight
				if totalWeight <= 0 {
					totalWeight = 2
				}
				shareI := specs[j].Weight / totalWeight
				shareJ := specs[i].Weight / totalWeight

				ux := dx / dist
				uy := dy / dist
				positions[i].X -= ux * overlap * shareI
				positions[i].Y -= uy * overlap * shareI
				positions[j].X += ux * overlap * shareJ
				positions[j].Y += uy * overlap * shareJ
				moved = true
			}
		}

		if !moved {
			break
		}
	}
}

// correctDrift translates the whole pass by the mean offset between matched
// groups and their previous anchors. Pairwise separation is relative, so
// without this the layout slowly wanders even on a static graph.
func correctDrift(specs []Spec, positions []snapshot.Position) {
	sumX, sumY := 0.0, 0.0
	matched := 0

	for i := range specs {
		if specs[i].PrevAnchor == nil {
			continue
		}
		sumX += specs[i].PrevAnchor.X - positions[i].X
		sumY += specs[i].PrevAnchor.Y - positions[i].Y
		matched++
	}

	if matched == 0 {
		return
	}

	dx := sumX / float64(matched)
	dy := sumY / float64(matched)
	for i := range positions {
		positions[i].X += dx
		positions[i].Y += dy
	}
}
