package placement

import (
	"math"

	"github.com/graphlapse/graphlapse/pkg/snapshot"
)

// spatialGrid is a uniform-cell bucketing structure limiting pair checks to
// spatially nearby nodes. Buckets hold member indexes in insertion order,
// which is sorted-member order, so traversal stays deterministic.
type spatialGrid struct {
	cell    float64
	buckets map[gridKey][]int
}

type gridKey struct {
	cx, cy int
}

func newSpatialGrid(cell float64) *spatialGrid {
	if cell <= 0 {
		cell = 1
	}
	return &spatialGrid{
		cell:    cell,
		buckets: make(map[gridKey][]int),
	}
}

func (g *spatialGrid) keyFor(p snapshot.Position) gridKey {
	return gridKey{
		cx: int(math.Floor(p.X / g.cell)),
		cy: int(math.Floor(p.Y / g.cell)),
	}
}

func (g *spatialGrid) insert(idx int, p snapshot.Position) {
	k := g.keyFor(p)
	g.buckets[k] = append(g.buckets[k], idx)
}

// nearby visits every index in the 3x3 cell block around p, in
// deterministic cell-then-insertion order.
func (g *spatialGrid) nearby(p snapshot.Position, visit func(idx int)) {
	center := g.keyFor(p)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			k := gridKey{cx: center.cx + dx, cy: center.cy + dy}
			for _, idx := range g.buckets[k] {
				visit(idx)
			}
		}
	}
}

func (g *spatialGrid) reset() {
	for k := range g.buckets {
		delete(g.buckets, k)
	}
}
