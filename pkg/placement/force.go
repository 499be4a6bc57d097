package placement

import (
	"math"

	"github.com/graphlapse/graphlapse/pkg/hashutil"
	"github.com/graphlapse/graphlapse/pkg/snapshot"
)

// Force lays a community out with a spring-electrical simulation: springs
// along edges toward an ideal rest length, pairwise repulsion through a
// spatial hash grid, and weak gravity toward the anchor, under a cooling
// schedule. Seeding comes from the previous frame wherever history exists,
// so the simulation refines rather than reinvents the layout.
type Force struct{}

// NewForce creates the spring-electrical strategy.
func NewForce() *Force {
	return &Force{}
}

// Name implements Strategy.
func (f *Force) Name() string {
	return "force"
}

// Targets implements Strategy.
func (f *Force) Targets(ctx *Context) map[string]snapshot.Position {
	n := len(ctx.Members)
	targets := make(map[string]snapshot.Position, n)
	if n == 0 {
		return targets
	}
	if n == 1 {
		targets[ctx.Members[0]] = ctx.Anchor
		return targets
	}

	index := make(map[string]int, n)
	for i, id := range ctx.Members {
		index[id] = i
	}

	pos := f.seedPositions(ctx, index)
	forces := make([]snapshot.Position, n)

	idealEdge := ctx.Params.Spacing * idealEdgeFactor
	repulsionCutoff := ctx.Params.Spacing * 6
	grid := newSpatialGrid(repulsionCutoff)

	iterations := f.iterations(ctx)
	temperature := ctx.Radius / 3
	if temperature < ctx.Params.Spacing {
		temperature = ctx.Params.Spacing
	}

	for iter := 0; iter < iterations; iter++ {
		for i := range forces {
			forces[i] = snapshot.Position{}
		}

		// Repulsion between spatially nearby pairs.
		grid.reset()
		for i := range pos {
			grid.insert(i, pos[i])
		}
		for i := range pos {
			grid.nearby(pos[i], func(j int) {
				if j <= i {
					return
				}
				dx := pos[i].X - pos[j].X
				dy := pos[i].Y - pos[j].Y
				dist := math.Sqrt(dx*dx + dy*dy)
				if dist > repulsionCutoff {
					return
				}
				if dist < 1e-9 {
					angle := hashutil.IndexAngle(i, j)
					dx = math.Cos(angle)
					dy = math.Sin(angle)
					dist = 1e-3
				}
				force := ctx.Params.Repulsion * (ctx.Params.Spacing * ctx.Params.Spacing) / (dist * dist)
				fx := (dx / dist) * force * ctx.Params.Spacing
				fy := (dy / dist) * force * ctx.Params.Spacing
				forces[i].X += fx
				forces[i].Y += fy
				forces[j].X -= fx
				forces[j].Y -= fy
			})
		}

		// Attraction along edges toward the rest length.
		for i, id := range ctx.Members {
			for _, neighbor := range ctx.Neighbors[id] {
				j := index[neighbor]
				if j <= i {
					continue
				}
				dx := pos[j].X - pos[i].X
				dy := pos[j].Y - pos[i].Y
				dist := math.Sqrt(dx*dx + dy*dy)
				if dist < 1e-9 {
					angle := hashutil.IndexAngle(i, j)
					dx = math.Cos(angle)
					dy = math.Sin(angle)
					dist = 1e-3
				}
				force := ctx.Params.Attraction * (dist - idealEdge)
				fx := (dx / dist) * force
				fy := (dy / dist) * force
				forces[i].X += fx
				forces[i].Y += fy
				forces[j].X -= fx
				forces[j].Y -= fy
			}
		}

		// Weak gravity toward the anchor keeps disconnected stragglers in.
		for i := range pos {
			forces[i].X += (ctx.Anchor.X - pos[i].X) * ctx.Params.Gravity
			forces[i].Y += (ctx.Anchor.Y - pos[i].Y) * ctx.Params.Gravity
		}

		// Apply with the cooling cap.
		for i := range pos {
			fx, fy := forces[i].X, forces[i].Y
			mag := math.Sqrt(fx*fx + fy*fy)
			if mag <= 0 {
				continue
			}
			step := math.Min(mag, temperature)
			pos[i].X += (fx / mag) * step
			pos[i].Y += (fy / mag) * step
		}
		temperature *= 0.95
	}

	for i, id := range ctx.Members {
		targets[id] = pos[i]
	}
	return targets
}

// seedPositions initializes the working buffer: translated previous
// positions first, then the barycenter of already-seeded neighbors for new
// nodes (with a deterministic nudge so coincident seeds split), and a
// golden-angle spiral around the anchor for nodes with no history at all.
func (f *Force) seedPositions(ctx *Context, index map[string]int) []snapshot.Position {
	n := len(ctx.Members)
	pos := make([]snapshot.Position, n)
	seeded := make([]bool, n)

	var anchorDX, anchorDY float64
	if ctx.PrevAnchor != nil {
		anchorDX = ctx.Anchor.X - ctx.PrevAnchor.X
		anchorDY = ctx.Anchor.Y - ctx.PrevAnchor.Y
	}

	for i, id := range ctx.Members {
		if prev, ok := ctx.PrevPositions[id]; ok {
			pos[i] = snapshot.Position{X: prev.X + anchorDX, Y: prev.Y + anchorDY}
			seeded[i] = true
		}
	}

	spiralIndex := 0
	goldenAngle := math.Pi * (3 - math.Sqrt(5))
	for i, id := range ctx.Members {
		if seeded[i] {
			continue
		}

		sumX, sumY := 0.0, 0.0
		count := 0
		for _, neighbor := range ctx.Neighbors[id] {
			j := index[neighbor]
			if seeded[j] {
				sumX += pos[j].X
				sumY += pos[j].Y
				count++
			}
		}

		if count > 0 {
			// Just beside the neighbor barycenter, never exactly on it.
			angle := hashutil.PairAngle(id, "seed")
			pos[i] = snapshot.Position{
				X: sumX/float64(count) + math.Cos(angle)*ctx.Params.Spacing,
				Y: sumY/float64(count) + math.Sin(angle)*ctx.Params.Spacing,
			}
		} else {
			angle := float64(spiralIndex) * goldenAngle
			dist := ctx.Params.Spacing * 1.5 * math.Sqrt(float64(spiralIndex+1))
			pos[i] = snapshot.Position{
				X: ctx.Anchor.X + dist*math.Cos(angle),
				Y: ctx.Anchor.Y + dist*math.Sin(angle),
			}
			spiralIndex++
		}
		seeded[i] = true
	}

	return pos
}

// iterations scales simulation effort with quality and shrinks it for very
// large communities to bound per-frame latency.
func (f *Force) iterations(ctx *Context) int {
	if ctx.Params.Iterations > 0 {
		return ctx.Params.Iterations
	}

	iters := int(50 * ctx.Params.Quality)
	n := len(ctx.Members)
	switch {
	case n > 1500:
		iters /= 4
	case n > 400:
		iters /= 2
	}
	if iters < 12 {
		iters = 12
	}
	return iters
}
