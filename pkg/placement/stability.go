package placement

import (
	"math"

	"github.com/graphlapse/graphlapse/pkg/hashutil"
	"github.com/graphlapse/graphlapse/pkg/snapshot"
)

// Place runs the strategy for one community and applies the shared
// temporal-stability contract to its output: rotation alignment against the
// previous frame, blending toward the target by (1 - stability), a
// containment clamp, and a spatial-hash collision cleanup.
func Place(s Strategy, ctx *Context) map[string]snapshot.Position {
	targets := s.Targets(ctx)
	alignRotation(ctx, targets)
	out := blend(ctx, targets)
	contain(ctx, out)
	resolveCollisions(ctx, out)
	contain(ctx, out)
	return out
}

// alignRotation removes the free rotation a fresh target layout carries
// relative to the previous frame. The least-squares 2D rotation over
// members present in both frames (anchor-relative vectors) is applied to
// every target, so a structurally unchanged community does not visibly spin.
func alignRotation(ctx *Context, targets map[string]snapshot.Position) {
	if ctx.PrevAnchor == nil {
		return
	}

	sumCross, sumDot := 0.0, 0.0
	shared := 0
	for _, id := range ctx.Members {
		prev, ok := ctx.PrevPositions[id]
		if !ok {
			continue
		}
		target, ok := targets[id]
		if !ok {
			continue
		}
		tx := target.X - ctx.Anchor.X
		ty := target.Y - ctx.Anchor.Y
		px := prev.X - ctx.PrevAnchor.X
		py := prev.Y - ctx.PrevAnchor.Y
		sumCross += tx*py - ty*px
		sumDot += tx*px + ty*py
		shared++
	}

	if shared < 2 || (sumCross == 0 && sumDot == 0) {
		return
	}

	angle := math.Atan2(sumCross, sumDot)
	sin, cos := math.Sincos(angle)

	for _, id := range ctx.Members {
		target, ok := targets[id]
		if !ok {
			continue
		}
		tx := target.X - ctx.Anchor.X
		ty := target.Y - ctx.Anchor.Y
		targets[id] = snapshot.Position{
			X: ctx.Anchor.X + tx*cos - ty*sin,
			Y: ctx.Anchor.Y + tx*sin + ty*cos,
		}
	}
}

// blend interpolates each node from its anchor-translated previous position
// toward the aligned target by (1 - stability), with an absolute per-frame
// movement cap of Spacing * maxMoveFactor. A node without history borrows
// the previous-frame barycenter of its neighbors as a virtual previous
// position, so a newcomer surfaces beside the nodes it attached to instead
// of wherever the simulation carried it. Only nodes with no placed history
// anywhere in their neighborhood land on the target directly.
func blend(ctx *Context, targets map[string]snapshot.Position) map[string]snapshot.Position {
	out := make(map[string]snapshot.Position, len(ctx.Members))

	var anchorDX, anchorDY float64
	if ctx.PrevAnchor != nil {
		anchorDX = ctx.Anchor.X - ctx.PrevAnchor.X
		anchorDY = ctx.Anchor.Y - ctx.PrevAnchor.Y
	}

	maxMove := ctx.Params.Spacing * maxMoveFactor

	for _, id := range ctx.Members {
		target, ok := targets[id]
		if !ok {
			target = ctx.Anchor
		}

		prev, hasPrev := ctx.PrevPositions[id]
		if !hasPrev {
			prev, hasPrev = neighborPrevBarycenter(ctx, id)
		}
		if !hasPrev {
			out[id] = target
			continue
		}

		base := snapshot.Position{X: prev.X + anchorDX, Y: prev.Y + anchorDY}
		dx := (target.X - base.X) * (1 - ctx.Params.Stability)
		dy := (target.Y - base.Y) * (1 - ctx.Params.Stability)

		dist := math.Sqrt(dx*dx + dy*dy)
		if dist > maxMove {
			scale := maxMove / dist
			dx *= scale
			dy *= scale
		}

		out[id] = snapshot.Position{X: base.X + dx, Y: base.Y + dy}
	}

	return out
}

// neighborPrevBarycenter averages the previous-frame positions of a node's
// neighbors. Reported false when none of them carries history.
func neighborPrevBarycenter(ctx *Context, id string) (snapshot.Position, bool) {
	sumX, sumY := 0.0, 0.0
	count := 0
	for _, neighbor := range ctx.Neighbors[id] {
		if p, ok := ctx.PrevPositions[neighbor]; ok {
			sumX += p.X
			sumY += p.Y
			count++
		}
	}
	if count == 0 {
		return snapshot.Position{}, false
	}
	return snapshot.Position{X: sumX / float64(count), Y: sumY / float64(count)}, true
}

// contain clamps every node to within the community radius (plus slack) of
// the anchor.
func contain(ctx *Context, positions map[string]snapshot.Position) {
	limit := ctx.Radius * containmentSlack
	if limit <= 0 {
		return
	}

	for _, id := range ctx.Members {
		p := positions[id]
		dx := p.X - ctx.Anchor.X
		dy := p.Y - ctx.Anchor.Y
		dist := math.Sqrt(dx*dx + dy*dy)
		if dist <= limit {
			continue
		}
		scale := limit / dist
		positions[id] = snapshot.Position{
			X: ctx.Anchor.X + dx*scale,
			Y: ctx.Anchor.Y + dy*scale,
		}
	}
}

// resolveCollisions is a light cleanup pass pushing apart any pair closer
// than the minimum separation, using the spatial grid to keep each
// iteration near O(n).
func resolveCollisions(ctx *Context, positions map[string]snapshot.Position) {
	n := len(ctx.Members)
	if n < 2 {
		return
	}

	minSep := ctx.Params.Spacing * minSeparationFactor
	grid := newSpatialGrid(minSep * 2)
	buf := make([]snapshot.Position, n)

	for iter := 0; iter < collisionIterations; iter++ {
		for i, id := range ctx.Members {
			buf[i] = positions[id]
		}

		grid.reset()
		for i := range buf {
			grid.insert(i, buf[i])
		}

		moved := false
		for i := range buf {
			grid.nearby(buf[i], func(j int) {
				if j <= i {
					return
				}
				dx := buf[j].X - buf[i].X
				dy := buf[j].Y - buf[i].Y
				dist := math.Sqrt(dx*dx + dy*dy)
				if dist >= minSep {
					return
				}
				if dist < 1e-9 {
					angle := hashutil.PairAngle(ctx.Members[i], ctx.Members[j])
					dx = math.Cos(angle)
					dy = math.Sin(angle)
					dist = 1
				}
				push := (minSep - dist) / 2
				ux, uy := dx/dist, dy/dist
				buf[i].X -= ux * push
				buf[i].Y -= uy * push
				buf[j].X += ux * push
				buf[j].Y += uy * push
				moved = true
			})
		}

		for i, id := range ctx.Members {
			positions[id] = buf[i]
		}
		if !moved {
			break
		}
	}
}
