package placement

import (
	"math"
	"sort"

	"github.com/graphlapse/graphlapse/pkg/hashutil"
	"github.com/graphlapse/graphlapse/pkg/snapshot"
)

// Radial places a community as concentric BFS rings: the highest-degree
// node sits at the anchor and each BFS layer lands on a successively larger
// ring, ordered by parent angle so parent-child edges stay roughly radial
// and do not cross.
type Radial struct{}

// NewRadial creates the ring placement strategy.
func NewRadial() *Radial {
	return &Radial{}
}

// Name implements Strategy.
func (r *Radial) Name() string {
	return "radial"
}

// Targets implements Strategy.
func (r *Radial) Targets(ctx *Context) map[string]snapshot.Position {
	targets := make(map[string]snapshot.Position, len(ctx.Members))
	if len(ctx.Members) == 0 {
		return targets
	}
	if len(ctx.Members) == 1 {
		targets[ctx.Members[0]] = ctx.Anchor
		return targets
	}

	layers, parent := r.bfsLayers(ctx)

	// Angle bookkeeping drives sibling ordering in deeper rings.
	angles := make(map[string]float64, len(ctx.Members))

	ringGap := ctx.Radius / float64(len(layers))
	if ringGap < ctx.Params.Spacing {
		ringGap = ctx.Params.Spacing
	}

	for depth, layer := range layers {
		if depth == 0 {
			for _, id := range layer {
				targets[id] = ctx.Anchor
				angles[id] = 0
			}
			continue
		}

		ordered := make([]string, len(layer))
		copy(ordered, layer)
		sort.Slice(ordered, func(i, j int) bool {
			ai := angles[parent[ordered[i]]]
			aj := angles[parent[ordered[j]]]
			if ai != aj {
				return ai < aj
			}
			return ordered[i] < ordered[j]
		})

		radius := ringGap * float64(depth)
		start := angles[parent[ordered[0]]]
		step := 2 * math.Pi / float64(len(ordered))

		for k, id := range ordered {
			angle := start + step*float64(k)
			angles[id] = angle
			targets[id] = snapshot.Position{
				X: ctx.Anchor.X + radius*math.Cos(angle),
				Y: ctx.Anchor.Y + radius*math.Sin(angle),
			}
		}
	}

	r.refine(ctx, targets)
	return targets
}

// bfsLayers builds BFS rings rooted at the highest-degree member (ties to
// the smallest id). Members unreachable from the root start their own
// traversal on ring one, so a community that is not internally connected
// still lays out every node.
func (r *Radial) bfsLayers(ctx *Context) (layers [][]string, parent map[string]string) {
	root := ctx.Members[0]
	for _, id := range ctx.Members {
		if len(ctx.Neighbors[id]) > len(ctx.Neighbors[root]) {
			root = id
		}
	}

	depth := map[string]int{root: 0}
	parent = map[string]string{root: root}
	order := []string{root}

	frontier := []string{root}
	for len(frontier) > 0 {
		next := make([]string, 0)
		for _, id := range frontier {
			for _, neighbor := range ctx.Neighbors[id] {
				if _, seen := depth[neighbor]; seen {
					continue
				}
				depth[neighbor] = depth[id] + 1
				parent[neighbor] = id
				next = append(next, neighbor)
				order = append(order, neighbor)
			}
		}
		frontier = next
	}

	// Stragglers from other intra-community fragments.
	for _, id := range ctx.Members {
		if _, seen := depth[id]; seen {
			continue
		}
		depth[id] = 1
		parent[id] = root
		queue := []string{id}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, neighbor := range ctx.Neighbors[cur] {
				if _, seen := depth[neighbor]; seen {
					continue
				}
				depth[neighbor] = depth[cur] + 1
				parent[neighbor] = cur
				queue = append(queue, neighbor)
			}
		}
	}

	maxDepth := 0
	for _, d := range depth {
		if d > maxDepth {
			maxDepth = d
		}
	}

	layers = make([][]string, maxDepth+1)
	for _, id := range ctx.Members {
		layers[depth[id]] = append(layers[depth[id]], id)
	}
	for i := range layers {
		sort.Strings(layers[i])
	}
	return layers, parent
}

// refine runs optional separation sweeps so dense rings do not leave nodes
// touching. Ring geometry already guarantees non-crossing edges; this only
// nudges near-coincident placements.
func (r *Radial) refine(ctx *Context, targets map[string]snapshot.Position) {
	sweeps := ctx.Params.RefinementIterations
	if sweeps <= 0 {
		return
	}

	minSep := ctx.Params.Spacing * minSeparationFactor
	for s := 0; s < sweeps; s++ {
		for i := 0; i < len(ctx.Members); i++ {
			for j := i + 1; j < len(ctx.Members); j++ {
				a, b := ctx.Members[i], ctx.Members[j]
				pa, pb := targets[a], targets[b]
				dx := pb.X - pa.X
				dy := pb.Y - pa.Y
				dist := math.Sqrt(dx*dx + dy*dy)
				if dist >= minSep {
					continue
				}
				if dist < 1e-9 {
					angle := hashutil.PairAngle(a, b)
					dx = math.Cos(angle)
					dy = math.Sin(angle)
					dist = 1
				}
				push := (minSep - dist) / 2
				ux, uy := dx/dist, dy/dist
				pa.X -= ux * push
				pa.Y -= uy * push
				pb.X += ux * push
				pb.Y += uy * push
				targets[a], targets[b] = pa, pb
			}
		}
	}
}
