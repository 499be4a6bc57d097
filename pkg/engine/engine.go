package engine

import (
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/graphlapse/graphlapse/pkg/anchors"
	"github.com/graphlapse/graphlapse/pkg/identity"
	"github.com/graphlapse/graphlapse/pkg/logging"
	"github.com/graphlapse/graphlapse/pkg/parallel"
	"github.com/graphlapse/graphlapse/pkg/placement"
	"github.com/graphlapse/graphlapse/pkg/snapshot"
)

// FrameRecorder receives per-frame accounting. Implemented by
// metrics.Registry; the engine itself stays free of collector dependencies.
type FrameRecorder interface {
	RecordFrame(strategy, status string, duration time.Duration, nodes, components, communities, stateBytes int)
}

// Engine computes one layout frame at a time. It is a pure transform: all
// state between frames travels through Input.PreviousState and
// Output.Metadata.State, and a single Engine value is safe for concurrent
// use as long as each snapshot lineage is fed sequentially.
type Engine struct {
	logger   logging.Logger
	recorder FrameRecorder
}

// New creates an engine. A nil logger disables logging.
func New(logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Engine{logger: logger}
}

// SetRecorder attaches a frame recorder. Call before first use.
func (e *Engine) SetRecorder(r FrameRecorder) {
	e.recorder = r
}

// ComputeFrame runs the full pipeline: decode previous state, partition and
// match identities, plan anchors, place nodes, assemble output and next
// state. The only error is an unknown strategy name; everything else
// degrades to cold-start behavior for the affected groups.
func (e *Engine) ComputeFrame(in Input) (*Output, error) {
	start := time.Now()

	strategy, ok := placement.ForName(in.Strategy)
	if !ok {
		if e.recorder != nil {
			e.recorder.RecordFrame(in.Strategy, "invalid_strategy", time.Since(start), len(in.NodeIDs), 0, 0, 0)
		}
		return nil, fmt.Errorf("%w: %q", ErrInvalidStrategy, in.Strategy)
	}

	opts := resolveOptions(in.Options)
	prev := snapshot.Decode(in.PreviousState)

	ix := identity.BuildIndex(in.NodeIDs, in.Adjacency)
	frame := e.buildFrame(ix, prev, strategy, opts)

	out := e.assemble(ix, frame, strategy.Name())
	out.Metadata.Duration = time.Since(start)

	e.logger.Debug("frame computed",
		logging.Strategy(strategy.Name()),
		logging.Count(len(ix.Nodes)),
		logging.Int("components", len(frame.components)),
		logging.Int("communities", len(frame.communities)),
		logging.Latency(out.Metadata.Duration),
	)
	if e.recorder != nil {
		e.recorder.RecordFrame(strategy.Name(), "ok", out.Metadata.Duration,
			len(ix.Nodes), len(frame.components), len(frame.communities), len(out.Metadata.State))
	}

	return out, nil
}

// frameState carries the resolved groups and coordinates of one frame
// between pipeline stages.
type frameState struct {
	components  []resolvedGroup
	communities []resolvedGroup // all communities, in component order
	positions   map[string]snapshot.Position
	nodeComp    map[string]string
	nodeComm    map[string]string
	anchorOf    map[string]snapshot.Position // group id -> anchor
}

type resolvedGroup struct {
	id       string
	parentID string // component id for communities, empty for components
	members  []string
	anchor   snapshot.Position
	radius   float64
}

// buildFrame runs identity tracking, anchor planning, and node placement.
func (e *Engine) buildFrame(ix *identity.Index, prev *snapshot.Snapshot, strategy placement.Strategy, opts frameOptions) *frameState {
	frame := &frameState{
		positions: make(map[string]snapshot.Position, len(ix.Nodes)),
		nodeComp:  make(map[string]string, len(ix.Nodes)),
		nodeComm:  make(map[string]string, len(ix.Nodes)),
		anchorOf:  make(map[string]snapshot.Position),
	}

	// Components: partition and claim stable ids.
	memberLists := identity.ConnectedComponents(ix)
	prevComps := make([]identity.PrevGroup, 0)
	if prev != nil {
		for _, pc := range prev.Components {
			prevComps = append(prevComps, identity.PrevGroup{ID: pc.ID, Members: pc.Members})
		}
	}
	compGroups := identity.AssignIDs(memberLists, prevComps, "comp")

	for _, g := range compGroups {
		for _, m := range g.Members {
			frame.nodeComp[m] = g.ID
		}
	}

	// Previous community lookup by member, for label seeding.
	prevCommOfNode := make(map[string]*snapshot.Community)
	if prev != nil {
		for i := range prev.Communities {
			for _, m := range prev.Communities[i].Members {
				if _, taken := prevCommOfNode[m]; !taken {
					prevCommOfNode[m] = &prev.Communities[i]
				}
			}
		}
	}

	// Communities within each component, plus radii.
	type compDetail struct {
		group     identity.Group
		comms     []identity.Group
		commRadii []float64
		radius    float64
	}
	details := make([]compDetail, 0, len(compGroups))

	for _, g := range compGroups {
		initial := make(map[string]string)
		for _, m := range g.Members {
			if pc, ok := prevCommOfNode[m]; ok && pc.ComponentID == g.ID {
				initial[m] = pc.ID
			}
		}

		labels := identity.PropagateLabels(ix, g.Members, initial)
		commLists := identity.GroupByLabel(g.Members, labels)

		prevComms := make([]identity.PrevGroup, 0)
		if prev != nil {
			for _, pc := range prev.Communities {
				if pc.ComponentID == g.ID {
					prevComms = append(prevComms, identity.PrevGroup{ID: pc.ID, Members: pc.Members})
				}
			}
		}
		commGroups := identity.AssignIDs(commLists, prevComms, "comm")

		radii := make([]float64, len(commGroups))
		for i, cg := range commGroups {
			radii[i] = anchors.CommunityRadius(opts.Spacing, len(cg.Members))
		}

		details = append(details, compDetail{
			group:     g,
			comms:     commGroups,
			commRadii: radii,
			radius:    anchors.ComponentRadius(opts.Spacing, radii),
		})
	}

	// Component anchors around the origin.
	compSpecs := make([]anchors.Spec, len(details))
	for i, d := range details {
		compSpecs[i] = anchors.Spec{
			ID:         d.group.ID,
			Weight:     float64(len(d.group.Members)),
			Radius:     d.radius,
			PrevAnchor: prevComponentAnchor(prev, d.group.ID),
			Seed:       barycenter(prev, d.group.Members, 0, 0),
		}
	}
	compAnchors := anchors.Plan(compSpecs, anchors.Config{Spacing: opts.Spacing})

	// Communities inside each component, then node placement.
	placeCtxs := make([]*placement.Context, 0, len(details))
	for i, d := range details {
		compAnchor := compAnchors[i]
		frame.anchorOf[d.group.ID] = compAnchor
		frame.components = append(frame.components, resolvedGroup{
			id:      d.group.ID,
			members: d.group.Members,
			anchor:  compAnchor,
			radius:  d.radius,
		})

		// Whole-component displacement since last frame; preserved so the
		// communities inside keep their relative arrangement.
		var compDX, compDY float64
		if pc := prevComponent(prev, d.group.ID); pc != nil {
			compDX = compAnchor.X - pc.AnchorX
			compDY = compAnchor.Y - pc.AnchorY
		}

		commSpecs := make([]anchors.Spec, len(d.comms))
		for ci, cg := range d.comms {
			commSpecs[ci] = anchors.Spec{
				ID:         cg.ID,
				Weight:     float64(len(cg.Members)),
				Radius:     d.commRadii[ci],
				PrevAnchor: prevCommunityAnchor(prev, cg.ID, compDX, compDY),
				Seed:       barycenter(prev, cg.Members, compDX, compDY),
			}
		}
		commAnchors := anchors.Plan(commSpecs, anchors.Config{
			Center:  compAnchor,
			Spacing: opts.Spacing * opts.CommunityScale,
		})

		for ci, cg := range d.comms {
			commAnchor := commAnchors[ci]
			frame.anchorOf[cg.ID] = commAnchor
			frame.communities = append(frame.communities, resolvedGroup{
				id:       cg.ID,
				parentID: d.group.ID,
				members:  cg.Members,
				anchor:   commAnchor,
				radius:   d.commRadii[ci],
			})
			for _, m := range cg.Members {
				frame.nodeComm[m] = cg.ID
			}

			placeCtxs = append(placeCtxs, &placement.Context{
				Members:       cg.Members,
				Neighbors:     restrictNeighbors(ix, cg.Members),
				Anchor:        commAnchor,
				PrevAnchor:    rawPrevCommunityAnchor(prev, cg.ID),
				Radius:        d.commRadii[ci],
				PrevPositions: prevPositionsFor(prev, cg.Members),
				Params:        opts.Params,
			})
		}
	}

	for _, result := range e.runPlacements(strategy, placeCtxs) {
		for id, p := range result {
			frame.positions[id] = p
		}
	}

	return frame
}

// parallelPlacementThreshold is the frame size (total nodes) above which
// community placements fan out to a worker pool. Communities never overlap,
// so each placement is independent and the merged result is the same either
// way.
const parallelPlacementThreshold = 512

func (e *Engine) runPlacements(strategy placement.Strategy, ctxs []*placement.Context) []map[string]snapshot.Position {
	results := make([]map[string]snapshot.Position, len(ctxs))

	total := 0
	for _, ctx := range ctxs {
		total += len(ctx.Members)
	}
	if len(ctxs) < 2 || total < parallelPlacementThreshold {
		for i, ctx := range ctxs {
			results[i] = placement.Place(strategy, ctx)
		}
		return results
	}

	pool, err := parallel.NewWorkerPool(runtime.NumCPU())
	if err != nil {
		for i, ctx := range ctxs {
			results[i] = placement.Place(strategy, ctx)
		}
		return results
	}
	defer pool.Close()

	var wg sync.WaitGroup
	for i, ctx := range ctxs {
		wg.Add(1)
		if !pool.Submit(func() {
			defer wg.Done()
			results[i] = placement.Place(strategy, ctx)
		}) {
			wg.Done()
			results[i] = placement.Place(strategy, ctx)
		}
	}
	wg.Wait()
	return results
}

// assemble produces the output rows and the encoded next-frame state.
func (e *Engine) assemble(ix *identity.Index, frame *frameState, strategyName string) *Output {
	out := &Output{}

	for _, c := range frame.components {
		out.Layout.Components = append(out.Layout.Components, ComponentLayout{
			ComponentID: c.id,
			NodeIDs:     c.members,
			AnchorX:     c.anchor.X,
			AnchorY:     c.anchor.Y,
		})
	}
	for _, c := range frame.communities {
		out.Layout.Communities = append(out.Layout.Communities, CommunityLayout{
			CommunityID: c.id,
			ComponentID: c.parentID,
			NodeIDs:     c.members,
			AnchorX:     c.anchor.X,
			AnchorY:     c.anchor.Y,
		})
	}

	nodeIDs := make([]string, len(ix.Nodes))
	copy(nodeIDs, ix.Nodes)
	sort.Strings(nodeIDs)

	for _, id := range nodeIDs {
		pos := frame.positions[id]
		commID := frame.nodeComm[id]
		commAnchor := frame.anchorOf[commID]

		nx, ny := pos.X, pos.Y
		count := 0
		sumX, sumY := 0.0, 0.0
		for _, neighbor := range ix.Neighbors[id] {
			np, ok := frame.positions[neighbor]
			if !ok {
				continue
			}
			sumX += np.X
			sumY += np.Y
			count++
		}
		if count > 0 {
			nx = sumX / float64(count)
			ny = sumY / float64(count)
		}

		out.Layout.NodeTargets = append(out.Layout.NodeTargets, NodeTarget{
			NodeID:      id,
			ComponentID: frame.nodeComp[id],
			CommunityID: commID,
			TargetX:     pos.X,
			TargetY:     pos.Y,
			NeighborX:   nx,
			NeighborY:   ny,
			AnchorX:     commAnchor.X,
			AnchorY:     commAnchor.Y,
		})
	}

	next := &snapshot.Snapshot{
		NodePositions: frame.positions,
	}
	for _, c := range frame.components {
		next.Components = append(next.Components, snapshot.Component{
			ID:      c.id,
			Members: c.members,
			AnchorX: c.anchor.X,
			AnchorY: c.anchor.Y,
			Radius:  c.radius,
		})
	}
	for _, c := range frame.communities {
		next.Communities = append(next.Communities, snapshot.Community{
			ID:          c.id,
			ComponentID: c.parentID,
			Members:     c.members,
			AnchorX:     c.anchor.X,
			AnchorY:     c.anchor.Y,
			Radius:      c.radius,
		})
	}

	out.Metadata = Metadata{
		State:       snapshot.Encode(next),
		Strategy:    strategyName,
		NodeCount:   len(nodeIDs),
		Components:  len(frame.components),
		Communities: len(frame.communities),
	}

	return out
}

func prevComponent(prev *snapshot.Snapshot, id string) *snapshot.Component {
	if prev == nil {
		return nil
	}
	return prev.ComponentByID(id)
}

func prevComponentAnchor(prev *snapshot.Snapshot, id string) *snapshot.Position {
	pc := prevComponent(prev, id)
	if pc == nil {
		return nil
	}
	return &snapshot.Position{X: pc.AnchorX, Y: pc.AnchorY}
}

// prevCommunityAnchor returns the community's previous anchor translated by
// its parent component's frame-to-frame displacement.
func prevCommunityAnchor(prev *snapshot.Snapshot, id string, dx, dy float64) *snapshot.Position {
	if prev == nil {
		return nil
	}
	pc := prev.CommunityByID(id)
	if pc == nil {
		return nil
	}
	return &snapshot.Position{X: pc.AnchorX + dx, Y: pc.AnchorY + dy}
}

// rawPrevCommunityAnchor returns the untranslated previous anchor; the
// placement blend derives the full anchor delta from it.
func rawPrevCommunityAnchor(prev *snapshot.Snapshot, id string) *snapshot.Position {
	if prev == nil {
		return nil
	}
	pc := prev.CommunityByID(id)
	if pc == nil {
		return nil
	}
	return &snapshot.Position{X: pc.AnchorX, Y: pc.AnchorY}
}

// barycenter averages the previously-known positions of the given members,
// translated by (dx, dy). Nil when no member has history.
func barycenter(prev *snapshot.Snapshot, members []string, dx, dy float64) *snapshot.Position {
	if prev == nil {
		return nil
	}
	sumX, sumY := 0.0, 0.0
	count := 0
	for _, m := range members {
		if p, ok := prev.NodePositions[m]; ok {
			sumX += p.X
			sumY += p.Y
			count++
		}
	}
	if count == 0 {
		return nil
	}
	return &snapshot.Position{X: sumX/float64(count) + dx, Y: sumY/float64(count) + dy}
}

// prevPositionsFor collects the previous positions known for the given
// members. Members without history are simply absent.
func prevPositionsFor(prev *snapshot.Snapshot, members []string) map[string]snapshot.Position {
	out := make(map[string]snapshot.Position, len(members))
	if prev == nil {
		return out
	}
	for _, m := range members {
		if p, ok := prev.NodePositions[m]; ok {
			out[m] = p
		}
	}
	return out
}

// restrictNeighbors filters the frame index down to one community's
// members, keeping sorted order.
func restrictNeighbors(ix *identity.Index, members []string) map[string][]string {
	inCommunity := make(map[string]bool, len(members))
	for _, m := range members {
		inCommunity[m] = true
	}

	out := make(map[string][]string, len(members))
	for _, m := range members {
		kept := make([]string, 0, len(ix.Neighbors[m]))
		for _, n := range ix.Neighbors[m] {
			if inCommunity[n] {
				kept = append(kept, n)
			}
		}
		out[m] = kept
	}
	return out
}
