package builder

import (
	"strconv"

	"github.com/lintang-b-s/compactgraph/pkg"
	"github.com/lintang-b-s/compactgraph/pkg/datastructure"
	"github.com/lintang-b-s/compactgraph/pkg/elevation"
	"github.com/lintang-b-s/compactgraph/pkg/entity"
	"github.com/lintang-b-s/compactgraph/pkg/geo"
	"github.com/lintang-b-s/compactgraph/pkg/idspace"
	"github.com/lintang-b-s/compactgraph/pkg/util"
	"go.uber.org/zap"
)

type Options struct {
	ThreeDim bool
	// SmoothElevation applies elevation smoothing before distance
	// computation. only meaningful with ThreeDim.
	SmoothElevation bool
	// LongEdgeSamplingDistance inserts elevation samples along segments
	// longer than this many meters. zero disables sampling.
	LongEdgeSamplingDistance float64
	// Simplify runs edge geometry through the simplification service after
	// distance computation.
	Simplify bool
}

func DefaultOptions() Options {
	return Options{Simplify: true}
}

// GraphBuilder reduces an entity stream to a compact routable graph in two
// passes. pass 1 (Classify*) counts point references and collects
// restriction pivots; pass 2 (Build*) places coordinates and emits edges.
// Finish seals the result and releases the classification state.
type GraphBuilder struct {
	registry *idspace.Registry
	acceptor TagAcceptor
	elev     elevation.Provider
	simplify Simplifier
	logger   *zap.Logger
	opts     Options

	// barrier flags per point id, zeroed once the barrier is handled
	nodeFlags map[int64]pkg.AccessFlags
	// route relation weighting hints per way id
	routeHints map[int64]uint32
	// external way ids referenced by restriction relations; only these get
	// an edge-id mapping, to bound memory
	restrictionWayIDs map[int64]struct{}
	turnRelations     []turnRelation
	edgesByWay        map[int64][]datastructure.Index

	edges    []datastructure.Edge
	stats    Stats
	finished bool
}

func NewGraphBuilder(acceptor TagAcceptor, elev elevation.Provider,
	logger *zap.Logger, opts Options) *GraphBuilder {
	if elev == nil {
		elev = elevation.Noop{}
	}
	b := &GraphBuilder{
		registry:          idspace.NewRegistry(opts.ThreeDim),
		acceptor:          acceptor,
		elev:              elev,
		logger:            logger,
		opts:              opts,
		nodeFlags:         make(map[int64]pkg.AccessFlags),
		routeHints:        make(map[int64]uint32),
		restrictionWayIDs: make(map[int64]struct{}),
		edgesByWay:        make(map[int64][]datastructure.Index),
		edges:             make([]datastructure.Edge, 0),
	}
	if opts.Simplify {
		b.simplify = geo.RamerDouglasPeucker
	}
	return b
}

// SetSimplifier swaps the geometry simplification service.
func (b *GraphBuilder) SetSimplifier(s Simplifier) {
	b.simplify = s
}

// Registry exposes the identifier space, mainly for tests and the
// restriction extractor.
func (b *GraphBuilder) Registry() *idspace.Registry {
	return b.registry
}

// ClassifyNode is the pass-1 entry point for points. classification needs
// no point data, so this is a no-op kept for a uniform driver loop.
func (b *GraphBuilder) ClassifyNode(n *entity.Node) {}

// ClassifyWay streams one way through the occurrence counter. endpoints are
// always tower candidates; interior points become tower candidates on their
// second reference from any way.
func (b *GraphBuilder) ClassifyWay(w *entity.Way) error {
	if len(w.NodeIDs) < 2 {
		b.stats.SkippedWays++
		return util.WrapErrorf(nil, util.ErrMalformedInput,
			"way %d has %d nodes", w.ID, len(w.NodeIDs))
	}
	if len(w.Tags) == 0 {
		b.stats.SkippedWays++
		return util.WrapErrorf(nil, util.ErrMalformedInput,
			"way %d has no tags", w.ID)
	}
	if _, ok := b.acceptor.AcceptWay(w); !ok {
		return nil
	}

	last := len(w.NodeIDs) - 1
	for i, id := range w.NodeIDs {
		if i == 0 || i == last {
			b.registry.MarkTower(id)
		} else {
			b.registry.MarkSeen(id)
		}
	}
	return nil
}

// ClassifyRelation handles route relations (weighting hints) and
// restriction relations (pivot promotion + member way bookkeeping) during
// pass 1.
func (b *GraphBuilder) ClassifyRelation(r *entity.Relation) {
	if r.Tags.Find("type") == "route" {
		for _, m := range r.Members {
			if m.Type != entity.MEMBER_WAY {
				continue
			}
			b.routeHints[m.Ref] = b.acceptor.RouteHint(r, b.routeHints[m.Ref])
		}
		return
	}

	if r.Tags.Find("type") != "restriction" {
		return
	}
	for _, tr := range parseTurnRelations(r) {
		b.restrictionWayIDs[tr.fromWayID] = struct{}{}
		b.restrictionWayIDs[tr.toWayID] = struct{}{}
		// the pivot must become a real graph node even if it sits in the
		// interior of a single way
		b.registry.MarkTower(tr.viaNodeID)
	}
}

// BuildNode is the pass-2 entry point for points: place coordinates for
// every referenced point and remember barrier flags.
func (b *GraphBuilder) BuildNode(n *entity.Node) {
	ele := n.Ele
	if b.opts.ThreeDim && ele == 0 {
		ele = b.elev.Elevation(n.Lat, n.Lon)
	}
	if !b.registry.Place(n.ID, n.Lat, n.Lon, ele) {
		b.stats.SkippedNodes++
		return
	}

	if len(n.Tags) > 0 {
		if blocked := b.acceptor.NodeFlags(n.Tags); blocked != 0 {
			b.nodeFlags[n.ID] = blocked
		}
	}
}

// BuildWay is the pass-2 entry point for ways: split the way at towers and
// barriers and emit edges.
func (b *GraphBuilder) BuildWay(w *entity.Way) error {
	if len(w.NodeIDs) < 2 || len(w.Tags) == 0 {
		return nil // already counted in pass 1
	}

	b.setEstimatedDistance(w)

	flags, ok := b.acceptor.AcceptWay(w)
	if !ok {
		return nil
	}
	hint := b.routeHints[w.ID]

	return b.processWayWithBarriers(w, flags, hint)
}

// setEstimatedDistance attaches a first-to-last great-circle estimate as an
// artificial tag, e.g. for ferry speed heuristics in the acceptor.
func (b *GraphBuilder) setEstimatedDistance(w *entity.Way) {
	firstIdx, okF := b.registry.TowerIndex(w.NodeIDs[0])
	lastIdx, okL := b.registry.TowerIndex(w.NodeIDs[len(w.NodeIDs)-1])
	if !okF || !okL {
		return
	}
	fLat, fLon, _ := b.registry.TowerCoord(firstIdx)
	lLat, lLon, _ := b.registry.TowerCoord(lastIdx)
	est := geo.CalculateHaversineDistance(fLat, fLon, lLat, lLon) * 1000.0
	w.Tags["estimated_distance"] = strconv.FormatFloat(est, 'f', 1, 64)
}

// BuildRelation is the pass-2 entry point for relations: collect turn
// restrictions for lazy resolution after the build.
func (b *GraphBuilder) BuildRelation(r *entity.Relation) {
	if r.Tags.Find("type") != "restriction" {
		return
	}
	b.turnRelations = append(b.turnRelations, parseTurnRelations(r)...)
}

// Finish seals the build: verifies invariants, resolves turn restrictions,
// releases the classification table, and returns the product graph.
func (b *GraphBuilder) Finish() (*datastructure.CompactGraph, *Stats, error) {
	if b.finished {
		return nil, nil, util.WrapErrorf(nil, util.ErrInvariant, "Finish called twice")
	}
	b.finished = true

	towerCount := b.registry.TowerCount()
	if towerCount == 0 {
		return nil, nil, util.WrapErrorf(nil, util.ErrEmptyGraph,
			"no junction nodes were produced; wrong entity source or filter")
	}

	for i := range b.edges {
		e := &b.edges[i]
		if int(e.From) >= towerCount || int(e.To) >= towerCount {
			return nil, nil, util.WrapErrorf(nil, util.ErrInvariant,
				"edge %d references unassigned tower handle %d->%d (have %d)",
				i, e.From, e.To, towerCount)
		}
	}

	if b.simplify != nil {
		b.simplifyEdgeGeometries()
	}

	restrictions := b.resolveRestrictions()

	towerLat, towerLon, towerEle := b.registry.TowerCoordinates()
	graph := datastructure.NewCompactGraph(towerLat, towerLon, towerEle,
		b.opts.ThreeDim, b.edges, restrictions)

	b.stats.TowerNodes = towerCount
	b.stats.PillarNodes = b.registry.PillarCount()
	b.stats.Edges = len(b.edges)
	b.stats.Restrictions = len(restrictions)

	// classification state is working memory, not a product artifact
	b.registry.Drop()
	b.nodeFlags = nil
	b.routeHints = nil
	b.edgesByWay = nil
	b.restrictionWayIDs = nil

	if b.logger != nil {
		b.logger.Sugar().Infof("finished building graph: %d tower nodes, %d edges, %d turn restrictions",
			b.stats.TowerNodes, b.stats.Edges, b.stats.Restrictions)
		if b.stats.ZeroDistance > 0 {
			b.logger.Sugar().Infof("clamped %d near-zero edge distances", b.stats.ZeroDistance)
		}
	}

	return graph, &b.stats, nil
}
