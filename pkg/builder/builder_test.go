package builder

import (
	"context"
	"testing"

	"github.com/lintang-b-s/compactgraph/pkg"
	"github.com/lintang-b-s/compactgraph/pkg/datastructure"
	"github.com/lintang-b-s/compactgraph/pkg/entity"
	"github.com/lintang-b-s/compactgraph/pkg/profile"
	"github.com/lintang-b-s/compactgraph/pkg/util"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testNode(id int64, lat, lon float64) *entity.Node {
	return &entity.Node{ID: id, Lat: lat, Lon: lon}
}

func testWay(id int64, tags entity.Tags, nodeIDs ...int64) *entity.Way {
	if tags == nil {
		tags = entity.Tags{"highway": "residential"}
	}
	return &entity.Way{ID: id, NodeIDs: nodeIDs, Tags: tags}
}

func buildGraph(t *testing.T, entities []entity.Entity) (*datastructure.CompactGraph, *Stats) {
	t.Helper()
	b := NewGraphBuilder(profile.NewCarProfile(), nil, zap.NewNop(), Options{})
	graph, stats, err := NewDriver(b, entity.NewSliceSource(entities), zap.NewNop()).Run(context.Background())
	require.NoError(t, err)
	return graph, stats
}

func TestSingleWayBecomesOneEdge(t *testing.T) {
	graph, stats := buildGraph(t, []entity.Entity{
		testNode(1, -6.2000, 106.8000),
		testNode(2, -6.2010, 106.8001),
		testNode(3, -6.2020, 106.8002),
		testNode(4, -6.2030, 106.8003),
		testNode(5, -6.2040, 106.8004),
		testWay(100, nil, 1, 2, 3, 4, 5),
	})

	require.Equal(t, 2, graph.NumberOfNodes())
	require.Equal(t, 1, graph.NumberOfEdges())
	require.Equal(t, 3, stats.PillarNodes)

	e := graph.Edge(0)
	require.Len(t, e.Geometry, 3, "interior points only, endpoints live in the node table")
	require.Greater(t, e.DistanceMeter, 400.0)
	require.Less(t, e.DistanceMeter, 500.0)
	require.Equal(t, int64(100), e.WayID)
}

func TestSharedPointSplitsBothWays(t *testing.T) {
	graph, stats := buildGraph(t, []entity.Entity{
		testNode(1, -6.20, 106.80),
		testNode(2, -6.21, 106.81),
		testNode(3, -6.22, 106.82),
		testNode(4, -6.23, 106.83),
		testNode(5, -6.21, 106.83),
		testNode(6, -6.21, 106.85),
		testWay(100, nil, 1, 2, 3, 4),
		testWay(200, nil, 2, 5, 6),
	})

	// 2 is shared between the ways, so both split there
	require.Equal(t, 4, graph.NumberOfNodes())
	require.Equal(t, 3, graph.NumberOfEdges())
	require.Equal(t, 2, stats.PillarNodes)

	degreeSum := 0
	for i := 0; i < graph.NumberOfNodes(); i++ {
		degreeSum += graph.Degree(datastructure.Index(i))
	}
	require.Equal(t, 6, degreeSum)
}

func TestLoopWaySplitsIntoTwoEdges(t *testing.T) {
	graph, _ := buildGraph(t, []entity.Entity{
		testNode(1, -6.20, 106.80),
		testNode(2, -6.21, 106.81),
		testNode(3, -6.22, 106.80),
		testWay(100, nil, 1, 2, 3, 1),
	})

	require.Equal(t, 2, graph.NumberOfEdges())
	for _, e := range graph.Edges() {
		require.NotEqual(t, e.From, e.To, "a loop way must never produce a self-loop edge")
	}
	// promoting the last interior point adds one junction
	require.Equal(t, 2, graph.NumberOfNodes())
}

func TestLoopWithTowerInterior(t *testing.T) {
	// the smallest splittable loop, a single interior point
	graph, _ := buildGraph(t, []entity.Entity{
		testNode(1, -6.20, 106.80),
		testNode(2, -6.21, 106.81),
		testWay(100, nil, 1, 2, 1),
	})

	require.Equal(t, 2, graph.NumberOfEdges())
	for _, e := range graph.Edges() {
		require.NotEqual(t, e.From, e.To)
	}
}

func TestDegenerateLoopIsAbandoned(t *testing.T) {
	graph, _ := buildGraph(t, []entity.Entity{
		testNode(1, -6.20, 106.80),
		testNode(2, -6.21, 106.81),
		testWay(100, nil, 1, 1),
		testWay(200, nil, 1, 2),
	})

	// the degenerate way contributes nothing, the normal way survives
	require.Equal(t, 1, graph.NumberOfEdges())
}

func TestDanglingPillarClosesEdge(t *testing.T) {
	// node 3 is referenced but never delivered
	graph, _ := buildGraph(t, []entity.Entity{
		testNode(1, -6.20, 106.80),
		testNode(2, -6.21, 106.81),
		testWay(100, nil, 1, 2, 3),
	})

	require.Equal(t, 2, graph.NumberOfNodes())
	require.Equal(t, 1, graph.NumberOfEdges())
	e := graph.Edge(0)
	require.Greater(t, e.DistanceMeter, 1000.0, "the surviving geometry must keep its length")
}

func TestBarrierInsertsRestrictedEdge(t *testing.T) {
	barrierNode := testNode(2, -6.21, 106.81)
	barrierNode.Tags = entity.Tags{"barrier": "bollard"}

	graph, stats := buildGraph(t, []entity.Entity{
		testNode(1, -6.20, 106.80),
		barrierNode,
		testNode(3, -6.22, 106.82),
		testWay(100, nil, 1, 2, 3),
	})

	// the barrier twin adds one junction and one near-zero-length edge
	require.Equal(t, 4, graph.NumberOfNodes())
	require.Equal(t, 3, graph.NumberOfEdges())
	require.Equal(t, 1, stats.ZeroDistance)

	var barrierEdges, openEdges int
	for _, e := range graph.Edges() {
		if e.DistanceMeter == pkg.MIN_EDGE_DISTANCE_METER {
			barrierEdges++
			require.False(t, e.Flags.CanForward(pkg.CAR))
			require.False(t, e.Flags.CanBackward(pkg.MOTORCYCLE))
			require.True(t, e.Flags.CanForward(pkg.FOOT), "bollards do not block pedestrians")
			require.True(t, e.Flags.CanForward(pkg.BICYCLE))
		} else {
			openEdges++
			require.True(t, e.Flags.CanForward(pkg.CAR))
		}
	}
	require.Equal(t, 1, barrierEdges)
	require.Equal(t, 2, openEdges)
}

func TestBarrierBlockingAllRemainingClasses(t *testing.T) {
	barrierNode := testNode(2, -6.21, 106.81)
	barrierNode.Tags = entity.Tags{"barrier": "bollard"}

	// motorway already excludes bicycle and foot, the bollard blocks the
	// motorized rest, leaving a fully impassable barrier edge
	graph, _ := buildGraph(t, []entity.Entity{
		testNode(1, -6.20, 106.80),
		barrierNode,
		testNode(3, -6.22, 106.82),
		testWay(100, entity.Tags{"highway": "motorway", "oneway": "yes"}, 1, 2, 3),
	})
	require.Equal(t, 3, graph.NumberOfEdges())

	var blockedEdges int
	for _, e := range graph.Edges() {
		if e.Flags == 0 {
			blockedEdges++
			require.Equal(t, pkg.MIN_EDGE_DISTANCE_METER, e.DistanceMeter)
		}
	}
	require.Equal(t, 1, blockedEdges)
}

func TestTurnRestrictionResolution(t *testing.T) {
	rel := &entity.Relation{
		ID:   500,
		Tags: entity.Tags{"type": "restriction", "restriction": "no_left_turn"},
		Members: []entity.Member{
			{Type: entity.MEMBER_WAY, Ref: 10, Role: "from"},
			{Type: entity.MEMBER_NODE, Ref: 2, Role: "via"},
			{Type: entity.MEMBER_WAY, Ref: 20, Role: "to"},
		},
	}

	graph, stats := buildGraph(t, []entity.Entity{
		testNode(1, -6.20, 106.80),
		testNode(2, -6.21, 106.81),
		testNode(3, -6.22, 106.82),
		testWay(10, nil, 1, 2),
		testWay(20, nil, 2, 3),
		rel,
	})

	require.Equal(t, 1, stats.Restrictions)
	require.Equal(t, 0, stats.SkippedRestrictions)

	tr := graph.TurnRestrictions()[0]
	require.Equal(t, pkg.NO_LEFT_TURN, tr.Kind)
	require.Equal(t, int64(10), tr.FromWayID)
	require.Equal(t, int64(20), tr.ToWayID)

	from := graph.Edge(tr.FromEdge)
	to := graph.Edge(tr.ToEdge)
	require.True(t, from.From == tr.ViaNode || from.To == tr.ViaNode)
	require.True(t, to.From == tr.ViaNode || to.To == tr.ViaNode)
}

func TestScopedRestrictionsEmitPerVehicle(t *testing.T) {
	rel := &entity.Relation{
		ID: 501,
		Tags: entity.Tags{
			"type":                "restriction",
			"restriction:hgv":     "no_right_turn",
			"restriction:bicycle": "no_right_turn",
			"except":              "bus; taxi",
		},
		Members: []entity.Member{
			{Type: entity.MEMBER_WAY, Ref: 10, Role: "from"},
			{Type: entity.MEMBER_NODE, Ref: 2, Role: "via"},
			{Type: entity.MEMBER_WAY, Ref: 20, Role: "to"},
		},
	}

	graph, _ := buildGraph(t, []entity.Entity{
		testNode(1, -6.20, 106.80),
		testNode(2, -6.21, 106.81),
		testNode(3, -6.22, 106.82),
		testWay(10, nil, 1, 2),
		testWay(20, nil, 2, 3),
		rel,
	})

	restrictions := graph.TurnRestrictions()
	require.Len(t, restrictions, 2)
	scopes := map[string]struct{}{}
	for _, tr := range restrictions {
		require.Equal(t, pkg.NO_RIGHT_TURN, tr.Kind)
		require.Equal(t, []string{"bus", "taxi"}, tr.Except)
		scopes[tr.VehicleScope] = struct{}{}
	}
	require.Contains(t, scopes, "hgv")
	require.Contains(t, scopes, "bicycle")
}

func TestUnsupportedRestrictionKindDropped(t *testing.T) {
	rel := &entity.Relation{
		ID:   502,
		Tags: entity.Tags{"type": "restriction", "restriction": "no_parking"},
		Members: []entity.Member{
			{Type: entity.MEMBER_WAY, Ref: 10, Role: "from"},
			{Type: entity.MEMBER_NODE, Ref: 2, Role: "via"},
			{Type: entity.MEMBER_WAY, Ref: 20, Role: "to"},
		},
	}
	graph, _ := buildGraph(t, []entity.Entity{
		testNode(1, -6.20, 106.80),
		testNode(2, -6.21, 106.81),
		testNode(3, -6.22, 106.82),
		testWay(10, nil, 1, 2),
		testWay(20, nil, 2, 3),
		rel,
	})
	require.Empty(t, graph.TurnRestrictions())
}

func TestUnresolvableRestrictionCounted(t *testing.T) {
	rel := &entity.Relation{
		ID:   503,
		Tags: entity.Tags{"type": "restriction", "restriction": "no_left_turn"},
		Members: []entity.Member{
			{Type: entity.MEMBER_WAY, Ref: 999, Role: "from"},
			{Type: entity.MEMBER_NODE, Ref: 2, Role: "via"},
			{Type: entity.MEMBER_WAY, Ref: 20, Role: "to"},
		},
	}
	_, stats := buildGraph(t, []entity.Entity{
		testNode(1, -6.20, 106.80),
		testNode(2, -6.21, 106.81),
		testNode(3, -6.22, 106.82),
		testWay(10, nil, 1, 2),
		testWay(20, nil, 2, 3),
		rel,
	})
	require.Equal(t, 1, stats.SkippedRestrictions)
}

func TestRejectedWaysLeaveNoTrace(t *testing.T) {
	graph, _ := buildGraph(t, []entity.Entity{
		testNode(1, -6.20, 106.80),
		testNode(2, -6.21, 106.81),
		testNode(3, -6.22, 106.82),
		testNode(4, -6.23, 106.83),
		testWay(100, nil, 1, 2),
		testWay(200, entity.Tags{"highway": "footway"}, 3, 4),
		testWay(300, entity.Tags{"waterway": "river"}, 3, 4),
	})

	require.Equal(t, 2, graph.NumberOfNodes())
	require.Equal(t, 1, graph.NumberOfEdges())
}

func TestOnewayFlags(t *testing.T) {
	graph, _ := buildGraph(t, []entity.Entity{
		testNode(1, -6.20, 106.80),
		testNode(2, -6.21, 106.81),
		testWay(100, entity.Tags{"highway": "primary", "oneway": "yes"}, 1, 2),
	})

	e := graph.Edge(0)
	require.True(t, e.Flags.CanForward(pkg.CAR))
	require.False(t, e.Flags.CanBackward(pkg.CAR))
	require.True(t, e.Flags.CanBackward(pkg.FOOT), "oneway does not bind pedestrians")
}

func TestEmptySourceFails(t *testing.T) {
	b := NewGraphBuilder(profile.NewCarProfile(), nil, zap.NewNop(), Options{})
	_, _, err := NewDriver(b, entity.NewSliceSource(nil), zap.NewNop()).Run(context.Background())
	require.Error(t, err)

	var ue *util.Error
	require.ErrorAs(t, err, &ue)
	require.Equal(t, util.ErrEmptyGraph, ue.Code())
}

// failingScanner reports a coded error on the first Scan.
type failingScanner struct{ err error }

func (s *failingScanner) Scan() bool            { return false }
func (s *failingScanner) Entity() entity.Entity { return nil }
func (s *failingScanner) Err() error            { return s.err }
func (s *failingScanner) Close() error          { return nil }

// brokenSource works for the classification pass but fails the build pass
// with the given error.
type brokenSource struct {
	inner    entity.Source
	buildErr error
	scanners int
}

func (s *brokenSource) NewScanner() (entity.Scanner, error) {
	s.scanners++
	if s.scanners > 1 {
		return &failingScanner{err: s.buildErr}, nil
	}
	return s.inner.NewScanner()
}

func TestBuildPassKeepsErrorCode(t *testing.T) {
	src := &brokenSource{
		inner: entity.NewSliceSource([]entity.Entity{
			testNode(1, -6.20, 106.80),
			testNode(2, -6.21, 106.81),
			testWay(100, nil, 1, 2),
		}),
		buildErr: util.WrapErrorf(nil, util.ErrInvariant, "scanner state corrupted"),
	}
	b := NewGraphBuilder(profile.NewCarProfile(), nil, zap.NewNop(), Options{})
	_, _, err := NewDriver(b, src, zap.NewNop()).Run(context.Background())
	require.Error(t, err)

	// the build pass wrapper must not relabel an invariant violation as
	// malformed input
	var ue *util.Error
	require.ErrorAs(t, err, &ue)
	require.Equal(t, util.ErrInvariant, ue.Code())
}

func TestFinishTwiceFails(t *testing.T) {
	b := NewGraphBuilder(profile.NewCarProfile(), nil, zap.NewNop(), Options{})
	d := NewDriver(b, entity.NewSliceSource([]entity.Entity{
		testNode(1, -6.20, 106.80),
		testNode(2, -6.21, 106.81),
		testWay(100, nil, 1, 2),
	}), zap.NewNop())
	_, _, err := d.Run(context.Background())
	require.NoError(t, err)
	_, _, err = b.Finish()
	require.Error(t, err)
}

func TestRebuildIsDeterministic(t *testing.T) {
	entities := []entity.Entity{
		testNode(1, -6.20, 106.80),
		testNode(2, -6.21, 106.81),
		testNode(3, -6.22, 106.82),
		testNode(4, -6.23, 106.83),
		testWay(100, nil, 1, 2, 3, 4),
		testWay(200, nil, 2, 4),
	}

	first, firstStats := buildGraph(t, entities)
	second, secondStats := buildGraph(t, entities)

	require.Equal(t, *firstStats, *secondStats)
	require.Equal(t, first.NumberOfNodes(), second.NumberOfNodes())
	for i := 0; i < first.NumberOfNodes(); i++ {
		idx := datastructure.Index(i)
		require.Equal(t, first.NodeCoordinate(idx), second.NodeCoordinate(idx))
	}
	for i := 0; i < first.NumberOfEdges(); i++ {
		idx := datastructure.Index(i)
		require.Equal(t, first.Edge(idx), second.Edge(idx))
	}
}
