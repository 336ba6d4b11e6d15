package datastructure

import (
	"github.com/lintang-b-s/compactgraph/pkg"
)

// Edge connects two tower nodes and carries the simplified pillar geometry
// between them. Geometry holds interior points only, never the towers.
type Edge struct {
	From          Index
	To            Index
	Geometry      []Coordinate
	DistanceMeter float64
	Flags         pkg.AccessFlags
	WayID         int64
	RouteHint     uint32
}

func NewEdge(from, to Index, geometry []Coordinate, distanceMeter float64,
	flags pkg.AccessFlags, wayID int64, routeHint uint32) Edge {
	return Edge{
		From:          from,
		To:            to,
		Geometry:      geometry,
		DistanceMeter: distanceMeter,
		Flags:         flags,
		WayID:         wayID,
		RouteHint:     routeHint,
	}
}

// TurnRestriction forbids or forces travel from one edge to another through
// a single tower node. FromEdge/ToEdge are resolved internal edge ids;
// FromWayID/ToWayID keep the external references they came from.
type TurnRestriction struct {
	FromWayID    int64
	ToWayID      int64
	FromEdge     Index
	ToEdge       Index
	ViaNode      Index
	Kind         pkg.RestrictionKind
	VehicleScope string   // "" restricts every class
	Except       []string // vehicle classes exempt from the restriction
}

// CompactGraph is the product of the two-pass build: tower coordinates,
// edges with geometry, and resolved turn restrictions. pillar points only
// survive inside edge geometry.
type CompactGraph struct {
	towerLat []float64
	towerLon []float64
	towerEle []float64
	threeDim bool

	edges        []Edge
	restrictions []TurnRestriction
}

func NewCompactGraph(towerLat, towerLon, towerEle []float64, threeDim bool,
	edges []Edge, restrictions []TurnRestriction) *CompactGraph {
	return &CompactGraph{
		towerLat:     towerLat,
		towerLon:     towerLon,
		towerEle:     towerEle,
		threeDim:     threeDim,
		edges:        edges,
		restrictions: restrictions,
	}
}

func (g *CompactGraph) NumberOfNodes() int {
	return len(g.towerLat)
}

func (g *CompactGraph) NumberOfEdges() int {
	return len(g.edges)
}

func (g *CompactGraph) Is3D() bool {
	return g.threeDim
}

func (g *CompactGraph) NodeCoordinate(idx Index) Coordinate {
	return NewCoordinate(g.towerLat[idx], g.towerLon[idx])
}

func (g *CompactGraph) NodeElevation(idx Index) float64 {
	if !g.threeDim {
		return 0
	}
	return g.towerEle[idx]
}

func (g *CompactGraph) Edges() []Edge {
	return g.edges
}

func (g *CompactGraph) Edge(idx Index) Edge {
	return g.edges[idx]
}

func (g *CompactGraph) TurnRestrictions() []TurnRestriction {
	return g.restrictions
}

// Degree returns the number of edges incident to a tower node, counting
// both directions.
func (g *CompactGraph) Degree(idx Index) int {
	deg := 0
	for i := range g.edges {
		if g.edges[i].From == idx {
			deg++
		}
		if g.edges[i].To == idx {
			deg++
		}
	}
	return deg
}
