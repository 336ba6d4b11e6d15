package builder

import (
	"github.com/lintang-b-s/compactgraph/pkg"
	"github.com/lintang-b-s/compactgraph/pkg/entity"
	"github.com/lintang-b-s/compactgraph/pkg/geo"
)

// TagAcceptor encapsulates routing-profile logic. the builder never
// interprets tags itself; it only asks which ways are routable, with which
// directional access, and which points block travel.
type TagAcceptor interface {
	// AcceptWay reports whether the way is routable and returns its
	// directional access flags.
	AcceptWay(way *entity.Way) (pkg.AccessFlags, bool)
	// NodeFlags returns the vehicle classes blocked at a tagged point.
	// zero means the point is not a barrier.
	NodeFlags(tags entity.Tags) pkg.AccessFlags
	// RouteHint merges a route relation into the hint word of its members.
	RouteHint(rel *entity.Relation, old uint32) uint32
}

// Simplifier reduces edge geometry without materially changing its shape.
// it runs after distance computation, so reported lengths reflect the
// original geometry.
type Simplifier func(points []geo.Coordinate) []geo.Coordinate
