package builder

import "github.com/lintang-b-s/compactgraph/pkg"

// turnRelation is a restriction parsed from a relation, still keyed by
// external ids. via resolution happens after the build pass because the via
// point may only be promoted during barrier handling.
type turnRelation struct {
	fromWayID    int64
	viaNodeID    int64
	toWayID      int64
	kind         pkg.RestrictionKind
	vehicleScope string
	except       []string
}

// Stats are the counters surfaced when the build finishes. skipped and
// clamped inputs are absorbed here instead of failing the run.
type Stats struct {
	TowerNodes          int
	PillarNodes         int
	Edges               int
	Restrictions        int
	SkippedWays         int
	SkippedNodes        int
	ZeroDistance        int
	NaNDistance         int
	OversizeDistance    int
	SkippedRestrictions int
}
