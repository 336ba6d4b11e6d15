package builder

import (
	"math"

	"github.com/lintang-b-s/compactgraph/pkg"
	"github.com/lintang-b-s/compactgraph/pkg/datastructure"
	"github.com/lintang-b-s/compactgraph/pkg/entity"
	"github.com/lintang-b-s/compactgraph/pkg/geo"
	"github.com/lintang-b-s/compactgraph/pkg/idspace"
	"github.com/lintang-b-s/compactgraph/pkg/util"
)

// isOnePassable reports whether the way is passable for at least one of the
// classes blocked at a barrier. a barrier on a way no blocked class could
// use anyway changes nothing.
func isOnePassable(blocked, wayFlags pkg.AccessFlags) bool {
	return blocked&wayFlags != 0
}

// processWayWithBarriers scans the way for barrier points first. every
// barrier splits the way: the fragment up to the barrier keeps the way's
// access flags and ends at a synthetic twin of the barrier point, and a
// near-zero-length edge between twin and original carries the flags with
// the blocked directions cleared. this pins the restriction to a single
// point instead of the whole way.
func (b *GraphBuilder) processWayWithBarriers(w *entity.Way, flags pkg.AccessFlags, hint uint32) error {
	ids := make([]int64, len(w.NodeIDs))
	copy(ids, w.NodeIDs)

	lastBarrier := -1
	for i, id := range ids {
		blocked, isBarrier := b.nodeFlags[id]
		if !isBarrier || !isOnePassable(blocked, flags) {
			continue
		}
		// zero the flags so another way through the same point does not
		// split again
		delete(b.nodeFlags, id)

		twinID, err := b.insertBarrierTwin(id)
		if err != nil {
			// barrier point missing from the source, nothing to split
			continue
		}
		barrierFlags := flags &^ blocked

		if i > 0 {
			if lastBarrier < 0 {
				lastBarrier = 0
			}
			part := make([]int64, i-lastBarrier+1)
			copy(part, ids[lastBarrier:i+1])
			part[len(part)-1] = twinID
			if err := b.addWaySegment(part, flags, w.ID, hint); err != nil {
				return err
			}
			if err := b.addWaySegment([]int64{twinID, id}, barrierFlags, w.ID, hint); err != nil {
				return err
			}
		} else {
			if err := b.addWaySegment([]int64{id, twinID}, barrierFlags, w.ID, hint); err != nil {
				return err
			}
			ids[0] = twinID
		}
		lastBarrier = i
	}

	if lastBarrier >= 0 {
		if lastBarrier < len(ids)-1 {
			return b.addWaySegment(ids[lastBarrier:], flags, w.ID, hint)
		}
		return nil
	}
	return b.addWaySegment(ids, flags, w.ID, hint)
}

// insertBarrierTwin creates a synthetic point with the barrier's
// coordinates, registered as a pillar. the segment walk promotes it to a
// tower because it always ends a fragment.
func (b *GraphBuilder) insertBarrierTwin(originalID int64) (int64, error) {
	var lat, lon, ele float64
	switch b.registry.StateOf(originalID) {
	case idspace.TOWER:
		idx, _ := b.registry.TowerIndex(originalID)
		lat, lon, ele = b.registry.TowerCoord(idx)
	case idspace.PILLAR:
		idx, err := b.registry.PillarIndex(originalID)
		if err != nil {
			return 0, err
		}
		lat, lon, ele, err = b.registry.PillarCoord(idx)
		if err != nil {
			return 0, err
		}
	default:
		return 0, util.WrapErrorf(nil, util.ErrMalformedInput,
			"barrier point %d has no coordinates", originalID)
	}

	twinID := b.registry.NewSyntheticID()
	b.registry.RegisterPillar(twinID, lat, lon, ele)
	return twinID, nil
}

// addWaySegment walks one barrier-free fragment left to right, accumulating
// pillar coordinates into a pending buffer and closing an edge whenever a
// tower is reached.
func (b *GraphBuilder) addWaySegment(ids []int64, flags pkg.AccessFlags, wayID int64, hint uint32) error {
	var (
		pending      []geo.Coordinate
		firstIdx     datastructure.Index
		haveFirst    bool
		lastPillarID int64
		havePillar   bool
	)

	lastIdx := len(ids) - 1
	for i, id := range ids {
		st := b.registry.StateOf(id)
		if st == idspace.UNSEEN || st == idspace.PILLAR_CANDIDATE || st == idspace.TOWER_CANDIDATE {
			// the way references a point the source never delivered
			continue
		}

		if st == idspace.PILLAR {
			if i == 0 || i == lastIdx {
				// end-standing pillar becomes a tower (synthetic barrier
				// twins arrive here)
				if _, err := b.registry.Promote(id); err != nil {
					return err
				}
				st = idspace.TOWER
			} else {
				pIdx, err := b.registry.PillarIndex(id)
				if err != nil {
					return err
				}
				lat, lon, ele, err := b.registry.PillarCoord(pIdx)
				if err != nil {
					return err
				}
				pending = append(pending, geo.NewCoordinate3D(lat, lon, ele))
				lastPillarID = id
				havePillar = true
				continue
			}
		}

		idx, ok := b.registry.TowerIndex(id)
		if !ok {
			return util.WrapErrorf(nil, util.ErrInvariant,
				"point %d classified tower but has no handle", id)
		}

		if haveFirst && idx == firstIdx {
			// the edge would start and end at the same node. split it by
			// promoting the point before the close, so routing can still
			// enter and leave the loop anywhere.
			if !havePillar {
				if b.logger != nil {
					b.logger.Sugar().Warnf("degenerate loop without interior points in way %d, skipping remainder", wayID)
				}
				return nil
			}
			newEnd, err := b.registry.Promote(lastPillarID)
			if err != nil {
				return err
			}
			b.closeEdge(firstIdx, newEnd, pending, flags, wayID, hint)
			tail := pending[len(pending)-1]
			pending = []geo.Coordinate{tail}
			firstIdx = newEnd
			havePillar = false
		}

		lat, lon, ele := b.registry.TowerCoord(idx)
		if !haveFirst {
			// pillars collected before the first tower have no start
			// junction and are dropped
			pending = pending[:0]
		}
		pending = append(pending, geo.NewCoordinate3D(lat, lon, ele))
		if haveFirst {
			b.closeEdge(firstIdx, idx, pending, flags, wayID, hint)
			pending = []geo.Coordinate{geo.NewCoordinate3D(lat, lon, ele)}
		}
		firstIdx = idx
		haveFirst = true
		havePillar = false
	}

	// dangling pillar: the fragment ended without a closing tower, e.g. the
	// final point never arrived. promote the last pillar and close there
	// rather than dropping the trailing geometry.
	if haveFirst && havePillar && len(pending) > 1 {
		newEnd, err := b.registry.Promote(lastPillarID)
		if err != nil {
			return err
		}
		b.closeEdge(firstIdx, newEnd, pending, flags, wayID, hint)
	}
	return nil
}

// closeEdge finalizes one pending edge: optional smoothing and sampling,
// then distance with degeneracy clamps. geometry simplification happens in
// a bulk pass at the end of the build.
func (b *GraphBuilder) closeEdge(from, to datastructure.Index, path []geo.Coordinate,
	flags pkg.AccessFlags, wayID int64, hint uint32) {
	if from == to {
		if b.logger != nil {
			b.logger.Sugar().Warnf("refusing self-loop edge at tower %d, way %d", from, wayID)
		}
		return
	}

	pts := path
	if b.opts.ThreeDim && b.opts.SmoothElevation {
		pts = geo.SmoothElevation(pts)
	}
	if b.opts.ThreeDim && b.opts.LongEdgeSamplingDistance > 0 {
		pts = geo.SampleLongSegments(pts, b.opts.LongEdgeSamplingDistance, b.elev.Elevation)
	}

	dist := geo.PathDistanceMeter(pts, b.opts.ThreeDim)
	switch {
	case math.IsNaN(dist):
		if b.logger != nil {
			b.logger.Sugar().Warnf("illegal edge distance NaN reset to 1m, way %d", wayID)
		}
		b.stats.NaNDistance++
		dist = 1.0
	case math.IsInf(dist, 0) || dist > pkg.MAX_EDGE_DISTANCE_METER:
		if b.logger != nil {
			b.logger.Sugar().Warnf("too big edge distance %f clamped, way %d", dist, wayID)
		}
		b.stats.OversizeDistance++
		dist = pkg.MAX_EDGE_DISTANCE_METER
	case dist < pkg.MIN_EDGE_DISTANCE_METER:
		// two towers in nearly identical coordinates; keep a positive
		// length so the edge stays distinct from barrier edges
		b.stats.ZeroDistance++
		dist = pkg.MIN_EDGE_DISTANCE_METER
	}

	// simplification runs as a bulk pass when the build finishes, so the
	// distance above always reflects the full geometry
	var interior []datastructure.Coordinate
	if len(pts) > 2 {
		interior = datastructure.FromGeoCoordinates(pts[1 : len(pts)-1])
	}

	edgeID := datastructure.Index(len(b.edges))
	b.edges = append(b.edges, datastructure.NewEdge(from, to, interior, dist, flags, wayID, hint))
	if _, ok := b.restrictionWayIDs[wayID]; ok {
		b.edgesByWay[wayID] = append(b.edgesByWay[wayID], edgeID)
	}
}
