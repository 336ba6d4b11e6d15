package idspace

import (
	"math"

	"github.com/lintang-b-s/compactgraph/pkg/datastructure"
	"github.com/lintang-b-s/compactgraph/pkg/util"
)

// State is the classification of one external point id. promotion only ever
// moves rightwards: UNSEEN -> PILLAR_CANDIDATE -> TOWER_CANDIDATE and
// PILLAR -> TOWER, never back.
type State uint8

const (
	UNSEEN State = iota
	PILLAR_CANDIDATE
	TOWER_CANDIDATE
	PILLAR
	TOWER
)

func (s State) String() string {
	switch s {
	case PILLAR_CANDIDATE:
		return "pillar_candidate"
	case TOWER_CANDIDATE:
		return "tower_candidate"
	case PILLAR:
		return "pillar"
	case TOWER:
		return "tower"
	default:
		return "unseen"
	}
}

// invalidCoord marks a pillar slot whose coordinates migrated to the tower
// table. reading it again is a programming error.
const invalidCoord = math.MaxFloat64

// Registry owns the external-id -> {state, dense index} mapping and both
// coordinate tables. pass 1 drives the candidate states, pass 2 assigns
// pillar/tower indexes and coordinates. after the build the candidate
// machinery is released via Drop while the tower table lives on in the
// produced graph.
type Registry struct {
	table *arenaTable
	state []State
	index []int32

	towerLat []float64
	towerLon []float64
	towerEle []float64

	pillarLat []float64
	pillarLon []float64
	pillarEle []float64

	threeDim      bool
	nextSynthetic int64
}

func NewRegistry(threeDim bool) *Registry {
	return &Registry{
		table:         newArenaTable(1 << 10),
		state:         make([]State, 0),
		index:         make([]int32, 0),
		threeDim:      threeDim,
		nextSynthetic: math.MinInt64 + 1,
	}
}

func (r *Registry) slotOf(id int64) int32 {
	return r.table.lookup(id)
}

func (r *Registry) newSlot(id int64, s State) int32 {
	slot := int32(len(r.state))
	r.table.insert(id, slot)
	r.state = append(r.state, s)
	r.index = append(r.index, -1)
	return slot
}

// MarkSeen records one way referencing id: unseen ids become pillar
// candidates, a second reference promotes to tower candidate. tower
// candidates stay put.
func (r *Registry) MarkSeen(id int64) {
	slot := r.slotOf(id)
	if slot < 0 {
		r.newSlot(id, PILLAR_CANDIDATE)
		return
	}
	if r.state[slot] == PILLAR_CANDIDATE {
		r.state[slot] = TOWER_CANDIDATE
	}
}

// MarkTower forces id to tower candidate regardless of occurrence count.
// used for way endpoints, restriction pivots, and barrier points.
func (r *Registry) MarkTower(id int64) {
	slot := r.slotOf(id)
	if slot < 0 {
		r.newSlot(id, TOWER_CANDIDATE)
		return
	}
	if r.state[slot] == PILLAR_CANDIDATE {
		r.state[slot] = TOWER_CANDIDATE
	}
}

func (r *Registry) StateOf(id int64) State {
	slot := r.slotOf(id)
	if slot < 0 {
		return UNSEEN
	}
	return r.state[slot]
}

// Place stores the coordinates of id according to its pass-1 classification.
// unreferenced points report false and are dropped.
func (r *Registry) Place(id int64, lat, lon, ele float64) bool {
	slot := r.slotOf(id)
	if slot < 0 {
		return false
	}
	switch r.state[slot] {
	case PILLAR_CANDIDATE:
		r.index[slot] = int32(len(r.pillarLat))
		r.pillarLat = append(r.pillarLat, lat)
		r.pillarLon = append(r.pillarLon, lon)
		if r.threeDim {
			r.pillarEle = append(r.pillarEle, ele)
		}
		r.state[slot] = PILLAR
	case TOWER_CANDIDATE:
		r.index[slot] = int32(len(r.towerLat))
		r.towerLat = append(r.towerLat, lat)
		r.towerLon = append(r.towerLon, lon)
		if r.threeDim {
			r.towerEle = append(r.towerEle, ele)
		}
		r.state[slot] = TOWER
	default:
		// already placed, e.g. a node duplicated in the source
	}
	return true
}

// RegisterPillar inserts a synthetic point (barrier twin) directly as a
// placed pillar during pass 2.
func (r *Registry) RegisterPillar(id int64, lat, lon, ele float64) {
	slot := r.slotOf(id)
	if slot < 0 {
		slot = r.newSlot(id, PILLAR_CANDIDATE)
	}
	r.index[slot] = int32(len(r.pillarLat))
	r.pillarLat = append(r.pillarLat, lat)
	r.pillarLon = append(r.pillarLon, lon)
	if r.threeDim {
		r.pillarEle = append(r.pillarEle, ele)
	}
	r.state[slot] = PILLAR
}

// TowerIndex resolves id to its tower handle once pass 2 placed it.
func (r *Registry) TowerIndex(id int64) (datastructure.Index, bool) {
	slot := r.slotOf(id)
	if slot < 0 || r.state[slot] != TOWER {
		return 0, false
	}
	return datastructure.Index(r.index[slot]), true
}

// PillarIndex resolves id to its pillar handle once pass 2 placed it.
func (r *Registry) PillarIndex(id int64) (datastructure.Index, error) {
	slot := r.slotOf(id)
	if slot < 0 || r.state[slot] != PILLAR {
		return 0, util.WrapErrorf(nil, util.ErrInvariant,
			"point id %d is not a placed pillar", id)
	}
	return datastructure.Index(r.index[slot]), nil
}

func (r *Registry) TowerCoord(idx datastructure.Index) (lat, lon, ele float64) {
	lat = r.towerLat[idx]
	lon = r.towerLon[idx]
	if r.threeDim {
		ele = r.towerEle[idx]
	}
	return
}

// PillarCoord reads the coordinates of a placed pillar. reading a migrated
// slot is an invariant violation, not a data problem.
func (r *Registry) PillarCoord(idx datastructure.Index) (lat, lon, ele float64, err error) {
	lat = r.pillarLat[idx]
	lon = r.pillarLon[idx]
	if lat == invalidCoord || lon == invalidCoord {
		return 0, 0, 0, util.WrapErrorf(nil, util.ErrInvariant,
			"pillar %d was already migrated to a tower node", idx)
	}
	if r.threeDim {
		ele = r.pillarEle[idx]
	}
	return
}

// Promote migrates a placed pillar into the tower table and invalidates its
// pillar slot. promoting an id that is already a tower returns the existing
// handle.
func (r *Registry) Promote(id int64) (datastructure.Index, error) {
	slot := r.slotOf(id)
	if slot < 0 {
		return 0, util.WrapErrorf(nil, util.ErrInvariant,
			"promote of unknown point id %d", id)
	}
	switch r.state[slot] {
	case TOWER:
		return datastructure.Index(r.index[slot]), nil
	case PILLAR:
		pIdx := r.index[slot]
		lat, lon, ele, err := r.PillarCoord(datastructure.Index(pIdx))
		if err != nil {
			return 0, err
		}
		tIdx := int32(len(r.towerLat))
		r.towerLat = append(r.towerLat, lat)
		r.towerLon = append(r.towerLon, lon)
		if r.threeDim {
			r.towerEle = append(r.towerEle, ele)
		}
		r.pillarLat[pIdx] = invalidCoord
		r.pillarLon[pIdx] = invalidCoord
		r.index[slot] = tIdx
		r.state[slot] = TOWER
		return datastructure.Index(tIdx), nil
	default:
		return 0, util.WrapErrorf(nil, util.ErrInvariant,
			"promote of point id %d in state %s", id, r.state[slot])
	}
}

// NewSyntheticID allocates a point id from the reserved negative range,
// disjoint from every real external id.
func (r *Registry) NewSyntheticID() int64 {
	id := r.nextSynthetic
	r.nextSynthetic++
	return id
}

func (r *Registry) TowerCount() int {
	return len(r.towerLat)
}

func (r *Registry) PillarCount() int {
	return len(r.pillarLat)
}

func (r *Registry) Len() int {
	return r.table.len()
}

// TowerCoordinates hands the tower coordinate tables to the produced graph.
func (r *Registry) TowerCoordinates() (lat, lon, ele []float64) {
	return r.towerLat, r.towerLon, r.towerEle
}

// Drop releases the classification table and pillar storage. the registry
// must not be used afterwards; only previously extracted tower tables stay
// valid.
func (r *Registry) Drop() {
	r.table = nil
	r.state = nil
	r.index = nil
	r.pillarLat = nil
	r.pillarLon = nil
	r.pillarEle = nil
}
