package builder

import (
	"strings"

	"github.com/lintang-b-s/compactgraph/pkg"
	"github.com/lintang-b-s/compactgraph/pkg/datastructure"
	"github.com/lintang-b-s/compactgraph/pkg/entity"
	"golang.org/x/exp/slices"
)

// parseTurnRelations extracts every turn restriction a relation carries. a
// plain "restriction" tag yields one unscoped relation; "restriction:<veh>"
// tags yield one scoped relation each. unsupported restriction kinds and
// relations missing a from/via/to member are dropped here.
func parseTurnRelations(r *entity.Relation) []turnRelation {
	var except []string
	if ex := r.Tags.Find("except"); ex != "" {
		for _, part := range strings.Split(ex, ";") {
			if v := strings.TrimSpace(part); v != "" {
				except = append(except, v)
			}
		}
	}

	out := make([]turnRelation, 0, 1)
	if val := r.Tags.Find("restriction"); val != "" {
		if tr, ok := newTurnRelation(r, val, "", except); ok {
			out = append(out, tr)
		}
		return out
	}

	// map iteration order would make scoped restriction order differ
	// between otherwise identical builds
	keys := r.Tags.KeysWithPrefix("restriction:")
	slices.Sort(keys)
	for _, key := range keys {
		scope := strings.TrimSpace(strings.TrimPrefix(key, "restriction:"))
		if tr, ok := newTurnRelation(r, r.Tags.Find(key), scope, except); ok {
			out = append(out, tr)
		}
	}
	return out
}

func newTurnRelation(r *entity.Relation, kindStr, scope string, except []string) (turnRelation, bool) {
	kind := pkg.ParseRestrictionKind(kindStr)
	if kind == pkg.UNSUPPORTED_RESTRICTION {
		return turnRelation{}, false
	}

	from, via, to := int64(-1), int64(-1), int64(-1)
	for _, m := range r.Members {
		switch {
		case m.Type == entity.MEMBER_WAY && m.Role == "from":
			from = m.Ref
		case m.Type == entity.MEMBER_WAY && m.Role == "to":
			to = m.Ref
		case m.Type == entity.MEMBER_NODE && m.Role == "via":
			via = m.Ref
		}
	}
	if from < 0 || via < 0 || to < 0 {
		// polyline pivots are not supported, only point pivots
		return turnRelation{}, false
	}

	return turnRelation{
		fromWayID:    from,
		viaNodeID:    via,
		toWayID:      to,
		kind:         kind,
		vehicleScope: scope,
		except:       except,
	}, true
}

// resolveRestrictions binds the collected turn relations to edge handles.
// resolution is deferred until every edge exists because the pivot may only
// get its tower handle late, e.g. through barrier splitting. relations
// whose pivot or member ways did not survive the build are counted and
// dropped.
func (b *GraphBuilder) resolveRestrictions() []datastructure.TurnRestriction {
	out := make([]datastructure.TurnRestriction, 0, len(b.turnRelations))
	for _, tr := range b.turnRelations {
		viaIdx, ok := b.registry.TowerIndex(tr.viaNodeID)
		if !ok {
			b.stats.SkippedRestrictions++
			continue
		}
		fromEdge, okFrom := b.findIncidentEdge(tr.fromWayID, viaIdx)
		toEdge, okTo := b.findIncidentEdge(tr.toWayID, viaIdx)
		if !okFrom || !okTo {
			b.stats.SkippedRestrictions++
			continue
		}
		out = append(out, datastructure.TurnRestriction{
			FromWayID:    tr.fromWayID,
			ToWayID:      tr.toWayID,
			FromEdge:     fromEdge,
			ToEdge:       toEdge,
			ViaNode:      viaIdx,
			Kind:         tr.kind,
			VehicleScope: tr.vehicleScope,
			Except:       tr.except,
		})
	}
	return out
}

// findIncidentEdge searches the way's edges for one touching the pivot.
func (b *GraphBuilder) findIncidentEdge(wayID int64, via datastructure.Index) (datastructure.Index, bool) {
	for _, eid := range b.edgesByWay[wayID] {
		e := b.edges[eid]
		if e.From == via || e.To == via {
			return eid, true
		}
	}
	return 0, false
}
