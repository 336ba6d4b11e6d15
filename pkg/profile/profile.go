package profile

import (
	"github.com/lintang-b-s/compactgraph/pkg"
	"github.com/lintang-b-s/compactgraph/pkg/entity"
)

// https://wiki.openstreetmap.org/wiki/OSM_tags_for_routing/Telenav
var acceptedHighway = map[string]struct{}{
	"motorway":         {},
	"motorway_link":    {},
	"trunk":            {},
	"trunk_link":       {},
	"primary":          {},
	"primary_link":     {},
	"secondary":        {},
	"secondary_link":   {},
	"residential":      {},
	"residential_link": {},
	"service":          {},
	"tertiary":         {},
	"tertiary_link":    {},
	"road":             {},
	"track":            {},
	"unclassified":     {},
	"undefined":        {},
	"unknown":          {},
	"living_street":    {},
	"private":          {},
	"motorroad":        {},
}

//https://wiki.openstreetmap.org/wiki/Key:barrier
// a barrier node with access != "no" does not block anything, for example
// gates that are only closed outside business hours.

var acceptedBarrierType = map[string]struct{}{
	"bollard":        {},
	"swing_gate":     {},
	"jersey_barrier": {},
	"lift_gate":      {},
	"block":          {},
	"gate":           {},
}

// motorizedOnlyBarrier blocks motor vehicles but lets foot and bicycle
// through even without an access tag.
var motorizedOnlyBarrier = map[string]struct{}{
	"bollard": {},
	"block":   {},
}

// Car is the shipped routing profile. the graph builder only sees the
// TagAcceptor interface; swap this out for other vehicle mixes.
type Car struct{}

func NewCarProfile() *Car {
	return &Car{}
}

func isRestricted(value string) bool {
	if value == "no" || value == "restricted" {
		return true
	}
	return false
}

func reversedOneWay(tags entity.Tags) (vf, mvf, vb, mvb bool) {
	return isRestricted(tags.Find("vehicle:forward")),
		isRestricted(tags.Find("motor_vehicle:forward")),
		isRestricted(tags.Find("vehicle:backward")),
		isRestricted(tags.Find("motor_vehicle:backward"))
}

// AcceptWay decides whether a way is routable and with which directional
// access per vehicle class. a zero flag word means the way is skipped.
func (c *Car) AcceptWay(way *entity.Way) (pkg.AccessFlags, bool) {
	highway := way.Tags.Find("highway")
	junction := way.Tags.Find("junction")

	if highway != "" {
		if _, ok := acceptedHighway[highway]; !ok {
			return 0, false
		}
	} else if junction == "" {
		return 0, false
	}

	flags := pkg.AllAccess()

	switch highway {
	case "motorway", "motorway_link", "motorroad":
		flags = flags.ClearClass(pkg.BICYCLE).ClearClass(pkg.FOOT)
	case "trunk", "trunk_link":
		flags = flags.ClearClass(pkg.FOOT)
	}

	okvf, okmvf, okvb, okmvb := reversedOneWay(way.Tags)
	oneway := way.Tags.Find("oneway")
	isOneWay := oneway == "yes" || oneway == "-1" || okvf || okmvf || okvb || okmvb
	if junction == "roundabout" || junction == "circular" {
		isOneWay = true
	}

	if isOneWay {
		reversed := oneway == "-1" || okvf || okmvf
		for _, cls := range []pkg.VehicleClass{pkg.CAR, pkg.MOTORCYCLE, pkg.BICYCLE} {
			if reversed {
				flags = flags.ClearForward(cls)
			} else {
				flags = flags.ClearBackward(cls)
			}
		}
	}

	if flags == 0 {
		return 0, false
	}
	return flags, true
}

// NodeFlags inspects a point's tags for access restrictions and returns the
// classes blocked at that point. zero means the point is not a barrier.
func (c *Car) NodeFlags(tags entity.Tags) pkg.AccessFlags {
	barrierType := tags.Find("barrier")
	if barrierType == "" {
		return 0
	}
	if _, ok := acceptedBarrierType[barrierType]; !ok {
		return 0
	}

	accessType := tags.Find("access")
	if accessType == "no" {
		var blocked pkg.AccessFlags
		for _, cls := range []pkg.VehicleClass{pkg.CAR, pkg.MOTORCYCLE, pkg.BICYCLE} {
			blocked = blocked.SetForward(cls).SetBackward(cls)
		}
		return blocked
	}

	if _, ok := motorizedOnlyBarrier[barrierType]; ok {
		var blocked pkg.AccessFlags
		for _, cls := range []pkg.VehicleClass{pkg.CAR, pkg.MOTORCYCLE} {
			blocked = blocked.SetForward(cls).SetBackward(cls)
		}
		return blocked
	}
	return 0
}

// route relation weighting hints, larger is preferred
const (
	hintNone     uint32 = 0
	hintLocal    uint32 = 1
	hintRegional uint32 = 2
	hintNational uint32 = 3
)

// RouteHint folds a route relation's network tag into the hint word of its
// member ways, keeping the strongest hint seen so far.
func (c *Car) RouteHint(rel *entity.Relation, old uint32) uint32 {
	var hint uint32
	switch rel.Tags.Find("network") {
	case "lcn", "lwn":
		hint = hintLocal
	case "rcn", "rwn":
		hint = hintRegional
	case "ncn", "nwn", "e-road":
		hint = hintNational
	default:
		hint = hintLocal
	}
	if hint > old {
		return hint
	}
	return old
}
