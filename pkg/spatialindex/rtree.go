package spatialindex

import (
	"math"

	"github.com/lintang-b-s/compactgraph/pkg/datastructure"
	"github.com/lintang-b-s/compactgraph/pkg/geo"
	"github.com/lintang-b-s/compactgraph/pkg/util"
	"github.com/tidwall/rtree"
	"go.uber.org/zap"
)

// Rtree indexes the junction nodes of a compact graph for nearest-junction
// snapping, e.g. to validate a build interactively or to seed a router.
type Rtree struct {
	tr *rtree.RTreeG[datastructure.Index]
}

func NewRtree() *Rtree {
	var tr rtree.RTreeG[datastructure.Index]
	return &Rtree{
		tr: &tr,
	}
}

// Build. build r-tree over every junction node, with each leaf having bounding box
// with radius boundingBoxRadius (in km)
func (rt *Rtree) Build(graph *datastructure.CompactGraph, boundingBoxRadius float64, log *zap.Logger) {
	log.Info("Building R-tree spatial index over junction nodes...")
	n := graph.NumberOfNodes()
	for i := 0; i < n; i++ {
		idx := datastructure.Index(i)
		c := graph.NodeCoordinate(idx)

		lowerLat, lowerLon := geo.GetDestinationPoint(c.Lat, c.Lon, 225, boundingBoxRadius)
		upperLat, upperLon := geo.GetDestinationPoint(c.Lat, c.Lon, 45, boundingBoxRadius)

		rt.tr.Insert([2]float64{lowerLon, lowerLat}, [2]float64{upperLon, upperLat}, idx)
	}
	log.Info("R-tree spatial index built.", zap.Int("junctions", n))
}

// SearchWithinRadius search for all junction nodes within radius (in km) from the
// query point (qLat, qLon)
func (rt *Rtree) SearchWithinRadius(qLat, qLon, radius float64) []datastructure.Index {
	lowerLat, lowerLon := geo.GetDestinationPoint(qLat, qLon, 225, radius)
	upperLat, upperLon := geo.GetDestinationPoint(qLat, qLon, 45, radius)

	results := make([]datastructure.Index, 0, 10)
	rt.tr.Search([2]float64{lowerLon, lowerLat}, [2]float64{upperLon, upperLat},
		func(min, max [2]float64, data datastructure.Index) bool {
			results = append(results, data)
			if len(results) >= 64 {
				return false
			}
			return true
		})
	return results
}

// SnapToNearestJunction returns the closest junction node to (qLat, qLon)
// within radius km.
func (rt *Rtree) SnapToNearestJunction(graph *datastructure.CompactGraph,
	qLat, qLon, radius float64) (datastructure.Index, error) {
	candidates := rt.SearchWithinRadius(qLat, qLon, radius)
	if len(candidates) == 0 {
		return 0, util.WrapErrorf(nil, util.ErrBadParamInput,
			"no junction node within %.2f km of (%f, %f)", radius, qLat, qLon)
	}

	best := candidates[0]
	bestDist := math.Inf(1)
	for _, idx := range candidates {
		c := graph.NodeCoordinate(idx)
		// candidates all sit within the snap radius, where the
		// equirectangular approximation ranks the same as haversine
		d := geo.CalculateEuclidianDistanceEquirectangularProj(qLat, qLon, c.Lat, c.Lon)
		if d < bestDist {
			bestDist = d
			best = idx
		}
	}
	return best, nil
}
