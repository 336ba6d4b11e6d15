package builder

import (
	"runtime"

	"github.com/lintang-b-s/compactgraph/pkg/concurrent"
	"github.com/lintang-b-s/compactgraph/pkg/datastructure"
	"github.com/lintang-b-s/compactgraph/pkg/geo"
)

type simplifiedGeometry struct {
	edge     int
	geometry []datastructure.Coordinate
}

// simplifyEdgeGeometries rewrites every edge's interior geometry through the
// simplification service. edges are independent, so the work fans out over a
// worker pool. distances are untouched, they were computed from the full
// geometry when the edge was closed.
func (b *GraphBuilder) simplifyEdgeGeometries() {
	jobs := make([]int, 0, len(b.edges))
	for i := range b.edges {
		if len(b.edges[i].Geometry) > 0 {
			jobs = append(jobs, i)
		}
	}
	if len(jobs) == 0 {
		return
	}

	pool := concurrent.NewWorkerPool[int, simplifiedGeometry](runtime.NumCPU(), len(jobs))
	pool.Start(func(i int) simplifiedGeometry {
		e := &b.edges[i]
		path := make([]geo.Coordinate, 0, len(e.Geometry)+2)
		path = append(path, b.towerGeoCoord(e.From))
		path = append(path, datastructure.NewGeoCoordinates(e.Geometry)...)
		path = append(path, b.towerGeoCoord(e.To))

		pts := b.simplify(path)
		var interior []datastructure.Coordinate
		if len(pts) > 2 {
			interior = datastructure.FromGeoCoordinates(pts[1 : len(pts)-1])
		}
		return simplifiedGeometry{edge: i, geometry: interior}
	})
	for _, j := range jobs {
		pool.AddJob(j)
	}
	pool.Close()
	pool.Wait()

	for res := range pool.CollectResults() {
		b.edges[res.edge].Geometry = res.geometry
	}
}

func (b *GraphBuilder) towerGeoCoord(idx datastructure.Index) geo.Coordinate {
	lat, lon, ele := b.registry.TowerCoord(idx)
	return geo.NewCoordinate3D(lat, lon, ele)
}
