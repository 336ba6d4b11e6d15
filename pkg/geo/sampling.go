package geo

import "math"

// ElevationFunc returns the elevation in meters at a coordinate.
type ElevationFunc func(lat, lon float64) float64

// SampleLongSegments inserts extra points along segments longer than
// maxDistMeter and fills their elevation from lookup, so long edges pick up
// the terrain between their original shape points. runs before distance
// computation.
func SampleLongSegments(points []Coordinate, maxDistMeter float64, lookup ElevationFunc) []Coordinate {
	if maxDistMeter <= 0 || len(points) < 2 {
		return points
	}

	out := make([]Coordinate, 0, len(points))
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		out = append(out, prev)

		flat := CalculateHaversineDistance(prev.Lat, prev.Lon, cur.Lat, cur.Lon) * 1000.0
		n := int(flat / maxDistMeter)
		for k := 1; k <= n; k++ {
			frac := float64(k) / float64(n+1)
			lat := prev.Lat + (cur.Lat-prev.Lat)*frac
			lon := prev.Lon + (cur.Lon-prev.Lon)*frac
			ele := prev.Ele + (cur.Ele-prev.Ele)*frac
			if lookup != nil {
				ele = lookup(lat, lon)
			}
			out = append(out, NewCoordinate3D(lat, lon, ele))
		}
	}
	return append(out, points[len(points)-1])
}

const (
	smoothingWindowMeter = 150.0
)

// SmoothElevation applies a moving average over each interior point's
// elevation, weighted by along-path distance. endpoints keep their measured
// elevation. smoothing must run before distance computation, otherwise the
// 3-D distance reflects sensor noise.
func SmoothElevation(points []Coordinate) []Coordinate {
	if len(points) < 3 {
		return points
	}

	out := make([]Coordinate, len(points))
	copy(out, points)

	for i := 1; i < len(points)-1; i++ {
		sum := 0.0
		weight := 0.0
		for j := 0; j < len(points); j++ {
			d := CalculateHaversineDistance(points[i].Lat, points[i].Lon,
				points[j].Lat, points[j].Lon) * 1000.0
			if d > smoothingWindowMeter/2 {
				continue
			}
			w := 1.0 - d/(smoothingWindowMeter/2)
			sum += points[j].Ele * w
			weight += w
		}
		if weight > 0 && !math.IsNaN(sum) {
			out[i].Ele = sum / weight
		}
	}
	return out
}
