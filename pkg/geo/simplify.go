package geo

const (
	// defaultSimplifyEpsilonMeter roughly matches a waypoint max distance of
	// one meter: points closer than this to the chord carry no shape.
	defaultSimplifyEpsilonMeter = 1.0
)

// RamerDouglasPeucker simplifies edge geometry without materially changing
// its shape. first and last points are always kept, so tower endpoints
// survive untouched. callers must compute distances before simplifying.
func RamerDouglasPeucker(points []Coordinate) []Coordinate {
	return RamerDouglasPeuckerEpsilon(points, defaultSimplifyEpsilonMeter)
}

func RamerDouglasPeuckerEpsilon(points []Coordinate, epsilonMeter float64) []Coordinate {
	if len(points) < 3 {
		return points
	}

	maxDist := 0.0
	maxIdx := 0
	first := points[0]
	last := points[len(points)-1]
	for i := 1; i < len(points)-1; i++ {
		d := PointLinePerpendicularDistance(first, last, points[i])
		if d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}

	if maxDist <= epsilonMeter {
		return []Coordinate{first, last}
	}

	left := RamerDouglasPeuckerEpsilon(points[:maxIdx+1], epsilonMeter)
	right := RamerDouglasPeuckerEpsilon(points[maxIdx:], epsilonMeter)
	return append(left[:len(left)-1], right...)
}
