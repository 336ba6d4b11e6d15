package elevation

// Provider looks up terrain elevation for a coordinate. the graph builder
// treats it as a pure function; implementations own caching and file access.
type Provider interface {
	Elevation(lat, lon float64) float64
}

// Noop reports zero elevation everywhere. used when the build runs in 2-D.
type Noop struct{}

func (Noop) Elevation(lat, lon float64) float64 { return 0 }
