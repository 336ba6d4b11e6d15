package geo

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestCalculateHaversineDistance(t *testing.T) {
	testCases := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		wantKM                 float64
		tolKM                  float64
	}{
		{
			name: "monas to bundaran HI",
			lat1: -6.1754, lon1: 106.8272,
			lat2: -6.1950, lon2: 106.8229,
			wantKM: 2.23, tolKM: 0.05,
		},
		{
			name: "same point",
			lat1: -6.2, lon1: 106.8,
			lat2: -6.2, lon2: 106.8,
			wantKM: 0, tolKM: 1e-9,
		},
		{
			name: "one degree of latitude",
			lat1: 0, lon1: 0,
			lat2: 1, lon2: 0,
			wantKM: 111.19, tolKM: 0.2,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateHaversineDistance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if !almostEqual(got, tt.wantKM, tt.tolKM) {
				t.Errorf("got %f km, want %f +- %f", got, tt.wantKM, tt.tolKM)
			}
		})
	}
}

func TestEquirectangularTracksHaversineAtShortRange(t *testing.T) {
	// within a few km the projection error is far below a meter, which is
	// why nearest-junction ranking can use the cheaper formula
	lat1, lon1 := -6.1754, 106.8272
	lat2, lon2 := -6.1950, 106.8229

	hav := CalculateHaversineDistance(lat1, lon1, lat2, lon2)
	equi := CalculateEuclidianDistanceEquirectangularProj(lat1, lon1, lat2, lon2)
	if !almostEqual(hav, equi, 0.001) {
		t.Errorf("equirectangular %f km drifted from haversine %f km", equi, hav)
	}
}

func TestPathDistanceFoldsElevation(t *testing.T) {
	a := NewCoordinate3D(0, 0, 0)
	b := NewCoordinate3D(0, 0.001, 200)

	flat := PathDistanceMeter([]Coordinate{a, b}, false)
	threeD := PathDistanceMeter([]Coordinate{a, b}, true)

	if threeD <= flat {
		t.Fatalf("3d distance %f must exceed flat distance %f", threeD, flat)
	}
	want := math.Sqrt(flat*flat + 200*200)
	if !almostEqual(threeD, want, 0.5) {
		t.Errorf("3d distance = %f, want %f", threeD, want)
	}
}

func TestRamerDouglasPeucker(t *testing.T) {
	t.Run("collinear points collapse to endpoints", func(t *testing.T) {
		points := []Coordinate{
			NewCoordinate(0, 0),
			NewCoordinate(0, 0.001),
			NewCoordinate(0, 0.002),
			NewCoordinate(0, 0.003),
		}
		got := RamerDouglasPeucker(points)
		if len(got) != 2 {
			t.Fatalf("got %d points, want 2", len(got))
		}
		if got[0] != points[0] || got[1] != points[3] {
			t.Error("endpoints must survive simplification")
		}
	})

	t.Run("shape points survive", func(t *testing.T) {
		points := []Coordinate{
			NewCoordinate(0, 0),
			NewCoordinate(0.001, 0.001), // ~111m off the chord
			NewCoordinate(0, 0.002),
		}
		got := RamerDouglasPeucker(points)
		if len(got) != 3 {
			t.Fatalf("got %d points, want 3", len(got))
		}
	})

	t.Run("short input untouched", func(t *testing.T) {
		points := []Coordinate{NewCoordinate(0, 0), NewCoordinate(1, 1)}
		if got := RamerDouglasPeucker(points); len(got) != 2 {
			t.Fatalf("got %d points, want 2", len(got))
		}
	})
}

func TestGetDestinationPoint(t *testing.T) {
	lat, lon := GetDestinationPoint(0, 0, 90, 111.19)
	if !almostEqual(lat, 0, 0.01) || !almostEqual(lon, 1.0, 0.01) {
		t.Errorf("heading east one degree: got (%f, %f)", lat, lon)
	}

	lat, lon = GetDestinationPoint(0, 179.9, 90, 111.19)
	if lon > 180 || lon < -180 {
		t.Errorf("longitude %f not normalized", lon)
	}
}

func TestSampleLongSegments(t *testing.T) {
	a := NewCoordinate3D(0, 0, 10)
	b := NewCoordinate3D(0, 0.01, 20) // ~1.1 km

	got := SampleLongSegments([]Coordinate{a, b}, 200, nil)
	if len(got) < 5 {
		t.Fatalf("expected interpolated points on a 1.1km segment, got %d", len(got))
	}
	if got[0] != a || got[len(got)-1] != b {
		t.Error("original endpoints must survive sampling")
	}
	for i := 1; i < len(got); i++ {
		if got[i].Ele < got[i-1].Ele {
			t.Error("interpolated elevation must be monotonic on a monotonic segment")
		}
	}
}

func TestSmoothElevationKeepsEndpoints(t *testing.T) {
	points := []Coordinate{
		NewCoordinate3D(0, 0, 100),
		NewCoordinate3D(0, 0.0003, 150), // spike
		NewCoordinate3D(0, 0.0006, 102),
	}
	got := SmoothElevation(points)

	if got[0].Ele != 100 || got[2].Ele != 102 {
		t.Error("endpoint elevation must not change")
	}
	if got[1].Ele >= 150 {
		t.Errorf("spike must be dampened, got %f", got[1].Ele)
	}
}
