package datastructure

import "github.com/lintang-b-s/compactgraph/pkg/geo"

// Index is a dense internal node or edge id. tower and pillar nodes live in
// separate Index spaces, so the same numeric value never refers to both.
type Index uint32

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (c Coordinate) GetLat() float64 {
	return c.Lat
}

func (c Coordinate) GetLon() float64 {
	return c.Lon
}

// 16 byte (128bit)

func NewCoordinate(lat, lon float64) Coordinate {
	return Coordinate{
		Lat: lat,
		Lon: lon,
	}
}

func NewGeoCoordinates(coords []Coordinate) []geo.Coordinate {
	geoCoords := make([]geo.Coordinate, len(coords))
	for i, coord := range coords {
		geoCoords[i] = geo.NewCoordinate(coord.GetLat(), coord.GetLon())
	}
	return geoCoords
}

func FromGeoCoordinates(coords []geo.Coordinate) []Coordinate {
	out := make([]Coordinate, len(coords))
	for i, coord := range coords {
		out[i] = NewCoordinate(coord.GetLat(), coord.GetLon())
	}
	return out
}

func (c Coordinate) ToGeoCoordinate() geo.Coordinate {

	return geo.NewCoordinate(c.GetLat(), c.GetLon())
}
