package utils

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// PathCoordinate is one {lat, lng} vertex of a waypoint path as stored
// in the JSONB column.
type PathCoordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ParsePathCoordinates decodes and validates a waypoint path's
// coordinate list. A drivable path needs at least two vertices.
func ParsePathCoordinates(raw []byte) ([]PathCoordinate, error) {
	var coords []PathCoordinate
	if err := json.Unmarshal(raw, &coords); err != nil {
		return nil, fmt.Errorf("invalid coordinates JSON: %w", err)
	}
	if len(coords) < 2 {
		return nil, errors.New("path must have at least 2 coordinates")
	}
	for i, c := range coords {
		if err := validateCoordinate(c); err != nil {
			return nil, fmt.Errorf("invalid coordinate at index %d: %w", i, err)
		}
	}
	return coords, nil
}

func validateCoordinate(c PathCoordinate) error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", c.Lat)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", c.Lng)
	}
	return nil
}

// PathLengthMeters returns the haversine length of the path.
func PathLengthMeters(coords []PathCoordinate) float64 {
	ls := make(orb.LineString, len(coords))
	for i, c := range coords {
		ls[i] = orb.Point{c.Lng, c.Lat}
	}
	return geo.Length(ls)
}

// PathBound returns the min/max corners of the path's bounding box as
// {lat, lng} pairs for map fitting.
func PathBound(coords []PathCoordinate) (min, max PathCoordinate) {
	ls := make(orb.LineString, len(coords))
	for i, c := range coords {
		ls[i] = orb.Point{c.Lng, c.Lat}
	}
	b := ls.Bound()
	return PathCoordinate{Lat: b.Min[1], Lng: b.Min[0]}, PathCoordinate{Lat: b.Max[1], Lng: b.Max[0]}
}
