package kml

import (
	"fmt"
	"math"
)

// ErrInvalidCoordinate indicates coordinate out of valid bounds
type ErrInvalidCoordinate struct {
	Lat, Lon float64
}

func (e *ErrInvalidCoordinate) Error() string {
	return fmt.Sprintf("invalid coordinate: lat=%f lon=%f (lat must be ±90, lon must be ±180)",
		e.Lat, e.Lon)
}

// ErrMalformedTuple indicates a coordinate tuple whose longitude or latitude
// is not a number.
type ErrMalformedTuple struct {
	Tuple string
}

func (e *ErrMalformedTuple) Error() string {
	return fmt.Sprintf("malformed coordinate tuple %q", e.Tuple)
}

// ValidateCoordinate validates a single coordinate pair. NaN is never a
// valid position.
func ValidateCoordinate(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return &ErrInvalidCoordinate{Lat: lat, Lon: lon}
	}
	if lat < -90.0 || lat > 90.0 {
		return &ErrInvalidCoordinate{Lat: lat, Lon: lon}
	}
	if lon < -180.0 || lon > 180.0 {
		return &ErrInvalidCoordinate{Lat: lat, Lon: lon}
	}
	return nil
}
