package geoxml

import (
	"math"

	"github.com/beetlebugorg/geoxml/internal/kml"
)

// Bounds represents a geographic bounding box in WGS-84 coordinates.
//
// Coordinates are in decimal degrees. MaxLon exceeds 180 for an overlay box
// that crosses the antimeridian.
type Bounds struct {
	MinLon float64 // Western edge
	MaxLon float64 // Eastern edge
	MinLat float64 // Southern edge
	MaxLat float64 // Northern edge
}

// EmptyBounds returns bounds that contain nothing; the union with any other
// bounds yields that bounds.
func EmptyBounds() Bounds {
	return Bounds{
		MinLon: math.Inf(1),
		MaxLon: math.Inf(-1),
		MinLat: math.Inf(1),
		MaxLat: math.Inf(-1),
	}
}

// IsEmpty reports whether the bounds contain no point.
func (b Bounds) IsEmpty() bool {
	return !(b.MinLon <= b.MaxLon && b.MinLat <= b.MaxLat)
}

// Contains returns true if the point (lon, lat) is within the bounds.
func (b Bounds) Contains(lon, lat float64) bool {
	return lon >= b.MinLon && lon <= b.MaxLon &&
		lat >= b.MinLat && lat <= b.MaxLat
}

// Intersects returns true if the given bounds intersects with this bounds.
func (b Bounds) Intersects(other Bounds) bool {
	return !(other.MaxLon < b.MinLon ||
		other.MinLon > b.MaxLon ||
		other.MaxLat < b.MinLat ||
		other.MinLat > b.MaxLat)
}

// Expand returns a new Bounds expanded by the given margin in all directions.
//
// Margin is in decimal degrees.
func (b Bounds) Expand(margin float64) Bounds {
	return Bounds{
		MinLon: b.MinLon - margin,
		MaxLon: b.MaxLon + margin,
		MinLat: b.MinLat - margin,
		MaxLat: b.MaxLat + margin,
	}
}

// Union returns the smallest bounds containing b and other. Empty bounds
// are ignored.
func (b Bounds) Union(other Bounds) Bounds {
	if other.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return other
	}
	return Bounds{
		MinLon: math.Min(b.MinLon, other.MinLon),
		MaxLon: math.Max(b.MaxLon, other.MaxLon),
		MinLat: math.Min(b.MinLat, other.MinLat),
		MaxLat: math.Max(b.MaxLat, other.MaxLat),
	}
}

// Center returns the midpoint of the bounds.
func (b Bounds) Center() (lon, lat float64) {
	return (b.MinLon + b.MaxLon) / 2, (b.MinLat + b.MaxLat) / 2
}

// geometryBounds calculates the bounding box of a placemark payload.
func geometryBounds(g kml.Geometry) Bounds {
	minLon, minLat, maxLon, maxLat, ok := kml.GeometryBounds(g)
	if !ok {
		return EmptyBounds()
	}
	return Bounds{MinLon: minLon, MaxLon: maxLon, MinLat: minLat, MaxLat: maxLat}
}

// placemarkBounds is the union of every payload of pm.
func placemarkBounds(pm *Placemark) Bounds {
	b := EmptyBounds()
	for _, g := range pm.Geometry {
		b = b.Union(geometryBounds(g))
	}
	return b
}

// overlayBounds returns the LatLonBox of o, empty when an edge is NaN. A
// box crossing the antimeridian (west > east) gets MaxLon past 180.
func overlayBounds(o *GroundOverlay) Bounds {
	if !o.Box.Valid() {
		return EmptyBounds()
	}
	east := o.Box.East
	if o.Box.West > east {
		east += 360
	}
	return Bounds{MinLon: o.Box.West, MaxLon: east, MinLat: o.Box.South, MaxLat: o.Box.North}
}

// splitAntimeridian returns b as rectangles within [-180, 180] longitude.
func splitAntimeridian(b Bounds) []Bounds {
	if b.IsEmpty() || b.MaxLon <= 180 {
		return []Bounds{b}
	}
	east, west := b, b
	east.MaxLon = 180
	west.MinLon = -180
	west.MaxLon = b.MaxLon - 360
	return []Bounds{east, west}
}
