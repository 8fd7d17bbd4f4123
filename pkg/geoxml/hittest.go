package geoxml

import (
	"github.com/beetlebugorg/geoxml/internal/kml"
)

// pointTolerance is the hit radius, in degrees, for points and lines.
const pointTolerance = 0.0001

// PlacemarksAt returns the placemarks under (lat, lon): polygons containing
// the point (holes excluded), and points or lines within a small tolerance.
func (s *DocumentSet) PlacemarksAt(lat, lon float64) []*Placemark {
	probe := Bounds{MinLon: lon, MaxLon: lon, MinLat: lat, MaxLat: lat}.Expand(pointTolerance)

	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Placemark
	for _, it := range s.index.search(probe) {
		if it.placemark == nil {
			continue
		}
		if hitPlacemark(it.placemark, lat, lon) {
			out = append(out, it.placemark)
		}
	}
	return out
}

func hitPlacemark(pm *Placemark, lat, lon float64) bool {
	for _, g := range pm.Geometry {
		switch g := g.(type) {
		case *kml.Polygon:
			for _, part := range g.Parts {
				if inPart(part, lat, lon) {
					return true
				}
			}
		case *kml.Point, *kml.LineString, *kml.Track:
			for _, p := range kml.Paths(g) {
				for _, c := range p.Coordinates {
					if abs(c.Lat-lat) <= pointTolerance && abs(c.Lng-lon) <= pointTolerance {
						return true
					}
				}
			}
		}
	}
	return false
}

// inPart reports whether the point lies inside any outer ring of part and
// outside all of its holes.
func inPart(part kml.PolygonPart, lat, lon float64) bool {
	inside := false
	for _, ring := range part.Outer {
		if pointInPolygon(lat, lon, ring.Coordinates) {
			inside = true
			break
		}
	}
	if !inside {
		return false
	}
	for _, hole := range part.Inner {
		if pointInPolygon(lat, lon, hole.Coordinates) {
			return false
		}
	}
	return true
}

// pointInPolygon checks if a point is inside a ring using the ray casting
// algorithm.
func pointInPolygon(lat, lon float64, ring []kml.Coordinate) bool {
	if len(ring) < 3 {
		return false
	}

	inside := false
	j := len(ring) - 1
	for i := 0; i < len(ring); i++ {
		piLat, piLon := ring[i].Lat, ring[i].Lng
		pjLat, pjLon := ring[j].Lat, ring[j].Lng

		if ((piLon > lon) != (pjLon > lon)) &&
			(lat < (pjLat-piLat)*(lon-piLon)/(pjLon-piLon)+piLat) {
			inside = !inside
		}
		j = i
	}
	return inside
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
