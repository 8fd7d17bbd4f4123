package kml

import (
	"github.com/twpayne/go-geom"
)

// ToGeom converts g to a go-geom geometry: *geom.Point for points,
// *geom.MultiLineString for lines and tracks, *geom.MultiPolygon for
// polygons. The layout is XYZ only when every coordinate has an altitude.
// It returns nil when g holds no coordinates.
func ToGeom(g Geometry) geom.T {
	paths := Paths(g)
	if countCoords(paths) == 0 {
		return nil
	}
	layout := layoutOf(paths)

	switch g := g.(type) {
	case *Point:
		c, _ := g.Position()
		return geom.NewPointFlat(layout, appendCoord(nil, c, layout))
	case *LineString, *Track:
		flat, ends := flatten(paths, layout)
		return geom.NewMultiLineStringFlat(layout, flat, ends)
	case *Polygon:
		var flat []float64
		var endss [][]int
		for _, part := range g.Parts {
			var ends []int
			for _, ring := range append(append([]Path{}, part.Outer...), part.Inner...) {
				for _, c := range ring.Coordinates {
					flat = appendCoord(flat, c, layout)
				}
				ends = append(ends, len(flat))
			}
			endss = append(endss, ends)
		}
		return geom.NewMultiPolygonFlat(layout, flat, endss)
	default:
		return nil
	}
}

// GeometryBounds returns the lon/lat extent of g; ok is false when g has no
// coordinates.
func GeometryBounds(g Geometry) (minLon, minLat, maxLon, maxLat float64, ok bool) {
	t := ToGeom(g)
	if t == nil {
		return 0, 0, 0, 0, false
	}
	b := t.Bounds()
	return b.Min(0), b.Min(1), b.Max(0), b.Max(1), true
}

func countCoords(paths []Path) int {
	n := 0
	for _, p := range paths {
		n += len(p.Coordinates)
	}
	return n
}

func layoutOf(paths []Path) geom.Layout {
	for _, p := range paths {
		for _, c := range p.Coordinates {
			if !c.HasAlt {
				return geom.XY
			}
		}
	}
	return geom.XYZ
}

func appendCoord(flat []float64, c Coordinate, layout geom.Layout) []float64 {
	flat = append(flat, c.Lng, c.Lat)
	if layout == geom.XYZ {
		flat = append(flat, c.Alt)
	}
	return flat
}

func flatten(paths []Path, layout geom.Layout) ([]float64, []int) {
	var flat []float64
	ends := make([]int, 0, len(paths))
	for _, p := range paths {
		for _, c := range p.Coordinates {
			flat = appendCoord(flat, c, layout)
		}
		ends = append(ends, len(flat))
	}
	return flat, ends
}
