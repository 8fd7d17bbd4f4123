package kml

import (
	"time"

	"github.com/beevik/etree"
)

// GeometryKind tags the variants of Geometry.
type GeometryKind int

const (
	// KindPoint is a single position.
	KindPoint GeometryKind = iota

	// KindLineString is one or more paths.
	KindLineString

	// KindPolygon is one or more polygon parts.
	KindPolygon

	// KindTrack is one or more gx:Track sequences.
	KindTrack
)

// String returns the KML element name of the kind.
func (k GeometryKind) String() string {
	switch k {
	case KindPoint:
		return "Point"
	case KindLineString:
		return "LineString"
	case KindPolygon:
		return "Polygon"
	case KindTrack:
		return "Track"
	default:
		return "Unknown"
	}
}

// Geometry is the payload of a placemark. The concrete type is one of
// *Point, *LineString, *Polygon or *Track.
type Geometry interface {
	Kind() GeometryKind
	isGeometry()
}

// Path is an ordered coordinate list.
type Path struct {
	Coordinates []Coordinate
}

// Point is a single position. Coordinates keeps everything the first
// <Point> held; Position reads the first entry.
type Point struct {
	Coordinates []Coordinate
}

// Position returns the point location, false when no valid coordinate was
// parsed.
func (p *Point) Position() (Coordinate, bool) {
	if len(p.Coordinates) == 0 {
		return Coordinate{}, false
	}
	return p.Coordinates[0], true
}

// LineString holds every <LineString> of a placemark, one path each.
type LineString struct {
	Paths []Path
}

// PolygonPart is one <Polygon>: outer boundary paths plus holes.
type PolygonPart struct {
	Outer []Path
	Inner []Path
}

// Polygon holds every <Polygon> of a placemark as a separate part.
type Polygon struct {
	Parts []PolygonPart
}

// TrackPath is one gx:Track. When is parallel to Coordinates when the track
// carries timestamps; it may be shorter if some were missing.
type TrackPath struct {
	Coordinates []Coordinate
	When        []time.Time
}

// Track holds every gx:Track of a placemark.
type Track struct {
	Tracks []TrackPath
}

func (*Point) Kind() GeometryKind      { return KindPoint }
func (*LineString) Kind() GeometryKind { return KindLineString }
func (*Polygon) Kind() GeometryKind    { return KindPolygon }
func (*Track) Kind() GeometryKind      { return KindTrack }

func (*Point) isGeometry()      {}
func (*LineString) isGeometry() {}
func (*Polygon) isGeometry()    {}
func (*Track) isGeometry()      {}

// ExtractGeometry walks a placemark subtree and returns its geometry, at
// most one value per kind, in the order Point, LineString, Polygon, Track.
//
// Geometry is found through <coordinates> elements and dispatched on their
// parent: Point, LineString or LinearRing. MultiGeometry needs no special
// case; every sibling geometry lands in the matching accumulator.
func ExtractGeometry(placemark *etree.Element) []Geometry {
	var (
		point   *Point
		line    *LineString
		polygon *Polygon
	)
	for _, c := range Descendants(placemark, "coordinates") {
		parent := c.Parent()
		if parent == nil {
			continue
		}
		switch parent.Tag {
		case "Point":
			if point == nil {
				paths := containerPaths(placemark, "Point")
				point = &Point{}
				if len(paths) > 0 {
					point.Coordinates = paths[0].Coordinates
				}
			}
		case "LinearRing":
			if polygon == nil {
				polygon = extractPolygons(placemark)
			}
		case "LineString":
			if line == nil {
				line = &LineString{Paths: containerPaths(placemark, "LineString")}
			}
		}
	}

	var out []Geometry
	if point != nil {
		out = append(out, point)
	}
	if line != nil {
		out = append(out, line)
	}
	if polygon != nil {
		out = append(out, polygon)
	}
	if track := extractTracks(placemark); track != nil {
		out = append(out, track)
	}
	return out
}

// containerPaths returns one path per <coordinates> below each tag
// element. A container without coordinates yields an empty path.
func containerPaths(node *etree.Element, tag string) []Path {
	var paths []Path
	for _, container := range Descendants(node, tag) {
		coordNodes := Descendants(container, "coordinates")
		if len(coordNodes) == 0 {
			paths = append(paths, Path{Coordinates: []Coordinate{}})
			continue
		}
		for _, cn := range coordNodes {
			paths = append(paths, Path{Coordinates: ParseCoordinates(Value(cn))})
		}
	}
	return paths
}

func extractPolygons(placemark *etree.Element) *Polygon {
	nodes := Descendants(placemark, "Polygon")
	p := &Polygon{Parts: make([]PolygonPart, 0, len(nodes))}
	for _, n := range nodes {
		p.Parts = append(p.Parts, PolygonPart{
			Outer: containerPaths(n, "outerBoundaryIs"),
			Inner: containerPaths(n, "innerBoundaryIs"),
		})
	}
	return p
}

func extractTracks(placemark *etree.Element) *Track {
	nodes := DescendantsNS(placemark, ExtNamespace, "Track")
	if len(nodes) == 0 {
		return nil
	}
	t := &Track{Tracks: make([]TrackPath, 0, len(nodes))}
	for _, n := range nodes {
		var tp TrackPath
		whens := Descendants(n, "when")
		for i, cn := range DescendantsNS(n, ExtNamespace, "coord") {
			c, err := ParseTrackCoord(Value(cn))
			if err != nil {
				continue
			}
			tp.Coordinates = append(tp.Coordinates, c)
			if i < len(whens) {
				tp.When = append(tp.When, ParseTime(Value(whens[i])))
			}
		}
		t.Tracks = append(t.Tracks, tp)
	}
	return t
}

// Paths returns every coordinate path of g: the single point, each line,
// each polygon ring (outer rings before holes) or each track.
func Paths(g Geometry) []Path {
	switch g := g.(type) {
	case *Point:
		return []Path{{Coordinates: g.Coordinates}}
	case *LineString:
		return g.Paths
	case *Polygon:
		var out []Path
		for _, part := range g.Parts {
			out = append(out, part.Outer...)
			out = append(out, part.Inner...)
		}
		return out
	case *Track:
		out := make([]Path, 0, len(g.Tracks))
		for _, t := range g.Tracks {
			out = append(out, Path{Coordinates: t.Coordinates})
		}
		return out
	default:
		return nil
	}
}
