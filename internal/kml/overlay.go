package kml

import (
	"math"

	"github.com/beevik/etree"
)

// LatLonBox is the geographic extent of a ground overlay. Missing edges are
// NaN and stay NaN.
type LatLonBox struct {
	North float64
	South float64
	East  float64
	West  float64
}

// Valid reports whether every edge parsed as a number.
func (b LatLonBox) Valid() bool {
	return !math.IsNaN(b.North) && !math.IsNaN(b.South) && !math.IsNaN(b.East) && !math.IsNaN(b.West)
}

// GroundOverlay is an extracted <GroundOverlay>.
type GroundOverlay struct {
	Name        string
	Description string
	Href        string // resolved, archive data URL when packaged
	Box         LatLonBox
	Rotation    float64
	Opacity     float64

	// Handle is set by the document resolver.
	Handle *Handle
}

// ExtractGroundOverlay builds a GroundOverlay from node. Rotation is stored
// with its sign flipped: KML rotates counter-clockwise, renderers clockwise.
func ExtractGroundOverlay(node *etree.Element, baseDir string, styles *StyleTable) *GroundOverlay {
	href := ResolveURL(baseDir, Value(First(node, "href")))
	if styles != nil {
		href = styles.AssetURL(href)
	}
	nan := math.NaN()
	o := &GroundOverlay{
		Name:        Value(First(node, "name")),
		Description: Value(First(node, "description")),
		Href:        href,
		Box: LatLonBox{
			North: Float(First(node, "north"), nan),
			South: Float(First(node, "south"), nan),
			East:  Float(First(node, "east"), nan),
			West:  Float(First(node, "west"), nan),
		},
		Rotation: -Float(First(node, "rotation"), 0),
		Opacity:  1.0,
	}
	if c := First(node, "color"); c != nil {
		o.Opacity = Opacity(Value(c))
	}
	return o
}
