package geoxml

import "github.com/beetlebugorg/geoxml/internal/kml"

// Extracted records. These are the kml package types re-exported so that
// callers never import an internal package.
type (
	Placemark     = kml.Placemark
	GroundOverlay = kml.GroundOverlay
	NetworkLink   = kml.NetworkLink
	Style         = kml.Style
	StyleMap      = kml.StyleMap
	IconStyle     = kml.IconStyle
	MarkerImage   = kml.MarkerImage
	Handle        = kml.Handle
	Coordinate    = kml.Coordinate
	Color         = kml.Color
	Size          = kml.Size
	Pixel         = kml.Pixel
	LatLonBox     = kml.LatLonBox

	Geometry    = kml.Geometry
	Point       = kml.Point
	LineString  = kml.LineString
	Polygon     = kml.Polygon
	PolygonPart = kml.PolygonPart
	Track       = kml.Track
	Path        = kml.Path
)

// ParseColor decodes an aabbggrr KML color.
func ParseColor(code, mode string) Color {
	return kml.ParseColor(code, mode)
}
