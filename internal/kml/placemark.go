package kml

import (
	"regexp"
	"strings"

	"github.com/beevik/etree"
)

// Handle is the bookkeeping wrapper around a renderable object created for
// a placemark or overlay. Value is whatever the factory returned. Key
// identifies an id-less record across reloads: its position for markers,
// bounds and href for overlays.
type Handle struct {
	Value  any
	Active bool
	ID     string
	Key    string
}

// Vars is the balloon substitution table: display labels and values keyed
// by variable name.
type Vars struct {
	Display map[string]string
	Val     map[string]string
}

// Placemark is an extracted <Placemark>.
type Placemark struct {
	ID          string
	Name        string
	Description string

	StyleURL     string // "doc#id" as written, "" when absent
	StyleBaseURL string // resolved document owning the style
	StyleID      string

	Visibility        bool
	BalloonVisibility bool

	Style    *Style
	Vars     Vars
	Geometry []Geometry

	// Renderable handles, set by the document resolver.
	Marker   *Handle
	Polyline *Handle
	Polygon  *Handle
}

// Point returns the point payload, if any.
func (pm *Placemark) Point() (*Point, bool) {
	g, ok := pm.geometry(KindPoint).(*Point)
	return g, ok
}

// LineString returns the line payload, if any.
func (pm *Placemark) LineString() (*LineString, bool) {
	g, ok := pm.geometry(KindLineString).(*LineString)
	return g, ok
}

// PolygonGeometry returns the polygon payload, if any.
func (pm *Placemark) PolygonGeometry() (*Polygon, bool) {
	g, ok := pm.geometry(KindPolygon).(*Polygon)
	return g, ok
}

// Track returns the track payload, if any.
func (pm *Placemark) Track() (*Track, bool) {
	g, ok := pm.geometry(KindTrack).(*Track)
	return g, ok
}

// Position returns the point location of the placemark.
func (pm *Placemark) Position() (Coordinate, bool) {
	p, ok := pm.Point()
	if !ok {
		return Coordinate{}, false
	}
	return p.Position()
}

func (pm *Placemark) geometry(k GeometryKind) Geometry {
	for _, g := range pm.Geometry {
		if g.Kind() == k {
			return g
		}
	}
	return nil
}

// PlacemarkContext carries the document state a placemark is resolved in.
type PlacemarkContext struct {
	DocURL              string
	BaseDir             string
	Styles              *StyleTable
	SuppressInfoWindows bool
}

var httpURL = regexp.MustCompile(`^https?://`)

// DefaultDisplayLabels are the balloon labels of the built-in variables.
var DefaultDisplayLabels = map[string]string{
	"name":         "Name",
	"description":  "Description",
	"address":      "Street Address",
	"id":           "ID",
	"Snippet":      "Snippet",
	"geDirections": "Directions",
}

// ExtractPlacemark builds a Placemark from node. The style is the shared
// style named by styleUrl, or a fresh default when the reference does not
// resolve; an inline <Style> replaces either.
func ExtractPlacemark(node *etree.Element, ctx PlacemarkContext) *Placemark {
	refURL, refID := SplitStyleURL(Value(First(node, "styleUrl")))
	pm := &Placemark{
		ID:                Attr(node, "id"),
		Name:              Value(First(node, "name")),
		Description:       Value(First(node, "description")),
		StyleID:           refID,
		StyleBaseURL:      ctx.DocURL,
		Visibility:        Bool(First(node, "visibility"), true),
		BalloonVisibility: Bool(FirstNS(node, ExtNamespace, "balloonVisibility"), !ctx.SuppressInfoWindows),
	}
	if refURL != "" || refID != "" {
		pm.StyleURL = refURL + "#" + refID
	}
	if refURL != "" {
		pm.StyleBaseURL = ResolveURL(ctx.BaseDir, refURL)
	}

	if shared := ctx.Styles.Lookup(pm.StyleBaseURL, pm.StyleID); shared != nil {
		pm.Style = shared
	} else {
		pm.Style = DefaultStyle()
	}
	if inline := First(node, "Style"); inline != nil {
		pm.Style = ctx.Styles.ResolveStyle(inline, InlineKey, InlineKey, ctx.BaseDir)
	}

	if httpURL.MatchString(pm.Description) {
		pm.Description = `<a href="` + pm.Description + `">` + pm.Description + `</a>`
	}

	pm.Vars = Vars{
		Display: make(map[string]string, len(DefaultDisplayLabels)),
		Val: map[string]string{
			"name":        pm.Name,
			"description": pm.Description,
			"address":     Value(First(node, "address")),
			"id":          pm.ID,
			"Snippet":     Value(First(node, "Snippet")),
		},
	}
	for k, v := range DefaultDisplayLabels {
		pm.Vars.Display[k] = v
	}
	if ext := First(node, "ExtendedData"); ext != nil {
		for _, d := range Descendants(ext, "Data") {
			name := Attr(d, "name")
			if name == "" {
				continue
			}
			pm.Vars.Val[name] = Value(First(d, "value"))
			pm.Vars.Display[name] = ValueOr(First(d, "displayName"), name)
		}
	}

	pm.Geometry = ExtractGeometry(node)
	return pm
}

// TrimmedName returns the placemark name without surrounding whitespace.
func (pm *Placemark) TrimmedName() string {
	return strings.TrimSpace(pm.Name)
}
