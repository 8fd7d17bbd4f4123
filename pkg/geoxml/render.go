package geoxml

import (
	"math"
	"strconv"

	"github.com/beetlebugorg/geoxml/internal/kml"
)

// Visibility is implemented by renderables that can be hidden and shown
// again. HideDocument and ShowDocument use it.
type Visibility interface {
	SetVisible(visible bool)
}

// Remover is implemented by renderables that can be taken off the map.
// Reloads remove the renderables of records that disappeared.
type Remover interface {
	Remove()
}

// infoWindowOffset is the pixel offset of every default info window.
var infoWindowOffset = kml.Pixel{X: 0, Y: 2}

// InfoWindow is the popup attached to a default renderable. With
// Options.SingleInfoWindow every renderable of a parser shares one.
type InfoWindow struct {
	PixelOffset kml.Pixel
	Content     string
	Open        bool
	Owner       any // renderable that opened the window last
}

// Close hides the window.
func (w *InfoWindow) Close() {
	w.Open = false
}

// Popup carries the balloon of a renderable.
type Popup struct {
	Balloon string // rendered HTML, empty when suppressed
	Window  *InfoWindow
}

// OpenInfoWindow shows the balloon in the window, replacing whatever the
// window displayed. It returns false when the renderable has no balloon.
func (p *Popup) OpenInfoWindow(owner any) bool {
	if p.Window == nil || p.Balloon == "" {
		return false
	}
	p.Window.Close()
	p.Window.Content = p.Balloon
	p.Window.Owner = owner
	p.Window.Open = true
	return true
}

func (p *Popup) closeOwned(owner any) {
	if p.Window != nil && p.Window.Owner == owner {
		p.Window.Close()
	}
}

// Marker is the default point renderable.
type Marker struct {
	Popup

	Position Coordinate
	Title    string
	ZIndex   int
	Icon     *MarkerImage // nil selects the renderer's stock marker
	Shadow   *MarkerImage
	Flat     bool
	Visible  bool
	Removed  bool
}

// SetVisible implements Visibility.
func (m *Marker) SetVisible(v bool) { m.Visible = v }

// Remove implements Remover.
func (m *Marker) Remove() {
	m.closeOwned(m)
	m.Visible = false
	m.Removed = true
}

// Polyline is the default line and track renderable.
type Polyline struct {
	Popup

	Paths         [][]Coordinate
	StrokeColor   string
	StrokeOpacity float64
	StrokeWeight  float64
	Title         string
	Visible       bool
	Bounds        Bounds
	Removed       bool
}

// Multi reports whether the line has more than one path.
func (l *Polyline) Multi() bool { return len(l.Paths) > 1 }

// SetVisible implements Visibility.
func (l *Polyline) SetVisible(v bool) { l.Visible = v }

// Remove implements Remover.
func (l *Polyline) Remove() {
	l.closeOwned(l)
	l.Visible = false
	l.Removed = true
}

// PolygonShape is the default polygon renderable. Paths lists the outer
// rings of every part followed by its holes.
type PolygonShape struct {
	Popup

	Paths         [][]Coordinate
	StrokeColor   string
	StrokeOpacity float64
	StrokeWeight  float64
	FillColor     string
	FillOpacity   float64
	Title         string
	Visible       bool
	Bounds        Bounds
	Removed       bool
}

// SetVisible implements Visibility.
func (p *PolygonShape) SetVisible(v bool) { p.Visible = v }

// Remove implements Remover.
func (p *PolygonShape) Remove() {
	p.closeOwned(p)
	p.Visible = false
	p.Removed = true
}

// Overlay is the default ground overlay renderable. Hiding drops the
// opacity to zero; showing restores the overlay's own opacity.
type Overlay struct {
	URL      string
	Name     string
	Bounds   Bounds
	Opacity  float64
	Rotation float64
	Removed  bool

	opacity float64
}

// PercentOpacity returns the current opacity scaled to 0..100.
func (o *Overlay) PercentOpacity() float64 { return o.Opacity * 100 }

// SetVisible implements Visibility.
func (o *Overlay) SetVisible(v bool) {
	if v {
		o.Opacity = o.opacity
	} else {
		o.Opacity = 0
	}
}

// Remove implements Remover.
func (o *Overlay) Remove() {
	o.Opacity = 0
	o.Removed = true
}

// renderer holds the default factories of one batch.
type renderer struct {
	set    *DocumentSet
	shared *InfoWindow // non-nil with SingleInfoWindow
}

func newRenderer(set *DocumentSet, shared *InfoWindow) *renderer {
	return &renderer{set: set, shared: shared}
}

func (r *renderer) popup(pm *Placemark, doc *Document) Popup {
	content := infoWindowContent(pm, doc.BaseDir, r.set.asset)
	if content == "" {
		return Popup{}
	}
	w := r.shared
	if w == nil {
		w = &InfoWindow{PixelOffset: infoWindowOffset}
	}
	return Popup{Balloon: content, Window: w}
}

func (r *renderer) createMarker(pm *Placemark, doc *Document) any {
	pos, ok := pm.Position()
	if !ok {
		return nil
	}
	icon := pm.Style.Icon
	return &Marker{
		Popup:    r.popup(pm, doc),
		Position: pos,
		Title:    pm.Name,
		ZIndex:   markerZIndex(pos.Lat),
		Icon:     icon.Marker,
		Shadow:   icon.Shadow,
		Flat:     icon.Shadow == nil,
		Visible:  pm.Visibility,
	}
}

// markerZIndex stacks southern markers above northern ones.
func markerZIndex(lat float64) int {
	return int(math.Floor(lat*-100000+0.5)) << 5
}

func (r *renderer) createLine(pm *Placemark, doc *Document) any {
	var paths [][]Coordinate
	bounds := EmptyBounds()
	if ls, ok := pm.LineString(); ok {
		for _, p := range ls.Paths {
			paths = append(paths, p.Coordinates)
		}
		bounds = bounds.Union(geometryBounds(ls))
	}
	if tr, ok := pm.Track(); ok {
		for _, t := range tr.Tracks {
			paths = append(paths, t.Coordinates)
		}
		bounds = bounds.Union(geometryBounds(tr))
	}
	if len(paths) == 0 {
		return nil
	}
	stroke := kml.ParseColor(pm.Style.Line.Color, pm.Style.Line.ColorMode)
	return &Polyline{
		Popup:         r.popup(pm, doc),
		Paths:         paths,
		StrokeColor:   stroke.Hex,
		StrokeOpacity: stroke.Opacity,
		StrokeWeight:  pm.Style.Line.Width,
		Title:         pm.Name,
		Visible:       pm.Visibility,
		Bounds:        bounds,
	}
}

func (r *renderer) createPolygon(pm *Placemark, doc *Document) any {
	poly, ok := pm.PolygonGeometry()
	if !ok {
		return nil
	}
	var paths [][]Coordinate
	for _, part := range poly.Parts {
		for _, p := range part.Outer {
			paths = append(paths, p.Coordinates)
		}
		for _, p := range part.Inner {
			paths = append(paths, p.Coordinates)
		}
	}
	st := pm.Style
	stroke := kml.ParseColor(st.Line.Color, st.Line.ColorMode)
	fill := kml.ParseColor(st.Poly.Color, st.Poly.ColorMode)
	shape := &PolygonShape{
		Popup:         r.popup(pm, doc),
		Paths:         paths,
		StrokeColor:   stroke.Hex,
		StrokeOpacity: stroke.Opacity,
		StrokeWeight:  st.Line.Width,
		FillColor:     fill.Hex,
		FillOpacity:   fill.Opacity,
		Title:         pm.Name,
		Visible:       pm.Visibility,
		Bounds:        geometryBounds(poly),
	}
	if !st.Poly.Fill {
		shape.FillOpacity = 0
	}
	if !st.Poly.Outline {
		shape.StrokeWeight = 0
		shape.StrokeOpacity = 0
	}
	return shape
}

func (r *renderer) createOverlay(o *GroundOverlay, _ *Document) any {
	return &Overlay{
		URL:      o.Href,
		Name:     o.Name,
		Bounds:   overlayBounds(o),
		Opacity:  o.Opacity,
		Rotation: o.Rotation,
		opacity:  o.Opacity,
	}
}

// positionKey identifies an id-less marker across reloads.
func positionKey(c Coordinate) string {
	return strconv.FormatFloat(c.Lat, 'g', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'g', -1, 64)
}

// overlayKey identifies a ground overlay across reloads.
func overlayKey(o *GroundOverlay) string {
	b := o.Box
	return strconv.FormatFloat(b.North, 'g', -1, 64) + "," +
		strconv.FormatFloat(b.South, 'g', -1, 64) + "," +
		strconv.FormatFloat(b.East, 'g', -1, 64) + "," +
		strconv.FormatFloat(b.West, 'g', -1, 64) + "|" + o.Href
}

func removeHandle(h *Handle) {
	if r, ok := h.Value.(Remover); ok {
		r.Remove()
	}
}

// HideDocument hides every renderable of doc that implements Visibility.
func (s *DocumentSet) HideDocument(doc *Document) {
	s.setVisible(doc, false)
}

// ShowDocument shows every renderable of doc that implements Visibility.
func (s *DocumentSet) ShowDocument(doc *Document) {
	s.setVisible(doc, true)
}

func (s *DocumentSet) setVisible(doc *Document, v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, list := range [][]*Handle{doc.Markers, doc.Polylines, doc.Polygons, doc.Overlayed} {
		for _, h := range list {
			if vis, ok := h.Value.(Visibility); ok {
				vis.SetVisible(v)
			}
		}
	}
}
