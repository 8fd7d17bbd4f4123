package kml

import (
	"strings"

	"github.com/beevik/etree"
)

// InlineKey is the reserved style owner for styles written inside a
// placemark. Inline styles are never shared.
const InlineKey = "{inline}"

// Style map pair keys.
const (
	StyleStateNormal    = "normal"
	StyleStateHighlight = "highlight"
)

// DefaultBalloonText is the balloon template used when a style has none.
const DefaultBalloonText = "<h3>$[name]</h3>\n<div>$>[description]</div>\n<div>$[geDirections]</div>"

// BalloonStyle controls the info window of a feature.
type BalloonStyle struct {
	BgColor     string
	TextColor   string
	Text        string
	DisplayMode string
}

// LineStyle controls stroke rendering.
type LineStyle struct {
	Color     string
	ColorMode string
	Width     float64
}

// PolyStyle controls polygon fill and outline.
type PolyStyle struct {
	Color     string
	ColorMode string
	Fill      bool
	Outline   bool
}

// Style is a resolved balloon/icon/line/poly bundle.
type Style struct {
	Balloon BalloonStyle
	Icon    IconStyle
	Line    LineStyle
	Poly    PolyStyle

	// Map holds the resolved variants when this style came from a StyleMap.
	Map StyleMap
}

// StyleMap holds state-dependent style variants keyed by pair key.
type StyleMap map[string]*Style

// DefaultStyle returns a fresh copy of the KML default style.
func DefaultStyle() *Style {
	return &Style{
		Balloon: BalloonStyle{
			BgColor:     "ffffffff",
			TextColor:   "ff000000",
			Text:        DefaultBalloonText,
			DisplayMode: "default",
		},
		Icon: IconStyle{
			Scale:   1.0,
			Dim:     IconDim{X: 0, Y: 0, W: -1, H: -1},
			HotSpot: HotSpot{X: 0.5, Y: 0.5, XUnits: UnitsFraction, YUnits: UnitsFraction},
		},
		Line: LineStyle{
			Color:     DefaultColor,
			ColorMode: "normal",
			Width:     1.0,
		},
		Poly: PolyStyle{
			Color:     DefaultColor,
			ColorMode: "normal",
			Fill:      true,
			Outline:   true,
		},
	}
}

// Clone returns a deep copy of s. Continuations waiting on the icon image
// stay with s.
func (s *Style) Clone() *Style {
	if s == nil {
		return nil
	}
	c := *s
	c.Icon.Marker = s.Icon.Marker.clone()
	c.Icon.Shadow = s.Icon.Shadow.clone()
	c.Icon.pending = nil
	c.Icon.waiting = false
	c.Map = s.Map.Clone()
	return &c
}

// Clone deep-copies every variant.
func (m StyleMap) Clone() StyleMap {
	if m == nil {
		return nil
	}
	c := make(StyleMap, len(m))
	for k, v := range m {
		c[k] = v.Clone()
	}
	return c
}

// StyleTable maps (document URL, style id) to shared styles. One table
// belongs to one document set.
type StyleTable struct {
	styles map[string]map[string]*Style
	order  map[string][]string

	// Asset maps a resolved URL to the data URL of a file packaged in an
	// archive. Nil means nothing is packaged.
	Asset func(url string) (string, bool)
}

// NewStyleTable returns an empty table.
func NewStyleTable() *StyleTable {
	return &StyleTable{
		styles: make(map[string]map[string]*Style),
		order:  make(map[string][]string),
	}
}

// Lookup returns the shared style, or nil.
func (t *StyleTable) Lookup(docURL, id string) *Style {
	return t.styles[docURL][id]
}

// Styles returns the shared styles of a document in declaration order.
func (t *StyleTable) Styles(docURL string) []*Style {
	ids := t.order[docURL]
	out := make([]*Style, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.styles[docURL][id])
	}
	return out
}

// Len returns the number of shared styles owned by docURL.
func (t *StyleTable) Len(docURL string) int {
	return len(t.styles[docURL])
}

func (t *StyleTable) set(docURL, id string, s *Style) {
	doc, ok := t.styles[docURL]
	if !ok {
		doc = make(map[string]*Style)
		t.styles[docURL] = doc
	}
	if _, exists := doc[id]; !exists {
		t.order[docURL] = append(t.order[docURL], id)
	}
	doc[id] = s
}

func (t *StyleTable) slot(docURL, id string) *Style {
	if s := t.Lookup(docURL, id); s != nil {
		return s
	}
	s := DefaultStyle()
	t.set(docURL, id, s)
	return s
}

// AssetURL substitutes the packaged data URL for u when there is one.
func (t *StyleTable) AssetURL(u string) string {
	if t.Asset != nil {
		if data, ok := t.Asset(u); ok {
			return data
		}
	}
	return u
}

// ResolveStyle applies a <Style> node.
//
// For docURL == InlineKey the result starts from a fresh default style.
// Otherwise the shared (docURL, styleID) slot is created on first use and
// mutated in place, so a later <Style> with the same id only overwrites the
// sub-styles and fields it actually contains.
func (t *StyleTable) ResolveStyle(node *etree.Element, docURL, styleID, baseDir string) *Style {
	var style *Style
	if docURL == InlineKey {
		style = DefaultStyle()
	} else {
		style = t.slot(docURL, styleID)
	}

	if b := First(node, "BalloonStyle"); b != nil {
		style.Balloon.BgColor = ValueOr(First(b, "bgColor"), style.Balloon.BgColor)
		style.Balloon.TextColor = ValueOr(First(b, "textColor"), style.Balloon.TextColor)
		style.Balloon.Text = ValueOr(First(b, "text"), style.Balloon.Text)
		style.Balloon.DisplayMode = ValueOr(First(b, "displayMode"), style.Balloon.DisplayMode)
	}

	if is := First(node, "IconStyle"); is != nil {
		t.resolveIcon(node, is, &style.Icon, baseDir)
	}

	if ls := First(node, "LineStyle"); ls != nil {
		style.Line.Color = ValueOr(First(ls, "color"), style.Line.Color)
		style.Line.ColorMode = ValueOr(First(ls, "colorMode"), style.Line.ColorMode)
		style.Line.Width = Float(First(ls, "width"), style.Line.Width)
	}

	if ps := First(node, "PolyStyle"); ps != nil {
		style.Poly.Color = ValueOr(First(ps, "color"), style.Poly.Color)
		style.Poly.ColorMode = ValueOr(First(ps, "colorMode"), style.Poly.ColorMode)
		style.Poly.Outline = Bool(First(ps, "outline"), style.Poly.Outline)
		style.Poly.Fill = Bool(First(ps, "fill"), style.Poly.Fill)
	}
	return style
}

func (t *StyleTable) resolveIcon(node, is *etree.Element, icon *IconStyle, baseDir string) {
	icon.Scale = Float(First(is, "scale"), icon.Scale)

	if hs := First(is, "hotSpot"); hs != nil {
		icon.HotSpot = HotSpot{
			X:      attrFloat(hs, "x"),
			Y:      attrFloat(hs, "y"),
			XUnits: Attr(hs, "xunits"),
			YUnits: Attr(hs, "yunits"),
		}
	}

	ic := First(node, "Icon")
	if ic == nil {
		return
	}
	icon.Href = strings.TrimSpace(Value(First(ic, "href")))
	icon.URL = ""
	if icon.Href != "" {
		icon.URL = t.AssetURL(ResolveURL(baseDir, icon.Href))
	}
	icon.Dim = IconDim{
		X: Int(FirstNS(ic, ExtNamespace, "x"), icon.Dim.X),
		Y: Int(FirstNS(ic, ExtNamespace, "y"), icon.Dim.Y),
		W: Int(FirstNS(ic, ExtNamespace, "w"), icon.Dim.W),
		H: Int(FirstNS(ic, ExtNamespace, "h"), icon.Dim.H),
	}
	// A new image invalidates anything computed for the previous one.
	icon.Marker = nil
	icon.Shadow = nil
}

// ResolveStyleMap applies a <StyleMap> node and returns the canonical style
// stored under (docURL, styleID).
//
// Each pair is either an inline <Style> or a styleUrl reference; a reference
// without a document part points into docURL. The "normal" variant is
// cloned into the canonical slot, or the default style when there is none.
// The resolved variants are kept on the canonical style's Map. Highlight
// icons are left unfinalized; callers that process styles eagerly finalize
// Map[StyleStateHighlight] themselves.
func (t *StyleTable) ResolveStyleMap(node *etree.Element, docURL, styleID, baseDir string) *Style {
	m := make(StyleMap)
	for _, pair := range Descendants(node, "Pair") {
		key := strings.TrimSpace(Value(First(pair, "key")))
		if inline := First(pair, "Style"); inline != nil {
			m[key] = t.ResolveStyle(inline, InlineKey, InlineKey, baseDir)
			continue
		}
		refURL, refID := SplitStyleURL(Value(First(pair, "styleUrl")))
		base := docURL
		if refURL != "" {
			base = ResolveURL(baseDir, refURL)
		}
		if refID == "" {
			continue
		}
		if ref := t.Lookup(base, refID); ref != nil {
			m[key] = ref.Clone()
		}
	}

	var canonical *Style
	if normal, ok := m[StyleStateNormal]; ok {
		canonical = normal.Clone()
	} else {
		canonical = DefaultStyle()
	}
	canonical.Map = m
	t.set(docURL, styleID, canonical)
	return canonical
}

// SplitStyleURL splits "doc.kml#id" into its document and id parts. A value
// without "#" yields two empty strings.
func SplitStyleURL(v string) (docURL, id string) {
	v = strings.TrimSpace(v)
	i := strings.Index(v, "#")
	if i < 0 {
		return "", ""
	}
	return v[:i], v[i+1:]
}

func attrFloat(el *etree.Element, key string) float64 {
	a := el.SelectAttr(key)
	if a == nil {
		return 0
	}
	return ParseFloat(a.Value)
}
