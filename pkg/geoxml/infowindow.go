package geoxml

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/beetlebugorg/geoxml/internal/kml"
)

// Balloon defaults that produce no inline CSS.
const (
	defaultBalloonBg   = "ffffffff"
	defaultBalloonText = "ff000000"
	displayModeHide    = "hide"
)

// infoWindowContent renders the balloon of pm, or "" when the placemark
// suppresses it. Images packaged in an archive are pointed at their data
// URLs.
func infoWindowContent(pm *Placemark, baseDir string, asset func(string) (string, bool)) string {
	bs := pm.Style.Balloon
	if !pm.BalloonVisibility || bs.DisplayMode == displayModeHide {
		return ""
	}
	text := kml.Balloon(pm)

	var css []string
	if bs.BgColor != defaultBalloonBg {
		css = append(css, "background: "+kml.ParseColor(bs.BgColor, "").Hex+";")
	}
	if bs.TextColor != defaultBalloonText {
		css = append(css, "color: "+kml.ParseColor(bs.TextColor, "").Hex+";")
	}

	var b strings.Builder
	b.WriteString(`<div class="geoxml_infowindow geoxml_style_`)
	b.WriteString(pm.StyleID)
	b.WriteString(`"`)
	if len(css) > 0 {
		b.WriteString(` style="`)
		b.WriteString(strings.Join(css, " "))
		b.WriteString(`"`)
	}
	b.WriteString(">")
	b.WriteString(text)
	b.WriteString("</div>")
	return rewriteImages(b.String(), baseDir, asset)
}

// rewriteImages replaces <img src> values that name packaged files. The
// src is tried resolved against baseDir first, then as written. Content
// without a replacement is returned byte for byte.
func rewriteImages(content, baseDir string, asset func(string) (string, bool)) string {
	if asset == nil || !strings.Contains(content, "<img") {
		return content
	}
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(content), context)
	if err != nil {
		return content
	}

	changed := false
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Img {
			for i, a := range n.Attr {
				if a.Key != "src" {
					continue
				}
				if data, ok := asset(kml.ResolveURL(baseDir, a.Val)); ok {
					n.Attr[i].Val = data
					changed = true
				} else if data, ok := asset(a.Val); ok {
					n.Attr[i].Val = data
					changed = true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	if !changed {
		return content
	}

	var b strings.Builder
	for _, n := range nodes {
		if err := html.Render(&b, n); err != nil {
			return content
		}
	}
	return b.String()
}
