package kml

import (
	"math"
	"regexp"
	"strings"
)

// Hotspot units.
const (
	UnitsFraction    = "fraction"
	UnitsPixels      = "pixels"
	UnitsInsetPixels = "insetPixels"
)

// guessSize is used for both sides of an icon whose image never loads.
const guessSize = 32

// HotSpot positions the icon anchor.
type HotSpot struct {
	X, Y           float64
	XUnits, YUnits string
}

// IconDim is the palette sub-region of an icon image. W and H of -1 select
// the whole image. TH is the total image height, recorded when a sub-region
// is given explicitly.
type IconDim struct {
	X, Y, W, H int
	TH         int
	HasTH      bool
	WHGuess    bool
}

// Pixel is a position in icon pixel space, y growing downwards.
type Pixel struct {
	X, Y float64
}

// Size is a width and height in pixels.
type Size struct {
	W, H float64
}

// MarkerImage is the pixel geometry handed to a marker renderer.
type MarkerImage struct {
	URL        string
	Size       *Size // nil when the 32x32 guess was used
	Origin     *Pixel
	Anchor     Pixel
	ScaledSize *Size // nil when scale is 1
}

func (m *MarkerImage) clone() *MarkerImage {
	if m == nil {
		return nil
	}
	c := *m
	if m.Size != nil {
		s := *m.Size
		c.Size = &s
	}
	if m.Origin != nil {
		o := *m.Origin
		c.Origin = &o
	}
	if m.ScaledSize != nil {
		s := *m.ScaledSize
		c.ScaledSize = &s
	}
	return &c
}

// IconStyle is the icon part of a Style.
type IconStyle struct {
	Scale   float64
	Dim     IconDim
	HotSpot HotSpot
	Href    string // as written in the document
	URL     string // resolved, possibly an archive data URL

	// Marker and Shadow are set by Finalize.
	Marker *MarkerImage
	Shadow *MarkerImage

	pending []func()
	waiting bool
}

// Finalized reports whether marker geometry has been computed.
func (ic *IconStyle) Finalized() bool {
	return ic.Marker != nil
}

// NeedsImage reports whether Finalize has to wait for the natural image
// size: the icon has an image and no explicit sub-region size.
func (ic *IconStyle) NeedsImage() bool {
	return ic.Href != "" && ic.Marker == nil && ic.Dim.W < 0 && ic.Dim.H < 0
}

// Defer queues fn until the icon image size is known.
func (ic *IconStyle) Defer(fn func()) {
	ic.pending = append(ic.pending, fn)
}

// Drain returns the queued continuations in submission order and clears
// the queue.
func (ic *IconStyle) Drain() []func() {
	p := ic.pending
	ic.pending = nil
	return p
}

// Pending returns the number of queued continuations.
func (ic *IconStyle) Pending() int {
	return len(ic.pending)
}

// Waiting reports whether an image load is outstanding for this icon.
func (ic *IconStyle) Waiting() bool {
	return ic.waiting
}

// SetWaiting records whether an image load is outstanding.
func (ic *IconStyle) SetWaiting(w bool) {
	ic.waiting = w
}

// Finalize computes the marker image from the natural image size img.
// known is false when the size will never be available; an icon without an
// explicit sub-region then falls back to a 32x32 guess.
//
// Finalize is idempotent.
func (ic *IconStyle) Finalize(img Size, known bool) {
	if ic.Href == "" {
		return
	}
	dim := &ic.Dim
	switch {
	case known:
		if dim.W < 0 || dim.H < 0 {
			dim.W, dim.H = int(img.W), int(img.H)
		} else {
			dim.TH = int(img.H)
			dim.HasTH = true
		}
	case dim.W < 0 || dim.H < 0:
		dim.WHGuess = true
		dim.W, dim.H, dim.TH = guessSize, guessSize, guessSize
		dim.HasTH = true
	}

	// Palettes count rows from the top, pixel math from the bottom.
	y := float64(dim.Y)
	if dim.HasTH && dim.TH != dim.H {
		y = math.Abs(y - float64(dim.TH-dim.H))
	}

	scale := ic.Scale
	w, h := float64(dim.W), float64(dim.H)
	imgW, imgH := w, h
	if known {
		imgW, imgH = img.W, img.H
	}
	sx := float64(dim.X) * scale
	sy := y * scale
	sw := w * scale
	sh := h * scale
	ax := ic.HotSpot.X * scale
	ay := ic.HotSpot.Y * scale

	var anchor Pixel
	switch ic.HotSpot.XUnits {
	case UnitsFraction:
		anchor.X = jsRound(ax * w)
	case UnitsInsetPixels:
		anchor.X = jsRound(w*scale - ax)
	default:
		anchor.X = jsRound(ax)
	}
	switch ic.HotSpot.YUnits {
	case UnitsFraction:
		anchor.Y = sh - jsRound(h*ay)
	case UnitsInsetPixels:
		anchor.Y = jsRound(ay)
	default:
		anchor.Y = jsRound(h*scale - ay)
	}

	m := &MarkerImage{
		URL:    ic.URL,
		Origin: &Pixel{X: jsRound(sx), Y: jsRound(sy)},
		Anchor: anchor,
	}
	if !dim.WHGuess {
		m.Size = &Size{W: jsRound(sw), H: jsRound(sh)}
	}
	if scale != 1.0 {
		if dim.WHGuess {
			m.ScaledSize = &Size{W: jsRound(sw), H: jsRound(sh)}
		} else {
			m.ScaledSize = &Size{W: jsRound(imgW * scale), H: jsRound(imgH * scale)}
		}
	}
	ic.Marker = m
	ic.Shadow = shadowFor(ic.Href)
}

var standardMarker = regexp.MustCompile(`/(red|blue|green|yellow|lightblue|purple|pink|orange)(-dot)?\.png`)

// Shadow images for the stock Google marker sets.
const (
	MarkerShadowURL  = "http://maps.google.com/mapfiles/ms/micons/msmarker.shadow.png"
	PushpinShadowURL = "http://maps.google.com/mapfiles/ms/micons/pushpin_shadow.png"
)

func shadowFor(href string) *MarkerImage {
	var url string
	switch {
	case standardMarker.MatchString(href):
		url = MarkerShadowURL
	case strings.Contains(href, "-pushpin.png"):
		url = PushpinShadowURL
	default:
		return nil
	}
	return &MarkerImage{
		URL:        url,
		Size:       &Size{W: 59, H: 32},
		Anchor:     Pixel{X: 16, Y: 32},
		ScaledSize: &Size{W: 59, H: 32},
	}
}
