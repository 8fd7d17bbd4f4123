package geoxml

import (
	"context"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokml "github.com/twpayne/go-kml"
	"github.com/twpayne/go-kml/icon"
)

func TestInfoWindowColors(t *testing.T) {
	opts, _ := testOptions(t, newMemFetcher(nil))
	p := newTestParser(t, opts)

	set, err := p.ParseString(context.Background(), kmlDoc(`
		<Style id="dark">
			<BalloonStyle>
				<bgColor>ff332211</bgColor>
				<textColor>ffffffff</textColor>
				<text>$[name] / $[name/displayName]</text>
			</BalloonStyle>
		</Style>
		<Placemark><name>Pier</name><styleUrl>#dark</styleUrl><Point><coordinates>1,1</coordinates></Point></Placemark>`))
	require.NoError(t, err)

	m := set.Placemarks()[0].Marker.Value.(*Marker)
	assert.Equal(t,
		`<div class="geoxml_infowindow geoxml_style_dark" style="background: #112233; color: #ffffff;">Pier / Name</div>`,
		m.Balloon)
	require.NotNil(t, m.Window)
	assert.Equal(t, infoWindowOffset, m.Window.PixelOffset)
}

func TestInfoWindowSuppressed(t *testing.T) {
	tests := []struct {
		name     string
		suppress bool
		body     string
	}{
		{
			name:     "option",
			suppress: true,
			body:     `<Placemark><Point><coordinates>1,1</coordinates></Point></Placemark>`,
		},
		{
			name: "balloonVisibility",
			body: `<Placemark><gx:balloonVisibility>0</gx:balloonVisibility><Point><coordinates>1,1</coordinates></Point></Placemark>`,
		},
		{
			name: "displayMode",
			body: `<Placemark><Style><BalloonStyle><displayMode>hide</displayMode></BalloonStyle></Style>` +
				`<Point><coordinates>1,1</coordinates></Point></Placemark>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, _ := testOptions(t, newMemFetcher(nil))
			opts.SuppressInfoWindows = tt.suppress
			p := newTestParser(t, opts)

			set, err := p.ParseString(context.Background(), kmlDoc(tt.body))
			require.NoError(t, err)
			m := set.Placemarks()[0].Marker.Value.(*Marker)
			assert.Empty(t, m.Balloon)
			assert.Nil(t, m.Window)
			assert.False(t, m.OpenInfoWindow(m))
		})
	}
}

func TestSingleInfoWindow(t *testing.T) {
	opts, _ := testOptions(t, newMemFetcher(nil))
	opts.SingleInfoWindow = true
	p := newTestParser(t, opts)

	set, err := p.ParseString(context.Background(), kmlDoc(`
		<Placemark><name>a</name><Point><coordinates>1,1</coordinates></Point></Placemark>
		<Placemark><name>b</name><Point><coordinates>2,2</coordinates></Point></Placemark>`))
	require.NoError(t, err)

	pms := set.Placemarks()
	a := pms[0].Marker.Value.(*Marker)
	b := pms[1].Marker.Value.(*Marker)
	require.NotNil(t, a.Window)
	assert.Same(t, a.Window, b.Window)

	require.True(t, a.OpenInfoWindow(a))
	assert.Equal(t, a.Balloon, a.Window.Content)
	require.True(t, b.OpenInfoWindow(b))
	assert.Equal(t, b.Balloon, a.Window.Content)
	assert.Equal(t, b, a.Window.Owner)

	// Removing a marker that does not own the window leaves it open.
	a.Remove()
	assert.True(t, a.Window.Open)
	b.Remove()
	assert.False(t, a.Window.Open)
}

func TestNaNPointHasNoMarker(t *testing.T) {
	opts, _ := testOptions(t, newMemFetcher(nil))
	p := newTestParser(t, opts)

	set, err := p.ParseString(context.Background(), kmlDoc(`
		<Placemark><name>bad</name><Point><coordinates>NaN,NaN</coordinates></Point></Placemark>
		<Placemark><name>good</name><Point><coordinates>1,2</coordinates></Point></Placemark>`))
	require.NoError(t, err)

	doc := set.Documents()[0]
	require.Len(t, doc.Markers, 1)
	assert.Nil(t, doc.Placemarks[0].Marker)
	assert.Equal(t, Bounds{MinLon: 1, MaxLon: 1, MinLat: 2, MaxLat: 2}, set.Bounds())
}

func TestHideShowDocument(t *testing.T) {
	opts, _ := testOptions(t, newMemFetcher(nil))
	p := newTestParser(t, opts)

	set, err := p.ParseString(context.Background(), kmlDoc(`
		<Placemark><Point><coordinates>1,1</coordinates></Point></Placemark>
		<Placemark><LineString><coordinates>0,0 1,1</coordinates></LineString></Placemark>
		<GroundOverlay>
			<color>7fffffff</color>
			<Icon><href>o.png</href></Icon>
			<LatLonBox><north>1</north><south>0</south><east>1</east><west>0</west></LatLonBox>
		</GroundOverlay>`))
	require.NoError(t, err)
	doc := set.Documents()[0]

	marker := doc.Markers[0].Value.(*Marker)
	line := doc.Polylines[0].Value.(*Polyline)
	overlay := doc.Overlayed[0].Value.(*Overlay)
	assert.InDelta(t, 127.0/256, overlay.Opacity, 1e-9)

	set.HideDocument(doc)
	assert.False(t, marker.Visible)
	assert.False(t, line.Visible)
	assert.Equal(t, 0.0, overlay.Opacity)

	set.ShowDocument(doc)
	assert.True(t, marker.Visible)
	assert.True(t, line.Visible)
	assert.InDelta(t, 127.0/256, overlay.Opacity, 1e-9)
	assert.InDelta(t, 100*127.0/256, overlay.PercentOpacity(), 1e-9)
}

func TestRewriteImagesUntouched(t *testing.T) {
	asset := func(string) (string, bool) { return "", false }
	in := `<div><img src="x.png" target=_blank></div>`
	assert.Equal(t, in, rewriteImages(in, "", asset))
	assert.Equal(t, "<p>no images</p>", rewriteImages("<p>no images</p>", "", asset))
}

func TestRewriteImagesRawSource(t *testing.T) {
	asset := func(u string) (string, bool) {
		if u == "http://cdn.example.com/a.png" {
			return "data:image/png;base64,AAAA", true
		}
		return "", false
	}
	out := rewriteImages(`<p><img src="http://cdn.example.com/a.png"></p>`, "tour.kmz/", asset)
	assert.Equal(t, `<p><img src="data:image/png;base64,AAAA"/></p>`, out)
}

func TestMarkerZIndex(t *testing.T) {
	assert.Equal(t, 0, markerZIndex(0))
	assert.Equal(t, -100000<<5, markerZIndex(1))
	assert.Equal(t, 100000<<5, markerZIndex(-1))
	assert.Greater(t, markerZIndex(10), markerZIndex(20))
}

func TestParseGeneratedDocument(t *testing.T) {
	pin := icon.PaletteHref(2, 18)
	k := gokml.KML(
		gokml.Document(
			gokml.SharedStyle("pin",
				gokml.IconStyle(
					gokml.Scale(0.5),
					gokml.Icon(gokml.Href(pin)),
				),
				gokml.LineStyle(
					gokml.Color(color.RGBA{R: 0xff, G: 0, B: 0, A: 0xff}),
					gokml.Width(2),
				),
			),
			gokml.Placemark(
				gokml.Name("Home"),
				gokml.StyleURL("#pin"),
				gokml.Point(gokml.Coordinates(gokml.Coordinate{Lon: -70.5, Lat: 41.25})),
			),
			gokml.Placemark(
				gokml.Name("Track"),
				gokml.StyleURL("#pin"),
				gokml.LineString(gokml.Coordinates(
					gokml.Coordinate{Lon: -70.5, Lat: 41.25},
					gokml.Coordinate{Lon: -70.4, Lat: 41.3},
				)),
			),
		),
	)
	var sb strings.Builder
	require.NoError(t, k.WriteIndent(&sb, "", "  "))

	f := newMemFetcher(map[string]string{"gen.kml": sb.String()})
	opts, probes := testOptions(t, f)
	p := newTestParser(t, opts)

	set, err := p.Parse(context.Background(), "gen.kml")
	require.NoError(t, err)
	pms := set.Placemarks()
	require.Len(t, pms, 2)

	m := pms[0].Marker.Value.(*Marker)
	assert.Equal(t, "Home", m.Title)
	assert.Equal(t, 41.25, m.Position.Lat)
	assert.Equal(t, -70.5, m.Position.Lng)
	assert.Equal(t, pin, m.Icon.URL)
	assert.Equal(t, &Size{W: 16, H: 16}, m.Icon.ScaledSize)
	assert.Equal(t, 1, probes.count(pin))

	line := pms[1].Polyline.Value.(*Polyline)
	assert.Equal(t, "#ff0000", line.StrokeColor)
	assert.Equal(t, 2.0, line.StrokeWeight)
	assert.Len(t, line.Paths[0], 2)
}
