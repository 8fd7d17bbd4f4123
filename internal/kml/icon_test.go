package kml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIcon(href string) *IconStyle {
	ic := &DefaultStyle().Icon
	ic.Href = href
	return ic
}

func TestIconFinalizeAnchor(t *testing.T) {
	tests := []struct {
		name    string
		hotSpot HotSpot
		scale   float64
		want    Pixel
	}{
		{
			name:    "fraction centre",
			hotSpot: HotSpot{X: 0.5, Y: 0.5, XUnits: UnitsFraction, YUnits: UnitsFraction},
			scale:   1,
			want:    Pixel{X: 16, Y: 16},
		},
		{
			name:    "pixels",
			hotSpot: HotSpot{X: 8, Y: 4, XUnits: UnitsPixels, YUnits: UnitsPixels},
			scale:   1,
			want:    Pixel{X: 8, Y: 28},
		},
		{
			name:    "inset pixels",
			hotSpot: HotSpot{X: 8, Y: 4, XUnits: UnitsInsetPixels, YUnits: UnitsInsetPixels},
			scale:   1,
			want:    Pixel{X: 24, Y: 4},
		},
		{
			name:    "missing units are pixels",
			hotSpot: HotSpot{X: 8, Y: 4},
			scale:   1,
			want:    Pixel{X: 8, Y: 28},
		},
		{
			name:    "fraction scaled",
			hotSpot: HotSpot{X: 0.5, Y: 0.5, XUnits: UnitsFraction, YUnits: UnitsFraction},
			scale:   2,
			want:    Pixel{X: 32, Y: 32},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ic := newIcon("marker.png")
			ic.URL = "http://example.com/marker.png"
			ic.HotSpot = tt.hotSpot
			ic.Scale = tt.scale

			require.True(t, ic.NeedsImage())
			ic.Finalize(Size{W: 32, H: 32}, true)

			require.True(t, ic.Finalized())
			assert.Equal(t, tt.want, ic.Marker.Anchor)
			assert.Equal(t, ic.URL, ic.Marker.URL)
		})
	}
}

func TestIconFinalizeSizes(t *testing.T) {
	ic := newIcon("marker.png")
	ic.Finalize(Size{W: 32, H: 32}, true)

	require.NotNil(t, ic.Marker.Size)
	assert.Equal(t, Size{W: 32, H: 32}, *ic.Marker.Size)
	assert.Nil(t, ic.Marker.ScaledSize, "no scaled size at scale 1")
	assert.Equal(t, Pixel{}, *ic.Marker.Origin)

	scaled := newIcon("marker.png")
	scaled.Scale = 1.5
	scaled.Finalize(Size{W: 64, H: 32}, true)
	require.NotNil(t, scaled.Marker.ScaledSize)
	assert.Equal(t, Size{W: 96, H: 48}, *scaled.Marker.ScaledSize)
	assert.Equal(t, Size{W: 96, H: 48}, *scaled.Marker.Size)
}

func TestIconFinalizeGuess(t *testing.T) {
	ic := newIcon("missing.png")
	ic.Finalize(Size{}, false)

	require.True(t, ic.Finalized())
	assert.True(t, ic.Dim.WHGuess)
	assert.Nil(t, ic.Marker.Size, "guessed geometry leaves the size unset")
	assert.Equal(t, Pixel{X: 16, Y: 16}, ic.Marker.Anchor)
}

func TestIconPaletteFlip(t *testing.T) {
	ic := newIcon("palette.png")
	ic.Dim = IconDim{X: 32, Y: 0, W: 32, H: 32}
	require.False(t, ic.NeedsImage(), "explicit region does not wait for the image")

	ic.Finalize(Size{W: 128, H: 128}, true)
	assert.Equal(t, 128, ic.Dim.TH)
	assert.Equal(t, Pixel{X: 32, Y: 96}, *ic.Marker.Origin)
	assert.Equal(t, Size{W: 32, H: 32}, *ic.Marker.Size)
}

func TestIconExplicitRegionUnknownImage(t *testing.T) {
	ic := newIcon("palette.png")
	ic.Dim = IconDim{X: 0, Y: 64, W: 32, H: 32}

	ic.Finalize(Size{}, false)
	assert.False(t, ic.Dim.WHGuess)
	require.NotNil(t, ic.Marker.Size)
	assert.Equal(t, Size{W: 32, H: 32}, *ic.Marker.Size)
	assert.Equal(t, Pixel{X: 0, Y: 64}, *ic.Marker.Origin)
}

func TestIconNoHref(t *testing.T) {
	ic := newIcon("")
	assert.False(t, ic.NeedsImage())
	ic.Finalize(Size{W: 32, H: 32}, true)
	assert.False(t, ic.Finalized())
}

func TestIconDeferDrainOrder(t *testing.T) {
	ic := newIcon("marker.png")

	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		ic.Defer(func() { order = append(order, i) })
	}
	assert.Equal(t, 3, ic.Pending())

	ic.Finalize(Size{W: 32, H: 32}, true)
	for _, fn := range ic.Drain() {
		fn()
	}
	assert.Equal(t, []int{1, 2, 3}, order)
	assert.Equal(t, 0, ic.Pending())
	assert.Empty(t, ic.Drain())
}

func TestIconShadow(t *testing.T) {
	tests := []struct {
		href string
		want string
	}{
		{"http://maps.google.com/mapfiles/ms/micons/red-dot.png", MarkerShadowURL},
		{"http://maps.google.com/mapfiles/ms/micons/blue.png", MarkerShadowURL},
		{"http://maps.google.com/mapfiles/kml/pushpin/ylw-pushpin.png", PushpinShadowURL},
		{"http://example.com/custom.png", ""},
	}
	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			ic := newIcon(tt.href)
			ic.Finalize(Size{W: 32, H: 32}, true)
			if tt.want == "" {
				assert.Nil(t, ic.Shadow)
				return
			}
			require.NotNil(t, ic.Shadow)
			assert.Equal(t, tt.want, ic.Shadow.URL)
			assert.Equal(t, Pixel{X: 16, Y: 32}, ic.Shadow.Anchor)
		})
	}
}
