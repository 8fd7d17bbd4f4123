package kml

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		code    string
		hex     string
		opacity float64
	}{
		{"7fff0000", "#0000ff", 127.0 / 256},
		{"ff00ff00", "#00ff00", 255.0 / 256},
		{"", "#ffffff", 255.0 / 256},
		{"00112233", "#332211", 0},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			c := ParseColor(tt.code, "normal")
			assert.Equal(t, tt.hex, c.Hex)
			assert.InDelta(t, tt.opacity, c.Opacity, 1e-9)
		})
	}
}

func TestParseColorRandom(t *testing.T) {
	orig := randomFloat
	t.Cleanup(func() { randomFloat = orig })
	randomFloat = func() float64 { return 0.5 }

	// The red channel bounds all three: 0.5 * 0xff rounds up to 0x80.
	c := ParseColor("ff0000ff", ColorModeRandom)
	assert.Equal(t, "#808080", c.Hex)

	c = ParseColor("ff000000", ColorModeRandom)
	assert.Equal(t, "#000000", c.Hex)
}

func TestOpacity(t *testing.T) {
	assert.InDelta(t, 0.496, Opacity("7fff0000"), 0.001)
	assert.Equal(t, 1.0, Opacity("fff"))
	assert.Equal(t, 1.0, Opacity(""))
	assert.True(t, math.IsNaN(Opacity("zzffffff")))
}

func TestJSRound(t *testing.T) {
	assert.Equal(t, 3.0, jsRound(2.5))
	assert.Equal(t, -2.0, jsRound(-2.5))
	assert.Equal(t, 16.0, jsRound(16.4))
}
