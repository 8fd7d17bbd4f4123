package kml

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
)

// Color is a decoded KML color.
type Color struct {
	Hex     string  // "#rrggbb"
	Opacity float64 // alpha / 256
}

// DefaultColor is the KML 2.2 default, opaque white.
const DefaultColor = "ffffffff"

// ColorModeRandom selects a random color bounded by the encoded channels.
const ColorModeRandom = "random"

// randomFloat is swapped out by tests.
var randomFloat = rand.Float64

// ParseColor decodes an aabbggrr color code. An empty code is treated as
// DefaultColor. When mode is "random" every channel is drawn from
// [0, rr], the red component acting as the limit for all three.
func ParseColor(code, mode string) Color {
	if code == "" {
		code = DefaultColor
	}
	aa := substr(code, 0, 2)
	bb := substr(code, 2, 2)
	gg := substr(code, 4, 2)
	rr := substr(code, 6, 2)

	c := Color{Opacity: hexValue(aa) / 256}
	if mode == ColorModeRandom {
		c.Hex = randomColor(rr)
	} else {
		c.Hex = "#" + rr + gg + bb
	}
	return c
}

// Opacity returns the alpha channel of an 8-digit color code as a fraction,
// or 1.0 for anything that is not exactly eight characters long.
func Opacity(code string) float64 {
	if len(code) != 8 {
		return 1.0
	}
	return hexValue(code[:2]) / 256
}

func randomColor(rr string) string {
	limit := hexValue(rr)
	if math.IsNaN(limit) {
		limit = 0xff
	}
	out := "#"
	for i := 0; i < 3; i++ {
		v := int(jsRound(randomFloat() * limit))
		out += fmt.Sprintf("%02x", v)
	}
	return out
}

// hexValue parses the leading hex digits of s, NaN when there are none.
func hexValue(s string) float64 {
	end := 0
	for end < len(s) && isHexDigit(s[end]) {
		end++
	}
	if end == 0 {
		return math.NaN()
	}
	n, err := strconv.ParseUint(s[:end], 16, 64)
	if err != nil {
		return math.NaN()
	}
	return float64(n)
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func substr(s string, start, n int) string {
	if start >= len(s) {
		return ""
	}
	end := start + n
	if end > len(s) {
		end = len(s)
	}
	return s[start:end]
}

// jsRound rounds half toward positive infinity.
func jsRound(x float64) float64 {
	return math.Floor(x + 0.5)
}
