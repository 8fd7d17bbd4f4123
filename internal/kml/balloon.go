package kml

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// DirectionsURL is the base of the geDirections links.
const DirectionsURL = "http://maps.google.com/maps?"

var balloonVar = regexp.MustCompile(`\$\[(\w+)(/displayName)?\]`)

// ExpandBalloon substitutes $[var] and $[var/displayName] in text.
// Unknown variables expand to the empty string.
func ExpandBalloon(text string, vars Vars) string {
	return balloonVar.ReplaceAllStringFunc(text, func(m string) string {
		sub := balloonVar.FindStringSubmatch(m)
		if sub[2] != "" {
			return vars.Display[sub[1]]
		}
		return vars.Val[sub[1]]
	})
}

// Balloon returns the expanded balloon text of pm. Point placemarks get
// geDirections links to and from their position (or address).
func Balloon(pm *Placemark) string {
	pm.Vars.Val["geDirections"] = directions(pm)
	return ExpandBalloon(pm.Style.Balloon.Text, pm.Vars)
}

func directions(pm *Placemark) string {
	pos, ok := pm.Position()
	if !ok {
		return ""
	}
	ll := urlValue(pos.Lat) + "," + urlValue(pos.Lng)
	u := DirectionsURL + "f=d&source=geoxml&sll=" + ll
	addr := pm.Vars.Val["address"]
	if addr == "" {
		addr = ll
	}
	addr = url.QueryEscape(addr)
	return `<a href="` + u + `&daddr=` + addr + `" target=_blank>To Here</a> - <a href="` +
		u + `&saddr=` + addr + `" target=_blank>From Here</a>`
}

// urlValue formats a degree value with six decimals and no trailing zeros.
func urlValue(v float64) string {
	s := strconv.FormatFloat(v, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
