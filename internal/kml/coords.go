package kml

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Coordinate is one geographic position. Alt is meaningful only when HasAlt
// is set.
type Coordinate struct {
	Lat    float64
	Lng    float64
	Alt    float64
	HasAlt bool
}

var commaSpace = regexp.MustCompile(`,\s+`)

// ParseCoordinates parses the body of a <coordinates> element.
//
// Tuples are whitespace separated "lon,lat[,alt]" triples. A tuple whose
// longitude or latitude is not a number, or lies outside the valid
// geographic range, is dropped. An unparsable altitude is left absent.
//
// Example:
//
//	ParseCoordinates("200,95,10 1,2,3") // [{Lat:2 Lng:1 Alt:3 HasAlt:true}]
func ParseCoordinates(text string) []Coordinate {
	text = commaSpace.ReplaceAllString(strings.TrimSpace(text), ",")
	fields := strings.Fields(text)
	coords := make([]Coordinate, 0, len(fields))
	for _, tuple := range fields {
		c, err := parseTuple(strings.Split(tuple, ","), tuple)
		if err != nil {
			continue
		}
		coords = append(coords, c)
	}
	return coords
}

// ParseTrackCoord parses a gx:coord value, "lon lat alt" separated by
// spaces.
func ParseTrackCoord(text string) (Coordinate, error) {
	return parseTuple(strings.Fields(text), text)
}

func parseTuple(parts []string, raw string) (Coordinate, error) {
	if len(parts) < 2 {
		return Coordinate{}, &ErrMalformedTuple{Tuple: raw}
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Coordinate{}, &ErrMalformedTuple{Tuple: raw}
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Coordinate{}, &ErrMalformedTuple{Tuple: raw}
	}
	if err := ValidateCoordinate(lat, lng); err != nil {
		return Coordinate{}, err
	}
	c := Coordinate{Lat: lat, Lng: lng}
	if len(parts) > 2 {
		if alt, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64); err == nil {
			c.Alt = alt
			c.HasAlt = true
		}
	}
	return c, nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
}

// ParseTime parses a KML dateTime, which may be truncated to a date, month
// or year. The zero time is returned for anything else.
func ParseTime(text string) time.Time {
	text = strings.TrimSpace(text)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t
		}
	}
	return time.Time{}
}
