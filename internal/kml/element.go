// Package kml extracts styles, geometry and ancillary records from a parsed
// KML element tree.
//
// The package never reads bytes itself. Callers hand it an *etree.Element
// produced by github.com/beevik/etree and receive plain Go values back.
package kml

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// KML namespaces.
const (
	Namespace    = "http://www.opengis.net/kml/2.2"
	ExtNamespace = "http://www.google.com/kml/ext/2.2"
)

// Descendants returns every element below el whose local name is tag,
// regardless of namespace, in document order.
func Descendants(el *etree.Element, tag string) []*etree.Element {
	if el == nil {
		return nil
	}
	var out []*etree.Element
	var walk func(e *etree.Element)
	walk = func(e *etree.Element) {
		for _, c := range e.ChildElements() {
			if c.Tag == tag {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(el)
	return out
}

// DescendantsNS is Descendants restricted to elements whose resolved
// namespace URI is ns.
func DescendantsNS(el *etree.Element, ns, tag string) []*etree.Element {
	var out []*etree.Element
	for _, c := range Descendants(el, tag) {
		if namespaceURI(c) == ns {
			out = append(out, c)
		}
	}
	return out
}

// First returns the first descendant named tag, or nil.
func First(el *etree.Element, tag string) *etree.Element {
	if el == nil {
		return nil
	}
	for _, c := range el.ChildElements() {
		if c.Tag == tag {
			return c
		}
		if found := First(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// FirstNS returns the first descendant named tag in namespace ns, or nil.
func FirstNS(el *etree.Element, ns, tag string) *etree.Element {
	matches := DescendantsNS(el, ns, tag)
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}

// namespaceURI resolves the element's prefix against the xmlns declarations
// in scope.
func namespaceURI(el *etree.Element) string {
	key := "xmlns"
	space := ""
	if el.Space != "" {
		key = el.Space
		space = "xmlns"
	}
	for e := el; e != nil; e = e.Parent() {
		for _, a := range e.Attr {
			if a.Space == space && a.Key == key {
				return a.Value
			}
		}
	}
	return ""
}

// Attr returns the attribute value of el, or "" when el is nil.
func Attr(el *etree.Element, key string) string {
	if el == nil {
		return ""
	}
	return el.SelectAttrValue(key, "")
}

// Value returns the concatenated character data below el.
func Value(el *etree.Element) string {
	if el == nil {
		return ""
	}
	var sb strings.Builder
	var walk func(e *etree.Element)
	walk = func(e *etree.Element) {
		for _, tok := range e.Child {
			switch t := tok.(type) {
			case *etree.CharData:
				sb.WriteString(t.Data)
			case *etree.Element:
				walk(t)
			}
		}
	}
	walk(el)
	return sb.String()
}

// ValueOr returns def when el is absent, otherwise Value(el).
func ValueOr(el *etree.Element, def string) string {
	if el == nil {
		return def
	}
	return Value(el)
}

// Float reads a number. An absent element yields def; text without a
// numeric prefix yields NaN.
func Float(el *etree.Element, def float64) float64 {
	if el == nil {
		return def
	}
	return ParseFloat(Value(el))
}

// Int reads an integer, falling back to def when el is absent or holds no
// integer prefix.
func Int(el *etree.Element, def int) int {
	if el == nil {
		return def
	}
	n, ok := parseIntPrefix(Value(el))
	if !ok {
		return def
	}
	return n
}

// Bool reads a KML boolean. Empty text yields def, 0 is false and any other
// non-empty value is true.
func Bool(el *etree.Element, def bool) bool {
	s := strings.TrimSpace(Value(el))
	if s == "" {
		return def
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	n, ok := parseIntPrefix(s)
	if !ok {
		return true
	}
	return n != 0
}

var floatPrefix = regexp.MustCompile(`^[+-]?(Infinity|[0-9]+\.?[0-9]*([eE][+-]?[0-9]+)?|\.[0-9]+([eE][+-]?[0-9]+)?)`)

// ParseFloat parses the longest numeric prefix of s after leading
// whitespace, returning NaN when there is none.
func ParseFloat(s string) float64 {
	m := floatPrefix.FindString(strings.TrimLeft(s, " \t\r\n"))
	if m == "" {
		return math.NaN()
	}
	switch m {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	// Out-of-range input still returns ±Inf, which is what we want.
	f, _ := strconv.ParseFloat(m, 64)
	return f
}

var intPrefix = regexp.MustCompile(`^[+-]?[0-9]+`)

func parseIntPrefix(s string) (int, bool) {
	m := intPrefix.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}
