package kml

import (
	"testing"

	"github.com/beevik/etree"
)

const kmlHeader = `<kml xmlns="http://www.opengis.net/kml/2.2" xmlns:gx="http://www.google.com/kml/ext/2.2">`

// parseElement parses src and returns the root element.
func parseElement(t *testing.T, src string) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	if err := doc.ReadFromString(src); err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc.Root()
}

// parseKML wraps body in a namespaced <kml> root.
func parseKML(t *testing.T, body string) *etree.Element {
	t.Helper()
	return parseElement(t, kmlHeader+body+`</kml>`)
}
