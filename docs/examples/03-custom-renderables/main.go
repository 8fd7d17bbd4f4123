package main

import (
	"context"
	"fmt"
	"log"

	"github.com/beetlebugorg/geoxml/pkg/geoxml"
)

// pin is the application's own marker type.
type pin struct {
	label string
	lat   float64
	lng   float64
	icon  string
}

func main() {
	var pins []*pin

	opts := geoxml.DefaultOptions()

	// Replace the default marker with the application's own
	opts.CreateMarker = func(pm *geoxml.Placemark, doc *geoxml.Document) any {
		p := &pin{label: pm.Name}
		for _, g := range pm.Geometry {
			if pt, ok := g.(*geoxml.Point); ok {
				if c, ok := pt.Position(); ok {
					p.lat, p.lng = c.Lat, c.Lng
				}
			}
		}
		if pm.Style.Icon.Marker != nil {
			p.icon = pm.Style.Icon.Marker.URL
		}
		pins = append(pins, p)
		return p
	}

	// Called once per batch, after every dependency has been resolved
	opts.AfterParse = func(set *geoxml.DocumentSet) {
		fmt.Printf("Loaded %d documents\n", len(set.Documents()))
	}

	// Fit the map to the loaded data
	opts.ZoomToFit = true
	opts.FitBounds = func(b geoxml.Bounds) {
		lon, lat := b.Center()
		fmt.Printf("Center map on %.4f,%.4f\n", lat, lon)
	}

	parser := geoxml.NewParser(opts)
	defer parser.Close()

	if _, err := parser.Parse(context.Background(),
		"https://developers.google.com/kml/documentation/KML_Samples.kml"); err != nil {
		log.Fatal(err)
	}

	for _, p := range pins {
		fmt.Printf("  %-30s %9.5f %10.5f %s\n", p.label, p.lat, p.lng, p.icon)
	}
}
