package main

import (
	"context"
	"fmt"
	"log"

	"github.com/beetlebugorg/geoxml/pkg/geoxml"
)

func main() {
	// Create parser
	parser := geoxml.NewParser(geoxml.DefaultOptions())
	defer parser.Close()

	// Parse document, following shared styles in other files
	set, err := parser.Parse(context.Background(),
		"https://developers.google.com/kml/documentation/KML_Samples.kml")
	if err != nil {
		log.Fatal(err)
	}

	// Print document info
	for _, doc := range set.Documents() {
		fmt.Printf("Document: %s (%s)\n", doc.URL, doc.State)
		fmt.Printf("Placemarks: %d\n", len(doc.Placemarks))
		fmt.Printf("Overlays: %d\n", len(doc.Overlays))
	}

	// Print each placemark with its resolved line color
	for _, pm := range set.Placemarks() {
		line := geoxml.ParseColor(pm.Style.Line.Color, pm.Style.Line.ColorMode)
		fmt.Printf("  %-40s line %s\n", pm.Name, line.Hex)
	}

	// Get set bounds
	bounds := set.Bounds()
	fmt.Printf("Bounds: [%.4f,%.4f] to [%.4f,%.4f]\n",
		bounds.MinLon, bounds.MinLat,
		bounds.MaxLon, bounds.MaxLat)
}
