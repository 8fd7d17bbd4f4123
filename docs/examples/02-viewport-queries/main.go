package main

import (
	"context"
	"fmt"
	"log"

	"github.com/beetlebugorg/geoxml/pkg/geoxml"
)

func main() {
	// Parse document
	parser := geoxml.NewParser(geoxml.DefaultOptions())
	defer parser.Close()

	set, err := parser.Parse(context.Background(),
		"https://developers.google.com/kml/documentation/KML_Samples.kml")
	if err != nil {
		log.Fatal(err)
	}

	// Define viewport (Google campus area)
	viewport := geoxml.Bounds{
		MinLon: -122.1, MaxLon: -122.0,
		MinLat: 37.4, MaxLat: 37.45,
	}

	// Query R-tree index for visible placemarks (O(log n))
	placemarks := set.PlacemarksInBounds(viewport)
	fmt.Printf("Visible placemarks: %d\n", len(placemarks))
	for _, pm := range placemarks {
		fmt.Printf("  %s: %d geometries\n", pm.Name, len(pm.Geometry))
	}

	overlays := set.OverlaysInBounds(viewport)
	fmt.Printf("Visible overlays: %d\n", len(overlays))

	// Hit test a single point
	for _, pm := range set.PlacemarksAt(37.422, -122.084) {
		fmt.Printf("Under cursor: %s\n", pm.Name)
	}
}
