// Package geoxml loads KML and KMZ documents into a fully resolved scene
// description.
//
// A Parser fetches one or more root documents, follows every document they
// reference (external styleUrl targets and one-shot network links), resolves
// the style cascade and extracts placemarks, ground overlays and network
// links. Documents loaded together form a DocumentSet.
//
// # Basic Usage
//
//	p := geoxml.NewParser(geoxml.DefaultOptions())
//	defer p.Close()
//
//	set, err := p.Parse(ctx, "https://example.com/harbour.kml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, doc := range set.Documents() {
//	    if doc.Failed {
//	        fmt.Printf("%s: %v\n", doc.URL, doc.Err)
//	        continue
//	    }
//	    for _, pm := range doc.Placemarks {
//	        fmt.Println(pm.Name, pm.Style.Line.Color)
//	    }
//	}
//
// # Rendering
//
// Every placemark and ground overlay is handed to a factory in Options:
// CreateMarker, CreateLine, CreatePolygon and CreateOverlay. Whatever a
// factory returns is wrapped in a Handle and kept on the Document so that a
// later reload can reconcile it. When a factory is nil a default one builds
// plain values (*Marker, *Polyline, *PolygonShape, *Overlay) carrying colors,
// bounds and info-window HTML.
//
// Marker creation waits until the icon image size is known. Icons whose size
// is already cached are finalized immediately; the rest are probed through the
// ImageProber and the queued markers are created, in order, once the probe
// returns.
//
// # Spatial Queries
//
// A DocumentSet builds an R-tree over its placemarks and overlays when the
// batch completes:
//
//	viewport := geoxml.Bounds{MinLon: -71.5, MaxLon: -71.0, MinLat: 42.0, MaxLat: 42.5}
//	visible := set.PlacemarksInBounds(viewport)
//	hits := set.PlacemarksAt(42.35, -71.05)
//
// # Failures
//
// A document that cannot be fetched or parsed is marked Failed and reported
// through Options.FailureHook. The rest of the batch carries on; Parse only
// returns an error when it is given nothing to load.
package geoxml
