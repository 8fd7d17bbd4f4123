package geoxml

import (
	"testing"

	"github.com/beetlebugorg/geoxml/internal/kml"
)

// Viewport queries through the R-tree against a linear scan.

var (
	smallViewport = Bounds{MinLon: -71.1, MaxLon: -71.0, MinLat: 42.0, MaxLat: 42.1}
	largeViewport = Bounds{MinLon: -72.0, MaxLon: -71.0, MinLat: 42.0, MaxLat: 43.0}
)

func BenchmarkPlacemarksInBounds_Rtree(b *testing.B) {
	set := createLargeSet(10000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = set.PlacemarksInBounds(smallViewport)
	}
}

func BenchmarkPlacemarksInBounds_Linear(b *testing.B) {
	set := createLargeSet(10000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = linearInBounds(set, smallViewport)
	}
}

func BenchmarkPlacemarksInBounds_Rtree_LargeViewport(b *testing.B) {
	set := createLargeSet(10000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = set.PlacemarksInBounds(largeViewport)
	}
}

func BenchmarkPlacemarksInBounds_Linear_LargeViewport(b *testing.B) {
	set := createLargeSet(10000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = linearInBounds(set, largeViewport)
	}
}

func BenchmarkPlacemarksAt(b *testing.B) {
	set := createLargeSet(10000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = set.PlacemarksAt(42.005, -71.995)
	}
}

func BenchmarkBuildIndex(b *testing.B) {
	docs := createLargeSet(10000).docs

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buildIndex(docs)
	}
}

// The R-tree and the linear scan must agree. Viewport edges stay clear of
// the 0.002 degree grid so the point epsilon cannot matter.
func TestIndexMatchesLinearScan(t *testing.T) {
	set := createLargeSet(3000)
	viewports := []Bounds{
		{MinLon: -71.1009, MaxLon: -70.9991, MinLat: 41.9, MaxLat: 42.5},
		{MinLon: -71.9991, MaxLon: -70.5009, MinLat: 42.3, MaxLat: 43.9},
	}
	for _, vp := range viewports {
		got := set.PlacemarksInBounds(vp)
		want := linearInBounds(set, vp)
		if len(got) != len(want) {
			t.Errorf("viewport %v: index returned %d placemarks, scan %d", vp, len(got), len(want))
		}
		if len(want) == 0 {
			t.Errorf("viewport %v: expected placemarks", vp)
		}
	}
}

func linearInBounds(set *DocumentSet, b Bounds) []*Placemark {
	var out []*Placemark
	for _, d := range set.docs {
		for _, pm := range d.Placemarks {
			if pb := placemarkBounds(pm); !pb.IsEmpty() && pb.Intersects(b) {
				out = append(out, pm)
			}
		}
	}
	return out
}

// createLargeSet builds a set holding one document with n synthetic
// placemarks spread over a 2 x 2 degree region.
func createLargeSet(n int) *DocumentSet {
	lonMin, lonMax := -72.0, -70.0
	latMin, latMax := 42.0, 44.0
	rows := n / 1000
	if rows == 0 {
		rows = 1
	}

	doc := newDocument("bench.kml")
	doc.reset()
	for i := 0; i < n; i++ {
		lon := lonMin + float64(i%1000)/1000.0*(lonMax-lonMin)
		lat := latMin + float64(i/1000)/float64(rows)*(latMax-latMin)
		at := func(dlon, dlat float64) kml.Coordinate {
			return kml.Coordinate{Lat: lat + dlat, Lng: lon + dlon}
		}

		var g kml.Geometry
		switch i % 3 {
		case 0:
			g = &kml.Point{Coordinates: []kml.Coordinate{at(0, 0)}}
		case 1:
			g = &kml.LineString{Paths: []kml.Path{{Coordinates: []kml.Coordinate{at(0, 0), at(0.01, 0.01), at(0.02, 0)}}}}
		case 2:
			ring := kml.Path{Coordinates: []kml.Coordinate{at(0, 0), at(0.01, 0), at(0.01, 0.01), at(0, 0.01), at(0, 0)}}
			g = &kml.Polygon{Parts: []kml.PolygonPart{{Outer: []kml.Path{ring}}}}
		}
		doc.Placemarks = append(doc.Placemarks, &kml.Placemark{Geometry: []kml.Geometry{g}})
	}

	set := NewDocumentSet()
	set.add(doc)
	set.index = buildIndex(set.docs)
	return set
}
