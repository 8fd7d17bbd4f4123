package geoxml

import (
	"github.com/dhconnelly/rtreego"
)

// spatialIndex provides O(log n) bounding box queries over a set's
// placemarks and overlays using an R-tree.
type spatialIndex struct {
	rtree *rtreego.Rtree
	count int
}

// indexedItem wraps a placemark or overlay for R-tree storage.
type indexedItem struct {
	placemark *Placemark
	overlay   *GroundOverlay
	bounds    Bounds
}

// Bounds implements rtreego.Spatial.
func (it *indexedItem) Bounds() rtreego.Rect {
	return boundsRect(it.bounds)
}

// boundsRect converts b to an R-tree rectangle. Zero-area bounds (points)
// get a small epsilon, about 11 meters at the equator, since the tree
// requires non-zero sides.
func boundsRect(b Bounds) rtreego.Rect {
	point := rtreego.Point{b.MinLon, b.MinLat}
	lonLength := b.MaxLon - b.MinLon
	latLength := b.MaxLat - b.MinLat

	const epsilon = 0.0001
	if lonLength < epsilon {
		lonLength = epsilon
	}
	if latLength < epsilon {
		latLength = epsilon
	}
	rect, _ := rtreego.NewRect(point, []float64{lonLength, latLength})
	return rect
}

// buildIndex creates the R-tree (2D, 25..50 children per node) over every
// extracted record with non-empty bounds.
func buildIndex(docs []*Document) *spatialIndex {
	idx := &spatialIndex{rtree: rtreego.NewTree(2, 25, 50)}
	for _, d := range docs {
		if d.Failed {
			continue
		}
		for _, pm := range d.Placemarks {
			b := placemarkBounds(pm)
			if b.IsEmpty() {
				continue
			}
			idx.rtree.Insert(&indexedItem{placemark: pm, bounds: b})
			idx.count++
		}
		for _, o := range d.Overlays {
			b := overlayBounds(o)
			if b.IsEmpty() {
				continue
			}
			for _, part := range splitAntimeridian(b) {
				idx.rtree.Insert(&indexedItem{overlay: o, bounds: part})
			}
			idx.count++
		}
	}
	return idx
}

func (idx *spatialIndex) search(b Bounds) []*indexedItem {
	if idx == nil || b.IsEmpty() {
		return nil
	}
	spatials := idx.rtree.SearchIntersect(boundsRect(b))
	out := make([]*indexedItem, 0, len(spatials))
	for _, s := range spatials {
		out = append(out, s.(*indexedItem))
	}
	return out
}

// PlacemarksInBounds returns the placemarks whose bounds intersect b.
//
// Example:
//
//	viewport := geoxml.Bounds{
//	    MinLon: -71.5, MaxLon: -71.0,
//	    MinLat: 42.0, MaxLat: 42.5,
//	}
//	for _, pm := range set.PlacemarksInBounds(viewport) {
//	    draw(pm)
//	}
func (s *DocumentSet) PlacemarksInBounds(b Bounds) []*Placemark {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Placemark
	for _, it := range s.index.search(b) {
		if it.placemark != nil {
			out = append(out, it.placemark)
		}
	}
	return out
}

// OverlaysInBounds returns the ground overlays whose box intersects b.
func (s *DocumentSet) OverlaysInBounds(b Bounds) []*GroundOverlay {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*GroundOverlay
	seen := make(map[*GroundOverlay]bool)
	for _, it := range s.index.search(b) {
		if it.overlay != nil && !seen[it.overlay] {
			seen[it.overlay] = true
			out = append(out, it.overlay)
		}
	}
	return out
}

// IndexedCount returns the number of records in the spatial index.
func (s *DocumentSet) IndexedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == nil {
		return 0
	}
	return s.index.count
}
