package geoxml

import (
	"runtime"

	"github.com/beevik/etree"
	"go.uber.org/zap"
)

// MarkerFactory creates the renderable for a point placemark.
type MarkerFactory func(pm *Placemark, doc *Document) any

// LineFactory creates the renderable for a line or track placemark.
type LineFactory func(pm *Placemark, doc *Document) any

// PolygonFactory creates the renderable for a polygon placemark.
type PolygonFactory func(pm *Placemark, doc *Document) any

// OverlayFactory creates the renderable for a ground overlay.
type OverlayFactory func(o *GroundOverlay, doc *Document) any

// Options configures a Parser.
type Options struct {
	// Logger receives diagnostics. Nil means zap.NewNop().
	Logger *zap.Logger

	// ProcessStyles finalizes every style icon eagerly, including StyleMap
	// highlight variants that may never be rendered.
	ProcessStyles bool

	// SuppressInfoWindows is the default for gx:balloonVisibility.
	SuppressInfoWindows bool

	// SingleInfoWindow makes every default renderable share one InfoWindow.
	SingleInfoWindow bool

	// ForceArchive treats every non-data source as a KMZ archive.
	ForceArchive bool

	// ZoomToFit calls FitBounds with the batch bounds when a batch
	// completes and the bounds are not empty.
	ZoomToFit bool
	FitBounds func(Bounds)

	// Location is the URL the caller runs at. Root URLs and relative
	// network-link hrefs are qualified against its directory.
	Location string

	// Workers bounds concurrent fetches and image probes.
	Workers int

	// Renderable factories. Nil selects the default.
	CreateMarker  MarkerFactory
	CreateLine    LineFactory
	CreatePolygon PolygonFactory
	CreateOverlay OverlayFactory

	// PlacemarkHook is called for every extracted placemark before its
	// renderables are created.
	PlacemarkHook func(node *etree.Element, pm *Placemark)

	// AfterParse is called once per batch with the completed set.
	AfterParse func(set *DocumentSet)

	// FailureHook is called for each document that fails to load.
	FailureHook func(doc *Document)

	// Collaborators. Nil selects HTTPFetcher, ZipExtractor, FetchProber and
	// a SizeCache of DefaultSizeCacheEntries.
	Fetcher   Fetcher
	Extractor ArchiveExtractor
	Prober    ImageProber
	SizeCache *SizeCache
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Logger:  zap.NewNop(),
		Workers: runtime.NumCPU(),
	}
}

func (o *Options) setDefaults() {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.Fetcher == nil {
		o.Fetcher = NewHTTPFetcher(nil)
	}
	if o.Extractor == nil {
		o.Extractor = ZipExtractor{}
	}
	if o.Prober == nil {
		o.Prober = &FetchProber{Fetcher: o.Fetcher}
	}
	if o.SizeCache == nil {
		o.SizeCache = NewSizeCache(DefaultSizeCacheEntries)
	}
}
