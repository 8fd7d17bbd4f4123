package geoxml

import (
	"sync"

	"github.com/beevik/etree"

	"github.com/beetlebugorg/geoxml/internal/kml"
)

// DocumentState tracks a document through a batch.
type DocumentState int

const (
	// StateFetching means the bytes are not available yet.
	StateFetching DocumentState = iota

	// StateWaiting means the tree is parsed and dependencies are outstanding.
	StateWaiting

	// StateDone means the document has been extracted.
	StateDone

	// StateFailed means the document could not be fetched or parsed.
	StateFailed
)

// String returns a lower-case state name.
func (s DocumentState) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateWaiting:
		return "waiting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Document is one source file within a DocumentSet.
type Document struct {
	URL     string // canonical base URL, empty for in-memory documents
	BaseDir string // resolves relative references inside the document
	Archive bool   // loaded from a KMZ archive
	Reload  bool   // re-fetch of an already known URL

	State  DocumentState
	Failed bool
	Err    error

	Placemarks   []*Placemark
	Overlays     []*GroundOverlay
	NetworkLinks []*NetworkLink
	Styles       map[string]*Style // shared styles declared by this document
	Bounds       Bounds

	// Renderables created for this document.
	Markers   []*Handle
	Polylines []*Handle
	Polygons  []*Handle
	Overlayed []*Handle

	root *etree.Element

	// Dependency bookkeeping, owned by the batch coordinator.
	pending    int
	waits      map[*Document]bool
	dependents []*Document
	resolved   map[string]bool // style documents already scanned
	linked     map[string]bool // network links already scanned
	stylesDone bool

	owner *DocumentSet // set a retained document belongs to, guarded by Parser.mu
}

func newDocument(url string) *Document {
	return &Document{
		URL:    url,
		Styles: make(map[string]*Style),
		Bounds: EmptyBounds(),
	}
}

// Root returns the parsed <kml> element, nil until the document is fetched.
func (d *Document) Root() *etree.Element {
	return d.root
}

// reset prepares the document for another pass through a batch, keeping its
// renderables for reconciliation.
func (d *Document) reset() {
	d.State = StateFetching
	d.Failed = false
	d.Err = nil
	d.root = nil
	d.pending = 0
	d.waits = make(map[*Document]bool)
	d.dependents = nil
	d.resolved = make(map[string]bool)
	d.linked = make(map[string]bool)
	d.stylesDone = false
	d.Placemarks = nil
	d.Overlays = nil
	d.NetworkLinks = nil
	d.Styles = make(map[string]*Style)
	d.Bounds = EmptyBounds()
}

// DocumentSet is a batch of documents loaded together. Styles are keyed by
// (document URL, style id) within the set and never shared with another set.
type DocumentSet struct {
	// mu serializes batches; a batch holds it from start to completion.
	mu sync.Mutex

	docs   []*Document
	byURL  map[string]*Document
	styles *kml.StyleTable
	assets map[string]string // resolved URL -> data URL of packaged files

	bounds    Bounds
	remaining int
	index     *spatialIndex
	parseOnly bool
}

// NewDocumentSet returns an empty set.
func NewDocumentSet() *DocumentSet {
	s := &DocumentSet{
		byURL:  make(map[string]*Document),
		assets: make(map[string]string),
		bounds: EmptyBounds(),
	}
	s.styles = kml.NewStyleTable()
	s.styles.Asset = s.asset
	return s
}

func (s *DocumentSet) asset(url string) (string, bool) {
	data, ok := s.assets[url]
	return data, ok
}

// remove drops d from the set. The caller holds s.mu.
func (s *DocumentSet) remove(d *Document) {
	for i, existing := range s.docs {
		if existing == d {
			s.docs = append(s.docs[:i], s.docs[i+1:]...)
			break
		}
	}
	if s.byURL[d.URL] == d {
		delete(s.byURL, d.URL)
	}
}

// reindex rebuilds the spatial index and bounds from the documents the set
// holds now. The caller holds s.mu.
func (s *DocumentSet) reindex() {
	s.bounds = EmptyBounds()
	for _, d := range s.docs {
		if !d.Failed {
			s.bounds = s.bounds.Union(d.Bounds)
		}
	}
	s.index = buildIndex(s.docs)
}

func (s *DocumentSet) add(d *Document) {
	for _, existing := range s.docs {
		if existing == d {
			return
		}
	}
	s.docs = append(s.docs, d)
	if d.URL != "" {
		s.byURL[d.URL] = d
	}
}

// Documents returns the documents in registration order.
func (s *DocumentSet) Documents() []*Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Document, len(s.docs))
	copy(out, s.docs)
	return out
}

// Document returns the document registered under url.
func (s *DocumentSet) Document(url string) (*Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.byURL[url]
	return d, ok
}

// Bounds returns the union of every extracted placemark and overlay.
func (s *DocumentSet) Bounds() Bounds {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bounds
}

// Remaining returns the number of documents not yet extracted or failed.
func (s *DocumentSet) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// ParseOnly reports whether the last batch produced no renderable.
func (s *DocumentSet) ParseOnly() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.parseOnly
}

// Errors returns the error of every failed document.
func (s *DocumentSet) Errors() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for _, d := range s.docs {
		if d.Failed && d.Err != nil {
			errs = append(errs, d.Err)
		}
	}
	return errs
}

// Style returns the shared style (docURL, id), or nil.
func (s *DocumentSet) Style(docURL, id string) *Style {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.styles.Lookup(docURL, id)
}

// Asset returns the data URL of a file packaged in one of the set's
// archives, keyed by its resolved URL.
func (s *DocumentSet) Asset(url string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.asset(url)
}

// Placemarks returns every placemark of every document.
func (s *DocumentSet) Placemarks() []*Placemark {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Placemark
	for _, d := range s.docs {
		out = append(out, d.Placemarks...)
	}
	return out
}
