package geoxml

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/beetlebugorg/geoxml/internal/kml"
)

// Parser loads KML and KMZ documents into DocumentSets.
//
// Documents that produce renderables are retained, so parsing a URL again
// reloads it in place and reconciles its markers and overlays.
//
// Example:
//
//	p := geoxml.NewParser(geoxml.DefaultOptions())
//	defer p.Close()
//	set, err := p.Parse(ctx, "https://example.com/tour.kmz")
type Parser struct {
	opts Options
	log  *zap.Logger

	mu     sync.Mutex
	docs   []*Document
	byURL  map[string]*Document
	closed bool

	sharedWindow *InfoWindow
	refresh      *refresher
}

// NewParser creates a parser. Zero-valued collaborators in opts are
// replaced by the defaults.
func NewParser(opts Options) *Parser {
	opts.setDefaults()
	p := &Parser{
		opts:  opts,
		log:   opts.Logger,
		byURL: make(map[string]*Document),
	}
	if opts.SingleInfoWindow {
		p.sharedWindow = &InfoWindow{PixelOffset: infoWindowOffset}
	}
	p.refresh = newRefresher(p)
	return p
}

// Options returns the effective options.
func (p *Parser) Options() Options {
	return p.opts
}

// Parse loads urls into a new DocumentSet. Failed documents are reported
// through the set, not the returned error.
func (p *Parser) Parse(ctx context.Context, urls ...string) (*DocumentSet, error) {
	if len(urls) == 0 {
		return nil, ErrNoSources
	}
	set := NewDocumentSet()
	if err := p.ParseInto(ctx, set, urls...); err != nil {
		return nil, err
	}
	return set, nil
}

// ParseInto loads urls into set as one batch. Batches on the same set are
// serialized. Factories and hooks run while the batch holds the set and
// must not call its methods; AfterParse runs after the set is released.
func (p *Parser) ParseInto(ctx context.Context, set *DocumentSet, urls ...string) error {
	if len(urls) == 0 {
		return ErrNoSources
	}
	base := kml.Dir(p.opts.Location)
	roots := make([]string, 0, len(urls))
	for _, u := range urls {
		roots = append(roots, kml.ResolveURL(base, u))
	}
	for _, u := range roots {
		p.adopt(set, u)
	}
	return p.runBatch(ctx, set, func(b *batch) {
		for _, u := range roots {
			b.addRoot(u)
		}
	})
}

// ParseString parses an in-memory document. Relative references resolve
// against Options.Location.
func (p *Parser) ParseString(ctx context.Context, content string) (*DocumentSet, error) {
	set := NewDocumentSet()
	err := p.runBatch(ctx, set, func(b *batch) {
		b.addString(content)
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

func (p *Parser) runBatch(ctx context.Context, set *DocumentSet, start func(*batch)) error {
	if p.isClosed() {
		return ErrClosed
	}

	set.mu.Lock()
	b := p.newBatch(ctx, set)
	set.remaining = 0
	start(b)
	b.run()

	set.reindex()
	set.parseOnly = b.parseOnly
	bounds := set.bounds
	if !b.parseOnly {
		p.retain(set, b.docs)
	}
	set.mu.Unlock()

	p.log.Debug("Batch complete",
		zap.Int("documents", len(b.docs)),
		zap.Bool("parseOnly", b.parseOnly))

	if p.opts.ZoomToFit && p.opts.FitBounds != nil && !bounds.IsEmpty() {
		p.opts.FitBounds(bounds)
	}
	if p.opts.AfterParse != nil {
		p.opts.AfterParse(set)
	}
	return ctx.Err()
}

// Documents returns the retained documents in load order.
func (p *Parser) Documents() []*Document {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Document, len(p.docs))
	copy(out, p.docs)
	return out
}

// retained returns the retained document for url when it belongs to set.
func (p *Parser) retained(url string, set *DocumentSet) *Document {
	p.mu.Lock()
	defer p.mu.Unlock()
	if d := p.byURL[url]; d != nil && d.owner == set {
		return d
	}
	return nil
}

func (p *Parser) retain(set *DocumentSet, docs []*Document) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, d := range docs {
		if d.URL == "" || d.Failed {
			continue
		}
		if _, ok := p.byURL[d.URL]; ok {
			continue
		}
		d.owner = set
		p.docs = append(p.docs, d)
		p.byURL[d.URL] = d
	}
}

// adopt hands the retained document for url over to set. The set that held
// it drops it once its running batch, if any, completes, so a Document is
// only ever mutated under the lock of the set that owns it.
func (p *Parser) adopt(set *DocumentSet, url string) {
	p.mu.Lock()
	d := p.byURL[url]
	if d == nil || d.owner == set {
		p.mu.Unlock()
		return
	}
	prev := d.owner
	d.owner = set
	p.mu.Unlock()

	if prev == nil {
		return
	}
	prev.mu.Lock()
	prev.remove(d)
	prev.reindex()
	prev.mu.Unlock()
	p.log.Debug("Document moved to another set", zap.String("url", url))
}

func (p *Parser) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Close stops every scheduled network-link refresh and waits for running
// reloads to finish. Later parses return ErrClosed.
func (p *Parser) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.refresh.stop()
	return nil
}
