package geoxml

import (
	"bytes"
	"context"
	"io"

	"github.com/beevik/etree"
	"github.com/cockroachdb/errors"
	"github.com/klauspost/pgzip"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"golang.org/x/sync/semaphore"

	"github.com/beetlebugorg/geoxml/internal/kml"
)

// fetchResult is sent by a fetch goroutine when a document is loaded.
type fetchResult struct {
	doc     *Document
	root    *etree.Element
	archive *Archive
	err     error
}

// probeResult is sent by a probe goroutine when an icon image is measured.
type probeResult struct {
	url  string
	size kml.Size
	err  error
}

// batch resolves one ParseInto call. Fetches and probes run on worker
// goroutines and report over events; every other step, including all
// mutation of documents, styles and the set, happens on the goroutine
// that calls run.
type batch struct {
	p   *Parser
	set *DocumentSet
	ctx context.Context
	log *zap.Logger

	events   chan any
	inflight int
	sem      *semaphore.Weighted

	docs        []*Document
	inBatch     map[*Document]bool
	iconWaiters map[string][]*kml.IconStyle

	render        *renderer
	createMarker  MarkerFactory
	createLine    LineFactory
	createPolygon PolygonFactory
	createOverlay OverlayFactory

	parseOnly bool
}

func (p *Parser) newBatch(ctx context.Context, set *DocumentSet) *batch {
	b := &batch{
		p:           p,
		set:         set,
		ctx:         ctx,
		log:         p.log,
		events:      make(chan any),
		sem:         semaphore.NewWeighted(int64(p.opts.Workers)),
		inBatch:     make(map[*Document]bool),
		iconWaiters: make(map[string][]*kml.IconStyle),
		render:      newRenderer(set, p.sharedWindow),
		parseOnly:   !(p.opts.AfterParse != nil || p.opts.ProcessStyles),
	}
	b.createMarker = p.opts.CreateMarker
	if b.createMarker == nil {
		b.createMarker = b.render.createMarker
	}
	b.createLine = p.opts.CreateLine
	if b.createLine == nil {
		b.createLine = b.render.createLine
	}
	b.createPolygon = p.opts.CreatePolygon
	if b.createPolygon == nil {
		b.createPolygon = b.render.createPolygon
	}
	b.createOverlay = p.opts.CreateOverlay
	if b.createOverlay == nil {
		b.createOverlay = b.render.createOverlay
	}
	return b
}

// register makes doc part of the batch and counts it as outstanding.
func (b *batch) register(doc *Document) {
	doc.reset()
	b.set.add(doc)
	b.docs = append(b.docs, doc)
	b.inBatch[doc] = true
	b.set.remaining++
}

// addRoot registers a root URL. A URL the set already holds, or one the
// parser retained and handed over to this set, is loaded again into the
// same Document.
func (b *batch) addRoot(u string) {
	doc, ok := b.set.byURL[u]
	if !ok {
		doc = b.p.retained(u, b.set)
	}
	if doc != nil {
		if b.inBatch[doc] {
			return
		}
		doc.Reload = true
	} else {
		doc = newDocument(u)
	}
	b.register(doc)
	b.startFetch(doc)
}

// addString registers an in-memory document and parses it in place.
func (b *batch) addString(content string) {
	doc := newDocument("")
	b.register(doc)
	root, err := parseXML([]byte(content))
	if err != nil {
		err = &MarkupError{URL: "(string)", Err: err}
	}
	b.onFetched(fetchResult{doc: doc, root: root, err: err})
}

// run drives the batch until every document is extracted or failed and no
// worker is outstanding.
func (b *batch) run() {
	for b.set.remaining > 0 || b.inflight > 0 {
		if b.inflight == 0 {
			if !b.breakStall() {
				b.log.Warn("Batch stalled with documents outstanding",
					zap.Int("remaining", b.set.remaining))
				b.set.remaining = 0
				break
			}
			continue
		}
		ev := <-b.events
		b.inflight--
		switch ev := ev.(type) {
		case fetchResult:
			b.onFetched(ev)
		case probeResult:
			b.onProbed(ev)
		}
	}
}

// breakStall extracts waiting documents whose dependencies can no longer
// complete. It reports whether anything was extracted.
func (b *batch) breakStall() bool {
	progressed := false
	for _, doc := range b.docs {
		if doc.State != StateWaiting {
			continue
		}
		b.log.Warn("Extracting document with unresolved dependencies",
			zap.String("url", doc.URL), zap.Int("pending", doc.pending))
		doc.pending = 0
		doc.waits = make(map[*Document]bool)
		b.extract(doc)
		progressed = true
	}
	return progressed
}

func (b *batch) startFetch(doc *Document) {
	u := doc.URL
	src := u
	if data, ok := b.set.asset(u); ok {
		src = data
	}
	b.log.Debug("Fetching document", zap.String("url", u))

	b.inflight++
	go func() {
		res := fetchResult{doc: doc}
		if err := b.sem.Acquire(b.ctx, 1); err != nil {
			res.err = &FetchError{URL: u, Err: err}
			b.events <- res
			return
		}
		res.root, res.archive, res.err = b.load(u, src)
		b.sem.Release(1)
		b.events <- res
	}()
}

// load fetches src, unpacks it and parses the root document. u is the
// canonical URL used in errors.
func (b *batch) load(u, src string) (*etree.Element, *Archive, error) {
	opts := &b.p.opts

	var (
		data []byte
		err  error
	)
	if kml.IsDataURL(src) {
		data, err = decodeDataURL(src)
	} else {
		data, err = opts.Fetcher.Fetch(b.ctx, src)
	}
	if err != nil {
		var fe *FetchError
		if !errors.As(err, &fe) {
			err = &FetchError{URL: u, Err: err}
		}
		return nil, nil, err
	}

	data, err = gunzip(data)
	if err != nil {
		return nil, nil, &FetchError{URL: u, Err: err}
	}

	archived, unknown := isArchiveURL(src, opts.ForceArchive)
	if unknown {
		archived = looksLikeZip(data)
	}
	var a *Archive
	if archived {
		a, err = opts.Extractor.Extract(data)
		if err != nil {
			return nil, nil, &FetchError{URL: u, Err: errors.Wrapf(err, "extract %s", u)}
		}
		data = a.Root
	}

	root, err := parseXML(data)
	if err != nil {
		return nil, nil, &MarkupError{URL: u, Err: err}
	}
	return root, a, nil
}

var gzipMagic = []byte{0x1f, 0x8b}

// gunzip inflates gzip-compressed payloads and returns anything else as is.
func gunzip(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, gzipMagic) {
		return data, nil
	}
	zr, err := pgzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "gunzip")
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, errors.Wrap(err, "gunzip")
	}
	return out, nil
}

// parseXML builds the element tree, decoding non-UTF-8 documents by their
// declared encoding.
func parseXML(data []byte) (*etree.Element, error) {
	d := etree.NewDocument()
	d.ReadSettings.CharsetReader = charset.NewReaderLabel
	if err := d.ReadFromBytes(data); err != nil {
		return nil, errors.Wrap(err, "read XML")
	}
	root := d.Root()
	if root == nil {
		return nil, errors.New("document has no root element")
	}
	return root, nil
}

func (b *batch) onFetched(res fetchResult) {
	doc := res.doc
	if res.err != nil {
		b.fail(doc, res.err)
		return
	}
	doc.root = res.root

	switch {
	case doc.URL == "" || kml.IsDataURL(doc.URL):
		doc.BaseDir = kml.Dir(b.p.opts.Location)
	case res.archive != nil:
		doc.BaseDir = doc.URL + "/"
	default:
		doc.BaseDir = kml.Dir(doc.URL)
	}
	if res.archive != nil {
		doc.Archive = true
		for name, data := range res.archive.DataURLs {
			b.set.assets[kml.ResolveURL(doc.BaseDir, name)] = data
		}
	}

	doc.State = StateWaiting
	b.scan(doc)
	b.tryExtract(doc)
}

func (b *batch) fail(doc *Document, err error) {
	doc.State = StateFailed
	doc.Failed = true
	doc.Err = err
	b.log.Warn("Document failed to load", zap.String("url", doc.URL), zap.Error(err))
	if b.p.opts.FailureHook != nil {
		b.p.opts.FailureHook(doc)
	}
	b.finish(doc)
}

// scan registers the documents doc takes styles from and the documents it
// loads through network links.
func (b *batch) scan(doc *Document) {
	for _, n := range kml.Descendants(doc.root, "styleUrl") {
		refURL, _ := kml.SplitStyleURL(kml.Value(n))
		if refURL == "" {
			continue
		}
		target := kml.ResolveURL(doc.BaseDir, refURL)
		if target == doc.URL || doc.resolved[target] {
			continue
		}
		doc.resolved[target] = true

		dep := b.styleSource(target)
		if dep == nil {
			continue
		}
		if b.reaches(dep, doc) {
			b.log.Debug("Ignoring cyclic style reference",
				zap.String("url", doc.URL), zap.String("target", target))
			b.extractStyles(dep)
			continue
		}
		b.wait(doc, dep)
	}

	for _, n := range kml.Descendants(doc.root, "NetworkLink") {
		l := kml.ExtractNetworkLink(n, b.p.opts.Location)
		if l.Href == "" || !l.LoadOnce() || l.Href == doc.URL || doc.linked[l.Href] {
			continue
		}
		doc.linked[l.Href] = true

		dep := b.linkSource(l.Href)
		if dep == nil {
			continue
		}
		if b.reaches(dep, doc) {
			b.log.Debug("Ignoring cyclic network link",
				zap.String("url", doc.URL), zap.String("target", l.Href))
			continue
		}
		b.wait(doc, dep)
	}
}

// styleSource returns the batch document to wait on for styles of target,
// starting a fetch when the URL is new. It returns nil when nothing needs
// to be awaited.
func (b *batch) styleSource(target string) *Document {
	if d, ok := b.set.byURL[target]; ok {
		if d.Failed || d.State == StateDone || !b.inBatch[d] {
			return nil
		}
		return d
	}
	b.log.Debug("Discovered style document", zap.String("url", target))
	d := newDocument(target)
	b.register(d)
	b.startFetch(d)
	return d
}

// reaches reports whether from transitively waits on to.
func (b *batch) reaches(from, to *Document) bool {
	seen := make(map[*Document]bool)
	stack := []*Document{from}
	for len(stack) > 0 {
		d := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if d == to {
			return true
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		for w := range d.waits {
			stack = append(stack, w)
		}
	}
	return false
}

func (b *batch) wait(doc, dep *Document) {
	if doc.waits[dep] {
		return
	}
	doc.waits[dep] = true
	doc.pending++
	dep.dependents = append(dep.dependents, doc)
}

func (b *batch) tryExtract(doc *Document) {
	if doc.State == StateWaiting && doc.pending == 0 {
		b.extract(doc)
	}
}

// finish retires doc and releases everything waiting on it.
func (b *batch) finish(doc *Document) {
	b.set.remaining--
	dependents := doc.dependents
	doc.dependents = nil
	for _, d := range dependents {
		if !d.waits[doc] {
			continue
		}
		delete(d.waits, doc)
		d.pending--
		b.tryExtract(d)
	}
}

// extract turns the parsed tree of doc into records and renderables.
func (b *batch) extract(doc *Document) {
	b.extractStyles(doc)
	b.extractPlacemarks(doc)
	b.extractOverlays(doc)
	b.extractNetworkLinks(doc)

	doc.State = StateDone
	b.log.Debug("Document extracted",
		zap.String("url", doc.URL),
		zap.Int("placemarks", len(doc.Placemarks)),
		zap.Int("overlays", len(doc.Overlays)))
	b.finish(doc)
}

// extractStyles fills the style table from doc. A document on the far side
// of a broken cycle has its styles extracted early, before its placemarks.
func (b *batch) extractStyles(doc *Document) {
	if doc.stylesDone || doc.root == nil {
		return
	}
	doc.stylesDone = true
	root := doc.root
	for _, n := range kml.Descendants(root, "Style") {
		if id := kml.Attr(n, "id"); id != "" {
			doc.Styles[id] = b.set.styles.ResolveStyle(n, doc.URL, id, doc.BaseDir)
		}
	}
	for _, n := range kml.Descendants(root, "StyleMap") {
		if id := kml.Attr(n, "id"); id != "" {
			doc.Styles[id] = b.set.styles.ResolveStyleMap(n, doc.URL, id, doc.BaseDir)
		}
	}

	opts := &b.p.opts
	if !opts.ProcessStyles && opts.CreateMarker != nil {
		return
	}
	for _, st := range b.set.styles.Styles(doc.URL) {
		b.requestIcon(&st.Icon, nil)
		if !opts.ProcessStyles {
			continue
		}
		if hl, ok := st.Map[kml.StyleStateHighlight]; ok {
			b.requestIcon(&hl.Icon, nil)
		}
	}
}

func (b *batch) extractPlacemarks(doc *Document) {
	opts := &b.p.opts

	prev := doc.Markers
	doc.Markers = nil
	if doc.Reload {
		for _, h := range prev {
			h.Active = false
		}
	}
	for _, list := range [][]*Handle{doc.Polylines, doc.Polygons} {
		for _, h := range list {
			removeHandle(h)
		}
	}
	doc.Polylines = nil
	doc.Polygons = nil

	ctx := kml.PlacemarkContext{
		DocURL:              doc.URL,
		BaseDir:             doc.BaseDir,
		Styles:              b.set.styles,
		SuppressInfoWindows: opts.SuppressInfoWindows,
	}
	for _, node := range kml.Descendants(doc.root, "Placemark") {
		pm := kml.ExtractPlacemark(node, ctx)
		doc.Placemarks = append(doc.Placemarks, pm)
		if opts.PlacemarkHook != nil {
			opts.PlacemarkHook(node, pm)
		}
		b.renderPlacemark(doc, pm, prev)
		doc.Bounds = doc.Bounds.Union(placemarkBounds(pm))
	}

	for _, h := range prev {
		if !h.Active {
			removeHandle(h)
		}
	}
}

func (b *batch) renderPlacemark(doc *Document, pm *Placemark, prev []*Handle) {
	if pos, ok := pm.Position(); ok {
		key := positionKey(pos)
		if h := matchMarker(prev, pm.ID, key); doc.Reload && h != nil {
			h.Active = true
			pm.Marker = h
			doc.Markers = append(doc.Markers, h)
		} else {
			b.requestIcon(&pm.Style.Icon, func() { b.placeMarker(doc, pm, key) })
		}
	}

	if _, ok := pm.PolygonGeometry(); ok {
		if v := b.createPolygon(pm, doc); v != nil {
			h := &Handle{Value: v, Active: pm.Visibility, ID: pm.ID}
			pm.Polygon = h
			doc.Polygons = append(doc.Polygons, h)
			b.parseOnly = false
		}
	}
	_, isLine := pm.LineString()
	_, isTrack := pm.Track()
	if isLine || isTrack {
		if v := b.createLine(pm, doc); v != nil {
			h := &Handle{Value: v, Active: pm.Visibility, ID: pm.ID}
			pm.Polyline = h
			doc.Polylines = append(doc.Polylines, h)
			b.parseOnly = false
		}
	}
}

// matchMarker finds the unmatched marker of a previous load: by id, or by
// position when the placemark has none.
func matchMarker(prev []*Handle, id, key string) *Handle {
	for _, h := range prev {
		if h.Active {
			continue
		}
		if id != "" && h.ID == id {
			return h
		}
		if id == "" && h.ID == "" && h.Key == key {
			return h
		}
	}
	return nil
}

func (b *batch) placeMarker(doc *Document, pm *Placemark, key string) {
	v := b.createMarker(pm, doc)
	if v == nil {
		return
	}
	h := &Handle{Value: v, Active: pm.Visibility, ID: pm.ID, Key: key}
	pm.Marker = h
	doc.Markers = append(doc.Markers, h)
	b.parseOnly = false
}

func (b *batch) extractOverlays(doc *Document) {
	prev := doc.Overlayed
	doc.Overlayed = nil
	for _, h := range prev {
		h.Active = false
	}

	for _, node := range kml.Descendants(doc.root, "GroundOverlay") {
		o := kml.ExtractGroundOverlay(node, doc.BaseDir, b.set.styles)
		doc.Overlays = append(doc.Overlays, o)
		doc.Bounds = doc.Bounds.Union(overlayBounds(o))

		key := overlayKey(o)
		if h := matchOverlay(prev, key); doc.Reload && h != nil {
			h.Active = true
			o.Handle = h
			doc.Overlayed = append(doc.Overlayed, h)
			continue
		}
		if v := b.createOverlay(o, doc); v != nil {
			h := &Handle{Value: v, Active: true, Key: key}
			o.Handle = h
			doc.Overlayed = append(doc.Overlayed, h)
			b.parseOnly = false
		}
	}

	for _, h := range prev {
		if !h.Active {
			removeHandle(h)
		}
	}
}

func matchOverlay(prev []*Handle, key string) *Handle {
	for _, h := range prev {
		if !h.Active && h.Key == key {
			return h
		}
	}
	return nil
}

// extractNetworkLinks records the links of doc and schedules the periodic
// ones. Links loaded once were fetched by scan.
func (b *batch) extractNetworkLinks(doc *Document) {
	for _, node := range kml.Descendants(doc.root, "NetworkLink") {
		l := kml.ExtractNetworkLink(node, b.p.opts.Location)
		doc.NetworkLinks = append(doc.NetworkLinks, l)
		if l.Href != "" && l.Periodic() {
			b.p.refresh.schedule(b.set, l)
		}
	}
}

// linkSource returns the batch document to wait on for a network link to
// u. A document the set already holds from an earlier batch is loaded
// again; failed documents are not retried.
func (b *batch) linkSource(u string) *Document {
	if d, ok := b.set.byURL[u]; ok {
		switch {
		case d.Failed:
			return nil
		case b.inBatch[d]:
			if d.State == StateDone {
				return nil
			}
			return d
		}
		d.Reload = true
		b.register(d)
		b.startFetch(d)
		return d
	}
	b.log.Debug("Following network link", zap.String("url", u))
	d := newDocument(u)
	b.register(d)
	b.startFetch(d)
	return d
}

// requestIcon runs cont once the icon geometry is known. Icons sharing an
// image URL share a single probe; continuations run in submission order
// per icon.
func (b *batch) requestIcon(ic *kml.IconStyle, cont func()) {
	run := func() {
		if cont != nil {
			cont()
		}
	}
	if ic.Href == "" || ic.Finalized() {
		run()
		return
	}
	if !ic.NeedsImage() {
		ic.Finalize(kml.Size{}, false)
		run()
		return
	}
	if size, ok := b.p.opts.SizeCache.Get(ic.URL); ok {
		ic.Finalize(size, true)
		run()
		return
	}

	if cont != nil {
		ic.Defer(cont)
	}
	if ic.Waiting() {
		return
	}
	ic.SetWaiting(true)
	waiters := b.iconWaiters[ic.URL]
	b.iconWaiters[ic.URL] = append(waiters, ic)
	if len(waiters) == 0 {
		b.startProbe(ic.URL)
	}
}

func (b *batch) startProbe(u string) {
	b.log.Debug("Probing icon image", zap.String("url", u))
	b.inflight++
	go func() {
		res := probeResult{url: u}
		if err := b.sem.Acquire(b.ctx, 1); err != nil {
			res.err = err
			b.events <- res
			return
		}
		res.size, res.err = b.p.opts.Prober.Probe(b.ctx, u)
		b.sem.Release(1)
		b.events <- res
	}()
}

func (b *batch) onProbed(res probeResult) {
	waiters := b.iconWaiters[res.url]
	delete(b.iconWaiters, res.url)

	known := res.err == nil
	if known {
		b.p.opts.SizeCache.Add(res.url, res.size)
	} else {
		b.log.Warn("Icon image unavailable, guessing its size",
			zap.String("url", res.url), zap.Error(res.err))
	}
	for _, ic := range waiters {
		ic.Finalize(res.size, known)
		ic.SetWaiting(false)
	}
	for _, ic := range waiters {
		for _, fn := range ic.Drain() {
			fn()
		}
	}
}
