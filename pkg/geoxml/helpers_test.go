package geoxml

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/png"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/beetlebugorg/geoxml/internal/kml"
)

// kmlDoc wraps body in a namespaced <kml><Document>.
func kmlDoc(body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>` +
		`<kml xmlns="http://www.opengis.net/kml/2.2" xmlns:gx="http://www.google.com/kml/ext/2.2"><Document>` +
		body + `</Document></kml>`
}

// memFetcher serves documents from memory and counts requests per URL.
type memFetcher struct {
	mu    sync.Mutex
	files map[string][]byte
	hits  map[string]int
}

func newMemFetcher(files map[string]string) *memFetcher {
	m := &memFetcher{
		files: make(map[string][]byte, len(files)),
		hits:  make(map[string]int),
	}
	for name, content := range files {
		m.files[name] = []byte(content)
	}
	return m
}

func (m *memFetcher) set(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = data
}

func (m *memFetcher) Fetch(_ context.Context, u string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hits[u]++
	data, ok := m.files[u]
	if !ok {
		return nil, &FetchError{URL: u, Status: 404}
	}
	return append([]byte(nil), data...), nil
}

func (m *memFetcher) count(u string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits[u]
}

// probeLog is an ImageProber reporting a fixed size and recording calls.
type probeLog struct {
	mu    sync.Mutex
	size  kml.Size
	calls map[string]int
}

func newProbeLog(w, h float64) *probeLog {
	return &probeLog{size: kml.Size{W: w, H: h}, calls: make(map[string]int)}
}

func (p *probeLog) Probe(_ context.Context, u string) (kml.Size, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[u]++
	return p.size, nil
}

func (p *probeLog) count(u string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[u]
}

func (p *probeLog) total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		n += c
	}
	return n
}

// testOptions returns options wired to in-memory collaborators and a test
// logger.
func testOptions(t *testing.T, f *memFetcher) (Options, *probeLog) {
	t.Helper()
	probes := newProbeLog(32, 32)
	opts := DefaultOptions()
	opts.Logger = zaptest.NewLogger(t)
	opts.Fetcher = f
	opts.Prober = probes
	opts.Workers = 4
	return opts, probes
}

func newTestParser(t *testing.T, opts Options) *Parser {
	t.Helper()
	p := NewParser(opts)
	t.Cleanup(func() { p.Close() })
	return p
}

// buildKMZ zips files in the given order.
func buildKMZ(t *testing.T, names []string, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write(files[name]); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

// pngBytes encodes a blank w x h PNG.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
