package geoxml

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/cockroachdb/errors"

	"github.com/beetlebugorg/geoxml/internal/kml"
)

// ImageProber reports the natural size of an icon image.
type ImageProber interface {
	Probe(ctx context.Context, url string) (kml.Size, error)
}

// ProberFunc adapts a function to ImageProber.
type ProberFunc func(ctx context.Context, url string) (kml.Size, error)

// Probe calls f.
func (f ProberFunc) Probe(ctx context.Context, url string) (kml.Size, error) {
	return f(ctx, url)
}

// FetchProber downloads the image through Fetcher and decodes only its
// header. PNG, GIF and JPEG are understood; data URLs are decoded in place.
type FetchProber struct {
	Fetcher Fetcher
}

// Probe returns the image dimensions.
func (p *FetchProber) Probe(ctx context.Context, url string) (kml.Size, error) {
	var (
		data []byte
		err  error
	)
	if kml.IsDataURL(url) {
		data, err = decodeDataURL(url)
	} else {
		data, err = p.Fetcher.Fetch(ctx, url)
	}
	if err != nil {
		return kml.Size{}, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return kml.Size{}, errors.Wrapf(err, "decode image %.64s", url)
	}
	return kml.Size{W: float64(cfg.Width), H: float64(cfg.Height)}, nil
}
