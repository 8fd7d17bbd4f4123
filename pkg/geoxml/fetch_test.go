package geoxml

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/beetlebugorg/geoxml/internal/kml"
)

func TestDecodeDataURL(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "base64", in: "data:text/plain;base64,aGVsbG8=", want: "hello"},
		{name: "percent", in: "data:text/xml,%3Ckml%2F%3E", want: "<kml/>"},
		{name: "empty payload", in: "data:,", want: ""},
		{name: "no comma", in: "data:text/plain", wantErr: true},
		{name: "bad base64", in: "data:;base64,!!!", wantErr: true},
		{name: "not data", in: "http://example.com/", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeDataURL(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestFSFetcher(t *testing.T) {
	f := FSFetcher{FS: fstest.MapFS{
		"charts/harbor.kml": {Data: []byte("<kml/>")},
	}}
	ctx := context.Background()

	for _, u := range []string{"charts/harbor.kml", "/charts/harbor.kml", "file:///charts/harbor.kml"} {
		data, err := f.Fetch(ctx, u)
		require.NoError(t, err, u)
		assert.Equal(t, "<kml/>", string(data))
	}

	_, err := f.Fetch(ctx, "charts/missing.kml")
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "charts/missing.kml", fe.URL)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/doc.kml":
			w.Write([]byte("<kml/>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.Client())
	f.Limiter = rate.NewLimiter(rate.Inf, 1)

	data, err := f.Fetch(context.Background(), srv.URL+"/doc.kml")
	require.NoError(t, err)
	assert.Equal(t, "<kml/>", string(data))

	_, err = f.Fetch(context.Background(), srv.URL+"/gone.kml")
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusNotFound, fe.Status)
	assert.Contains(t, fe.Error(), "HTTP 404")
}

func TestHTTPFetcherCanceled(t *testing.T) {
	f := NewHTTPFetcher(nil)
	f.Limiter = rate.NewLimiter(rate.Every(time.Second), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Fetch(ctx, "http://127.0.0.1:1/doc.kml")
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Zero(t, fe.Status)
}

func TestFetchProber(t *testing.T) {
	png := pngBytes(t, 24, 12)
	f := newMemFetcher(nil)
	f.set("http://example.com/pin.png", png)
	f.set("http://example.com/broken.png", []byte("not an image"))
	p := &FetchProber{Fetcher: f}
	ctx := context.Background()

	size, err := p.Probe(ctx, "http://example.com/pin.png")
	require.NoError(t, err)
	assert.Equal(t, kml.Size{W: 24, H: 12}, size)

	size, err = p.Probe(ctx, dataURL("image/png", png))
	require.NoError(t, err)
	assert.Equal(t, kml.Size{W: 24, H: 12}, size)
	assert.Equal(t, 1, f.count("http://example.com/pin.png"))

	_, err = p.Probe(ctx, "http://example.com/broken.png")
	require.Error(t, err)

	_, err = p.Probe(ctx, "http://example.com/missing.png")
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 404, fe.Status)
}
