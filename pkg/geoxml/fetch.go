package geoxml

import (
	"context"
	"encoding/base64"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/time/rate"
)

// Fetcher retrieves the raw bytes behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, url string) ([]byte, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

// DefaultFetchTimeout bounds a single HTTP request made by NewHTTPFetcher.
const DefaultFetchTimeout = 30 * time.Second

// HTTPFetcher fetches over HTTP(S).
type HTTPFetcher struct {
	Client *http.Client

	// Limiter, when set, paces requests to the servers.
	Limiter *rate.Limiter
}

// NewHTTPFetcher returns a fetcher using client, or a client with
// DefaultFetchTimeout when client is nil.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}
	return &HTTPFetcher{Client: client}
}

// Fetch performs a GET request. Non-200 responses are returned as
// *FetchError with the status set.
func (f *HTTPFetcher) Fetch(ctx context.Context, u string) ([]byte, error) {
	if f.Limiter != nil {
		if err := f.Limiter.Wait(ctx); err != nil {
			return nil, &FetchError{URL: u, Err: err}
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &FetchError{URL: u, Err: err}
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: u, Status: resp.StatusCode}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: u, Err: errors.Wrap(err, "read body")}
	}
	return data, nil
}

// FSFetcher reads documents from a file system. URLs are taken as slash
// separated paths; a file:// scheme and leading slashes are stripped.
type FSFetcher struct {
	FS fs.FS
}

// Fetch reads the file named by u.
func (f FSFetcher) Fetch(_ context.Context, u string) ([]byte, error) {
	name := u
	if parsed, err := url.Parse(u); err == nil && parsed.Scheme == "file" {
		name = parsed.Path
	}
	name = strings.TrimLeft(name, "/")
	data, err := fs.ReadFile(f.FS, name)
	if err != nil {
		return nil, &FetchError{URL: u, Err: err}
	}
	return data, nil
}

// decodeDataURL returns the payload of an RFC 2397 data URL.
func decodeDataURL(u string) ([]byte, error) {
	if !strings.HasPrefix(u, "data:") {
		return nil, errors.Newf("not a data URL: %.32s", u)
	}
	meta, payload, ok := strings.Cut(u[len("data:"):], ",")
	if !ok {
		return nil, errors.New("data URL without payload")
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, errors.Wrap(err, "decode data URL")
		}
		return data, nil
	}
	text, err := url.PathUnescape(payload)
	if err != nil {
		return nil, errors.Wrap(err, "decode data URL")
	}
	return []byte(text), nil
}

// dataURL encodes data as a base64 data URL of the given media type.
func dataURL(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
