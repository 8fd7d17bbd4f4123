package geoxml

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrNoSources is returned by Parse when called without URLs.
	ErrNoSources = errors.New("no sources to parse")

	// ErrNoRootDocument indicates an archive without any .kml entry.
	ErrNoRootDocument = errors.New("archive contains no KML document")

	// ErrClosed is returned when parsing through a closed Parser.
	ErrClosed = errors.New("parser closed")
)

// FetchError indicates a document or image that could not be retrieved.
type FetchError struct {
	URL    string
	Status int // HTTP status, 0 when the failure was not an HTTP response
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// MarkupError indicates a document whose bytes are not well-formed XML.
type MarkupError struct {
	URL string
	Err error
}

func (e *MarkupError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

func (e *MarkupError) Unwrap() error { return e.Err }
