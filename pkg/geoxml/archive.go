package geoxml

import (
	"archive/zip"
	"bytes"
	"io"
	"mime"
	"path"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/flate"
)

// Archive is the content of a KMZ file.
type Archive struct {
	RootName string // entry name of the root document
	Root     []byte
	Entries  map[string][]byte
	DataURLs map[string]string // entry name -> data URL
}

// ArchiveExtractor unpacks compressed sources.
type ArchiveExtractor interface {
	Extract(data []byte) (*Archive, error)
}

// ZipExtractor reads KMZ files with archive/zip, inflating entries through
// github.com/klauspost/compress/flate.
type ZipExtractor struct{}

// RootDocumentName is the preferred root entry of a KMZ file.
const RootDocumentName = "doc.kml"

// Extract reads every file entry. The root document is doc.kml when present,
// otherwise the first .kml entry in archive order.
func (ZipExtractor) Extract(data []byte) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.Wrap(err, "read archive")
	}
	zr.RegisterDecompressor(zip.Deflate, func(r io.Reader) io.ReadCloser {
		return flate.NewReader(r)
	})

	a := &Archive{
		Entries:  make(map[string][]byte, len(zr.File)),
		DataURLs: make(map[string]string, len(zr.File)),
	}
	var firstKML string
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, errors.Wrapf(err, "open %s", f.Name)
		}
		body, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", f.Name)
		}
		a.Entries[f.Name] = body
		a.DataURLs[f.Name] = dataURL(mediaType(f.Name), body)
		if strings.EqualFold(path.Ext(f.Name), ".kml") && firstKML == "" {
			firstKML = f.Name
		}
	}

	switch {
	case a.Entries[RootDocumentName] != nil:
		a.RootName = RootDocumentName
	case firstKML != "":
		a.RootName = firstKML
	default:
		return nil, ErrNoRootDocument
	}
	a.Root = a.Entries[a.RootName]
	return a, nil
}

func mediaType(name string) string {
	ext := strings.ToLower(path.Ext(name))
	switch ext {
	case ".kml":
		return "application/vnd.google-earth.kml+xml"
	case ".kmz":
		return "application/vnd.google-earth.kmz"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

var (
	dataKMZ = regexp.MustCompile(`^data:[^,]*kmz`)
	dataKML = regexp.MustCompile(`^data:[^,]*(kml|xml)`)
)

// zipMagic starts every local file header.
var zipMagic = []byte("PK\x03\x04")

// isArchiveURL decides from the URL alone whether a source is compressed.
// unknown is true when only the content can tell.
func isArchiveURL(u string, force bool) (archive, unknown bool) {
	switch {
	case dataKMZ.MatchString(u):
		return true, false
	case dataKML.MatchString(u):
		return false, false
	case strings.HasPrefix(u, "data:"):
		return true, true
	case force:
		return true, false
	}
	p := u
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if strings.EqualFold(path.Ext(p), ".kmz") {
		return true, false
	}
	return false, true
}

// looksLikeZip reports whether data starts with a zip local file header.
func looksLikeZip(data []byte) bool {
	return bytes.HasPrefix(data, zipMagic)
}
