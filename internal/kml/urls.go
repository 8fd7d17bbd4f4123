package kml

import (
	"net/url"
	"path"
	"strings"
)

// ResolveURL qualifies ref against base. base is either a directory
// (ending in "/") or a document URL whose last segment is dropped.
// Absolute URLs and data URLs are returned unchanged; plain paths are
// cleaned so that "./" and "../" segments disappear.
func ResolveURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return base
	}
	if IsDataURL(ref) {
		return ref
	}
	if r, err := url.Parse(ref); err == nil && r.Scheme != "" {
		return r.String()
	}
	if b, err := url.Parse(base); err == nil && b.Scheme != "" && b.Scheme != "data" {
		if r, err := url.Parse(ref); err == nil {
			return b.ResolveReference(r).String()
		}
	}
	if strings.HasPrefix(ref, "/") {
		return path.Clean(ref)
	}
	return path.Clean(path.Join(Dir(base), ref))
}

// Dir returns everything up to and including the last "/" of u.
func Dir(u string) string {
	i := strings.LastIndex(u, "/")
	if i < 0 {
		return ""
	}
	return u[:i+1]
}

// IsDataURL reports whether u is an RFC 2397 data URL.
func IsDataURL(u string) bool {
	return strings.HasPrefix(u, "data:")
}
