package kml

import (
	"math"
	"net/url"
	"strings"

	"github.com/beevik/etree"
)

// Refresh modes.
const (
	RefreshOnChange   = "onChange"
	RefreshOnInterval = "onInterval"
	ViewRefreshNever  = "never"
	ViewRefreshOnStop = "onStop"
)

// DefaultViewFormat is the query template used for onStop links without one.
const DefaultViewFormat = "BBOX=[bboxWest],[bboxSouth],[bboxEast],[bboxNorth]"

// NetworkLink is an extracted <NetworkLink>.
type NetworkLink struct {
	Name            string
	Href            string
	RefreshMode     string
	RefreshInterval float64 // seconds, onInterval only
	ViewRefreshMode string  // onChange only
	ViewRefreshTime float64 // onStop only
	ViewFormat      string  // onStop only
}

// LoadOnce reports whether the link is fetched a single time as part of
// the batch.
func (l *NetworkLink) LoadOnce() bool {
	return l.RefreshMode == RefreshOnChange && l.ViewRefreshMode == ViewRefreshNever
}

// Periodic reports whether the link reloads on a timer.
func (l *NetworkLink) Periodic() bool {
	return l.RefreshMode == RefreshOnInterval && l.RefreshInterval > 0
}

// ExtractNetworkLink builds a NetworkLink from node. Relative hrefs are
// qualified against the directory of location, the URL the caller is
// running at, not against the base directory of the owning document.
func ExtractNetworkLink(node *etree.Element, location string) *NetworkLink {
	l := &NetworkLink{
		Name:        Value(First(node, "name")),
		Href:        QualifyLinkHref(location, Value(First(node, "href"))),
		RefreshMode: ValueOr(First(node, "refreshMode"), ""),
	}
	if l.RefreshMode == "" {
		l.RefreshMode = RefreshOnChange
	}
	switch l.RefreshMode {
	case RefreshOnInterval:
		l.RefreshInterval = Float(First(node, "refreshInterval"), 0)
		if math.IsNaN(l.RefreshInterval) {
			l.RefreshInterval = 0
		}
	case RefreshOnChange:
		l.ViewRefreshMode = Value(First(node, "viewRefreshMode"))
		if l.ViewRefreshMode == "" {
			l.ViewRefreshMode = ViewRefreshNever
		}
		if l.ViewRefreshMode == ViewRefreshOnStop {
			l.ViewRefreshTime = Float(First(node, "viewRefreshTime"), 0)
			if math.IsNaN(l.ViewRefreshTime) {
				l.ViewRefreshTime = 0
			}
			l.ViewFormat = Value(First(node, "viewFormat"))
			if l.ViewFormat == "" {
				l.ViewFormat = DefaultViewFormat
			}
		}
	}
	return l
}

// QualifyLinkHref returns href unchanged when it is rooted or carries a URL
// scheme, and Dir(location)+href otherwise.
func QualifyLinkHref(location, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "/") || IsDataURL(href) {
		return href
	}
	if u, err := url.Parse(href); err == nil && u.Scheme != "" {
		return href
	}
	return Dir(location) + href
}
