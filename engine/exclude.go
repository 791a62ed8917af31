package engine

import (
	"strings"

	"github.com/fwojciec/critical"
)

// excluded reports whether the stylesheet at href is left alone: remote
// stylesheets, those the configured Exclude matches and anything that is
// not a .css file.
func excluded(href string, exclude critical.Exclude) bool {
	if isRemote(href) {
		return true
	}
	if exclude.Match(href) {
		return true
	}
	return !strings.HasSuffix(stripQuery(href), ".css")
}

func isRemote(href string) bool {
	return strings.HasPrefix(href, "http://") ||
		strings.HasPrefix(href, "https://") ||
		strings.HasPrefix(href, "//")
}

func stripQuery(href string) string {
	p, _, _ := strings.Cut(href, "?")
	return p
}
