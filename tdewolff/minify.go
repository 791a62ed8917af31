package tdewolff

import (
	"github.com/fwojciec/critical"
	"github.com/tdewolff/minify/v2"
	mincss "github.com/tdewolff/minify/v2/css"
)

// Ensure Minifier implements critical.Minifier.
var _ critical.Minifier = (*Minifier)(nil)

// Minifier compacts stylesheets.
type Minifier struct {
	m *minify.M
}

// NewMinifier creates a new Minifier.
func NewMinifier() *Minifier {
	m := minify.New()
	m.AddFunc("text/css", mincss.Minify)
	return &Minifier{m: m}
}

// Minify returns css minified.
func (m *Minifier) Minify(css string) (string, error) {
	out, err := m.m.String("text/css", css)
	if err != nil {
		return "", critical.Errorf(critical.EPARSE, "unable to minify css: %v", err)
	}
	return out, nil
}
