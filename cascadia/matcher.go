// Package cascadia decides which style rules apply to a document by
// matching their selectors with cascadia.
package cascadia

import (
	"context"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/critical"
	"github.com/fwojciec/critical/tdewolff"
	"golang.org/x/net/html"
)

// Ensure Matcher implements critical.Matcher.
var _ critical.Matcher = (*Matcher)(nil)

// DefaultCacheSize is the number of parsed documents a Matcher keeps.
const DefaultCacheSize = 32

// Matcher drops the rules of a stylesheet that match nothing in a document.
// Parsed documents and selector results are cached by document content, so
// partitioning several stylesheets against one document parses it once.
type Matcher struct {
	// CacheSize bounds the document cache. Zero means DefaultCacheSize.
	CacheSize int

	mu   sync.Mutex
	docs map[uint64]*document
}

// NewMatcher returns a new Matcher.
func NewMatcher() *Matcher {
	return &Matcher{}
}

// Reset drops all cached documents.
func (m *Matcher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = nil
}

type document struct {
	html string
	once sync.Once
	root *html.Node
	err  error

	mu      sync.Mutex
	matches map[string]bool
}

func (m *Matcher) document(text string) *document {
	key := xxhash.Sum64String(text)

	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.docs[key]; ok && d.html == text {
		return d
	}
	size := m.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	if m.docs == nil || len(m.docs) >= size {
		m.docs = make(map[uint64]*document)
	}
	d := &document{html: text, matches: make(map[string]bool)}
	m.docs[key] = d
	return d
}

func (d *document) parse() (*html.Node, error) {
	d.once.Do(func() {
		if strings.TrimSpace(d.html) == "" {
			return
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(d.html))
		if err != nil {
			d.err = err
			return
		}
		d.root = doc.Nodes[0]
	})
	return d.root, d.err
}

// match reports whether any element matches sel. An empty document
// matches nothing.
func (d *document) match(sel string) (bool, error) {
	root, err := d.parse()
	if err != nil {
		return false, critical.Errorf(critical.EPARSE, "unable to parse html: %v", err)
	}
	if root == nil {
		return false, nil
	}
	sel = matchableSelector(sel)

	d.mu.Lock()
	ok, cached := d.matches[sel]
	d.mu.Unlock()
	if cached {
		return ok, nil
	}

	compiled, err := cascadia.Compile(sel)
	if err != nil {
		return false, critical.Errorf(critical.EPARSE, "invalid selector %q: %v", sel, err)
	}
	ok = cascadia.Query(root, compiled) != nil

	d.mu.Lock()
	d.matches[sel] = ok
	d.mu.Unlock()
	return ok, nil
}

// Drop implements critical.Matcher.
func (m *Matcher) Drop(ctx context.Context, req critical.DropRequest) (critical.DropResult, error) {
	if err := ctx.Err(); err != nil {
		return critical.DropResult{}, err
	}
	rules, err := tdewolff.Parse(req.CSS)
	if err != nil {
		return critical.DropResult{}, critical.Errorf(critical.EPARSE, "unable to parse css: %v", err)
	}
	p := &pass{req: req, doc: m.document(req.HTML), fonts: make(map[string]bool), animations: make(map[string]bool)}
	rules, err = p.styles(rules)
	if err != nil {
		return critical.DropResult{}, err
	}
	rules = p.references(rules)
	return critical.DropResult{CSS: tdewolff.Render(rules), Dropped: p.dropped}, nil
}

// pass holds the state of one Drop call.
type pass struct {
	req     critical.DropRequest
	doc     *document
	dropped int

	// fonts and animations are the names retained rules refer to.
	fonts      map[string]bool
	animations map[string]bool
}

// styles filters the selectors of style rules and drops rules left with
// none. @font-face and @keyframes are kept for the references pass.
func (p *pass) styles(rules []*tdewolff.Rule) ([]*tdewolff.Rule, error) {
	out := rules[:0]
	for _, r := range rules {
		switch r.Kind {
		case tdewolff.StyleRule:
			var kept []string
			for _, sel := range r.Selectors {
				ok, err := p.doc.match(sel)
				if err != nil {
					return nil, err
				}
				if !ok && (p.req.ShouldDrop == nil || p.req.ShouldDrop(sel)) {
					p.dropped++
					continue
				}
				kept = append(kept, sel)
				if p.req.DidRetain != nil {
					p.req.DidRetain(sel)
				}
			}
			if len(kept) == 0 {
				continue
			}
			r.Selectors = kept
			p.collect(r.Body)
		case tdewolff.GroupRule:
			if len(r.Rules) == 0 {
				break
			}
			nested, err := p.styles(r.Rules)
			if err != nil {
				return nil, err
			}
			if len(nested) == 0 {
				continue
			}
			r.Rules = nested
		}
		out = append(out, r)
	}
	return out, nil
}

// collect records the font families and animation names a declaration
// block refers to.
func (p *pass) collect(body string) {
	for _, d := range tdewolff.Declarations(body) {
		switch d.Property {
		case "font-family", "font":
			for _, name := range fontFamilies(d) {
				p.fonts[name] = true
			}
		case "animation", "animation-name":
			for _, v := range d.Values {
				p.animations[string(v.Data)] = true
			}
		}
	}
}

// references drops @font-face and @keyframes rules nothing refers to, or
// that the request drops even when used, along with groups left empty.
// Kinds the request keeps are never dropped.
func (p *pass) references(rules []*tdewolff.Rule) []*tdewolff.Rule {
	out := rules[:0]
	for _, r := range rules {
		switch {
		case r.Kind == tdewolff.BlockRule && r.Name == "font-face":
			if !p.req.KeepFontFace && (p.req.DropUsedFontFace || !p.fonts[fontFaceFamily(r.Body)]) {
				p.dropped++
				continue
			}
		case r.Kind == tdewolff.BlockRule && isKeyframes(r.Name):
			if !p.req.KeepKeyframes && (p.req.DropUsedKeyframes || !p.animations[keyframesName(r)]) {
				p.dropped++
				continue
			}
		case r.Kind == tdewolff.GroupRule && len(r.Rules) > 0:
			r.Rules = p.references(r.Rules)
			if len(r.Rules) == 0 {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

func isKeyframes(name string) bool {
	return name == "keyframes" || strings.HasSuffix(name, "-keyframes")
}

func keyframesName(r *tdewolff.Rule) string {
	_, name, _ := strings.Cut(r.Prelude, " ")
	return tdewolff.Unquote(strings.TrimSpace(name))
}

func fontFaceFamily(body string) string {
	for _, d := range tdewolff.Declarations(body) {
		if d.Property == "font-family" {
			return strings.ToLower(tdewolff.Unquote(d.Value()))
		}
	}
	return ""
}

// fontFamilies returns the lowercased family names of a font or
// font-family declaration.
func fontFamilies(d tdewolff.Declaration) []string {
	var names []string
	for i, part := range strings.Split(d.Value(), ",") {
		part = strings.TrimSpace(part)
		if d.Property == "font" && i == 0 {
			// The first family of the shorthand follows the size.
			fields := strings.Fields(part)
			for j := len(fields) - 1; j >= 0; j-- {
				if strings.ContainsAny(fields[j][:1], "0123456789.") {
					part = strings.Join(fields[j+1:], " ")
					break
				}
			}
		}
		if part = strings.ToLower(tdewolff.Unquote(part)); part != "" {
			names = append(names, part)
		}
	}
	return names
}
