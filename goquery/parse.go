package goquery

import (
	"errors"
	"io"
	"strings"

	"github.com/fwojciec/critical"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// source remembers how a node was written so an unmodified node renders
// back to exactly the same bytes.
type source struct {
	// start is the raw start tag, or the raw token for non-elements.
	start string
	// end is the raw end tag, empty when the element was closed implicitly.
	end string
	// attr is a copy of the attributes as parsed.
	attr []html.Attribute
}

// parser builds a tree from tokens without HTML5 insertion modes. Only a
// handful of implied end tags are honored so common markup nests the way a
// browser nests it.
type parser struct {
	z     *html.Tokenizer
	doc   *Document
	stack []*html.Node
}

// Parse builds a Document from text.
func Parse(text string) (*Document, error) {
	root := &html.Node{Type: html.DocumentNode}
	p := &parser{
		z:     html.NewTokenizer(strings.NewReader(text)),
		doc:   &Document{root: root, src: make(map[*html.Node]*source)},
		stack: []*html.Node{root},
	}
	if err := p.parse(); err != nil {
		return nil, critical.Errorf(critical.EPARSE, "unable to parse html: %v", err)
	}
	return p.doc, nil
}

func (p *parser) parse() error {
	for {
		tt := p.z.Next()
		if tt == html.ErrorToken {
			if err := p.z.Err(); !errors.Is(err, io.EOF) {
				return err
			}
			return nil
		}
		raw := string(p.z.Raw())
		tok := p.z.Token()

		switch tt {
		case html.TextToken:
			p.add(&html.Node{Type: html.TextNode, Data: tok.Data}, raw)
		case html.CommentToken:
			p.add(&html.Node{Type: html.CommentNode, Data: tok.Data}, raw)
		case html.DoctypeToken:
			p.add(&html.Node{Type: html.DoctypeNode, Data: tok.Data}, raw)
		case html.StartTagToken, html.SelfClosingTagToken:
			p.startTag(tok, raw, tt == html.SelfClosingTagToken)
		case html.EndTagToken:
			p.endTag(tok.Data, raw)
		}
	}
}

func (p *parser) top() *html.Node {
	return p.stack[len(p.stack)-1]
}

func (p *parser) add(n *html.Node, raw string) {
	p.top().AppendChild(n)
	p.doc.src[n] = &source{start: raw}
}

func (p *parser) startTag(tok html.Token, raw string, selfClosing bool) {
	p.closeImplied(tok.Data)

	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tok.Data,
		DataAtom: atom.Lookup([]byte(tok.Data)),
		Attr:     uniqueAttrs(tok.Attr),
	}
	p.top().AppendChild(n)
	p.doc.src[n] = &source{start: raw, attr: copyAttrs(n.Attr)}

	if !selfClosing && !isVoid(tok.Data) {
		p.stack = append(p.stack, n)
	}
}

func (p *parser) endTag(name, raw string) {
	for i := len(p.stack) - 1; i > 0; i-- {
		if p.stack[i].Data == name {
			p.doc.src[p.stack[i]].end = raw
			p.stack = p.stack[:i]
			return
		}
	}
	// Stray end tags are kept as written.
	p.add(&html.Node{Type: html.RawNode, Data: raw}, raw)
}

// closeImplied pops the elements a start tag of the given name closes.
func (p *parser) closeImplied(name string) {
	top := p.top().Data
	switch {
	case name == "body":
		p.popTo("head")
	case top == "head" && !headContent[name]:
		p.pop()
	case closesParagraph[name] && top == "p":
		p.pop()
	case name == "li" && top == "li":
		p.pop()
	case (name == "dt" || name == "dd") && (top == "dt" || top == "dd"):
		p.pop()
	case (name == "option" || name == "optgroup") && top == "option":
		p.pop()
		if name == "optgroup" && p.top().Data == "optgroup" {
			p.pop()
		}
	case (name == "td" || name == "th") && (top == "td" || top == "th"):
		p.pop()
	case name == "tr":
		if top == "td" || top == "th" {
			p.pop()
		}
		if p.top().Data == "tr" {
			p.pop()
		}
	}
}

func (p *parser) pop() {
	if len(p.stack) > 1 {
		p.stack = p.stack[:len(p.stack)-1]
	}
}

func (p *parser) popTo(name string) {
	for i := len(p.stack) - 1; i > 0; i-- {
		if p.stack[i].Data == name {
			p.stack = p.stack[:i]
			return
		}
	}
}

var headContent = map[string]bool{
	"base": true, "link": true, "meta": true, "noscript": true, "script": true,
	"style": true, "template": true, "title": true,
}

var closesParagraph = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"details": true, "div": true, "dl": true, "fieldset": true,
	"figcaption": true, "figure": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hgroup": true, "hr": true, "main": true, "menu": true,
	"nav": true, "ol": true, "p": true, "pre": true, "section": true,
	"table": true, "ul": true,
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "keygen": true, "link": true,
	"meta": true, "param": true, "source": true, "track": true, "wbr": true,
}

func isVoid(name string) bool {
	return voidElements[name]
}

// uniqueAttrs drops repeated keys, keeping the first like browsers do.
func uniqueAttrs(attrs []html.Attribute) []html.Attribute {
	out := attrs[:0:0]
	for _, a := range attrs {
		dup := false
		for _, b := range out {
			if a.Key == b.Key && a.Namespace == b.Namespace {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, a)
		}
	}
	return out
}

func copyAttrs(attrs []html.Attribute) []html.Attribute {
	if attrs == nil {
		return nil
	}
	return append([]html.Attribute(nil), attrs...)
}
