// Package goquery implements the mutable document tree the engine rewrites.
//
// Documents are parsed from the golang.org/x/net/html tokenizer into plain
// *html.Node trees and queried with goquery. Each parsed node remembers its
// source text, so serializing an unmodified document reproduces its input
// byte for byte.
package goquery

import (
	"bytes"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a parsed HTML document. It is not safe for concurrent
// mutation.
type Document struct {
	root *html.Node
	src  map[*html.Node]*source
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// Find returns the elements matching selector. An invalid selector matches
// nothing.
func (d *Document) Find(selector string) *goquery.Selection {
	return goquery.NewDocumentFromNode(d.root).Find(selector)
}

// QuerySelectorAll returns the elements matching selector in document order.
func (d *Document) QuerySelectorAll(selector string) []*html.Node {
	return d.Find(selector).Nodes
}

// QuerySelector returns the first element matching selector, or nil.
func (d *Document) QuerySelector(selector string) *html.Node {
	nodes := d.Find(selector).First().Nodes
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// Head returns the head element, or nil when the document has none.
func (d *Document) Head() *html.Node {
	return d.QuerySelector("head")
}

// NewElement returns a detached element.
func NewElement(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
}

// InsertBefore inserts n as the previous sibling of ref.
func (d *Document) InsertBefore(ref, n *html.Node) {
	ref.Parent.InsertBefore(n, ref)
}

// InsertAfter inserts n as the next sibling of ref.
func (d *Document) InsertAfter(ref, n *html.Node) {
	ref.Parent.InsertBefore(n, ref.NextSibling)
}

// AppendChild adds n as the last child of parent.
func (d *Document) AppendChild(parent, n *html.Node) {
	parent.AppendChild(n)
}

// Remove detaches n from the tree. Removing a detached node is a no-op.
func (d *Document) Remove(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// Clone returns a detached deep copy of n.
func (d *Document) Clone(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		Data:      n.Data,
		DataAtom:  n.DataAtom,
		Namespace: n.Namespace,
		Attr:      copyAttrs(n.Attr),
	}
	if s, ok := d.src[n]; ok {
		d.src[c] = s
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(d.Clone(child))
	}
	return c
}

// Attr returns the value of the attribute key.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets key to val, keeping the position of an existing attribute.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// MergeAttr appends val to the existing value of key separated by a space,
// or sets it when key is absent or empty.
func MergeAttr(n *html.Node, key, val string) {
	if old, ok := Attr(n, key); ok && old != "" {
		SetAttr(n, key, old+" "+val)
		return
	}
	SetAttr(n, key, val)
}

// RemoveAttr deletes the attribute key.
func RemoveAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr = append(n.Attr[:i:i], n.Attr[i+1:]...)
			return
		}
	}
}

// Text returns the concatenated text content of n's direct text children.
func Text(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

// SetText replaces the children of n with a single text node. The text is
// written verbatim, so it is only meant for raw text elements like style
// and script.
func (d *Document) SetText(n *html.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// Render writes the document to w.
func (d *Document) Render(w io.Writer) error {
	var buf bytes.Buffer
	d.render(&buf, d.root)
	_, err := w.Write(buf.Bytes())
	return err
}

// String returns the serialized document.
func (d *Document) String() string {
	var buf bytes.Buffer
	d.render(&buf, d.root)
	return buf.String()
}

func (d *Document) render(buf *bytes.Buffer, n *html.Node) {
	s := d.src[n]
	switch n.Type {
	case html.DocumentNode:
		d.renderChildren(buf, n)
	case html.TextNode:
		switch {
		case s != nil:
			buf.WriteString(s.start)
		case n.Parent != nil && rawText[n.Parent.Data]:
			buf.WriteString(n.Data)
		default:
			buf.WriteString(html.EscapeString(n.Data))
		}
	case html.CommentNode:
		if s != nil {
			buf.WriteString(s.start)
		} else {
			buf.WriteString("<!--" + n.Data + "-->")
		}
	case html.DoctypeNode:
		if s != nil {
			buf.WriteString(s.start)
		} else {
			buf.WriteString("<!DOCTYPE " + n.Data + ">")
		}
	case html.RawNode:
		buf.WriteString(n.Data)
	case html.ElementNode:
		if s != nil && equalAttrs(n.Attr, s.attr) {
			buf.WriteString(s.start)
		} else {
			renderStartTag(buf, n)
		}
		d.renderChildren(buf, n)
		switch {
		case s != nil:
			buf.WriteString(s.end)
		case !isVoid(n.Data):
			buf.WriteString("</" + n.Data + ">")
		}
	}
}

func (d *Document) renderChildren(buf *bytes.Buffer, n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.render(buf, c)
	}
}

var rawText = map[string]bool{
	"script": true, "style": true, "noscript": true, "xmp": true,
	"iframe": true, "noembed": true, "noframes": true,
}

var attrEscaper = strings.NewReplacer(`&`, "&amp;", `"`, "&quot;")

func renderStartTag(buf *bytes.Buffer, n *html.Node) {
	buf.WriteByte('<')
	buf.WriteString(n.Data)
	for _, a := range n.Attr {
		buf.WriteByte(' ')
		if a.Namespace != "" {
			buf.WriteString(a.Namespace + ":")
		}
		buf.WriteString(a.Key)
		if a.Val != "" {
			buf.WriteString(`="`)
			buf.WriteString(attrEscaper.Replace(a.Val))
			buf.WriteByte('"')
		}
	}
	buf.WriteByte('>')
}

func equalAttrs(a, b []html.Attribute) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
