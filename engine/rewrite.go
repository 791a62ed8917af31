package engine

import (
	"strings"

	"github.com/fwojciec/critical"
	"github.com/fwojciec/critical/goquery"
	"github.com/google/uuid"
	"golang.org/x/net/html"
)

const (
	restoreMedia = "this.media=this.dataset.media,delete this.dataset.media,"
	removeStyle  = `document.querySelector('style[data-id="'+this.dataset.id+'"]').remove(),`
	clearOnload  = "this.onload=null;"
)

// pairsStyles reports whether inserted styles and their links share a
// data-id attribute.
func (e *Engine) pairsStyles() bool {
	return e.opts.AutoRemoveStyleTags ||
		(e.opts.EventHandlers == critical.EventHandlersScript && e.opts.AsyncLoad)
}

// onload returns the load handler set on deferred links, or an empty
// string when they need none.
func (e *Engine) onload() string {
	var b strings.Builder
	if e.opts.AsyncLoad {
		b.WriteString(restoreMedia)
	}
	if e.opts.AutoRemoveStyleTags {
		b.WriteString(removeStyle)
	}
	if b.Len() == 0 {
		return ""
	}
	b.WriteString(clearOnload)
	return b.String()
}

// handlerScript returns the script that installs the load handlers of
// paired links, or an empty string when they need none.
func (e *Engine) handlerScript() string {
	var steps []string
	if e.opts.AsyncLoad {
		steps = append(steps, "e.media=e.dataset.media,delete e.dataset.media")
	}
	if e.opts.AutoRemoveStyleTags {
		steps = append(steps, `document.querySelector('style[data-id="'+e.dataset.id+'"]').remove()`)
	}
	if len(steps) == 0 {
		return ""
	}
	return `[].forEach.call(document.querySelectorAll('link[rel="stylesheet"][data-id]'),function(e){e.onload=function(){` +
		strings.Join(steps, ",") + `;}});`
}

// insertStyle adds a style element holding css before link, or at the end
// of the head when there is no link. A paired style shares a fresh data-id
// with its link.
func (r *run) insertStyle(css string, link *html.Node, paired bool) {
	e := r.engine
	style := goquery.NewElement("style")
	r.doc.SetText(style, css)
	r.inserted[style] = true

	if link != nil {
		if paired && e.pairsStyles() {
			id := uuid.NewString()
			goquery.SetAttr(style, "data-id", id)
			goquery.SetAttr(link, "data-id", id)
		}
		if paired && e.opts.AutoRemoveStyleTags && !e.opts.AsyncLoad && e.opts.EventHandlers == critical.EventHandlersAttr {
			goquery.SetAttr(link, "onload", e.onload())
		}
		r.doc.InsertBefore(link, style)
		return
	}

	head := r.doc.Head()
	if head == nil {
		e.logger.Warn("Unable to insert style tag because head tag is missing.", r.pid)
		return
	}
	r.doc.AppendChild(head, style)
}

// insertPreload adds a preload link for the stylesheet of link before it,
// unless the document already preloads it.
func (r *run) insertPreload(link *html.Node) {
	href, _ := goquery.Attr(link, "href")
	for _, l := range r.doc.QuerySelectorAll(`link[rel="preload"]`) {
		if h, _ := goquery.Attr(l, "href"); h == href {
			r.engine.logger.Debug("Skip adding the preload link as it is already there.", r.pid)
			return
		}
	}
	preload := r.doc.Clone(link)
	goquery.SetAttr(preload, "rel", "preload")
	goquery.SetAttr(preload, "as", "style")
	r.doc.InsertBefore(link, preload)
}

// insertNoscript adds a noscript copy of link after it so the stylesheet
// still loads without scripts.
func (r *run) insertNoscript(link *html.Node) {
	if !r.engine.opts.NoscriptFallback {
		return
	}
	noscript := goquery.NewElement("noscript")
	r.doc.AppendChild(noscript, r.doc.Clone(link))
	r.doc.InsertAfter(link, noscript)
}

// makeAsync loads link with print media and restores its media once
// loaded.
func (r *run) makeAsync(link *html.Node) {
	media, _ := goquery.Attr(link, "media")
	if media == "" {
		media = "all"
	}
	goquery.SetAttr(link, "media", "print")
	goquery.SetAttr(link, "data-media", media)
	if r.engine.opts.EventHandlers == critical.EventHandlersAttr {
		goquery.SetAttr(link, "onload", r.engine.onload())
	}
}

// moveEventHandlers adds the load handler script after the last link of
// the document when a link needs it.
func (r *run) moveEventHandlers() {
	src := r.engine.handlerScript()
	if src == "" || len(r.doc.QuerySelectorAll(`link[rel="stylesheet"][data-id]`)) == 0 {
		return
	}
	links := r.doc.QuerySelectorAll("link")
	script := goquery.NewElement("script")
	r.doc.SetText(script, src)
	r.doc.InsertAfter(links[len(links)-1], script)
}

// merge folds every style element into the first one. Without internal
// processing only inserted styles are merged.
func (r *run) merge() {
	var styles []*html.Node
	for _, s := range r.doc.QuerySelectorAll("style") {
		if r.engine.opts.Internal || r.inserted[s] {
			styles = append(styles, s)
		}
	}
	if len(styles) < 2 {
		return
	}
	first := styles[0]
	text := goquery.Text(first)
	for _, s := range styles[1:] {
		text += goquery.Text(s)
		for _, a := range s.Attr {
			goquery.MergeAttr(first, a.Key, a.Val)
		}
		r.doc.Remove(s)
	}
	r.doc.SetText(first, text)
}
