// Package engine inlines the critical CSS of HTML documents.
//
// An Engine finds the internal and external stylesheets of a document,
// keeps the rules whose selectors match it inline and defers loading of the
// rest. With pruning enabled it remembers every inlined selector, so a later
// PruneSources call can strip them from the stylesheet files.
package engine

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/critical"
	"github.com/fwojciec/critical/cascadia"
	"github.com/fwojciec/critical/fs"
	"github.com/fwojciec/critical/goquery"
	critslog "github.com/fwojciec/critical/slog"
	"github.com/fwojciec/critical/tdewolff"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
)

// Ensure Engine implements critical.Processor.
var _ critical.Processor = (*Engine)(nil)

// Dependencies are the collaborators of an Engine. Nil fields get a
// default: the os file system, a glob over it, a cascadia matcher, a
// tdewolff minifier and a slog text logger on stderr. Assets may stay nil.
type Dependencies struct {
	FileSystem critical.FileSystem
	Assets     critical.AssetStore
	Globber    critical.Globber
	Matcher    critical.Matcher
	Minifier   critical.Minifier
	Logger     critical.Logger
}

// Engine processes documents. It is safe for concurrent use, except that
// Clear must not overlap other calls.
type Engine struct {
	opts      critical.Options
	whitelist critical.Whitelist

	session  *Session
	resolver *resolver
	matcher  critical.Matcher
	minifier critical.Minifier
	logger   critical.Logger
}

// New returns an Engine configured by opts.
func New(opts critical.Options, deps Dependencies) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.EventHandlers == "" {
		opts.EventHandlers = critical.EventHandlersAttr
	}
	if opts.AutoRemoveStyleTags {
		opts.Merge = false
	}
	if opts.Path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("working directory: %w", err)
		}
		opts.Path = wd
	}
	base, err := filepath.Abs(opts.Path)
	if err != nil {
		return nil, critical.Errorf(critical.EINVALID, "invalid path %q: %v", opts.Path, err)
	}
	opts.Path = base

	whitelist, err := opts.Whitelist.Escape()
	if err != nil {
		return nil, err
	}

	if deps.FileSystem == nil {
		deps.FileSystem = fs.NewFileSystem()
	}
	if deps.Globber == nil {
		deps.Globber = fs.NewGlobber(deps.FileSystem)
	}
	if deps.Matcher == nil {
		deps.Matcher = cascadia.NewMatcher()
	}
	if deps.Minifier == nil {
		deps.Minifier = tdewolff.NewMinifier()
	}
	level, _ := critical.ParseLogLevel(string(opts.LogLevel))
	if deps.Logger == nil {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: critslog.Level(level)})
		deps.Logger = critslog.NewLogger(slog.New(handler))
	}
	logger := critical.SetVerbosity(deps.Logger, level)

	session := NewSession()
	return &Engine{
		opts:      opts,
		whitelist: whitelist,
		session:   session,
		resolver: &resolver{
			base:       base,
			publicPath: opts.PublicPath,
			fs:         deps.FileSystem,
			assets:     deps.Assets,
			globber:    deps.Globber,
			session:    session,
			logger:     logger,
			exclude:    opts.Exclude,
		},
		matcher:  deps.Matcher,
		minifier: deps.Minifier,
		logger:   logger,
	}, nil
}

// Options returns the effective options.
func (e *Engine) Options() critical.Options {
	return e.opts
}

// Session returns the state shared between documents.
func (e *Engine) Session() *Session {
	return e.session
}

// Clear forgets every loaded stylesheet and inlined selector.
func (e *Engine) Clear() {
	e.session.Reset()
	if r, ok := e.matcher.(interface{ Reset() }); ok {
		r.Reset()
	}
}

// Process returns text with its critical CSS inlined. When no stylesheet
// changed, text is returned as is.
func (e *Engine) Process(ctx context.Context, text string, pid critical.ProcessID) (string, error) {
	start := time.Now()

	doc, err := goquery.Parse(text)
	if err != nil {
		e.logger.Error("Unable to parse css or html.", pid)
		return "", err
	}
	r := &run{
		engine:   e,
		doc:      doc,
		html:     critical.EscapeClasses(text),
		pid:      pid,
		inserted: make(map[*html.Node]bool),
	}

	var changed bool
	if e.opts.Internal {
		ok, err := r.internal(ctx)
		if err != nil {
			return "", err
		}
		changed = changed || ok
	}
	if e.opts.External {
		ok, err := r.external(ctx)
		if err != nil {
			return "", err
		}
		changed = changed || ok
	}
	if e.opts.EventHandlers == critical.EventHandlersScript {
		r.moveEventHandlers()
	}

	if !changed {
		e.logger.Info("No non-critical css rules was removed.", pid)
		return text, nil
	}
	if e.opts.Merge {
		r.merge()
	}
	out := doc.String()

	e.logger.Info(fmt.Sprintf("Processed in %s.", critical.FormatDuration(time.Since(start))), pid)
	return out, nil
}

// run is the processing of one document.
type run struct {
	engine *Engine
	doc    *goquery.Document
	pid    critical.ProcessID

	// html is the document source with escaped class attributes.
	html string

	// inserted holds the style elements added for external stylesheets.
	inserted map[*html.Node]bool
}

// internal reduces every style element to its critical rules.
func (r *run) internal(ctx context.Context) (bool, error) {
	var styles []*html.Node
	var sources []string
	for _, s := range r.doc.QuerySelectorAll("style") {
		css := strings.TrimSpace(goquery.Text(s))
		if css == "" {
			continue
		}
		styles = append(styles, s)
		sources = append(sources, css)
	}

	parts := make([]partition, len(styles))
	g, gctx := errgroup.WithContext(ctx)
	for i := range styles {
		g.Go(func() error {
			p, err := r.engine.criticalCSS(gctx, r.html, sources[i], r.pid)
			parts[i] = p
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}

	var changed bool
	for i, s := range styles {
		p, size := parts[i], len(sources[i])
		switch {
		case p.dropped == 0:
			continue
		case p.size() == 0:
			r.doc.Remove(s)
			r.engine.logger.Info(fmt.Sprintf("Removed internal stylesheet (%s), no critical css rules was found.",
				critical.FormatSize(size)), r.pid)
		default:
			r.doc.SetText(s, p.css)
			r.engine.logger.Info(fmt.Sprintf("Reduced internal style to %s (%s of original %s).",
				critical.FormatSize(p.size()), critical.FormatPercent(p.size(), size), critical.FormatSize(size)), r.pid)
		}
		changed = true
	}
	return changed, nil
}

// stylesheets returns the external stylesheets of the document followed by
// the additional ones, each path once.
func (r *run) stylesheets(ctx context.Context) []critical.Stylesheet {
	e := r.engine
	var sheets []critical.Stylesheet
	seen := make(map[string]bool)
	for _, link := range r.doc.QuerySelectorAll(`link[rel="stylesheet"]`) {
		href, _ := goquery.Attr(link, "href")
		if href == "" {
			e.logger.Warn("External stylesheet href attribute is missing.", r.pid)
			continue
		}
		if media, _ := goquery.Attr(link, "media"); media == "print" {
			e.logger.Debug(fmt.Sprintf("Skipped external stylesheet %q as it targeted print media.", href), r.pid)
			continue
		}
		if excluded(href, e.opts.Exclude) {
			e.logger.Debug(fmt.Sprintf("Excluded external stylesheet %q.", href), r.pid)
			continue
		}
		p := e.resolver.ResolvePath(href)
		if seen[p] {
			continue
		}
		seen[p] = true
		sheets = append(sheets, critical.Stylesheet{Path: p, Filename: path.Base(stripQuery(href)), Link: link})
	}

	if len(e.opts.AdditionalStylesheets) == 0 {
		return sheets
	}
	for _, s := range e.resolver.DiscoverAdditional(ctx, e.opts.AdditionalStylesheets, r.pid) {
		if seen[s.Path] {
			continue
		}
		seen[s.Path] = true
		sheets = append(sheets, s)
	}
	return sheets
}

// external inlines the critical rules of every external stylesheet.
// Stylesheets are loaded and partitioned concurrently; the document is
// rewritten afterwards in document order.
func (r *run) external(ctx context.Context) (bool, error) {
	e := r.engine
	sheets := r.stylesheets(ctx)

	type result struct {
		src   *critical.Source
		whole bool
		part  partition
	}
	results := make([]result, len(sheets))
	g, gctx := errgroup.WithContext(ctx)
	for i, sheet := range sheets {
		g.Go(func() error {
			src := e.resolver.Load(ctx, sheet.Path, r.pid)
			if src.Size() == 0 {
				return nil
			}
			results[i].src = src
			if src.Size() < e.opts.ExternalThreshold {
				results[i].whole = true
				return nil
			}
			p, err := e.criticalCSS(gctx, r.html, string(src.Content), r.pid)
			results[i].part = p
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}

	var changed bool
	for i, sheet := range sheets {
		res := results[i]
		switch {
		case res.src.Size() == 0:
			continue
		case res.whole:
			r.inlineWhole(sheet, res.src)
		case res.part.dropped == 0 && !e.opts.PruneSource:
			continue
		default:
			r.inline(sheet, res.src, res.part)
		}
		changed = true
	}
	return changed, nil
}

// inlineWhole replaces the link of a stylesheet below the threshold with
// its content.
func (r *run) inlineWhole(sheet critical.Stylesheet, src *critical.Source) {
	e := r.engine
	r.insertStyle(string(src.Content), sheet.Link, false)
	if sheet.Link != nil {
		r.doc.Remove(sheet.Link)
	}
	if e.opts.PruneSource {
		e.session.Track(sheet.Path)
	}
	e.logger.Info(fmt.Sprintf("Inserted all of %s (%s was below the threshold of %s).",
		sheet.Filename, critical.FormatSize(src.Size()), critical.FormatSize(e.opts.ExternalThreshold)), r.pid)
}

// inline inserts the critical rules of a stylesheet and defers its link.
//
// With pruning enabled a stylesheet is inlined even when every rule is
// critical: its selectors are about to be pruned from the file, so the
// document must not depend on loading them.
func (r *run) inline(sheet critical.Stylesheet, src *critical.Source, p partition) {
	e := r.engine
	if e.opts.PruneSource {
		e.session.AddSelectors(p.retained)
		e.session.Track(sheet.Path)
	}

	link := sheet.Link
	if link != nil {
		r.insertNoscript(link)
	}
	if p.css != "" || (link != nil && e.pairsStyles()) {
		r.insertStyle(p.css, link, true)
	}
	if link != nil {
		if e.opts.Preload {
			r.insertPreload(link)
		}
		if e.opts.AsyncLoad {
			r.makeAsync(link)
		}
	}

	e.logger.Info(fmt.Sprintf("Inserted %s (%s of original %s) of %s.",
		critical.FormatSize(p.size()), critical.FormatPercent(p.size(), src.Size()),
		critical.FormatSize(src.Size()), sheet.Filename), r.pid)
}

// ScriptCSPHash returns the base64 sha256 hash of the script or inline
// handler that loads deferred stylesheets, for use in a Content Security
// Policy. It is empty when the engine emits no handler.
func (e *Engine) ScriptCSPHash() string {
	src := e.onload()
	if e.opts.EventHandlers == critical.EventHandlersScript {
		src = e.handlerScript()
	}
	if src == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(src))
	return base64.StdEncoding.EncodeToString(sum[:])
}
