package engine

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/fwojciec/critical"
)

// resolver maps stylesheet hrefs to files and reads and writes them through
// the asset store, when it holds them, or the file system.
type resolver struct {
	base       string
	publicPath string

	fs      critical.FileSystem
	assets  critical.AssetStore
	globber critical.Globber
	session *Session
	logger  critical.Logger
	exclude critical.Exclude
}

// ResolvePath returns the absolute path of the file href refers to.
func (r *resolver) ResolvePath(href string) string {
	p := strings.TrimPrefix(stripQuery(href), "/")
	prefix := strings.Trim(r.publicPath, "/") + "/"
	if strings.HasPrefix(p, prefix) {
		p = strings.TrimPrefix(p[len(prefix):], "/")
	}
	return filepath.Join(r.base, filepath.FromSlash(p))
}

// assetName returns the asset store name of the file at p, if the store
// holds it.
func (r *resolver) assetName(p string) (string, bool) {
	if r.assets == nil {
		return "", false
	}
	rel, err := filepath.Rel(r.base, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	name := filepath.ToSlash(rel)
	if _, ok := r.assets.Asset(name); !ok {
		return "", false
	}
	return name, true
}

// Load returns the content of the stylesheet at p, or nil when it cannot
// be read. Results are cached in the session until it is reset.
func (r *resolver) Load(ctx context.Context, p string, pid critical.ProcessID) *critical.Source {
	return r.session.Load(p, func() *critical.Source {
		if name, ok := r.assetName(p); ok {
			data, _ := r.assets.Asset(name)
			return &critical.Source{Path: p, Content: data}
		}
		data, err := r.fs.ReadFile(ctx, p)
		if err != nil {
			r.logger.Warn(fmt.Sprintf("External stylesheet %q not found.", p), pid)
			return nil
		}
		return &critical.Source{Path: p, Content: data}
	})
}

// DiscoverAdditional returns the stylesheets matching the additional
// stylesheet patterns, from the asset store first and the file system
// second. Duplicates are dropped.
func (r *resolver) DiscoverAdditional(ctx context.Context, patterns []string, pid critical.ProcessID) []critical.Stylesheet {
	var matches []string
	if r.assets != nil {
		for _, name := range r.assets.AssetNames() {
			if r.globber.Match(patterns, name) {
				matches = append(matches, name)
			}
		}
	}
	found, err := r.globber.Glob(ctx, r.base, patterns)
	if err != nil {
		r.logger.Debug(fmt.Sprintf("Unable to glob additional stylesheets: %v", err), pid)
	}
	matches = append(matches, found...)

	var sheets []critical.Stylesheet
	seen := make(map[string]bool)
	for _, m := range matches {
		if excluded(m, r.exclude) {
			r.logger.Debug(fmt.Sprintf("Excluded additional stylesheet %q.", m), pid)
			continue
		}
		p := r.ResolvePath(m)
		if seen[p] {
			continue
		}
		seen[p] = true
		sheets = append(sheets, critical.Stylesheet{Path: p, Filename: path.Base(m)})
	}
	return sheets
}

// Write replaces the content of the stylesheet at p.
func (r *resolver) Write(ctx context.Context, p string, content []byte) error {
	if name, ok := r.assetName(p); ok {
		r.assets.UpdateAsset(name, content)
		return nil
	}
	if err := r.fs.WriteFile(ctx, p, content); err != nil {
		return fmt.Errorf("write %s: %w", p, err)
	}
	return nil
}

// Delete removes the stylesheet at p. A file that is already gone is not an
// error, so failures are ignored.
func (r *resolver) Delete(ctx context.Context, p string) {
	if name, ok := r.assetName(p); ok {
		r.assets.DeleteAsset(name)
		return
	}
	_ = r.fs.Remove(ctx, p)
}
