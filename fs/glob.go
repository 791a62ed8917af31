package fs

import (
	"context"
	iofs "io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fwojciec/critical"
)

// Ensure Globber implements critical.Globber at compile time.
var _ critical.Globber = (*Globber)(nil)

// Globber walks a critical.FileSystem and matches file names with
// doublestar patterns.
type Globber struct {
	fs critical.FileSystem
}

// NewGlobber creates a Globber walking fsys.
func NewGlobber(fsys critical.FileSystem) *Globber {
	return &Globber{fs: fsys}
}

// Glob returns the slash-separated paths, relative to root, of the files
// below root matching any of patterns. Symlinked directories are not
// followed.
func (g *Globber) Glob(ctx context.Context, root string, patterns []string) ([]string, error) {
	var matches []string
	if err := g.walk(ctx, root, "", patterns, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}

func (g *Globber) walk(ctx context.Context, root, dir string, patterns []string, matches *[]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries, err := g.fs.ReadDir(ctx, filepath.Join(root, filepath.FromSlash(dir)))
	if err != nil {
		return err
	}
	for _, e := range entries {
		name := path.Join(dir, e.Name())
		mode := e.Type()
		if mode&iofs.ModeSymlink != 0 {
			info, err := g.fs.Stat(ctx, filepath.Join(root, filepath.FromSlash(name)))
			if err != nil || info.IsDir() {
				continue
			}
			mode = info.Mode().Type()
		}
		if mode.IsDir() {
			if err := g.walk(ctx, root, name, patterns, matches); err != nil {
				return err
			}
			continue
		}
		if g.Match(patterns, name) {
			*matches = append(*matches, name)
		}
	}
	return nil
}

// Match reports whether the slash-separated path name matches any of
// patterns. A pattern without a slash is matched against the base name.
// Invalid patterns match nothing.
func (g *Globber) Match(patterns []string, name string) bool {
	for _, p := range patterns {
		target := name
		if !strings.Contains(p, "/") {
			target = path.Base(name)
		}
		if ok, err := doublestar.Match(p, target); err == nil && ok {
			return true
		}
	}
	return false
}
