// Package critical extracts the critical CSS of an HTML document, inlines it,
// and defers loading of the remaining stylesheets.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, cascadia/, zap/).
package critical

import (
	"context"
	"io/fs"
)

// ProcessID tags log lines and metrics with the document being processed.
// The zero value means no identifier.
type ProcessID string

// Source is the content of a loaded stylesheet.
type Source struct {
	Path    string
	Content []byte
}

// Size returns the length of the content in bytes.
func (s *Source) Size() int {
	if s == nil {
		return 0
	}
	return len(s.Content)
}

// Processor inlines critical CSS into HTML documents.
type Processor interface {
	// Process returns the transformed document. When no stylesheet changed
	// the input is returned unchanged.
	Process(ctx context.Context, html string, pid ProcessID) (string, error)

	// PruneSources removes critical rules from every stylesheet inlined
	// since the last Clear.
	PruneSources(ctx context.Context, pid ProcessID) error

	// Clear resets all per-build state.
	Clear()
}

// FileSystem is the file access used to load and rewrite stylesheets.
type FileSystem interface {
	ReadFile(ctx context.Context, name string) ([]byte, error)
	WriteFile(ctx context.Context, name string, data []byte) error
	Remove(ctx context.Context, name string) error
	ReadDir(ctx context.Context, name string) ([]fs.DirEntry, error)
	Stat(ctx context.Context, name string) (fs.FileInfo, error)
}

// AssetStore holds build output in memory. Asset names are slash-separated
// paths relative to the build output directory.
type AssetStore interface {
	Asset(name string) ([]byte, bool)
	UpdateAsset(name string, data []byte)
	DeleteAsset(name string)
	AssetNames() []string
	HTMLAssets() []string
}

// Globber discovers files by glob pattern. Patterns without a slash match
// the base name of a file at any depth.
type Globber interface {
	Glob(ctx context.Context, root string, patterns []string) ([]string, error)
	Match(patterns []string, name string) bool
}

// Minifier compacts CSS text.
type Minifier interface {
	Minify(css string) (string, error)
}

// DropRequest describes one partition of a stylesheet against a document.
type DropRequest struct {
	// HTML is the document to match selectors against. An empty document
	// matches nothing.
	HTML string

	// CSS is the stylesheet with escaped selectors.
	CSS string

	// ShouldDrop decides the fate of a selector that matched nothing.
	// Returning false keeps it.
	ShouldDrop func(selector string) bool

	// DidRetain is called for every selector kept in the output. It is
	// called synchronously from Drop.
	DidRetain func(selector string)

	// DropUsedFontFace drops @font-face rules even when referenced.
	DropUsedFontFace bool

	// DropUsedKeyframes drops @keyframes rules even when referenced.
	DropUsedKeyframes bool

	// KeepFontFace and KeepKeyframes keep every rule of their kind,
	// referenced or not. They win over the DropUsed flags.
	KeepFontFace  bool
	KeepKeyframes bool
}

// DropResult is the outcome of a DropRequest.
type DropResult struct {
	CSS string

	// Dropped counts removed selectors and at-rules. Zero means the
	// stylesheet kept every rule.
	Dropped int
}

// Matcher removes the rules of a stylesheet that do not apply to a document.
type Matcher interface {
	Drop(ctx context.Context, req DropRequest) (DropResult, error)
}
