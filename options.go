package critical

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// EventHandlers selects how deferred stylesheets get their load handler.
type EventHandlers string

const (
	// EventHandlersAttr sets an onload attribute on each link.
	EventHandlersAttr EventHandlers = "attr"

	// EventHandlersScript emits a single script after the last link.
	EventHandlersScript EventHandlers = "script"
)

// Options configures an engine. The zero value is not useful; start from
// DefaultOptions.
type Options struct {
	// Path is the base directory stylesheet hrefs are resolved against.
	Path string

	// PublicPath is the URL prefix stripped from hrefs before resolving.
	PublicPath string

	// AdditionalStylesheets are glob patterns of stylesheets to inline
	// whether or not a link references them.
	AdditionalStylesheets []string

	// ExternalThreshold inlines a whole stylesheet when its size in bytes
	// is below the threshold.
	ExternalThreshold int

	LogLevel LogLevel

	Exclude   Exclude
	Whitelist Whitelist

	Internal bool
	External bool
	Merge    bool

	AsyncLoad        bool
	Preload          bool
	NoscriptFallback bool

	FontFace  bool
	Keyframes bool

	PruneSource bool

	// AutoRemoveStyleTags removes inlined styles once their stylesheet has
	// loaded. It disables Merge.
	AutoRemoveStyleTags bool

	EventHandlers EventHandlers

	MinifyCSS bool
}

// DefaultOptions returns the options an engine uses when none are given.
func DefaultOptions() Options {
	return Options{
		LogLevel:      LevelInfo,
		Internal:      true,
		External:      true,
		Merge:         true,
		AsyncLoad:     true,
		Keyframes:     true,
		EventHandlers: EventHandlersAttr,
	}
}

// Validate reports the first invalid option.
func (o *Options) Validate() error {
	if o.ExternalThreshold < 0 {
		return Errorf(EINVALID, "external threshold must not be negative: %d", o.ExternalThreshold)
	}
	switch o.EventHandlers {
	case "", EventHandlersAttr, EventHandlersScript:
	default:
		return Errorf(EINVALID, "unknown event handlers mode %q", o.EventHandlers)
	}
	if _, err := ParseLogLevel(string(o.LogLevel)); err != nil {
		return err
	}
	return nil
}

// Exclude decides which stylesheets are never processed. At most one of
// Pattern and Predicate is set.
type Exclude struct {
	Pattern   *regexp.Regexp
	Predicate func(href string) bool
}

// ExcludePattern returns an Exclude matching hrefs against re.
func ExcludePattern(re *regexp.Regexp) Exclude {
	return Exclude{Pattern: re}
}

// ExcludeFunc returns an Exclude delegating to fn.
func ExcludeFunc(fn func(href string) bool) Exclude {
	return Exclude{Predicate: fn}
}

// Match reports whether href is excluded.
func (e Exclude) Match(href string) bool {
	switch {
	case e.Pattern != nil:
		return e.Pattern.MatchString(href)
	case e.Predicate != nil:
		return e.Predicate(href)
	}
	return false
}

// WhitelistEntry is either a literal selector or a pattern.
type WhitelistEntry struct {
	Literal string
	Pattern *regexp.Regexp
}

// Whitelist lists selectors that are never dropped.
type Whitelist []WhitelistEntry

// Literal returns an entry matching exactly sel.
func Literal(sel string) WhitelistEntry {
	return WhitelistEntry{Literal: sel}
}

// Pattern returns an entry matching selectors against re.
func Pattern(re *regexp.Regexp) WhitelistEntry {
	return WhitelistEntry{Pattern: re}
}

// Escape returns the whitelist in the escaped form selectors take during
// matching. Pattern sources are escaped and recompiled.
func (w Whitelist) Escape() (Whitelist, error) {
	out := make(Whitelist, 0, len(w))
	for _, e := range w {
		if e.Pattern == nil {
			out = append(out, Literal(EscapeSelectors(e.Literal)))
			continue
		}
		// A regexp escape in front of an escaped character would escape the
		// placeholder instead.
		src := strings.ReplaceAll(EscapeSelectors(e.Pattern.String()), `\`+placeholderStart, placeholderStart)
		re, err := regexp.Compile(src)
		if err != nil {
			return nil, Errorf(EINVALID, "invalid whitelist pattern %q: %s", e.Pattern.String(), err)
		}
		out = append(out, Pattern(re))
	}
	return out, nil
}

// Match reports whether sel is whitelisted.
func (w Whitelist) Match(sel string) bool {
	for _, e := range w {
		if e.Pattern != nil {
			if e.Pattern.MatchString(sel) {
				return true
			}
		} else if e.Literal == sel {
			return true
		}
	}
	return false
}

// Stylesheet is an external stylesheet found in a document or discovered
// through AdditionalStylesheets.
type Stylesheet struct {
	// Path is the resolved absolute path.
	Path string

	// Filename is the name used in log messages.
	Filename string

	// Link is the referencing element, nil for additional stylesheets.
	Link *html.Node
}
