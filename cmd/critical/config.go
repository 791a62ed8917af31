package main

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/critical"
	"gopkg.in/yaml.v3"
)

// yamlConfig resolves flags from a YAML mapping. Keys match flag names
// ignoring case and dashes, so both "publicPath" and "public-path" set
// --public-path. Flags given on the command line take precedence.
func yamlConfig(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	normalized := make(map[string]any, len(values))
	for k, v := range values {
		normalized[normalizeKey(k)] = v
	}

	var f kong.ResolverFunc = func(context *kong.Context, parent *kong.Path, flag *kong.Flag) (any, error) {
		raw, ok := normalized[normalizeKey(flag.Name)]
		if !ok {
			return nil, nil
		}
		return raw, nil
	}
	return f, nil
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.NewReplacer("-", "", "_", "").Replace(k))
}

// options converts the flags into engine options rooted at path.
func (f *OptionFlags) options(path string) (critical.Options, error) {
	opts := critical.DefaultOptions()
	opts.Path = path
	opts.PublicPath = f.PublicPath
	opts.AdditionalStylesheets = f.AdditionalStylesheets
	opts.ExternalThreshold = f.ExternalThreshold
	opts.Internal = f.Internal
	opts.External = f.External
	opts.Merge = f.Merge
	opts.AsyncLoad = f.AsyncLoad
	opts.Preload = f.Preload
	opts.NoscriptFallback = f.NoscriptFallback
	opts.FontFace = f.FontFace
	opts.Keyframes = f.Keyframes
	opts.PruneSource = f.PruneSource
	opts.AutoRemoveStyleTags = f.AutoRemoveStyleTags
	opts.EventHandlers = critical.EventHandlers(f.EventHandlers)
	opts.MinifyCSS = f.MinifyCSS

	if f.Exclude != "" {
		re, err := regexp.Compile(f.Exclude)
		if err != nil {
			return critical.Options{}, critical.Errorf(critical.EINVALID, "invalid exclude pattern %q: %s", f.Exclude, err)
		}
		opts.Exclude = critical.ExcludePattern(re)
	}

	for _, w := range f.Whitelist {
		if len(w) < 2 || !strings.HasPrefix(w, "/") || !strings.HasSuffix(w, "/") {
			opts.Whitelist = append(opts.Whitelist, critical.Literal(w))
			continue
		}
		re, err := regexp.Compile(w[1 : len(w)-1])
		if err != nil {
			return critical.Options{}, critical.Errorf(critical.EINVALID, "invalid whitelist pattern %q: %s", w, err)
		}
		opts.Whitelist = append(opts.Whitelist, critical.Pattern(re))
	}
	return opts, nil
}
