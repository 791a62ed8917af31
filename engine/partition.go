package engine

import (
	"context"
	"regexp"
	"strings"

	"github.com/fwojciec/critical"
)

// partition is the outcome of splitting a stylesheet against a document.
type partition struct {
	// css is the kept CSS with selectors restored.
	css string

	// dropped counts removed rules. Zero means css holds every rule of the
	// input.
	dropped int

	// retained lists the escaped selectors kept in css.
	retained []string
}

func (p partition) size() int { return len(p.css) }

var leadingCharset = regexp.MustCompile(`^@charset\s*("[^"]*"|'[^']*')\s*;\s*`)

// criticalCSS keeps the rules of css that match html or are whitelisted.
func (e *Engine) criticalCSS(ctx context.Context, html, css string, pid critical.ProcessID) (partition, error) {
	return e.partition(ctx, html, css, false, pid)
}

// remainder keeps the rules of css that no document inlined. The result is
// what a stylesheet can be pruned to.
func (e *Engine) remainder(ctx context.Context, css string, pid critical.ProcessID) (partition, error) {
	return e.partition(ctx, "", css, true, pid)
}

func (e *Engine) partition(ctx context.Context, html, css string, reverse bool, pid critical.ProcessID) (partition, error) {
	// Font faces are dropped unless inlined on purpose; keyframes are kept
	// unless disabled. A reverse pass keeps what no forward pass could have
	// inlined: every rule of a kind that is never inlined, and the ones
	// the remaining rules refer to.
	var fonts, keyframes struct{ drop, keep bool }
	if reverse {
		fonts.keep = !e.opts.FontFace
		keyframes.keep = !e.opts.Keyframes
	} else {
		fonts.drop = !e.opts.FontFace
		keyframes.drop = !e.opts.Keyframes
	}

	var p partition
	req := critical.DropRequest{
		HTML:              html,
		CSS:               critical.EscapeSelectors(css),
		DropUsedFontFace:  fonts.drop,
		DropUsedKeyframes: keyframes.drop,
		KeepFontFace:      fonts.keep,
		KeepKeyframes:     keyframes.keep,
		DidRetain:         func(sel string) { p.retained = append(p.retained, sel) },
	}
	if reverse {
		req.ShouldDrop = func(sel string) bool {
			return e.session.HasSelector(sel) || e.whitelist.Match(sel)
		}
	} else {
		req.ShouldDrop = func(sel string) bool { return !e.whitelist.Match(sel) }
	}

	res, err := e.matcher.Drop(ctx, req)
	if err != nil {
		e.logger.Error("Unable to parse css or html.", pid)
		return partition{}, err
	}

	out := strings.TrimSpace(critical.RestoreSelectors(res.CSS))
	out = leadingCharset.ReplaceAllString(out, "")
	if e.opts.MinifyCSS && out != "" {
		if out, err = e.minifier.Minify(out); err != nil {
			e.logger.Error("Unable to parse css or html.", pid)
			return partition{}, err
		}
	}
	p.css = out
	p.dropped = res.Dropped
	return p, nil
}
