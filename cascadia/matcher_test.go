package cascadia_test

import (
	"context"
	"sync"
	"testing"

	"github.com/fwojciec/critical"
	"github.com/fwojciec/critical/cascadia"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<html><head><title>t</title></head><body>
<h1 class="title">Hello</h1>
<ul class="nav"><li><a href="/">home</a></li></ul>
<input type="text" disabled>
<p class="used">x</p>
</body></html>`

func TestMatcher_Drop(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		css         string
		wantCSS     string
		wantDropped int
	}{
		{
			name:        "drops unmatched rules",
			css:         "h1 { color: blue; } h2 { color: red; } p { color: purple; }",
			wantCSS:     "h1{color: blue;}p{color: purple;}",
			wantDropped: 1,
		},
		{
			name:        "keeps matched selectors of a list",
			css:         "h2, h1.title, .missing { margin: 0 }",
			wantCSS:     "h1.title{margin: 0}",
			wantDropped: 2,
		},
		{
			name:        "ignores dynamic pseudo classes and pseudo elements",
			css:         "a:hover { color: red } .used::before { content: 'x' } input:focus-visible::placeholder { color: gray } .gone:hover { color: blue }",
			wantCSS:     "a:hover{color: red}.used::before{content: 'x'}input:focus-visible::placeholder{color: gray}",
			wantDropped: 1,
		},
		{
			name:        "structural pseudo classes are matched",
			css:         "li:first-child { color: red } li:nth-child(2) { color: blue } input:disabled { opacity: .5 } :not(li) > a { x: y }",
			wantCSS:     "li:first-child{color: red}input:disabled{opacity: .5}",
			wantDropped: 2,
		},
		{
			name:        "is and where",
			css:         ":is(h1, h2).title { a: b } :where(.nope, .none) { c: d }",
			wantCSS:     ":is(h1, h2).title{a: b}",
			wantDropped: 1,
		},
		{
			name:        "drops empty media blocks",
			css:         "@media (min-width: 10px) { h2 { a: b } } @media print { h1 { c: d } }",
			wantCSS:     "@media print{h1{c: d}}",
			wantDropped: 1,
		},
		{
			name:        "keeps statements and unknown at-rules",
			css:         `@import "x.css"; @page { margin: 0 } h1 { a: b }`,
			wantCSS:     `@import "x.css";@page{margin: 0}h1{a: b}`,
			wantDropped: 0,
		},
		{
			name:        "keeps referenced keyframes",
			css:         "@keyframes used { 0% { opacity: 0; } } @keyframes unused { 0% { opacity: 0; } } h1 { animation: used 1s ease; }",
			wantCSS:     "@keyframes used{0% { opacity: 0; }}h1{animation: used 1s ease;}",
			wantDropped: 1,
		},
		{
			name:        "keeps referenced font faces",
			css:         `.used { font-family: 'Used'; } @font-face { font-family: Used; src: local("Helvetica Neue Bold"); } @font-face { font-family: Unused; src: local("Arial"); }`,
			wantCSS:     `.used{font-family: 'Used';}@font-face{font-family: Used; src: local("Helvetica Neue Bold");}`,
			wantDropped: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := cascadia.NewMatcher()

			res, err := m.Drop(context.Background(), critical.DropRequest{HTML: page, CSS: tt.css})

			require.NoError(t, err)
			assert.Equal(t, tt.wantCSS, res.CSS)
			assert.Equal(t, tt.wantDropped, res.Dropped)
		})
	}
}

func TestMatcher_Drop_Callbacks(t *testing.T) {
	t.Parallel()

	t.Run("should drop decides unmatched selectors", func(t *testing.T) {
		t.Parallel()

		m := cascadia.NewMatcher()
		var retained []string

		res, err := m.Drop(context.Background(), critical.DropRequest{
			HTML:       page,
			CSS:        "h1 { a: b } .keep { c: d } .gone { e: f }",
			ShouldDrop: func(sel string) bool { return sel != ".keep" },
			DidRetain:  func(sel string) { retained = append(retained, sel) },
		})

		require.NoError(t, err)
		assert.Equal(t, "h1{a: b}.keep{c: d}", res.CSS)
		assert.Equal(t, []string{"h1", ".keep"}, retained)
	})

	t.Run("empty html matches nothing", func(t *testing.T) {
		t.Parallel()

		m := cascadia.NewMatcher()
		accumulated := map[string]bool{"h1": true}

		res, err := m.Drop(context.Background(), critical.DropRequest{
			CSS:        "h1 { a: b } p.unused { color: orange; }",
			ShouldDrop: func(sel string) bool { return accumulated[sel] },
		})

		require.NoError(t, err)
		assert.Equal(t, "p.unused{color: orange;}", res.CSS)
		assert.Equal(t, 1, res.Dropped)
	})

	t.Run("drop used font faces and keyframes", func(t *testing.T) {
		t.Parallel()

		m := cascadia.NewMatcher()

		res, err := m.Drop(context.Background(), critical.DropRequest{
			HTML:              page,
			CSS:               "h1 { font: bold 12px/1.5 Used, serif; animation-name: spin } @font-face { font-family: 'Used' } @keyframes spin { to { opacity: 1 } }",
			DropUsedFontFace:  true,
			DropUsedKeyframes: true,
		})

		require.NoError(t, err)
		assert.Equal(t, "h1{font: bold 12px/1.5 Used, serif; animation-name: spin}", res.CSS)
		assert.Equal(t, 2, res.Dropped)
	})

	t.Run("keep unreferenced font faces and keyframes", func(t *testing.T) {
		t.Parallel()

		m := cascadia.NewMatcher()

		res, err := m.Drop(context.Background(), critical.DropRequest{
			HTML:              page,
			CSS:               "h1{a:b} @font-face{font-family:Other} @keyframes fade{to{opacity:0}}",
			DropUsedFontFace:  true,
			DropUsedKeyframes: true,
			KeepFontFace:      true,
			KeepKeyframes:     true,
		})

		require.NoError(t, err)
		assert.Contains(t, res.CSS, "@font-face{font-family:Other}")
		assert.Contains(t, res.CSS, "@keyframes fade{to{opacity:0}}")
		assert.Equal(t, 0, res.Dropped)
	})
}

func TestMatcher_Drop_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		css  string
	}{
		{name: "invalid pseudo class", css: ".dark:error() { color: black }"},
		{name: "unclosed block", css: "h1 { color: black"},
		{name: "stray closing brace", css: "h1 { color: black } }"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := cascadia.NewMatcher().Drop(context.Background(), critical.DropRequest{HTML: page, CSS: tt.css})

			assert.Equal(t, critical.EPARSE, critical.ErrorCode(err))
		})
	}
}

func TestMatcher_Concurrent(t *testing.T) {
	t.Parallel()

	m := cascadia.NewMatcher()
	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Go(func() {
			res, err := m.Drop(context.Background(), critical.DropRequest{HTML: page, CSS: "h1 { a: b } h2 { c: d }"})
			if err == nil {
				results[i] = res.CSS
			}
		})
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, "h1{a: b}", got)
	}
}

func TestMatcher_EscapedClasses(t *testing.T) {
	t.Parallel()

	html := critical.EscapeClasses(`<div class="sm:flex w-1/2 top-[10px]"></div>`)
	css := critical.EscapeSelectors(`.sm\:flex { display: flex } .w-1\/2 { width: 50% } .top-\[10px\] { top: 10px } .md\:flex { display: flex }`)

	res, err := cascadia.NewMatcher().Drop(context.Background(), critical.DropRequest{HTML: html, CSS: css})

	require.NoError(t, err)
	assert.Equal(t, `.sm\:flex{display: flex}.w-1\/2{width: 50%}.top-\[10px\]{top: 10px}`, critical.RestoreSelectors(res.CSS))
}
