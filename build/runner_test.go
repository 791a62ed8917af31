package build_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/fwojciec/critical"
	"github.com/fwojciec/critical/build"
	"github.com/fwojciec/critical/engine"
	"github.com/fwojciec/critical/memory"
	"github.com/fwojciec/critical/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logLines struct {
	mu    sync.Mutex
	lines []string
}

func (l *logLines) logger() *mock.Logger {
	add := func(level string) func(string, critical.ProcessID) {
		return func(msg string, pid critical.ProcessID) {
			l.mu.Lock()
			defer l.mu.Unlock()
			l.lines = append(l.lines, level+": "+critical.FormatMessage(msg, pid))
		}
	}
	return &mock.Logger{DebugFn: add("debug"), InfoFn: add("info"), WarnFn: add("warn"), ErrorFn: add("error")}
}

func TestRunner_Run(t *testing.T) {
	t.Parallel()

	t.Run("processes html assets with their names as process ids", func(t *testing.T) {
		t.Parallel()

		assets := memory.NewStore()
		assets.Add("index.html", []byte("<p>index</p>"))
		assets.Add("docs/about.html", []byte("<p>about</p>"))
		assets.Add("unchanged.html", []byte("<p>same</p>"))
		assets.Add("main.css", []byte("p{}"))

		var mu sync.Mutex
		seen := map[critical.ProcessID]bool{}
		cleared := false
		proc := &mock.Processor{
			ProcessFn: func(ctx context.Context, html string, pid critical.ProcessID) (string, error) {
				mu.Lock()
				seen[pid] = true
				mu.Unlock()
				if pid == "unchanged.html" {
					return html, nil
				}
				return strings.ToUpper(html), nil
			},
			ClearFn: func() { cleared = true },
		}

		r := &build.Runner{Processor: proc, Assets: assets, Logger: (&logLines{}).logger()}
		require.NoError(t, r.Run(context.Background()))

		assert.Equal(t, map[critical.ProcessID]bool{"index.html": true, "docs/about.html": true, "unchanged.html": true}, seen)
		data, _ := assets.Asset("docs/about.html")
		assert.Equal(t, "<P>ABOUT</P>", string(data))
		updated, _ := assets.Changes()
		assert.Equal(t, []string{"docs/about.html", "index.html"}, updated)
		assert.True(t, cleared)
	})

	t.Run("warns without html assets", func(t *testing.T) {
		t.Parallel()

		assets := memory.NewStore()
		assets.Add("main.css", []byte("p{}"))
		logs := &logLines{}
		cleared := false
		proc := &mock.Processor{ClearFn: func() { cleared = true }}

		r := &build.Runner{Processor: proc, Assets: assets, Logger: logs.logger(), Prune: true}
		require.NoError(t, r.Run(context.Background()))

		assert.Equal(t, []string{"warn: Unable to find any HTML asset."}, logs.lines)
		assert.True(t, cleared)
	})

	t.Run("warns about empty assets", func(t *testing.T) {
		t.Parallel()

		assets := memory.NewStore()
		assets.Add("empty.html", nil)
		logs := &logLines{}
		proc := &mock.Processor{ClearFn: func() {}}

		r := &build.Runner{Processor: proc, Assets: assets, Logger: logs.logger()}
		require.NoError(t, r.Run(context.Background()))

		assert.Equal(t, []string{`warn: Empty HTML asset "empty.html".`}, logs.lines)
	})

	t.Run("prunes after processing", func(t *testing.T) {
		t.Parallel()

		assets := memory.NewStore()
		assets.Add("a.html", []byte("<p>a</p>"))
		var calls []string
		var mu sync.Mutex
		record := func(s string) {
			mu.Lock()
			defer mu.Unlock()
			calls = append(calls, s)
		}
		proc := &mock.Processor{
			ProcessFn: func(ctx context.Context, html string, pid critical.ProcessID) (string, error) {
				record("process")
				return html, nil
			},
			PruneSourcesFn: func(ctx context.Context, pid critical.ProcessID) error {
				record("prune")
				return nil
			},
			ClearFn: func() { record("clear") },
		}

		r := &build.Runner{Processor: proc, Assets: assets, Logger: (&logLines{}).logger(), Prune: true}
		require.NoError(t, r.Run(context.Background()))

		assert.Equal(t, []string{"process", "prune", "clear"}, calls)
	})

	t.Run("returns processing errors", func(t *testing.T) {
		t.Parallel()

		assets := memory.NewStore()
		assets.Add("bad.html", []byte("<p>"))
		proc := &mock.Processor{
			ProcessFn: func(ctx context.Context, html string, pid critical.ProcessID) (string, error) {
				return "", errors.New("boom")
			},
			PruneSourcesFn: func(ctx context.Context, pid critical.ProcessID) error {
				t.Fatal("prune after failure")
				return nil
			},
			ClearFn: func() {},
		}

		r := &build.Runner{Processor: proc, Assets: assets, Logger: (&logLines{}).logger(), Prune: true}
		err := r.Run(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "process bad.html: boom")
	})

	t.Run("returns prune errors", func(t *testing.T) {
		t.Parallel()

		assets := memory.NewStore()
		assets.Add("a.html", []byte("<p>a</p>"))
		proc := &mock.Processor{
			ProcessFn: func(ctx context.Context, html string, pid critical.ProcessID) (string, error) {
				return html, nil
			},
			PruneSourcesFn: func(ctx context.Context, pid critical.ProcessID) error {
				return errors.New("disk full")
			},
			ClearFn: func() {},
		}

		r := &build.Runner{Processor: proc, Assets: assets, Logger: (&logLines{}).logger(), Prune: true}
		err := r.Run(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "prune sources: disk full")
	})
}

func TestRunner_Run_Engine(t *testing.T) {
	t.Parallel()

	assets := memory.NewStore()
	link := `<link rel="stylesheet" href="/main.css">`
	assets.Add("index.html", []byte(`<html><head>`+link+`</head><body><h1>a</h1></body></html>`))
	assets.Add("about.html", []byte(`<html><head>`+link+`</head><body><h2>b</h2></body></html>`))
	assets.Add("main.css", []byte("h1{a:b} h2{c:d} h3{e:f}"))

	opts := critical.DefaultOptions()
	opts.Path = "/out"
	opts.PruneSource = true
	logs := &logLines{}
	e, err := engine.New(opts, engine.Dependencies{FileSystem: memory.NewFS(nil), Assets: assets, Logger: logs.logger()})
	require.NoError(t, err)

	r := &build.Runner{Processor: e, Assets: assets, Logger: logs.logger(), Prune: true}
	require.NoError(t, r.Run(context.Background()))

	index, _ := assets.Asset("index.html")
	assert.Contains(t, string(index), "<style>h1{a:b}</style>")
	about, _ := assets.Asset("about.html")
	assert.Contains(t, string(about), "<style>h2{c:d}</style>")
	css, _ := assets.Asset("main.css")
	assert.Equal(t, "h3{e:f}", string(css))
	assert.Empty(t, e.Session().Tracked())
}
