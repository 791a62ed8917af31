// Package build processes every HTML document of a build output held in an
// asset store, the way a bundler plugin runs after emitting assets.
package build

import (
	"context"
	"fmt"
	"runtime"

	"github.com/fwojciec/critical"
	"golang.org/x/sync/errgroup"
)

// Runner processes the HTML assets of a build.
type Runner struct {
	Processor critical.Processor
	Assets    critical.AssetStore
	Logger    critical.Logger

	// Prune removes inlined rules from stylesheets after every document
	// was processed.
	Prune bool

	// Concurrency limits documents processed at once. Defaults to
	// GOMAXPROCS.
	Concurrency int
}

// Run processes every HTML asset and replaces it with the result. The
// processor is cleared afterwards, even on failure.
func (r *Runner) Run(ctx context.Context) error {
	defer r.Processor.Clear()

	names := r.Assets.HTMLAssets()
	if len(names) == 0 {
		r.Logger.Warn("Unable to find any HTML asset.", "")
		return nil
	}

	limit := r.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, name := range names {
		g.Go(func() error {
			return r.process(gctx, name)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if r.Prune {
		if err := r.Processor.PruneSources(ctx, ""); err != nil {
			return fmt.Errorf("prune sources: %w", err)
		}
	}
	return nil
}

func (r *Runner) process(ctx context.Context, name string) error {
	data, ok := r.Assets.Asset(name)
	if !ok || len(data) == 0 {
		r.Logger.Warn(fmt.Sprintf("Empty HTML asset %q.", name), "")
		return nil
	}
	out, err := r.Processor.Process(ctx, string(data), critical.ProcessID(name))
	if err != nil {
		return fmt.Errorf("process %s: %w", name, err)
	}
	if out != string(data) {
		r.Assets.UpdateAsset(name, []byte(out))
	}
	return nil
}
