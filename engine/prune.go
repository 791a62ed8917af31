package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/fwojciec/critical"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// PruneSources removes the inlined rules from every stylesheet tracked
// since the last Clear. A stylesheet left empty, or smaller than the
// external threshold, is deleted. Failures are collected and returned
// together after every stylesheet was tried.
func (e *Engine) PruneSources(ctx context.Context, pid critical.ProcessID) error {
	paths := e.session.Tracked()
	pruned := make([]bool, len(paths))
	errs := make([]error, len(paths))

	var g errgroup.Group
	for i, p := range paths {
		g.Go(func() error {
			pruned[i], errs[i] = e.pruneSource(ctx, p, pid)
			return nil
		})
	}
	_ = g.Wait()

	if !slices.Contains(pruned, true) {
		e.logger.Info("No stylesheets was pruned.", pid)
	}
	return multierr.Combine(errs...)
}

func (e *Engine) pruneSource(ctx context.Context, p string, pid critical.ProcessID) (bool, error) {
	src := e.resolver.Load(ctx, p, pid)
	if src == nil {
		return false, nil
	}

	rest, err := e.remainder(ctx, string(src.Content), pid)
	if err != nil {
		return false, err
	}

	if rest.size() == 0 || rest.size() < e.opts.ExternalThreshold {
		e.resolver.Delete(ctx, p)
		e.logger.Info(fmt.Sprintf("Removed external stylesheet %s (%s).", p, critical.FormatSize(src.Size())), pid)
		return true, nil
	}
	if rest.dropped == 0 {
		return false, nil
	}

	if err := e.resolver.Write(ctx, p, []byte(rest.css)); err != nil {
		return false, err
	}
	saved := src.Size() - rest.size()
	e.logger.Info(fmt.Sprintf("Pruned %s (%s of original %s) of external stylesheet %s",
		critical.FormatSize(saved), critical.FormatPercent(saved, src.Size()),
		critical.FormatSize(src.Size()), filepath.Base(p)), pid)
	return true, nil
}
