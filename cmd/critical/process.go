package main

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"path/filepath"

	"github.com/fwojciec/critical"
	"github.com/fwojciec/critical/build"
	"github.com/fwojciec/critical/engine"
	"github.com/fwojciec/critical/fs"
	"github.com/fwojciec/critical/memory"
	"github.com/fwojciec/critical/prometheus"
	critslog "github.com/fwojciec/critical/slog"
)

// Run executes the process command.
func (c *ProcessCmd) Run(deps *Dependencies) error {
	opts, err := c.options(c.Dir)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", critical.ErrorMessage(err))
		return err
	}
	opts.LogLevel = deps.LogLevel

	if info, err := deps.FileSystem.Stat(deps.Ctx, c.Dir); errors.Is(err, iofs.ErrNotExist) || (err == nil && !info.IsDir()) {
		err := critical.Errorf(critical.ENOTFOUND, "directory %q not found", c.Dir)
		fmt.Fprintf(deps.Stderr, "error: %s\n", critical.ErrorMessage(err))
		return err
	}

	assets, err := loadAssets(deps, c.Dir)
	if err != nil {
		return err
	}

	e, err := engine.New(opts, engine.Dependencies{
		FileSystem: deps.FileSystem,
		Assets:     assets,
		Logger:     deps.Logger,
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", critical.ErrorMessage(err))
		return err
	}

	var proc critical.Processor = critslog.NewLoggingProcessor(e, deps.Slog)
	var metrics *prometheus.MetricsProcessor
	if c.MetricsFile != "" {
		metrics = prometheus.NewMetricsProcessor(proc, "critical")
		proc = metrics
	}

	runner := &build.Runner{
		Processor: proc,
		Assets:    assets,
		Logger:    deps.Logger,
		Prune:     opts.PruneSource,
	}
	runErr := runner.Run(deps.Ctx)

	if metrics != nil {
		if err := metrics.WriteTextfile(c.MetricsFile); err != nil {
			fmt.Fprintf(deps.Stderr, "warning: failed to write metrics: %v\n", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	updated, deleted := assets.Changes()
	if err := assets.Flush(deps.Ctx, deps.FileSystem, c.Dir); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	fmt.Fprintf(deps.Stdout, "Updated %d and deleted %d files in %s\n", len(updated), len(deleted), c.Dir)
	return nil
}

// loadAssets reads every file below dir into an asset store.
func loadAssets(deps *Dependencies, dir string) (*memory.Store, error) {
	names, err := fs.NewGlobber(deps.FileSystem).Glob(deps.Ctx, dir, []string{"**"})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	assets := memory.NewStore()
	for _, name := range names {
		data, err := deps.FileSystem.ReadFile(deps.Ctx, filepath.Join(dir, filepath.FromSlash(name)))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		assets.Add(name, data)
	}
	return assets, nil
}
