package mock

import (
	"context"

	"github.com/fwojciec/critical"
)

var _ critical.Globber = (*Globber)(nil)

// Globber is a mock implementation of critical.Globber.
type Globber struct {
	GlobFn  func(ctx context.Context, root string, patterns []string) ([]string, error)
	MatchFn func(patterns []string, name string) bool
}

func (g *Globber) Glob(ctx context.Context, root string, patterns []string) ([]string, error) {
	return g.GlobFn(ctx, root, patterns)
}

func (g *Globber) Match(patterns []string, name string) bool {
	return g.MatchFn(patterns, name)
}
