package mock

import (
	"context"

	"github.com/fwojciec/critical"
)

var _ critical.Matcher = (*Matcher)(nil)

// Matcher is a mock implementation of critical.Matcher.
type Matcher struct {
	DropFn func(ctx context.Context, req critical.DropRequest) (critical.DropResult, error)
}

func (m *Matcher) Drop(ctx context.Context, req critical.DropRequest) (critical.DropResult, error) {
	return m.DropFn(ctx, req)
}

var _ critical.Minifier = (*Minifier)(nil)

// Minifier is a mock implementation of critical.Minifier.
type Minifier struct {
	MinifyFn func(css string) (string, error)
}

func (m *Minifier) Minify(css string) (string, error) {
	return m.MinifyFn(css)
}
