package mock

import (
	"context"

	"github.com/fwojciec/critical"
)

var _ critical.Processor = (*Processor)(nil)

// Processor is a mock implementation of critical.Processor.
type Processor struct {
	ProcessFn      func(ctx context.Context, html string, pid critical.ProcessID) (string, error)
	PruneSourcesFn func(ctx context.Context, pid critical.ProcessID) error
	ClearFn        func()
}

func (p *Processor) Process(ctx context.Context, html string, pid critical.ProcessID) (string, error) {
	return p.ProcessFn(ctx, html, pid)
}

func (p *Processor) PruneSources(ctx context.Context, pid critical.ProcessID) error {
	return p.PruneSourcesFn(ctx, pid)
}

func (p *Processor) Clear() {
	p.ClearFn()
}
