package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/critical"
)

// Ensure LoggingProcessor implements critical.Processor.
var _ critical.Processor = (*LoggingProcessor)(nil)

// LoggingProcessor wraps a Processor with debug logging.
type LoggingProcessor struct {
	next   critical.Processor
	logger *slog.Logger
}

// NewLoggingProcessor creates a new LoggingProcessor.
func NewLoggingProcessor(next critical.Processor, logger *slog.Logger) *LoggingProcessor {
	return &LoggingProcessor{next: next, logger: logger}
}

// Process delegates to the wrapped processor and logs the operation.
func (p *LoggingProcessor) Process(ctx context.Context, html string, pid critical.ProcessID) (out string, err error) {
	defer func(begin time.Time) {
		p.logger.Debug("process",
			"pid", string(pid),
			"in", len(html),
			"out", len(out),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return p.next.Process(ctx, html, pid)
}

// PruneSources delegates to the wrapped processor and logs the operation.
func (p *LoggingProcessor) PruneSources(ctx context.Context, pid critical.ProcessID) (err error) {
	defer func(begin time.Time) {
		p.logger.Debug("prune sources",
			"pid", string(pid),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return p.next.PruneSources(ctx, pid)
}

// Clear delegates to the wrapped processor.
func (p *LoggingProcessor) Clear() {
	p.logger.Debug("clear")
	p.next.Clear()
}
