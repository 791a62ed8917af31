// Package prometheus records processing metrics with the Prometheus client
// and exports them in the node exporter textfile format.
package prometheus

import (
	"context"
	"time"

	"github.com/fwojciec/critical"
	"github.com/prometheus/client_golang/prometheus"
)

// Ensure MetricsProcessor implements critical.Processor.
var _ critical.Processor = (*MetricsProcessor)(nil)

// Outcome labels.
const (
	ResultChanged   = "changed"
	ResultUnchanged = "unchanged"
	ResultOK        = "ok"
	ResultError     = "error"
)

// MetricsProcessor wraps a Processor and records every call in its own
// registry.
type MetricsProcessor struct {
	next     critical.Processor
	registry *prometheus.Registry

	documentsTotal  *prometheus.CounterVec
	processDuration prometheus.Histogram
	bytesSaved      prometheus.Counter
	pruneTotal      *prometheus.CounterVec
	pruneDuration   prometheus.Histogram
}

// NewMetricsProcessor creates a new MetricsProcessor with metric names
// under namespace.
func NewMetricsProcessor(next critical.Processor, namespace string) *MetricsProcessor {
	p := &MetricsProcessor{
		next:     next,
		registry: prometheus.NewRegistry(),
	}

	p.documentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_processed_total",
			Help:      "Total number of processed documents by result",
		},
		[]string{"result"},
	)

	p.processDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "process_duration_seconds",
			Help:      "Time taken to process a document",
			Buckets:   prometheus.DefBuckets,
		},
	)

	p.bytesSaved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_bytes_saved_total",
			Help:      "Total number of bytes removed from processed documents",
		},
	)

	p.pruneTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prune_runs_total",
			Help:      "Total number of stylesheet prune runs by result",
		},
		[]string{"result"},
	)

	p.pruneDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prune_duration_seconds",
			Help:      "Time taken to prune stylesheets",
			Buckets:   prometheus.DefBuckets,
		},
	)

	p.registry.MustRegister(
		p.documentsTotal,
		p.processDuration,
		p.bytesSaved,
		p.pruneTotal,
		p.pruneDuration,
	)
	return p
}

// Registry returns the registry holding the recorded metrics.
func (p *MetricsProcessor) Registry() *prometheus.Registry {
	return p.registry
}

// Process delegates to the wrapped processor and records the outcome.
func (p *MetricsProcessor) Process(ctx context.Context, html string, pid critical.ProcessID) (out string, err error) {
	defer func(begin time.Time) {
		p.processDuration.Observe(time.Since(begin).Seconds())
		switch {
		case err != nil:
			p.documentsTotal.WithLabelValues(ResultError).Inc()
		case out == html:
			p.documentsTotal.WithLabelValues(ResultUnchanged).Inc()
		default:
			p.documentsTotal.WithLabelValues(ResultChanged).Inc()
			if saved := len(html) - len(out); saved > 0 {
				p.bytesSaved.Add(float64(saved))
			}
		}
	}(time.Now())
	return p.next.Process(ctx, html, pid)
}

// PruneSources delegates to the wrapped processor and records the outcome.
func (p *MetricsProcessor) PruneSources(ctx context.Context, pid critical.ProcessID) (err error) {
	defer func(begin time.Time) {
		p.pruneDuration.Observe(time.Since(begin).Seconds())
		result := ResultOK
		if err != nil {
			result = ResultError
		}
		p.pruneTotal.WithLabelValues(result).Inc()
	}(time.Now())
	return p.next.PruneSources(ctx, pid)
}

// Clear delegates to the wrapped processor. Recorded metrics are kept.
func (p *MetricsProcessor) Clear() {
	p.next.Clear()
}

// WriteTextfile writes the recorded metrics to path in the textfile
// collector format.
func (p *MetricsProcessor) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, p.registry)
}
