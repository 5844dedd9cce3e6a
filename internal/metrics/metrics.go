// Package metrics records pipeline counters for ingest, categorization and
// ledger edits. Each Recorder owns its registry so tests and separate runs
// never share state.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Categorization sources.
const (
	SourcePattern = "pattern"
	SourceLLM     = "llm"
)

// Recorder holds the ledger's Prometheus collectors. A nil *Recorder is valid
// and records nothing.
type Recorder struct {
	registry             *prometheus.Registry
	receiptsIngested     *prometheus.CounterVec
	ingestFailures       *prometheus.CounterVec
	itemsCategorized     *prometheus.CounterVec
	itemsUnassigned      prometheus.Counter
	duplicateAssignments prometheus.Counter
	itemsMerged          prometheus.Counter
	extractionWarnings   *prometheus.CounterVec
	edits                *prometheus.CounterVec
	classifyDuration     prometheus.Histogram
}

// New creates a recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		receiptsIngested: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_receipts_ingested_total",
				Help: "Receipts stored by ingest, by whether an existing receipt was replaced",
			},
			[]string{"overwrite"},
		),
		ingestFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_ingest_failures_total",
				Help: "Ingest runs that failed, by pipeline stage",
			},
			[]string{"stage"},
		),
		itemsCategorized: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_items_categorized_total",
				Help: "Items assigned to a category, by source",
			},
			[]string{"source"},
		),
		itemsUnassigned: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ledger_items_unassigned_total",
				Help: "Items left without a category after categorization",
			},
		),
		duplicateAssignments: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ledger_duplicate_assignments_total",
				Help: "Assignments dropped because the item was already assigned",
			},
		),
		itemsMerged: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ledger_items_merged_total",
				Help: "Repeated receipt lines merged by automatic bundling",
			},
		),
		extractionWarnings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_extraction_warnings_total",
				Help: "Non-fatal problems found while reading receipt pages",
			},
			[]string{"code"},
		),
		edits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_edits_total",
				Help: "Ledger edit operations applied",
			},
			[]string{"operation"},
		),
		classifyDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ledger_classification_duration_seconds",
				Help:    "Latency of external classification calls",
				Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
			},
		),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ReceiptIngested counts a stored receipt.
func (r *Recorder) ReceiptIngested(overwrite bool) {
	if r == nil {
		return
	}
	r.receiptsIngested.WithLabelValues(fmt.Sprint(overwrite)).Inc()
}

// IngestFailed counts a failed ingest at stage.
func (r *Recorder) IngestFailed(stage string) {
	if r == nil {
		return
	}
	r.ingestFailures.WithLabelValues(stage).Inc()
}

// ItemsCategorized counts n items assigned from source.
func (r *Recorder) ItemsCategorized(source string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.itemsCategorized.WithLabelValues(source).Add(float64(n))
}

// ItemsUnassigned counts n items that received no category.
func (r *Recorder) ItemsUnassigned(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.itemsUnassigned.Add(float64(n))
}

// DuplicateAssignments counts n dropped duplicate assignments.
func (r *Recorder) DuplicateAssignments(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.duplicateAssignments.Add(float64(n))
}

// ItemsMerged counts n lines absorbed by automatic bundling.
func (r *Recorder) ItemsMerged(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.itemsMerged.Add(float64(n))
}

// ExtractionWarning counts one extraction warning.
func (r *Recorder) ExtractionWarning(code string) {
	if r == nil {
		return
	}
	r.extractionWarnings.WithLabelValues(code).Inc()
}

// EditApplied counts one committed edit operation.
func (r *Recorder) EditApplied(operation string) {
	if r == nil {
		return
	}
	r.edits.WithLabelValues(operation).Inc()
}

// ObserveClassification records the latency of one classifier call.
func (r *Recorder) ObserveClassification(d time.Duration) {
	if r == nil {
		return
	}
	r.classifyDuration.Observe(d.Seconds())
}

// WriteToTextfile writes every metric in the node-exporter textfile format.
func (r *Recorder) WriteToTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
