package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counters(t *testing.T) {
	r := New()

	r.ReceiptIngested(false)
	r.ReceiptIngested(true)
	r.ReceiptIngested(false)
	r.IngestFailed("fetch")
	r.ItemsCategorized(SourcePattern, 3)
	r.ItemsCategorized(SourceLLM, 5)
	r.ItemsCategorized(SourceLLM, 0)
	r.ItemsUnassigned(2)
	r.DuplicateAssignments(1)
	r.ItemsMerged(4)
	r.ExtractionWarning("total_mismatch")
	r.EditApplied("bundle")
	r.ObserveClassification(1500 * time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(r.receiptsIngested.WithLabelValues("false")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.receiptsIngested.WithLabelValues("true")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.ingestFailures.WithLabelValues("fetch")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(r.itemsCategorized.WithLabelValues(SourcePattern)), 0)
	assert.InDelta(t, 5, testutil.ToFloat64(r.itemsCategorized.WithLabelValues(SourceLLM)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(r.itemsUnassigned), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.duplicateAssignments), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(r.itemsMerged), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.extractionWarnings.WithLabelValues("total_mismatch")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.edits.WithLabelValues("bundle")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(r.classifyDuration))
}

func TestRecorder_SeparateRegistries(t *testing.T) {
	a, b := New(), New()
	a.ItemsUnassigned(1)

	assert.InDelta(t, 1, testutil.ToFloat64(a.itemsUnassigned), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(b.itemsUnassigned), 0)
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ReceiptIngested(true)
		r.IngestFailed("extract")
		r.ItemsCategorized(SourceLLM, 1)
		r.EditApplied("recategorize")
		r.ObserveClassification(time.Second)
	})
	assert.Nil(t, r.Registry())
	assert.NoError(t, r.WriteToTextfile(filepath.Join(t.TempDir(), "x.prom")))
}

func TestRecorder_WriteToTextfile(t *testing.T) {
	r := New()
	r.ItemsCategorized(SourcePattern, 2)

	path := filepath.Join(t.TempDir(), "ledger.prom")
	require.NoError(t, r.WriteToTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `ledger_items_categorized_total{source="pattern"} 2`)
}
