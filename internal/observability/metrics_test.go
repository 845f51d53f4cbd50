package observability

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dex-spillover-lab/internal/domain"
)

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics("")

	m.AddRows("chains", 3)
	m.AddRows("chains", 2)
	m.RecordLoss(domain.LossReport{Variant: "500", Stage: "direct_pool", Before: 4, After: 3})
	m.SetMissing("base", map[string]int{"size_same_01": 7})
	m.RecordFatal(CategoryOrdering)
	m.ObserveStage("chains", 20*time.Millisecond)
	m.RecordRun("run", nil)
	m.RecordRun("run", errors.New("boom"))

	assert.Equal(t, 5.0, testutil.ToFloat64(m.RowsProcessed.WithLabelValues("chains")))
	assert.Equal(t, 25.0, testutil.ToFloat64(m.DataLossPercent.WithLabelValues("500", "direct_pool")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.MissingValues.WithLabelValues("base", "size_same_01")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FatalErrors.WithLabelValues(CategoryOrdering)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("run", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("run", "failure")))
	assert.Greater(t, testutil.ToFloat64(m.LastSuccessfulRun), 0.0)
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a := NewMetrics("")
	b := NewMetrics("")

	a.AddRows("intervals", 1)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.RowsProcessed.WithLabelValues("intervals")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	require.NotPanics(t, func() {
		m.AddRows("x", 1)
		m.RecordLoss(domain.LossReport{})
		m.SetMissing("base", map[string]int{"a": 1})
		m.RecordFatal(CategoryOther)
		m.ObserveStage("x", time.Second)
		m.RecordRun("run", nil)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics("")
	m.AddRows("features", 4)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `spillover_pipeline_rows_processed_total{stage="features"} 4`))
}
