package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveRow("DLithe", OutcomeGenerated)
	m.ObserveRow("DLithe", OutcomeGenerated)
	m.ObserveRow("DLithe", OutcomeFailed)
	m.ObserveBatch("roster", time.Now(), 2048)
	m.IncrementCacheMiss()

	assert.InDelta(t, 2, testutil.ToFloat64(m.Rows.WithLabelValues("DLithe", OutcomeGenerated)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Rows.WithLabelValues("DLithe", OutcomeFailed)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Batches.WithLabelValues("roster")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.CacheMisses), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.ArchiveBytes))
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRow("DLithe", OutcomeGenerated)
		m.ObserveBatch("approved", time.Now(), 0)
		m.IncrementCacheMiss()
	})
}
