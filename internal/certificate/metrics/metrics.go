package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Row outcomes.
const (
	OutcomeGenerated = "generated"
	OutcomeFailed    = "failed"
)

// Metrics provides observability for certificate batches.
type Metrics struct {
	Rows          *prometheus.CounterVec
	Batches       *prometheus.CounterVec
	BatchDuration *prometheus.HistogramVec
	ArchiveBytes  prometheus.Histogram
	CacheMisses   prometheus.Counter
}

// New registers the certificate metrics with reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Rows: f.NewCounterVec(prometheus.CounterOpts{
			Name: "certgen_rows_total",
			Help: "Roster rows processed, by organization and outcome",
		}, []string{"organization", "outcome"}),
		Batches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "certgen_batches_total",
			Help: "Batches completed, by flow (roster or approved)",
		}, []string{"flow"}),
		BatchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "certgen_batch_duration_seconds",
			Help:    "Wall time of a whole batch",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"flow"}),
		ArchiveBytes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "certgen_archive_size_bytes",
			Help:    "Size of finished batch archives",
			Buckets: prometheus.ExponentialBuckets(16*1024, 4, 8),
		}),
		CacheMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "certgen_archive_cache_misses_total",
			Help: "Archive downloads that found no cached batch",
		}),
	}
}

// ObserveRow counts one processed row.
func (m *Metrics) ObserveRow(org, outcome string) {
	if m == nil {
		return
	}
	m.Rows.WithLabelValues(org, outcome).Inc()
}

// ObserveBatch records a finished batch. Call with time.Now() taken at the
// start of the batch.
func (m *Metrics) ObserveBatch(flow string, start time.Time, archiveSize int) {
	if m == nil {
		return
	}
	m.Batches.WithLabelValues(flow).Inc()
	m.BatchDuration.WithLabelValues(flow).Observe(time.Since(start).Seconds())
	m.ArchiveBytes.Observe(float64(archiveSize))
}

// IncrementCacheMiss counts a download for an unknown or expired batch.
func (m *Metrics) IncrementCacheMiss() {
	if m == nil {
		return
	}
	m.CacheMisses.Inc()
}
