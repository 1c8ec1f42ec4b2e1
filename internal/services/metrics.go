package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service counters. A nil *Metrics records nothing.
type Metrics struct {
	importRows    *prometheus.CounterVec
	saveResults   *prometheus.CounterVec
	reports       *prometheus.CounterVec
	importLatency prometheus.Histogram
}

// NewMetrics registers the counters on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		importRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attendance",
			Name:      "import_rows_total",
			Help:      "Spreadsheet rows processed by outcome (accepted, rejected, warning).",
		}, []string{"outcome"}),
		saveResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attendance",
			Name:      "record_saves_total",
			Help:      "Record upserts by result (ok, failed).",
		}, []string{"result"}),
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attendance",
			Name:      "reports_total",
			Help:      "Reports produced by format (html, pdf, xlsx).",
		}, []string{"format"}),
		importLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "attendance",
			Name:      "import_duration_seconds",
			Help:      "Time spent building and saving one import batch.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.importRows, m.saveResults, m.reports, m.importLatency)
	return m
}

func (m *Metrics) observeBatch(accepted, rejected, warnings int) {
	if m == nil {
		return
	}
	m.importRows.WithLabelValues("accepted").Add(float64(accepted))
	m.importRows.WithLabelValues("rejected").Add(float64(rejected))
	m.importRows.WithLabelValues("warning").Add(float64(warnings))
}

func (m *Metrics) observeSaves(ok, failed int) {
	if m == nil {
		return
	}
	m.saveResults.WithLabelValues("ok").Add(float64(ok))
	m.saveResults.WithLabelValues("failed").Add(float64(failed))
}

func (m *Metrics) observeReport(format string) {
	if m == nil {
		return
	}
	m.reports.WithLabelValues(format).Inc()
}

func (m *Metrics) observeImportSeconds(s float64) {
	if m == nil {
		return
	}
	m.importLatency.Observe(s)
}
