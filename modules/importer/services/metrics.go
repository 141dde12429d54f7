package services

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	rowsTotal   *prometheus.CounterVec
	tabFailures *prometheus.CounterVec
	tabsSkipped *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		rowsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workbook_import",
			Name:      "rows_total",
			Help:      "Rows processed by importers, by outcome.",
		}, []string{"source", "outcome"}),
		tabFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workbook_import",
			Name:      "tab_failures_total",
			Help:      "Workbook tabs whose handler failed and was rolled back.",
		}, []string{"sheet"}),
		tabsSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workbook_import",
			Name:      "tabs_skipped_total",
			Help:      "Workbook tabs skipped as computed or without a handler.",
		}, []string{"reason"}),
		runDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "workbook_import",
			Name:      "run_duration_seconds",
			Help:      "Wall time of one importer run.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"source", "status"}),
	}
})

func getMetrics() *metrics {
	return metricsSingleton()
}

func (m *metrics) observeResult(res *Result, status string) {
	src := res.Source.String()
	m.rowsTotal.WithLabelValues(src, "created").Add(float64(res.Created))
	m.rowsTotal.WithLabelValues(src, "updated").Add(float64(res.Updated))
	m.rowsTotal.WithLabelValues(src, "skipped").Add(float64(res.Skipped))
	m.rowsTotal.WithLabelValues(src, "error").Add(float64(len(res.Errors)))
	m.runDuration.WithLabelValues(src, status).Observe(res.Duration().Seconds())
}
