// Package metrics exposes Prometheus collectors for the stats service.
// All recording methods are safe on a nil *Registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector of the service
type Registry struct {
	reg *prometheus.Registry

	EventsRecorded  *prometheus.CounterVec
	EventsRejected  *prometheus.CounterVec
	ReportBuild     prometheus.Histogram
	ReportCache     *prometheus.CounterVec
	RateLimited     prometheus.Counter
	KafkaBatches    *prometheus.CounterVec
	ReportRefreshes prometheus.Counter
}

// New creates and registers all collectors on a dedicated registry
func New() *Registry {
	m := &Registry{
		reg: prometheus.NewRegistry(),

		EventsRecorded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statsbasket_events_recorded_total",
				Help: "Game events appended to the log by kind and ingestion source",
			},
			[]string{"kind", "source"},
		),

		EventsRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statsbasket_events_rejected_total",
				Help: "Game events refused by validation",
			},
			[]string{"reason"},
		),

		ReportBuild: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "statsbasket_report_build_seconds",
				Help:    "Time spent deriving a game report from its event log",
				Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
			},
		),

		ReportCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statsbasket_report_cache_total",
				Help: "Report cache lookups by result",
			},
			[]string{"result"},
		),

		RateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "statsbasket_rate_limited_total",
				Help: "Event submissions refused by the rate limiter",
			},
		),

		KafkaBatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statsbasket_kafka_batches_total",
				Help: "Kafka batches processed by outcome",
			},
			[]string{"status"},
		),

		ReportRefreshes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "statsbasket_report_refreshes_total",
				Help: "Reports rebuilt by the background refresher",
			},
		),
	}

	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.EventsRecorded,
		m.EventsRejected,
		m.ReportBuild,
		m.ReportCache,
		m.RateLimited,
		m.KafkaBatches,
		m.ReportRefreshes,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// RegisterGauge exposes a value read at scrape time
func (m *Registry) RegisterGauge(name, help string, fn func() float64) {
	m.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, fn))
}

// RecordEvent counts an accepted event
func (m *Registry) RecordEvent(kind, source string) {
	if m == nil {
		return
	}
	m.EventsRecorded.WithLabelValues(kind, source).Inc()
}

// RecordRejection counts a refused event
func (m *Registry) RecordRejection(reason string) {
	if m == nil {
		return
	}
	m.EventsRejected.WithLabelValues(reason).Inc()
}

// ObserveReportBuild records how long a report took to derive
func (m *Registry) ObserveReportBuild(d time.Duration) {
	if m == nil {
		return
	}
	m.ReportBuild.Observe(d.Seconds())
}

// RecordCache counts a report cache lookup: hit, miss or error
func (m *Registry) RecordCache(result string) {
	if m == nil {
		return
	}
	m.ReportCache.WithLabelValues(result).Inc()
}

// RecordRateLimited counts a throttled request
func (m *Registry) RecordRateLimited() {
	if m == nil {
		return
	}
	m.RateLimited.Inc()
}

// RecordKafkaBatch counts a processed batch
func (m *Registry) RecordKafkaBatch(status string) {
	if m == nil {
		return
	}
	m.KafkaBatches.WithLabelValues(status).Inc()
}

// RecordRefresh counts a background report rebuild
func (m *Registry) RecordRefresh() {
	if m == nil {
		return
	}
	m.ReportRefreshes.Inc()
}
