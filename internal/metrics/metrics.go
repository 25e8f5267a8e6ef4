// Package metrics holds the Prometheus collectors for sheet ingestion.
//
// All methods are safe on a nil *Metrics so callers and tests can run
// without a registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "roster"

// Metrics groups the service collectors.
type Metrics struct {
	registry *prometheus.Registry

	Fetches       *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	Attempts      *prometheus.CounterVec
	Records       prometheus.Gauge
	HTTPRequests  *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry together
// with the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Record fetches by data source and fallback reason.",
		}, []string{"source", "reason"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of record fetches, fallback included.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		Attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_attempts_total",
			Help:      "Individual upstream HTTP attempts by result.",
		}, []string{"result"}),
		Records: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records",
			Help:      "Number of records returned by the latest fetch.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Inbound API requests by route and status code.",
		}, []string{"route", "code"}),
	}

	reg.MustRegister(m.Fetches, m.FetchDuration, m.Attempts, m.Records, m.HTTPRequests)
	return m
}

// ObserveFetch records one completed fetch. reason is empty for live data.
func (m *Metrics) ObserveFetch(source, reason string, records int, d time.Duration) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "none"
	}
	m.Fetches.With(prometheus.Labels{"source": source, "reason": reason}).Inc()
	m.FetchDuration.With(prometheus.Labels{"source": source}).Observe(d.Seconds())
	m.Records.Set(float64(records))
}

// ObserveAttempt records one upstream attempt. Its signature matches
// httpretry.AttemptFunc.
func (m *Metrics) ObserveAttempt(_ int, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Attempts.With(prometheus.Labels{"result": result}).Inc()
}

// ObserveRequest records one inbound request.
func (m *Metrics) ObserveRequest(route string, status int) {
	if m == nil {
		return
	}
	m.HTTPRequests.With(prometheus.Labels{"route": route, "code": strconv.Itoa(status)}).Inc()
}

// RegisterStoredIDs exposes the id registry size, read at scrape time.
func (m *Metrics) RegisterStoredIDs(count func() int) {
	if m == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stored_ids",
		Help:      "Row ids currently held by the id registry.",
	}, func() float64 { return float64(count()) }))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
