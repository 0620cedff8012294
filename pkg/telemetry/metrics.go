package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus metrics for question answering and ingestion.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	questionsTotal *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
	ingestRows     *prometheus.CounterVec
	schemaRefresh  *prometheus.CounterVec
}

// NewMetrics creates the metrics on a private registry together with the Go
// runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		questionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "footballkg",
			Name:      "questions_total",
			Help:      "Questions answered, by final pipeline state",
		}, []string{"state"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "footballkg",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each question answering stage",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
		ingestRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "footballkg",
			Name:      "ingest_rows_total",
			Help:      "Ingested rows, by outcome",
		}, []string{"outcome"}),
		schemaRefresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "footballkg",
			Name:      "schema_refresh_total",
			Help:      "Schema fetches, by outcome",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		m.questionsTotal,
		m.stageDuration,
		m.ingestRows,
		m.schemaRefresh,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordQuestion counts a finished question by its final state.
func (m *Metrics) RecordQuestion(state string) {
	if m == nil {
		return
	}
	m.questionsTotal.WithLabelValues(state).Inc()
}

// ObserveStage records how long a pipeline stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordIngestRow counts one ingested row.
func (m *Metrics) RecordIngestRow(ok bool) {
	if m == nil {
		return
	}
	outcome := "succeeded"
	if !ok {
		outcome = "failed"
	}
	m.ingestRows.WithLabelValues(outcome).Inc()
}

// RecordSchemaRefresh counts one schema fetch.
func (m *Metrics) RecordSchemaRefresh(err error) {
	if m == nil {
		return
	}
	outcome := "succeeded"
	if err != nil {
		outcome = "failed"
	}
	m.schemaRefresh.WithLabelValues(outcome).Inc()
}
