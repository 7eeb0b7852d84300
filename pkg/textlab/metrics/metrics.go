// Package metrics defines the Prometheus collectors for pipeline runs. Batch
// runs expose them through the node-exporter textfile format rather than an
// HTTP endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors for the pipeline. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Registry          *prometheus.Registry
	StageDuration     *prometheus.HistogramVec
	Documents         *prometheus.GaugeVec
	VocabularySize    prometheus.Gauge
	MatchingDocuments prometheus.Gauge
	RunsTotal         *prometheus.CounterVec
}

// New creates and registers all metrics on a private registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "textlab_stage_duration_seconds",
				Help:    "Duration of each pipeline stage in seconds.",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 15, 60, 300},
			},
			[]string{"stage"},
		),
		Documents: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "textlab_documents",
				Help: "Documents seen before and after category filtering.",
			},
			[]string{"phase"},
		),
		VocabularySize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "textlab_vocabulary_size",
				Help: "Number of terms in the fitted vocabulary.",
			},
		),
		MatchingDocuments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "textlab_matching_documents",
				Help: "Documents with a positive similarity to the query.",
			},
		),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "textlab_runs_total",
				Help: "Pipeline runs by status (ok, error).",
			},
			[]string{"status"},
		),
	}
	m.Registry.MustRegister(
		m.StageDuration,
		m.Documents,
		m.VocabularySize,
		m.MatchingDocuments,
		m.RunsTotal,
	)
	return m
}

// ObserveStage records how long a stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// SetDocuments records the corpus size for a phase ("loaded" or "filtered").
func (m *Metrics) SetDocuments(phase string, n int) {
	if m == nil {
		return
	}
	m.Documents.WithLabelValues(phase).Set(float64(n))
}

// SetVocabulary records the vocabulary size.
func (m *Metrics) SetVocabulary(n int) {
	if m == nil {
		return
	}
	m.VocabularySize.Set(float64(n))
}

// SetMatching records how many documents matched the query.
func (m *Metrics) SetMatching(n int) {
	if m == nil {
		return
	}
	m.MatchingDocuments.Set(float64(n))
}

// RunFinished counts a completed run.
func (m *Metrics) RunFinished(err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.RunsTotal.WithLabelValues(status).Inc()
}

// WriteTextfile writes the current values in the textfile collector format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
