package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes pipeline counters on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	uploadsTotal     *prometheus.CounterVec
	analysesTotal    *prometheus.CounterVec
	downloadsTotal   *prometheus.CounterVec
	analysisDuration prometheus.Histogram
}

// New builds a Metrics with all collectors registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	uploadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsight",
			Name:      "uploads_total",
			Help:      "Total document uploads by outcome.",
		},
		[]string{"outcome"},
	)
	analysesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsight",
			Name:      "analyses_total",
			Help:      "Total document analyses by outcome.",
		},
		[]string{"outcome"},
	)
	downloadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsight",
			Name:      "downloads_total",
			Help:      "Total downloads by serving storage tier.",
		},
		[]string{"tier"},
	)
	analysisDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "docsight",
			Name:      "analysis_duration_seconds",
			Help:      "Analysis duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)

	registry.MustRegister(uploadsTotal, analysesTotal, downloadsTotal, analysisDuration)

	return &Metrics{
		registry:         registry,
		uploadsTotal:     uploadsTotal,
		analysesTotal:    analysesTotal,
		downloadsTotal:   downloadsTotal,
		analysisDuration: analysisDuration,
	}
}

// ObserveUpload records an upload outcome: success, invalid or error.
func (m *Metrics) ObserveUpload(outcome string) {
	if m == nil {
		return
	}
	m.uploadsTotal.WithLabelValues(outcome).Inc()
}

// ObserveAnalysis records an analysis outcome and duration.
func (m *Metrics) ObserveAnalysis(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.analysesTotal.WithLabelValues(outcome).Inc()
	if seconds >= 0 {
		m.analysisDuration.Observe(seconds)
	}
}

// ObserveDownload records which tier served a download: remote or local.
func (m *Metrics) ObserveDownload(tier string) {
	if m == nil {
		return
	}
	m.downloadsTotal.WithLabelValues(tier).Inc()
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
