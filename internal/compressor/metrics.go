package compressor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for rerank calls.
//
// Metrics:
//   - rerankd_rerank_requests_total{model,status} - rerank calls by outcome
//   - rerankd_rerank_duration_seconds{model} - remote call latency
//   - rerankd_rerank_documents_in{model} - documents sent per call
//   - rerankd_rerank_documents_out{model} - documents returned per call
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	RequestsTotal *prometheus.CounterVec
	Duration      *prometheus.HistogramVec
	DocumentsIn   *prometheus.HistogramVec
	DocumentsOut  *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rerankd_rerank_requests_total",
				Help: "Total number of rerank calls by model and status",
			},
			[]string{"model", "status"}, // "ok" or "error"
		),
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rerankd_rerank_duration_seconds",
				Help:    "Duration of rerank calls in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
			},
			[]string{"model"},
		),
		DocumentsIn: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rerankd_rerank_documents_in",
				Help:    "Number of documents sent per rerank call",
				Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
			},
			[]string{"model"},
		),
		DocumentsOut: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rerankd_rerank_documents_out",
				Help:    "Number of documents returned per rerank call",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
			},
			[]string{"model"},
		),
	}
}

func (m *Metrics) observe(model string, d time.Duration, in, out int, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.RequestsTotal.WithLabelValues(model, status).Inc()
	m.Duration.WithLabelValues(model).Observe(d.Seconds())
	m.DocumentsIn.WithLabelValues(model).Observe(float64(in))
	if err == nil {
		m.DocumentsOut.WithLabelValues(model).Observe(float64(out))
	}
}
