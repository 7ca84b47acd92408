package server

import (
	"net/http"
	"time"

	"github.com/ppiankov/factlock/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects verification metrics on a private registry
type Metrics struct {
	registry       *prometheus.Registry
	verdicts       *prometheus.CounterVec
	hallucinations prometheus.Counter
	duration       prometheus.Histogram
}

// NewMetrics creates and registers the factlock collectors
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "factlock_verdicts_total",
			Help: "Checks completed, by outcome status.",
		}, []string{"status"}),
		hallucinations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "factlock_hallucinated_numbers_total",
			Help: "Distinct hallucinated numbers found across all halted checks.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "factlock_verify_duration_seconds",
			Help:    "Time spent verifying one draft pair.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 4, 8),
		}),
	}

	m.registry.MustRegister(
		m.verdicts,
		m.hallucinations,
		m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// ObserveVerdict records a completed check
func (m *Metrics) ObserveVerdict(v model.Verdict, elapsed time.Duration) {
	m.verdicts.WithLabelValues(string(v.Status)).Inc()
	m.hallucinations.Add(float64(len(v.Hallucinations)))
	m.duration.Observe(elapsed.Seconds())
}

// ObserveError records a request rejected for malformed input
func (m *Metrics) ObserveError() {
	m.verdicts.WithLabelValues(string(model.StatusError)).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
