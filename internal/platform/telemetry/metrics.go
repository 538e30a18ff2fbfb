package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's instrumentation. All collectors are registered
// on a private registry so tests can build isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	DecisionsTotal    *prometheus.CounterVec
	FindingsTotal     *prometheus.CounterVec
	ThreatsTotal      *prometheus.CounterVec
	RoutingSelections *prometheus.CounterVec
	RoutingFailures   prometheus.Counter
	ProbeDuration     *prometheus.HistogramVec
	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter
}

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		DecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vigil_decisions_total",
				Help: "Guardrail decisions by direction and verdict",
			},
			[]string{"direction", "verdict"},
		),
		FindingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vigil_detector_findings_total",
				Help: "Risk detector findings by category",
			},
			[]string{"category"},
		),
		ThreatsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vigil_threats_detected_total",
				Help: "Detected threats by attack vector category",
			},
			[]string{"category"},
		),
		RoutingSelections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vigil_routing_selections_total",
				Help: "Routing decisions by selected model",
			},
			[]string{"model"},
		),
		RoutingFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vigil_routing_failures_total",
				Help: "Routing calls that found no eligible model",
			},
		),
		ProbeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vigil_probe_duration_seconds",
				Help:    "Model health probe latency",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"model", "outcome"},
		),
		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vigil_decision_cache_hits_total",
				Help: "Decision cache hits",
			},
		),
		CacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vigil_decision_cache_misses_total",
				Help: "Decision cache misses",
			},
		),
	}

	reg.MustRegister(
		m.DecisionsTotal, m.FindingsTotal, m.ThreatsTotal, m.RoutingSelections,
		m.RoutingFailures, m.ProbeDuration, m.CacheHits, m.CacheMisses,
	)
	return m
}

// ObserveProbe records one health-probe duration. Shaped to plug into the
// tracker's Observe hook.
func (m *Metrics) ObserveProbe(model, outcome string, d time.Duration) {
	m.ProbeDuration.WithLabelValues(model, outcome).Observe(d.Seconds())
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gather exposes the registry for test assertions.
func (m *Metrics) Gather() prometheus.Gatherer {
	return m.registry
}
