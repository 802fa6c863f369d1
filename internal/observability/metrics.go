package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weather_briefing"

// Metrics holds the Prometheus counters and histograms for the briefing pipeline.
type Metrics struct {
	Runs        *prometheus.CounterVec // labels: status
	RunDuration prometheus.Histogram

	ProviderRequests  *prometheus.CounterVec // labels: category, provider, outcome
	NarrativeAttempts *prometheus.CounterVec // labels: backend, outcome
	PublishAttempts   *prometheus.CounterVec // labels: format={rich,plain}, outcome
	Alerts            *prometheus.CounterVec // labels: hazard, tier
	EventsEmitted     *prometheus.CounterVec // labels: outcome
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Runs,
		m.RunDuration,
		m.ProviderRequests,
		m.NarrativeAttempts,
		m.PublishAttempts,
		m.Alerts,
		m.EventsEmitted,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Invocations by terminal status.",
		}, []string{"status"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete invocation.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Telemetry provider calls by category, provider and outcome.",
		}, []string{"category", "provider", "outcome"}),
		NarrativeAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "narrative_attempts_total",
			Help:      "Text-generation backend calls by backend and outcome.",
		}, []string{"backend", "outcome"}),
		PublishAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_attempts_total",
			Help:      "Delivery attempts by format and outcome.",
		}, []string{"format", "outcome"}),
		Alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Hazard alerts raised by hazard and tier.",
		}, []string{"hazard", "tier"}),
		EventsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_events_total",
			Help:      "Run events written to the event stream by outcome.",
		}, []string{"outcome"}),
	}
}
