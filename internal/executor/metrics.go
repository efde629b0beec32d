package executor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the executor's prometheus instruments. Callers that do not
// care about metrics can use NewMetrics() and never register it with a
// prometheus.Registerer; the counters simply accumulate in memory.
type Metrics struct {
	jobsTotal       *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
	jobsInFlight    prometheus.Gauge
}

// NewMetrics constructs a fresh, unregistered set of instruments.
func NewMetrics() *Metrics {
	return &Metrics{
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ochre_jobs_total",
			Help: "Number of jobs executed, by method and outcome.",
		}, []string{"method", "outcome"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ochre_job_duration_seconds",
			Help:    "Job execution duration in seconds, by method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		jobsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ochre_jobs_in_flight",
			Help: "Number of jobs currently executing (0 or 1: the executor is sequential).",
		}),
	}
}

// Register attaches every instrument to reg, for callers that expose a
// /metrics endpoint.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.jobsTotal, m.jobDuration, m.jobsInFlight} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveStart marks one job beginning.
func (m *Metrics) ObserveStart(method string) {
	m.jobsInFlight.Inc()
}

// ObserveDuration records how long a job took.
func (m *Metrics) ObserveDuration(method string, d time.Duration) {
	m.jobDuration.WithLabelValues(method).Observe(d.Seconds())
	m.jobsInFlight.Dec()
}

// ObserveOutcome increments the per-method, per-outcome counter.
func (m *Metrics) ObserveOutcome(method, outcome string) {
	m.jobsTotal.WithLabelValues(method, outcome).Inc()
}
