package action

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is an optional collaborator recording per-kind execution counts
// and latency. A nil *Metrics is valid everywhere it is used: Execute skips
// instrumentation entirely when none was configured.
type Metrics struct {
	executed *prometheus.CounterVec
	failed   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the executor's counters/histogram against reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		executed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bdui", Subsystem: "action", Name: "executed_total",
			Help: "Actions executed, by kind.",
		}, []string{"kind"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bdui", Subsystem: "action", Name: "failed_total",
			Help: "Actions that returned an error, by kind.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bdui", Subsystem: "action", Name: "duration_seconds",
			Help: "Action execution latency, by kind.", Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
	}
	for _, c := range []prometheus.Collector{m.executed, m.failed, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(kind Kind, start time.Time, err error) {
	if m == nil {
		return
	}
	m.executed.WithLabelValues(string(kind)).Inc()
	m.duration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	if err != nil {
		m.failed.WithLabelValues(string(kind)).Inc()
	}
}
