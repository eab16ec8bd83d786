package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks check-in activity.
type Metrics struct {
	checkIns       *prometheus.CounterVec
	moments        prometheus.Counter
	momentFailures prometheus.Counter
	bulkItems      *prometheus.CounterVec
	goalsCompleted prometheus.Counter
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// Default returns the process-wide Metrics registered on the default registry.
func Default() *Metrics {
	defaultMetricsOnce.Do(func() {
		defaultMetrics = New(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// New registers a fresh set of metrics on reg. Tests pass their own registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		checkIns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "goalgraph",
			Subsystem: "check_ins",
			Name:      "recorded_total",
			Help:      "Check-ins recorded, by outcome",
		}, []string{"outcome"}),
		moments: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "goalgraph",
			Subsystem: "check_ins",
			Name:      "confidence_moments_total",
			Help:      "Check-ins whose confidence swing triggered a confidence moment",
		}),
		momentFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "goalgraph",
			Subsystem: "check_ins",
			Name:      "confidence_moment_failures_total",
			Help:      "Confidence moments whose delivery failed",
		}),
		bulkItems: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "goalgraph",
			Subsystem: "bulk_check_ins",
			Name:      "items_total",
			Help:      "Items processed by bulk check-in, by outcome",
		}, []string{"outcome"}),
		goalsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "goalgraph",
			Subsystem: "goals",
			Name:      "auto_completed_total",
			Help:      "Goals completed by a 0% or 100% check-in",
		}),
	}
}

func (m *Metrics) CheckInRecorded(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.checkIns.WithLabelValues("success").Inc()
	} else {
		m.checkIns.WithLabelValues("failure").Inc()
	}
}

func (m *Metrics) MomentEmitted(err error) {
	if m == nil {
		return
	}
	m.moments.Inc()
	if err != nil {
		m.momentFailures.Inc()
	}
}

func (m *Metrics) BulkItem(outcome string) {
	if m == nil {
		return
	}
	m.bulkItems.WithLabelValues(outcome).Inc()
}

func (m *Metrics) GoalAutoCompleted() {
	if m == nil {
		return
	}
	m.goalsCompleted.Inc()
}
