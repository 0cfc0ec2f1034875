package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	cycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cofrance",
			Subsystem: "reconciler",
			Name:      "cycles_total",
			Help:      "Completed reconciliation cycles.",
		},
		[]string{"reconciler"},
	)
	cycleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cofrance",
			Subsystem: "reconciler",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of one reconciliation cycle in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"reconciler"},
	)
	tagWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cofrance",
			Subsystem: "tags",
			Name:      "writes_total",
			Help:      "Tag value writes by tag and displayed value class.",
		},
		[]string{"tag", "result"},
	)
	gatewayRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cofrance",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "External service requests by outcome.",
		},
		[]string{"service", "endpoint", "outcome"},
	)
	gatewayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cofrance",
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "External service request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
)

// Register adds the collectors to the default registry. Safe to call more
// than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(cycles, cycleDuration, tagWrites, gatewayRequests, gatewayDuration)
	})
}

// ObserveCycle records one finished reconciliation cycle
func ObserveCycle(reconciler string, duration time.Duration) {
	cycles.WithLabelValues(reconciler).Inc()
	cycleDuration.WithLabelValues(reconciler).Observe(duration.Seconds())
}

// RecordTagWrite counts a tag write. result is a short class such as
// "stand", "ocl", "lchg", "clear" or "error".
func RecordTagWrite(tag, result string) {
	tagWrites.WithLabelValues(tag, result).Inc()
}

// RecordGatewayRequest counts one external request and its outcome
func RecordGatewayRequest(service, endpoint, outcome string, duration time.Duration) {
	gatewayRequests.WithLabelValues(service, endpoint, outcome).Inc()
	gatewayDuration.WithLabelValues(service, endpoint).Observe(duration.Seconds())
}
