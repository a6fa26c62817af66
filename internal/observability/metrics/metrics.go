package metrics

import "github.com/prometheus/client_golang/prometheus"

// GatewayMetrics exposes counters/histograms for calls to the booking API.
type GatewayMetrics struct {
	requestsTotal  *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	flowOutcomes   *prometheus.CounterVec
}

func NewGatewayMetrics(reg prometheus.Registerer) *GatewayMetrics {
	m := &GatewayMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthcare",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Total booking API requests by operation and outcome",
		}, []string{"operation", "outcome"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "healthcare",
			Subsystem: "gateway",
			Name:      "request_latency_seconds",
			Help:      "Latency of booking API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		flowOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthcare",
			Subsystem: "flow",
			Name:      "outcomes_total",
			Help:      "Completed client flows (booking, appointment decisions, auth)",
		}, []string{"flow", "outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.requestLatency, m.flowOutcomes)
	return m
}

// ObserveRequest records one finished request. outcome is "ok", "http_error"
// or "network_error".
func (m *GatewayMetrics) ObserveRequest(operation, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(operation, outcome).Inc()
	m.requestLatency.WithLabelValues(operation).Observe(seconds)
}

func (m *GatewayMetrics) ObserveFlow(flow string, ok bool) {
	if m == nil {
		return
	}
	outcome := "failed"
	if ok {
		outcome = "succeeded"
	}
	m.flowOutcomes.WithLabelValues(flow, outcome).Inc()
}
