package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// UpstreamMetrics records calls made to third-party providers.
type UpstreamMetrics struct {
	duration  *prometheus.HistogramVec
	success   *prometheus.CounterVec
	failure   *prometheus.CounterVec
	toolCalls *prometheus.CounterVec
}

// NewUpstreamMetrics registers the provider metrics on the provided registerer.
func NewUpstreamMetrics(reg prometheus.Registerer) *UpstreamMetrics {
	if reg == nil {
		return &UpstreamMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_request_duration_seconds",
		Help:    "Duration of upstream provider requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_request_success_total",
		Help: "Upstream provider requests that returned usable data.",
	}, []string{"provider"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_request_failure_total",
		Help: "Upstream provider requests that degraded to an empty result.",
	}, []string{"provider", "reason"})
	toolCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_tool_calls_total",
		Help: "Tool invocations requested by the chat agent.",
	}, []string{"tool"})
	reg.MustRegister(duration, success, failure, toolCalls)
	return &UpstreamMetrics{
		duration:  duration,
		success:   success,
		failure:   failure,
		toolCalls: toolCalls,
	}
}

// ObserveDuration records the duration for the named provider.
func (m *UpstreamMetrics) ObserveDuration(provider string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(provider)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named provider.
func (m *UpstreamMetrics) IncSuccess(provider string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(provider)).Inc()
}

// IncFailure increments the failure counter for the provider and reason.
func (m *UpstreamMetrics) IncFailure(provider, reason string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(provider), normalizeLabel(reason)).Inc()
}

// IncToolCall counts one agent tool invocation.
func (m *UpstreamMetrics) IncToolCall(tool string) {
	if m == nil || m.toolCalls == nil {
		return
	}
	m.toolCalls.WithLabelValues(normalizeLabel(tool)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
