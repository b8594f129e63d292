package observability

import (
	"net/http"
	"time"

	"github.com/SaiNageswarS/employee-desk/desk"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	Requests      *prometheus.CounterVec
	StageLatency  *prometheus.HistogramVec
	StageFailures *prometheus.CounterVec
	registry      *prometheus.Registry
}

// NewMetrics registers the instruments on a fresh registry so tests can
// build as many as they like.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_requests_total",
			Help:      "Chat requests by outcome.",
		}, []string{"outcome"}),
		StageLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_latency_ms",
			Help:      "Pipeline stage latency in milliseconds.",
			Buckets:   []float64{5, 25, 100, 250, 500, 1000, 2500, 5000, 10000},
		}, []string{"stage"}),
		StageFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_failures_total",
			Help:      "Pipeline stage failures by stage and code.",
		}, []string{"stage", "code"}),
		registry: reg,
	}
}

// ObserveRequest counts one chat request; outcome is e.g. "answered" or "invalid".
func (m *Metrics) ObserveRequest(outcome string) {
	m.Requests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Reporter adapts the metrics to the pipeline's progress events.
func (m *Metrics) Reporter() desk.ProgressReporter {
	return &metricsReporter{m: m}
}

type metricsReporter struct {
	m *Metrics
}

func (r *metricsReporter) Send(event *desk.StageEvent) error {
	stage := event.Stage.String()
	if event.Err != nil {
		code := (&desk.StageError{Stage: event.Stage, Err: event.Err}).Code()
		r.m.StageFailures.WithLabelValues(stage, code.String()).Inc()
		return nil
	}
	r.m.StageLatency.WithLabelValues(stage).Observe(float64(event.Elapsed) / float64(time.Millisecond))
	return nil
}

// OutcomeLabel classifies an error returned by the desk for request metrics.
func OutcomeLabel(err error) string {
	if err == nil {
		return "answered"
	}
	if status.Code(err) == codes.InvalidArgument {
		return "invalid"
	}
	return "error"
}
