package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector exposes AI call metrics to Prometheus.
type Collector struct {
	aiRequestsTotal   *prometheus.CounterVec
	aiRequestDuration *prometheus.HistogramVec
	aiTokensTotal     *prometheus.CounterVec
}

// NewCollector registers the AI metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		aiRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pantry_ai_requests_total",
				Help: "Total number of AI gateway calls",
			},
			[]string{"agent", "status"},
		),
		aiRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pantry_ai_request_duration_seconds",
				Help:    "AI gateway call duration in seconds",
				Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
			},
			[]string{"agent"},
		),
		aiTokensTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pantry_ai_tokens_total",
				Help: "Tokens consumed by AI gateway calls",
			},
			[]string{"agent", "kind"},
		),
	}
}

func (c *Collector) observe(agent string, seconds float64, prompt, completion int, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	c.aiRequestsTotal.WithLabelValues(agent, status).Inc()
	c.aiRequestDuration.WithLabelValues(agent).Observe(seconds)
	c.aiTokensTotal.WithLabelValues(agent, "prompt").Add(float64(prompt))
	c.aiTokensTotal.WithLabelValues(agent, "completion").Add(float64(completion))
}
