package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gitlab.com/codearena.net/internal/core/ports/secondary"
	"gitlab.com/codearena.net/internal/domain"
)

var (
	_ secondary.SandboxMetrics = (*JudgeMetrics)(nil)
	_ secondary.VerdictMetrics = (*JudgeMetrics)(nil)
)

// JudgeMetrics exposes sandbox traffic and verdict counts
type JudgeMetrics struct {
	SandboxRequests *prometheus.CounterVec
	SandboxLatency  *prometheus.HistogramVec
	Fallbacks       prometheus.Counter
	Verdicts        *prometheus.CounterVec
}

// NewJudgeMetrics registers the collectors on reg
func NewJudgeMetrics(reg prometheus.Registerer) *JudgeMetrics {
	factory := promauto.With(reg)
	return &JudgeMetrics{
		SandboxRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sandbox_requests_total",
			Help: "Sandbox execute calls by provider and outcome",
		}, []string{"provider", "outcome"}),
		SandboxLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sandbox_request_duration_seconds",
			Help:    "Latency of sandbox execute calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"provider"}),
		Fallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "sandbox_fallbacks_total",
			Help: "Times a request moved on to the next sandbox provider",
		}),
		Verdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "judge_verdicts_total",
			Help: "Judged suites by terminal status",
		}, []string{"status"}),
	}
}

func (m *JudgeMetrics) ObserveRequest(provider string, outcome string, elapsed time.Duration) {
	m.SandboxRequests.WithLabelValues(provider, outcome).Inc()
	m.SandboxLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func (m *JudgeMetrics) IncFallback() {
	m.Fallbacks.Inc()
}

func (m *JudgeMetrics) ObserveVerdict(status domain.SubmissionStatus) {
	m.Verdicts.WithLabelValues(string(status)).Inc()
}

// Handler serves the metrics gathered by g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
