// Package telemetry provides Prometheus instrumentation for the Solace
// service. Counters here carry no message content, only level and kind
// labels; user text never reaches the metrics endpoint.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RiskEvaluationsTotal counts fused risk verdicts by final level.
	RiskEvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "solace",
			Name:      "risk_evaluations_total",
			Help:      "Total risk evaluations by final fused level.",
		},
		[]string{"level"},
	)

	// EvaluationDuration observes end-to-end pipeline latency.
	EvaluationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "solace",
		Name:      "evaluation_duration_seconds",
		Help:      "Risk pipeline duration in seconds, keyword and model combined.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 15},
	})

	// InterventionsTotal counts interventions by kind ("immediate", "support").
	InterventionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "solace",
			Name:      "interventions_total",
			Help:      "Total crisis interventions by kind.",
		},
		[]string{"kind"},
	)

	// OracleFailuresTotal counts model-side failures by reason
	// ("unavailable", "malformed", "timeout").
	OracleFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "solace",
			Name:      "oracle_failures_total",
			Help:      "Total oracle failures by reason; each one degrades a verdict to keyword-only.",
		},
		[]string{"reason"},
	)

	// AuditDropsTotal counts audit events dropped at queue capacity.
	AuditDropsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "solace",
		Name:      "audit_drops_total",
		Help:      "Total audit events dropped because the emitter queue was full.",
	})

	// ChatTurnsTotal counts conversational turns by outcome
	// ("replied", "intervened", "degraded").
	ChatTurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "solace",
			Name:      "chat_turns_total",
			Help:      "Total chat turns by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		RiskEvaluationsTotal,
		EvaluationDuration,
		InterventionsTotal,
		OracleFailuresTotal,
		AuditDropsTotal,
		ChatTurnsTotal,
	)
}

// Handler returns the Prometheus scrape handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
