// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GatewayCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genai_gateway_calls_total",
			Help: "Total number of model gateway calls",
		},
		[]string{"task"},
	)

	GatewayFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genai_gateway_failures_total",
			Help: "Total number of failed model gateway calls",
		},
		[]string{"task", "error_code"},
	)

	GatewayCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "genai_gateway_call_duration_seconds",
			Help: "Duration of model gateway calls in seconds",
		},
		[]string{"task"},
	)

	OnboardingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_runs_total",
			Help: "Total onboarding runs by applicant type and outcome",
		},
		[]string{"applicant_type", "outcome"},
	)

	OnboardingStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "onboarding_stage_duration_seconds",
			Help: "Duration of onboarding pipeline stages in seconds",
		},
		[]string{"stage"},
	)

	OnboardingActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "onboarding_runs_active",
			Help: "Number of onboarding runs currently in flight",
		},
		[]string{"applicant_type"},
	)
)
