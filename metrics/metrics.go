// Package metrics provides Prometheus metrics for the anamnese API. Besides
// the usual HTTP request metrics it tracks the intake funnel: tokens issued,
// draft saves by outcome, submissions, and template reloads.
//
// All metrics are automatically registered with the Prometheus default
// registry during package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (IPs seen recently)",
		},
	)

	TokensIssuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "intake_tokens_issued_total",
			Help: "Total intake access tokens issued",
		},
	)

	// Outcome labels mirror the draft endpoint statuses: saved, invalid_token,
	// invalid_body, invalid_answers, not_found, expired, already_submitted.
	DraftSavesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_draft_saves_total",
			Help: "Total draft save attempts by outcome",
		},
		[]string{"outcome"},
	)

	SubmissionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "intake_submissions_total",
			Help: "Total completed form submissions",
		},
	)

	TemplateReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "form_template_reloads_total",
			Help: "Total form template reloads by result",
		},
		[]string{"result"},
	)

	TemplatesLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "form_templates_loaded",
			Help: "Number of form templates in the published snapshot",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(TokensIssuedTotal)
	prometheus.MustRegister(DraftSavesTotal)
	prometheus.MustRegister(SubmissionsTotal)
	prometheus.MustRegister(TemplateReloadsTotal)
	prometheus.MustRegister(TemplatesLoaded)
}
