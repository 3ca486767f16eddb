// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Auth outcome labels. Business outcomes are kept apart from "error" so
// infrastructure faults stand out.
const (
	OutcomeSuccess            = "success"
	OutcomeInvalid            = "invalid_input"
	OutcomeConflict           = "conflict"
	OutcomeBadCredentials     = "bad_credentials"
	OutcomeUnknownEmail       = "unknown_email"
	OutcomeInvalidToken       = "invalid_token"
	OutcomeSignInRecordFailed = "signin_record_failed"
	OutcomeMailHandoffFailed  = "mail_handoff_failed"
	OutcomeError              = "error"
)

// AuthRecorder is what the credential authority reports to.
type AuthRecorder interface {
	RecordAuthOutcome(action, outcome string)
}

// HTTPRecorder is what the request middleware reports to.
type HTTPRecorder interface {
	RecordHTTPRequest(method string, status int, duration time.Duration)
}

// SweepRecorder is what the reset token sweep reports to.
type SweepRecorder interface {
	RecordResetTokensSwept(n int64)
}

// MailRecorder is what the mail queue reports to.
type MailRecorder interface {
	RecordMailFailure()
}

// Collector is the Prometheus implementation of every recorder.
type Collector struct {
	authOutcomes *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	resetSwept   prometheus.Counter
	mailFailures prometheus.Counter
}

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mindmatters_auth_outcomes_total",
			Help: "Authentication operations by action and outcome.",
		}, []string{"action", "outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mindmatters_http_requests_total",
			Help: "HTTP requests by method and status code.",
		}, []string{"method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mindmatters_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		resetSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mindmatters_reset_tokens_swept_total",
			Help: "Expired password reset tokens removed by the sweep job.",
		}),
		mailFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mindmatters_mail_failures_total",
			Help: "Outbound emails that could not be delivered.",
		}),
	}

	reg.MustRegister(
		c.authOutcomes,
		c.httpRequests,
		c.httpDuration,
		c.resetSwept,
		c.mailFailures,
	)
	return c
}

func (c *Collector) RecordAuthOutcome(action, outcome string) {
	c.authOutcomes.WithLabelValues(action, outcome).Inc()
}

func (c *Collector) RecordHTTPRequest(method string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method).Observe(duration.Seconds())
}

func (c *Collector) RecordResetTokensSwept(n int64) {
	c.resetSwept.Add(float64(n))
}

func (c *Collector) RecordMailFailure() {
	c.mailFailures.Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
