package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	globalMetrics *Metrics
	globalMu      sync.RWMutex
)

// Metrics holds all Prometheus metrics for Campaignly
type Metrics struct {
	// Campaign lifecycle counters
	CampaignsCreatedTotal  prometheus.Counter
	CampaignsLaunchedTotal prometheus.Counter
	CampaignsDeletedTotal  prometheus.Counter
	EmailsApprovedTotal    prometheus.Counter

	// Content generation
	GenerationsTotal          *prometheus.CounterVec
	GenerationDurationSeconds prometheus.Histogram

	// Auth counters
	LoginsTotal       *prometheus.CounterVec
	RegistrationsTotal prometheus.Counter

	// HTTP metrics
	HTTPRequestsTotal          *prometheus.CounterVec
	HTTPRequestDurationSeconds *prometheus.HistogramVec
	HTTPErrorsTotal            *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates a new Metrics instance with all metrics registered
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		CampaignsCreatedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "campaignly_campaigns_created_total",
				Help: "Total number of campaigns created or re-generated",
			},
		),
		CampaignsLaunchedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "campaignly_campaigns_launched_total",
				Help: "Total number of campaigns launched",
			},
		),
		CampaignsDeletedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "campaignly_campaigns_deleted_total",
				Help: "Total number of campaigns soft-deleted",
			},
		),
		EmailsApprovedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "campaignly_emails_approved_total",
				Help: "Total number of email drafts approved",
			},
		),

		GenerationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campaignly_generations_total",
				Help: "Total number of content generation runs",
			},
			[]string{"outcome"},
		),
		GenerationDurationSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "campaignly_generation_duration_seconds",
				Help:    "End-to-end campaign generation duration in seconds",
				Buckets: []float64{1, 2.5, 5, 10, 30, 60, 120, 300},
			},
		),

		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campaignly_logins_total",
				Help: "Total number of login attempts",
			},
			[]string{"outcome"},
		),
		RegistrationsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "campaignly_registrations_total",
				Help: "Total number of user registrations",
			},
		),

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campaignly_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "campaignly_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campaignly_http_errors_total",
				Help: "Total number of HTTP error responses",
			},
			[]string{"error_type"},
		),

		registry: reg,
	}

	reg.MustRegister(
		m.CampaignsCreatedTotal,
		m.CampaignsLaunchedTotal,
		m.CampaignsDeletedTotal,
		m.EmailsApprovedTotal,
		m.GenerationsTotal,
		m.GenerationDurationSeconds,
		m.LoginsTotal,
		m.RegistrationsTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDurationSeconds,
		m.HTTPErrorsTotal,
	)

	return m
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// SetGlobal sets the global metrics instance
func SetGlobal(m *Metrics) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalMetrics = m
}

// Global returns the global metrics instance
func Global() *Metrics {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalMetrics
}

// IncCampaignsCreated increments the campaign creation counter
func IncCampaignsCreated() {
	if m := Global(); m != nil {
		m.CampaignsCreatedTotal.Inc()
	}
}

// IncCampaignsLaunched increments the launch counter
func IncCampaignsLaunched() {
	if m := Global(); m != nil {
		m.CampaignsLaunchedTotal.Inc()
	}
}

// IncCampaignsDeleted increments the soft-delete counter
func IncCampaignsDeleted() {
	if m := Global(); m != nil {
		m.CampaignsDeletedTotal.Inc()
	}
}

// IncEmailsApproved increments the approval counter
func IncEmailsApproved() {
	if m := Global(); m != nil {
		m.EmailsApprovedTotal.Inc()
	}
}

// TrackGeneration records one generation run with its outcome and duration
func TrackGeneration(outcome string, seconds float64) {
	if m := Global(); m != nil {
		m.GenerationsTotal.WithLabelValues(outcome).Inc()
		m.GenerationDurationSeconds.Observe(seconds)
	}
}

// IncLogins increments the login counter with the given outcome
func IncLogins(outcome string) {
	if m := Global(); m != nil {
		m.LoginsTotal.WithLabelValues(outcome).Inc()
	}
}

// IncRegistrations increments the registration counter
func IncRegistrations() {
	if m := Global(); m != nil {
		m.RegistrationsTotal.Inc()
	}
}
