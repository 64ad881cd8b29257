// Package metrics defines the prometheus collectors of the service.
package metrics

import (
	"net/http"

	"luminapos/internal/domain"
	"luminapos/internal/persistence"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors on a dedicated registry. A nil *Metrics records
// nothing.
type Metrics struct {
	registry       *prometheus.Registry
	remoteFailures *prometheus.CounterVec
	cacheFailures  *prometheus.CounterVec
	offline        prometheus.Gauge
	validations    *prometheus.CounterVec
	adminLogins    *prometheus.CounterVec
}

var _ persistence.Observer = (*Metrics)(nil)

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		remoteFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "luminapos_remote_failures_total",
			Help: "Remote store calls that failed, by operation.",
		}, []string{"op"}),
		cacheFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "luminapos_cache_failures_total",
			Help: "Local cache calls that failed, by operation.",
		}, []string{"op"}),
		offline: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "luminapos_offline",
			Help: "1 once the persistence layer has switched to the local cache.",
		}),
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "luminapos_license_validations_total",
			Help: "License validations by outcome.",
		}, []string{"outcome"}),
		adminLogins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "luminapos_admin_logins_total",
			Help: "Admin login attempts by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.remoteFailures,
		m.cacheFailures,
		m.offline,
		m.validations,
		m.adminLogins,
	)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// RemoteFailure counts one failed remote store operation.
func (m *Metrics) RemoteFailure(op string) {
	if m == nil {
		return
	}
	m.remoteFailures.WithLabelValues(op).Inc()
}

// CacheFailure counts one failed local cache operation.
func (m *Metrics) CacheFailure(op string) {
	if m == nil {
		return
	}
	m.cacheFailures.WithLabelValues(op).Inc()
}

// ModeChanged sets the offline gauge.
func (m *Metrics) ModeChanged(mode persistence.Mode) {
	if m == nil {
		return
	}
	if mode == persistence.Offline {
		m.offline.Set(1)
		return
	}
	m.offline.Set(0)
}

// Validation counts one license validation result.
func (m *Metrics) Validation(res domain.ValidationResult) {
	if m == nil {
		return
	}
	outcome := "valid"
	switch {
	case res.Override:
		outcome = "override"
	case !res.Valid:
		outcome = string(res.Reason)
	}
	m.validations.WithLabelValues(outcome).Inc()
}

// AdminLogin counts one admin login attempt.
func (m *Metrics) AdminLogin(ok bool) {
	if m == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	m.adminLogins.WithLabelValues(result).Inc()
}
