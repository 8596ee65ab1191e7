// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Login outcomes.
const (
	LoginSuccess = "success"
	LoginFailure = "failure"
	LoginLocked  = "locked"
)

// Metrics holds every collector. A nil *Metrics records nothing, so
// services can be built without a registry in tests.
type Metrics struct {
	HTTPRequests    *prometheus.CounterVec
	HTTPLatency     *prometheus.HistogramVec
	Logins          *prometheus.CounterVec
	Registrations   prometheus.Counter
	ActiveSessions  prometheus.Gauge
	MigratedRecords prometheus.Counter
	PublishedEvents *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "tradehub_http_requests_total", Help: "Count of HTTP requests"},
			[]string{"path", "method", "status"},
		),
		HTTPLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradehub_http_request_duration_seconds",
				Help:    "Latency of HTTP requests",
				Buckets: prometheus.DefBuckets,
			}, []string{"path", "method"},
		),
		Logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "tradehub_logins_total", Help: "Sign-in attempts by kind and outcome"},
			[]string{"kind", "outcome"},
		),
		Registrations: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "tradehub_registrations_total", Help: "Accounts registered"},
		),
		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "tradehub_sessions_open", Help: "Sessions opened minus sessions signed out by this instance"},
		),
		MigratedRecords: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "tradehub_migrated_records_total", Help: "User records upgraded by the migration runner"},
		),
		PublishedEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "tradehub_events_published_total", Help: "Change events published to the broker"},
			[]string{"collection", "op"},
		),
	}

	reg.MustRegister(
		m.HTTPRequests,
		m.HTTPLatency,
		m.Logins,
		m.Registrations,
		m.ActiveSessions,
		m.MigratedRecords,
		m.PublishedEvents,
	)
	return m
}

// ObserveLogin counts one sign-in attempt.
func (m *Metrics) ObserveLogin(kind, outcome string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(kind, outcome).Inc()
}

// ObserveRegistration counts one new account.
func (m *Metrics) ObserveRegistration() {
	if m == nil {
		return
	}
	m.Registrations.Inc()
}

// SessionOpened tracks a created session.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.ActiveSessions.Inc()
}

// SessionClosed tracks a signed-out session.
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
}

// ObserveMigrated counts upgraded records.
func (m *Metrics) ObserveMigrated(n int) {
	if m == nil {
		return
	}
	m.MigratedRecords.Add(float64(n))
}

// ObservePublished counts one published change event.
func (m *Metrics) ObservePublished(collection, op string) {
	if m == nil {
		return
	}
	m.PublishedEvents.WithLabelValues(collection, op).Inc()
}

// ObserveHTTP records one served request. path is the route pattern, not
// the raw URL, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(path, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.HTTPLatency.WithLabelValues(path, method).Observe(elapsed.Seconds())
}
