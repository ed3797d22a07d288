package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values.
const (
	OutcomeSuccess            = "success"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeConflict           = "conflict"
	OutcomeInvalid            = "invalid"
	OutcomeError              = "error"
)

// AuthMetrics groups the Prometheus collectors for the auth subsystem.
// A nil *AuthMetrics is valid and records nothing.
type AuthMetrics struct {
	LoginAttempts *prometheus.CounterVec
	Registrations *prometheus.CounterVec
	Sessions      *prometheus.CounterVec
	GateRedirects prometheus.Counter
	HashDuration  prometheus.Histogram
}

// NewAuthMetrics creates the collectors and registers them with reg.
// Panics if registration fails (prometheus convention).
func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	m := &AuthMetrics{
		LoginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cardgate_login_attempts_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		Registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cardgate_registrations_total",
			Help: "Registration attempts by outcome",
		}, []string{"outcome"}),
		Sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cardgate_sessions_total",
			Help: "Session lifecycle events",
		}, []string{"event"}),
		GateRedirects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cardgate_gate_redirects_total",
			Help: "Requests to protected routes redirected to /login",
		}),
		HashDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cardgate_password_hash_seconds",
			Help:    "Time spent producing bcrypt digests",
			Buckets: prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.LoginAttempts, m.Registrations, m.Sessions, m.GateRedirects, m.HashDuration)
	}
	return m
}

func (m *AuthMetrics) recordLogin(outcome string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

func (m *AuthMetrics) recordRegistration(outcome string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(outcome).Inc()
}

func (m *AuthMetrics) recordSession(event string) {
	if m == nil {
		return
	}
	m.Sessions.WithLabelValues(event).Inc()
}

func (m *AuthMetrics) recordGateRedirect() {
	if m == nil {
		return
	}
	m.GateRedirects.Inc()
}

// observeHash starts a timer; call the returned func when hashing is done.
func (m *AuthMetrics) observeHash() func() {
	if m == nil {
		return func() {}
	}
	start := time.Now()
	return func() { m.HashDuration.Observe(time.Since(start).Seconds()) }
}
