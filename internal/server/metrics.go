package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts security-relevant operations served by the admin API.
type Metrics struct {
	LoginAttempts      *prometheus.CounterVec
	PasswordResets     prometheus.Counter
	AuditWriteFailures prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hearthguard_login_attempts_total",
			Help: "Admin login attempts by result.",
		}, []string{"result"}),
		PasswordResets: factory.NewCounter(prometheus.CounterOpts{
			Name: "hearthguard_password_resets_total",
			Help: "Successful admin password resets.",
		}),
		AuditWriteFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "hearthguard_audit_write_failures_total",
			Help: "Audit log append failures reported by security operations.",
		}),
	}
}
