package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the admin API routes. gatherer serves /metrics and is
// normally the same registry the handler's Metrics were registered with.
func NewRouter(h *SecurityHandler, gatherer prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/login", h.Login)
	mux.HandleFunc("/api/v1/auth/change-password", h.ChangePassword)
	mux.HandleFunc("/api/v1/security/status", h.Status)
	mux.HandleFunc("/api/v1/security/events", h.Events)
	mux.HandleFunc("/healthz", h.HealthCheck)
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return mux
}
