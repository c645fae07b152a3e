package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/hearthguard-systems/hearthguard/internal/audit"
	"github.com/hearthguard-systems/hearthguard/internal/credential"
	"github.com/hearthguard-systems/hearthguard/pkg/tokens"
)

// SecurityHandler exposes the admin authentication surface of the alarm
// server: login, authenticated password change, security status and the
// audit review window. It never returns the salt or digest of the stored
// record in any response.
type SecurityHandler struct {
	store    *credential.Store
	auditLog *audit.Log
	tokenGen *tokens.Generator
	metrics  *Metrics
	logger   *slog.Logger
}

func NewSecurityHandler(store *credential.Store, auditLog *audit.Log, tokenGen *tokens.Generator, metrics *Metrics, logger *slog.Logger) *SecurityHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SecurityHandler{
		store:    store,
		auditLog: auditLog,
		tokenGen: tokenGen,
		metrics:  metrics,
		logger:   logger,
	}
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type statusResponse struct {
	CredentialLoaded bool   `json:"credential_loaded"`
	AuditEventCount  int    `json:"audit_event_count"`
	AuditLogPath     string `json:"audit_log_path"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *SecurityHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ok, err := h.store.Verify(req.Password)
	if err != nil && !errors.Is(err, audit.ErrLogWrite) {
		h.logger.Error("verification unavailable", slog.String("error", err.Error()))
		writeError(w, http.StatusServiceUnavailable, "verification unavailable")
		return
	}
	if errors.Is(err, audit.ErrLogWrite) {
		h.metrics.AuditWriteFailures.Inc()
		h.logger.Error("audit append failed for login attempt", slog.String("error", err.Error()))
	}

	if !ok {
		h.metrics.LoginAttempts.WithLabelValues("failure").Inc()
		writeError(w, http.StatusUnauthorized, "wrong password")
		return
	}
	h.metrics.LoginAttempts.WithLabelValues("success").Inc()

	token, err := h.tokenGen.GenerateSessionToken(uuid.New().String())
	if err != nil {
		h.logger.Error("session token generation failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "session token generation failed")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		ExpiresIn:   int(h.tokenGen.TTL().Seconds()),
		TokenType:   "Bearer",
	})
}

func (h *SecurityHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.authorized(w, r) {
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.store.ChangePassword(req.CurrentPassword, req.NewPassword)
	switch {
	case err == nil:
		h.metrics.PasswordResets.Inc()
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, credential.ErrVerificationFailed):
		h.metrics.LoginAttempts.WithLabelValues("failure").Inc()
		writeError(w, http.StatusUnauthorized, "wrong password")
	case errors.Is(err, credential.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, "password too short: minimum 8 characters")
	case errors.Is(err, audit.ErrLogWrite):
		// The reset itself succeeded; report the observability gap.
		h.metrics.PasswordResets.Inc()
		h.metrics.AuditWriteFailures.Inc()
		h.logger.Error("password changed but audit append failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusNoContent)
	default:
		h.logger.Error("password change failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "password change failed")
	}
}

func (h *SecurityHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.authorized(w, r) {
		return
	}

	count, err := h.auditLog.Count()
	if err != nil {
		h.logger.Error("audit log unreadable", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "audit log unreadable")
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		CredentialLoaded: h.store.Loaded(),
		AuditEventCount:  count,
		AuditLogPath:     h.auditLog.Path(),
	})
}

func (h *SecurityHandler) Events(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.authorized(w, r) {
		return
	}

	limit := audit.DefaultTailWindow
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	events, err := h.auditLog.Tail(limit)
	if err != nil {
		h.logger.Error("audit tail failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "audit log unreadable")
		return
	}
	if events == nil {
		events = []audit.Event{}
	}

	writeJSON(w, http.StatusOK, events)
}

func (h *SecurityHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// authorized validates the Bearer session token on authenticated routes.
func (h *SecurityHandler) authorized(w http.ResponseWriter, r *http.Request) bool {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return false
	}
	if _, err := h.tokenGen.ValidateSessionToken(token); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired session")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
