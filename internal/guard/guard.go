// Package guard implements the fail-closed startup gate: the alarm server may
// only begin accepting connections once a valid administrator credential
// record has been loaded. A missing or invalid record blocks startup outright;
// there is no degraded or auto-provisioned mode.
package guard

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/hearthguard-systems/hearthguard/internal/audit"
	"github.com/hearthguard-systems/hearthguard/internal/credential"
)

// State of the startup gate.
type State int

const (
	// Blocked is the initial state. The server must not listen.
	Blocked State = iota
	// Ready permits the server to accept connections. Once Ready, the only
	// way back to Blocked is a full process restart.
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "blocked"
}

// SecurityGuard gates server startup on a successful credential load.
type SecurityGuard struct {
	mu     sync.Mutex
	state  State
	store  *credential.Store
	audit  *audit.Log
	logger *slog.Logger
}

func New(store *credential.Store, auditLog *audit.Log, logger *slog.Logger) *SecurityGuard {
	if logger == nil {
		logger = slog.Default()
	}
	return &SecurityGuard{
		state:  Blocked,
		store:  store,
		audit:  auditLog,
		logger: logger,
	}
}

// State returns the gate's current state.
func (g *SecurityGuard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Check asks the credential store to load. On success the guard transitions to
// Ready and startup may proceed. On any failure it stays Blocked, writes a
// SECURITY_ALERT to the audit log, and returns the load error; the caller must
// terminate startup with a non-zero exit and must not open any listener.
func (g *SecurityGuard) Check() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == Ready {
		return nil
	}

	if _, err := g.store.Load(); err != nil {
		g.logger.Error("startup blocked: credential record unavailable",
			slog.String("path", g.store.Path()),
			slog.String("error", err.Error()),
		)
		if g.audit != nil {
			if _, logErr := g.audit.Record(audit.CategorySecurityAlert, "Admin password file is missing - server startup refused"); logErr != nil {
				g.logger.Error("failed to record security alert", slog.String("error", logErr.Error()))
			}
		}
		return fmt.Errorf("security guard: %w", err)
	}

	g.state = Ready
	g.logger.Info("security guard ready", slog.String("path", g.store.Path()))
	return nil
}
