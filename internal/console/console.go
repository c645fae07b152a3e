// Package console implements the operator security workflow: status check,
// password reset and audit review. It composes the credential store and audit
// log; it has no security logic of its own and never displays a stored or
// typed plaintext password.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/hearthguard-systems/hearthguard/internal/audit"
	"github.com/hearthguard-systems/hearthguard/internal/credential"
)

// ErrPasswordMismatch is returned when the confirmation entry differs from the
// new password.
var ErrPasswordMismatch = errors.New("passwords do not match")

// StatusReport summarizes the security posture for the operator. It carries no
// credential material beyond validity.
type StatusReport struct {
	CredentialPresent bool   `json:"credential_present" yaml:"credential_present"`
	CredentialValid   bool   `json:"credential_valid" yaml:"credential_valid"`
	Detail            string `json:"detail,omitempty" yaml:"detail,omitempty"`
	AuditLogPresent   bool   `json:"audit_log_present" yaml:"audit_log_present"`
	AuditEventCount   int    `json:"audit_event_count" yaml:"audit_event_count"`
	LastEvent         string `json:"last_event,omitempty" yaml:"last_event,omitempty"`
}

// Console drives the menu-driven operator tool. Input, output and the hidden
// password prompt are injectable so the loop is testable without a terminal.
type Console struct {
	store    *credential.Store
	auditLog *audit.Log

	in           *bufio.Scanner
	out          io.Writer
	readPassword func(prompt string) (string, error)
}

func New(store *credential.Store, auditLog *audit.Log) *Console {
	c := &Console{
		store:    store,
		auditLog: auditLog,
		in:       bufio.NewScanner(os.Stdin),
		out:      os.Stdout,
	}
	c.readPassword = c.readPasswordDefault
	return c
}

// NewWithIO is New with explicit streams and password reader, used by tests.
func NewWithIO(store *credential.Store, auditLog *audit.Log, in io.Reader, out io.Writer, readPassword func(string) (string, error)) *Console {
	return &Console{
		store:        store,
		auditLog:     auditLog,
		in:           bufio.NewScanner(in),
		out:          out,
		readPassword: readPassword,
	}
}

// Status reports whether the credential record currently loads and what the
// audit log holds. It never exposes the salt or digest.
func (c *Console) Status() *StatusReport {
	report := &StatusReport{}

	if _, err := os.Stat(c.store.Path()); err == nil {
		report.CredentialPresent = true
	}

	if _, err := c.store.Load(); err == nil {
		report.CredentialValid = true
	} else if report.CredentialPresent {
		report.Detail = "credential file exists but is not a valid record"
	} else {
		report.Detail = "credential file is missing"
	}

	if _, err := os.Stat(c.auditLog.Path()); err == nil {
		report.AuditLogPresent = true
		if count, err := c.auditLog.Count(); err == nil {
			report.AuditEventCount = count
		}
		if events, err := c.auditLog.Tail(1); err == nil && len(events) > 0 {
			report.LastEvent = events[0].FormatLine()
		}
	}

	return report
}

// ResetTo replaces the admin credential with the given password.
func (c *Console) ResetTo(password string) error {
	return c.store.Reset(password)
}

// ResetGenerated resets the credential to a freshly generated random password
// and returns the plaintext so the caller can display it exactly once.
func (c *Console) ResetGenerated() (string, error) {
	password, err := credential.GeneratePassword(credential.DefaultGeneratedLength)
	if err != nil {
		return "", err
	}
	if err := c.store.Reset(password); err != nil {
		return "", err
	}
	return password, nil
}

// ResetInteractive prompts for a new password twice (hidden input) and resets
// the credential when both entries match.
func (c *Console) ResetInteractive() error {
	password, err := c.readPassword("New password: ")
	if err != nil {
		return err
	}
	confirm, err := c.readPassword("Confirm new password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	return c.store.Reset(password)
}

// ViewLog returns the last n audit events, oldest first.
func (c *Console) ViewLog(n int) ([]audit.Event, error) {
	return c.auditLog.Tail(n)
}

// Run presents the four-option menu and dispatches until the operator exits
// or input ends.
func (c *Console) Run() error {
	fmt.Fprintln(c.out, "HearthGuard Security Console")
	fmt.Fprintln(c.out, strings.Repeat("=", 40))
	fmt.Fprintln(c.out, "1. Check security status")
	fmt.Fprintln(c.out, "2. Reset admin password")
	fmt.Fprintln(c.out, "3. View last 20 security events")
	fmt.Fprintln(c.out, "4. Exit")

	for {
		fmt.Fprint(c.out, "\nEnter your choice (1-4): ")
		if !c.in.Scan() {
			return c.in.Err()
		}
		choice := strings.TrimSpace(c.in.Text())

		switch choice {
		case "1":
			c.printStatus()
		case "2":
			c.runReset()
		case "3":
			c.printLog()
		case "4":
			fmt.Fprintln(c.out, "Goodbye!")
			return nil
		default:
			fmt.Fprintln(c.out, "Invalid choice. Please enter 1-4.")
		}
	}
}

func (c *Console) printStatus() {
	report := c.Status()

	fmt.Fprintln(c.out, strings.Repeat("=", 60))
	fmt.Fprintln(c.out, "ALARM SYSTEM SECURITY STATUS")
	fmt.Fprintln(c.out, strings.Repeat("=", 60))

	if report.CredentialValid {
		fmt.Fprintln(c.out, "✓ Password file: VALID")
	} else if report.CredentialPresent {
		fmt.Fprintln(c.out, "✗ Password file: INVALID (not a valid record)")
	} else {
		fmt.Fprintln(c.out, "✗ Password file: MISSING (server will not start)")
	}

	if report.AuditLogPresent {
		fmt.Fprintf(c.out, "✓ Security log: EXISTS (%d events)\n", report.AuditEventCount)
		if report.LastEvent != "" {
			fmt.Fprintf(c.out, "  Last event: %s\n", report.LastEvent)
		}
	} else {
		fmt.Fprintln(c.out, "  Security log: not created yet")
	}

	fmt.Fprintln(c.out, strings.Repeat("=", 60))
}

func (c *Console) runReset() {
	err := c.ResetInteractive()
	switch {
	case err == nil:
		fmt.Fprintln(c.out, "✓ Password reset successfully")
	case errors.Is(err, credential.ErrWeakPassword):
		fmt.Fprintln(c.out, "✗ Password too short: minimum 8 characters")
	case errors.Is(err, ErrPasswordMismatch):
		fmt.Fprintln(c.out, "✗ Passwords do not match")
	case errors.Is(err, audit.ErrLogWrite):
		fmt.Fprintln(c.out, "✓ Password reset successfully")
		fmt.Fprintln(c.out, "⚠ The reset could not be recorded in the security log")
	default:
		fmt.Fprintf(c.out, "✗ Failed to reset password: %v\n", err)
	}
}

func (c *Console) printLog() {
	events, err := c.ViewLog(audit.DefaultTailWindow)
	if err != nil {
		fmt.Fprintf(c.out, "✗ Error reading security log: %v\n", err)
		return
	}
	if len(events) == 0 {
		fmt.Fprintln(c.out, "No security log found.")
		return
	}

	fmt.Fprintln(c.out, strings.Repeat("=", 60))
	fmt.Fprintln(c.out, "SECURITY LOG")
	fmt.Fprintln(c.out, strings.Repeat("=", 60))
	for _, ev := range events {
		fmt.Fprintln(c.out, ev.FormatLine())
	}
	fmt.Fprintln(c.out, strings.Repeat("=", 60))
}

// readPasswordDefault reads without echo when stdin is a terminal, falling
// back to a plain line read otherwise (piped input in scripts and tests).
func (c *Console) readPasswordDefault(prompt string) (string, error) {
	fmt.Fprint(c.out, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(c.out)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(c.in.Text()), nil
}
