package audit

import (
	"fmt"
	"strings"
	"time"
)

// Category classifies a security event.
type Category string

const (
	CategoryPasswordReset Category = "PASSWORD_RESET"
	CategoryLoginSuccess  Category = "LOGIN_SUCCESS"
	CategoryLoginFailure  Category = "LOGIN_FAILURE"
	CategorySecurityAlert Category = "SECURITY_ALERT"
	CategoryFileAccess    Category = "FILE_ACCESS"
	CategorySystemError   Category = "SYSTEM_ERROR"
)

// Event is a single security-relevant occurrence. Events are immutable once
// appended; the Signature field carries an HMAC over the other fields so
// tampering with the persisted log is detectable.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Category  Category  `json:"category"`
	Message   string    `json:"message"`
	Signature string    `json:"signature,omitempty"`
}

// timestampLayout keeps persisted timestamps lexically sortable: UTC RFC 3339
// with second resolution, so plain text ordering equals chronological ordering.
const timestampLayout = "2006-01-02T15:04:05Z"

const fieldSeparator = " | "

// FormatLine renders the event as a single log line:
//
//	<timestamp> | <category> | <message> | sig=<hmac>
//
// Newlines and pipes inside the message are replaced so one event always
// occupies exactly one line.
func (e Event) FormatLine() string {
	msg := sanitizeMessage(e.Message)
	line := e.Timestamp.UTC().Format(timestampLayout) + fieldSeparator + string(e.Category) + fieldSeparator + msg
	if e.Signature != "" {
		line += fieldSeparator + "sig=" + e.Signature
	}
	return line
}

// ParseLine parses a persisted log line back into an Event. Lines written
// before signing was introduced (no sig field) are accepted with an empty
// Signature.
func ParseLine(line string) (Event, error) {
	parts := strings.Split(line, fieldSeparator)
	if len(parts) < 3 {
		return Event{}, fmt.Errorf("malformed audit line: %q", line)
	}

	ts, err := time.Parse(timestampLayout, parts[0])
	if err != nil {
		return Event{}, fmt.Errorf("malformed audit timestamp: %w", err)
	}

	ev := Event{
		Timestamp: ts,
		Category:  Category(parts[1]),
	}

	rest := parts[2:]
	if last := rest[len(rest)-1]; strings.HasPrefix(last, "sig=") {
		ev.Signature = strings.TrimPrefix(last, "sig=")
		rest = rest[:len(rest)-1]
	}
	ev.Message = strings.Join(rest, fieldSeparator)

	return ev, nil
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	return strings.ReplaceAll(msg, fieldSeparator, " / ")
}
