package audit

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrLogWrite marks a failure to append to the persisted audit log. Callers
// report it but must not treat it as fatal to the security operation that
// produced the event.
var ErrLogWrite = errors.New("audit log write failed")

// DefaultTailWindow is the number of events shown by the review workflow when
// no explicit limit is given.
const DefaultTailWindow = 20

// Log is an append-only, file-backed recorder of security events. Appends are
// serialized by a mutex and written through an O_APPEND handle so concurrent
// events never interleave within one line. Every appended event is also
// mirrored to the structured logger.
type Log struct {
	mu     sync.Mutex
	path   string
	signer *Signer
	logger *slog.Logger
}

// New creates a Log writing to path. The file itself is created on the first
// append, not at construction. signer may be nil to disable line signatures.
func New(path string, signer *Signer, logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{
		path:   path,
		signer: signer,
		logger: logger,
	}
}

// Path returns the location of the persisted log file.
func (l *Log) Path() string {
	return l.path
}

// Append persists the event as one line at the end of the log. A zero ID or
// timestamp is filled in, and the event is signed when a signer is configured.
// Failures are returned wrapped in ErrLogWrite and never panic.
func (l *Log) Append(ev Event) error {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	if l.signer != nil {
		ev.Signature = l.signer.Sign(ev)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLogWrite, err)
	}
	defer f.Close()

	if _, err := f.WriteString(ev.FormatLine() + "\n"); err != nil {
		return fmt.Errorf("%w: %v", ErrLogWrite, err)
	}

	l.logger.Info("audit event",
		slog.String("audit_id", ev.ID),
		slog.String("category", string(ev.Category)),
		slog.String("message", ev.Message),
	)

	return nil
}

// Record builds, appends and returns an event for the given category and
// message. The returned event is valid even when the append failed, so callers
// can still surface what happened alongside the ErrLogWrite.
func (l *Log) Record(category Category, message string) (Event, error) {
	ev := Event{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Category:  category,
		Message:   message,
	}
	return ev, l.Append(ev)
}

// Tail returns up to the last n events in chronological order, oldest first.
// When n exceeds the number of persisted events all of them are returned. A
// missing log file is an empty history, not an error. Lines that fail to
// parse are skipped; the log itself is never modified.
func (l *Log) Tail(n int) ([]Event, error) {
	if n <= 0 {
		n = DefaultTailWindow
	}

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		ev, err := ParseLine(line)
		if err != nil {
			l.logger.Warn("skipping malformed audit line", slog.String("error", err.Error()))
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}

	if len(events) > n {
		events = events[len(events)-n:]
	}
	return events, nil
}

// Count returns the number of events currently persisted.
func (l *Log) Count() (int, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if scanner.Text() != "" {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("read audit log: %w", err)
	}
	return count, nil
}
