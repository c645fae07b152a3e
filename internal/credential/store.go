package credential

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"unicode/utf8"

	"github.com/hearthguard-systems/hearthguard/internal/audit"
)

var (
	// ErrWeakPassword rejects a reset before any file write happens.
	ErrWeakPassword = errors.New("password must be at least 8 characters")

	// ErrNotLoaded is returned by operations that require a successfully
	// loaded record.
	ErrNotLoaded = errors.New("no credential record loaded")

	// ErrVerificationFailed is returned when the current password check of a
	// password change does not match the stored record.
	ErrVerificationFailed = errors.New("current password verification failed")
)

// MinPasswordLength is the minimum accepted password length, in characters.
const MinPasswordLength = 8

// DefaultFileName is the default location of the credential record.
const DefaultFileName = "admin_password.txt"

// Store owns the on-disk administrator credential record. It is handed an
// audit log at construction and emits events as a side effect of resets and
// verification attempts; it never owns or manages the log itself.
//
// Verify takes a read lock so concurrent sessions can authenticate against
// the in-memory record; Load, Reset and ChangePassword mutate the cached
// record and hold the write lock so no reader ever observes a half-replaced
// record.
type Store struct {
	mu     sync.RWMutex
	path   string
	record *Record
	audit  *audit.Log
}

// NewStore creates a Store for the record at path. The store starts unloaded;
// nothing is read or created until Load or Reset is called.
func NewStore(path string, auditLog *audit.Log) *Store {
	return &Store{
		path:  path,
		audit: auditLog,
	}
}

// Path returns the location of the credential file.
func (s *Store) Path() string {
	return s.path
}

// Load reads and validates the persisted record, keeping it in memory for
// subsequent Verify calls. A missing, empty or malformed file yields an error
// matching ErrNotFound; the store stays unloaded and nothing is repaired or
// regenerated. A malformed record additionally raises a SECURITY_ALERT event,
// since it means the file was altered outside a reset.
func (s *Store) Load() (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		s.record = nil
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: credential file %s is missing", ErrNotFound, s.path)
		}
		return nil, fmt.Errorf("%w: credential file %s is unreadable: %v", ErrNotFound, s.path, err)
	}

	rec, err := ParseRecord(string(data))
	if err != nil {
		s.record = nil
		if s.audit != nil {
			// Best effort: the load failure is what the caller acts on.
			_, _ = s.audit.Record(audit.CategorySecurityAlert, "Credential file failed format validation")
		}
		return nil, err
	}

	s.record = rec
	return rec, nil
}

// Loaded reports whether a record is currently held in memory.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record != nil
}

// Verify checks password against the loaded record using a constant-time
// digest comparison and records the attempt in the audit log. It reports only
// match or mismatch, never which part differed. A log write failure is
// returned alongside the (still authoritative) verification result, wrapped
// so errors.Is(err, audit.ErrLogWrite) holds.
func (s *Store) Verify(password string) (bool, error) {
	s.mu.RLock()
	rec := s.record
	s.mu.RUnlock()

	if rec == nil {
		return false, ErrNotLoaded
	}

	ok := verifyAgainst(rec, password)

	var logErr error
	if s.audit != nil {
		if ok {
			_, logErr = s.audit.Record(audit.CategoryLoginSuccess, "Admin password verified")
		} else {
			_, logErr = s.audit.Record(audit.CategoryLoginFailure, "Admin password verification failed")
		}
	}
	return ok, logErr
}

// Reset replaces the credential record with a fresh salt and the digest of
// newPassword. This is the only way a record comes into existence; there is
// no implicit generation path. Passwords shorter than MinPasswordLength are
// rejected with ErrWeakPassword before any file write, leaving a prior record
// untouched. The new record is written to a temporary file and renamed over
// the old one so a crash mid-write cannot corrupt a previously valid record.
//
// A successful reset that fails to append its PASSWORD_RESET event returns an
// error matching audit.ErrLogWrite; the reset itself is not rolled back.
func (s *Store) Reset(newPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reset(newPassword)
}

// ChangePassword is the authenticated-session path: it verifies the current
// password against the stored record before accepting the new one. The whole
// verify-then-replace sequence holds the write lock, so no concurrent reader
// or writer can interleave.
func (s *Store) ChangePassword(current, newPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.record
	if rec == nil {
		loaded, err := s.loadLocked()
		if err != nil {
			return err
		}
		rec = loaded
	}

	if !verifyAgainst(rec, current) {
		if s.audit != nil {
			_, _ = s.audit.Record(audit.CategoryLoginFailure, "Password change rejected: current password incorrect")
		}
		return ErrVerificationFailed
	}

	return s.reset(newPassword)
}

func (s *Store) loadLocked() (*Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: credential file %s is missing", ErrNotFound, s.path)
		}
		return nil, fmt.Errorf("%w: credential file %s is unreadable: %v", ErrNotFound, s.path, err)
	}
	rec, err := ParseRecord(string(data))
	if err != nil {
		return nil, err
	}
	s.record = rec
	return rec, nil
}

func (s *Store) reset(newPassword string) error {
	if utf8.RuneCountInString(newPassword) < MinPasswordLength {
		return ErrWeakPassword
	}

	salt, err := GenerateSalt()
	if err != nil {
		return err
	}
	rec := &Record{Salt: salt, Digest: Hash(newPassword, salt)}

	if err := writeRecord(s.path, rec); err != nil {
		return err
	}
	s.record = rec

	if s.audit != nil {
		if _, err := s.audit.Record(audit.CategoryPasswordReset, "Admin password reset completed"); err != nil {
			return fmt.Errorf("password reset succeeded but was not audited: %w", err)
		}
	}
	return nil
}

// writeRecord persists the record with write-then-rename semantics.
func writeRecord(path string, rec *Record) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".admin_password-*")
	if err != nil {
		return fmt.Errorf("write credential record: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(rec.String() + "\n"); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write credential record: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write credential record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write credential record: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace credential record: %w", err)
	}
	return nil
}

func verifyAgainst(rec *Record, password string) bool {
	digest := Hash(password, rec.Salt)
	return subtle.ConstantTimeCompare([]byte(digest), []byte(rec.Digest)) == 1
}
