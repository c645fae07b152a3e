package credential

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound covers every condition under which no valid credential record is
// available: missing file, empty file, or content that fails the format
// invariant. All three are equivalent hard stops; the record is never repaired
// or regenerated implicitly.
var ErrNotFound = errors.New("credential record not found")

// Record is the persisted administrator credential: a random salt and the
// SHA-256 digest of the password concatenated with that salt, both lowercase
// hex. It is stored as a single line `salt:digest`.
type Record struct {
	Salt   string
	Digest string
}

// String renders the record in its on-disk form.
func (r Record) String() string {
	return r.Salt + ":" + r.Digest
}

// Valid reports whether both fields match their fixed lengths and the
// lowercase hexadecimal alphabet.
func (r Record) Valid() bool {
	return isLowerHex(r.Salt, SaltHexLen) && isLowerHex(r.Digest, DigestHexLen)
}

// ParseRecord parses the single-line file content. Any deviation from the
// `salt:digest` invariant is reported as corrupt, wrapping ErrNotFound so
// callers treat it identically to a missing file.
func ParseRecord(content string) (*Record, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: credential file is empty", ErrNotFound)
	}

	salt, digest, ok := strings.Cut(content, ":")
	if !ok {
		return nil, fmt.Errorf("%w: credential record is malformed", ErrNotFound)
	}

	rec := &Record{Salt: salt, Digest: digest}
	if !rec.Valid() {
		return nil, fmt.Errorf("%w: credential record is malformed", ErrNotFound)
	}
	return rec, nil
}

func isLowerHex(s string, length int) bool {
	if len(s) != length {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
