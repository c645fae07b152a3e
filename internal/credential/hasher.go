package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
)

const (
	// SaltBytes is the number of random bytes in a salt (32 hex chars).
	SaltBytes = 16

	// DigestHexLen is the length of a hex-encoded SHA-256 digest.
	DigestHexLen = sha256.Size * 2

	// SaltHexLen is the length of a hex-encoded salt.
	SaltHexLen = SaltBytes * 2
)

// passwordAlphabet is the character set used for generated passwords.
const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*"

// DefaultGeneratedLength is the length of passwords produced by GeneratePassword
// when the caller does not override it.
const DefaultGeneratedLength = 12

// Hash computes the hex-encoded SHA-256 digest of password concatenated with
// salt. It is a pure function: the same inputs always produce the same digest.
func Hash(password, salt string) string {
	sum := sha256.Sum256([]byte(password + salt))
	return hex.EncodeToString(sum[:])
}

// GenerateSalt returns a fresh 128-bit salt as a lowercase hex string,
// drawn from the operating system's CSPRNG.
func GenerateSalt() (string, error) {
	b := make([]byte, SaltBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GeneratePassword returns a random password of the given length drawn from
// letters, digits and a small set of punctuation. Lengths below
// DefaultGeneratedLength are raised to it so generated passwords always pass
// the reset minimum.
func GeneratePassword(length int) (string, error) {
	if length < DefaultGeneratedLength {
		length = DefaultGeneratedLength
	}

	max := big.NewInt(int64(len(passwordAlphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		out[i] = passwordAlphabet[n.Int64()]
	}
	return string(out), nil
}
