package credential

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthguard-systems/hearthguard/internal/audit"
)

func newTestStore(t *testing.T) (*Store, *audit.Log) {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	auditLog := audit.New(filepath.Join(dir, "security.log"), audit.NewSigner("test-key"), logger)
	return NewStore(filepath.Join(dir, "admin_password.txt"), auditLog), auditLog
}

func TestLoad_MissingFile(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, store.Loaded())
}

func TestLoad_EmptyFile(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte(""), 0o600))

	_, err := store.Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLoad_MalformedFile(t *testing.T) {
	store, auditLog := newTestStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte("not a credential record"), 0o600))

	_, err := store.Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	// Tampered content raises a security alert.
	events, err := auditLog.Tail(1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.CategorySecurityAlert, events[0].Category)
}

func TestReset_RoundTrip(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.Reset("Passw0rd!"))

	// File contains <32 hex>:<64 hex>.
	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{32}:[0-9a-f]{64}\n?$`), string(data))

	ok, err := store.Verify("Passw0rd!")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Verify("password")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReset_EmitsPasswordResetEvent(t *testing.T) {
	store, auditLog := newTestStore(t)

	require.NoError(t, store.Reset("Passw0rd!"))

	events, err := auditLog.Tail(1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.CategoryPasswordReset, events[0].Category)
}

func TestReset_WeakPasswordLeavesRecordUntouched(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Reset("Passw0rd!"))

	before, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	err = store.Reset("short")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWeakPassword))

	after, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after, "a rejected reset must not modify the stored record")

	ok, err := store.Verify("Passw0rd!")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReset_WeakPasswordWithoutExistingRecord(t *testing.T) {
	store, _ := newTestStore(t)

	err := store.Reset("1234567")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWeakPassword))

	_, statErr := os.Stat(store.Path())
	assert.True(t, os.IsNotExist(statErr), "rejected reset must not create a file")
}

func TestLoad_RoundTripPreservesRecord(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Reset("Passw0rd!"))

	first, err := store.Load()
	require.NoError(t, err)

	second, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, first.Salt, second.Salt)
	assert.Equal(t, first.Digest, second.Digest)
}

func TestVerify_RequiresLoadedRecord(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Verify("whatever")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotLoaded))
}

func TestVerify_EmitsLoginAttemptEvents(t *testing.T) {
	store, auditLog := newTestStore(t)
	require.NoError(t, store.Reset("Passw0rd!"))

	_, err := store.Verify("Passw0rd!")
	require.NoError(t, err)
	_, err = store.Verify("wrong-password")
	require.NoError(t, err)

	events, err := auditLog.Tail(2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, audit.CategoryLoginSuccess, events[0].Category)
	assert.Equal(t, audit.CategoryLoginFailure, events[1].Category)
}

func TestChangePassword(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Reset("OldPassw0rd"))

	t.Run("wrong current password", func(t *testing.T) {
		err := store.ChangePassword("not-the-password", "NewPassw0rd")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrVerificationFailed))

		ok, err := store.Verify("OldPassw0rd")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("weak new password", func(t *testing.T) {
		err := store.ChangePassword("OldPassw0rd", "short")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrWeakPassword))
	})

	t.Run("success", func(t *testing.T) {
		require.NoError(t, store.ChangePassword("OldPassw0rd", "NewPassw0rd"))

		ok, err := store.Verify("NewPassw0rd")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.Verify("OldPassw0rd")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestChangePassword_LoadsRecordOnDemand(t *testing.T) {
	store, auditLog := newTestStore(t)
	require.NoError(t, store.Reset("OldPassw0rd"))

	// A fresh store against the same files has nothing loaded yet.
	fresh := NewStore(store.Path(), auditLog)
	require.NoError(t, fresh.ChangePassword("OldPassw0rd", "NewPassw0rd"))

	ok, err := fresh.Verify("NewPassw0rd")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestResetAndVerify_RandomPasswords(t *testing.T) {
	store, _ := newTestStore(t)
	gofakeit.Seed(0)

	for i := 0; i < 10; i++ {
		password := gofakeit.Password(true, true, true, true, false, 16)
		require.NoError(t, store.Reset(password))

		ok, err := store.Verify(password)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.Verify(password + "x")
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestReset_ReplacesRecordAtomically(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Reset("Passw0rd!"))

	first, err := store.Load()
	require.NoError(t, err)

	require.NoError(t, store.Reset("An0therPass"))

	second, err := store.Load()
	require.NoError(t, err)
	assert.NotEqual(t, first.Salt, second.Salt)
	assert.NotEqual(t, first.Digest, second.Digest)

	// No stray temp files remain next to the record.
	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".admin_password-")
	}
}
