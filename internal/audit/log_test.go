package audit

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(filepath.Join(t.TempDir(), "security.log"), NewSigner("test-key"), logger)
}

func TestAppend_CreatesFileAndPersistsLine(t *testing.T) {
	log := newTestLog(t)

	_, err := log.Record(CategoryPasswordReset, "Admin password reset completed")
	require.NoError(t, err)

	data, err := os.ReadFile(log.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "PASSWORD_RESET")
	assert.Contains(t, string(data), "sig=")
}

func TestTail_WindowSemantics(t *testing.T) {
	log := newTestLog(t)

	const total = 30
	for i := 0; i < total; i++ {
		_, err := log.Record(CategoryFileAccess, fmt.Sprintf("event %02d", i))
		require.NoError(t, err)
	}

	t.Run("k smaller than N returns exactly the last k, oldest first", func(t *testing.T) {
		events, err := log.Tail(5)
		require.NoError(t, err)
		require.Len(t, events, 5)
		for i, ev := range events {
			assert.Equal(t, fmt.Sprintf("event %02d", total-5+i), ev.Message)
		}
	})

	t.Run("k larger than N returns all N", func(t *testing.T) {
		events, err := log.Tail(100)
		require.NoError(t, err)
		assert.Len(t, events, total)
	})

	t.Run("non-positive k uses the default review window", func(t *testing.T) {
		events, err := log.Tail(0)
		require.NoError(t, err)
		assert.Len(t, events, DefaultTailWindow)
	})
}

func TestTail_ChronologicalOrder(t *testing.T) {
	log := newTestLog(t)

	for i := 0; i < 10; i++ {
		_, err := log.Record(CategoryLoginFailure, fmt.Sprintf("attempt %d", i))
		require.NoError(t, err)
	}

	events, err := log.Tail(10)
	require.NoError(t, err)
	require.Len(t, events, 10)

	assert.True(t, sort.SliceIsSorted(events, func(i, j int) bool {
		return !events[j].Timestamp.Before(events[i].Timestamp)
	}), "events must come back oldest first")
}

func TestTail_MissingFileIsEmptyHistory(t *testing.T) {
	log := newTestLog(t)

	events, err := log.Tail(20)
	require.NoError(t, err)
	assert.Empty(t, events)

	count, err := log.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestTail_DoesNotMutateLog(t *testing.T) {
	log := newTestLog(t)
	_, err := log.Record(CategorySecurityAlert, "something happened")
	require.NoError(t, err)

	before, err := os.ReadFile(log.Path())
	require.NoError(t, err)

	_, err = log.Tail(20)
	require.NoError(t, err)
	_, err = log.Tail(20)
	require.NoError(t, err)

	after, err := os.ReadFile(log.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestTail_SkipsMalformedLines(t *testing.T) {
	log := newTestLog(t)
	_, err := log.Record(CategoryFileAccess, "good event")
	require.NoError(t, err)

	f, err := os.OpenFile(log.Path(), os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString("garbage that is not an event\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	events, err := log.Tail(20)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "good event", events[0].Message)
}

func TestAppend_WriteFailureIsReportedNotFatal(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	// A directory path cannot be opened for appending.
	log := New(t.TempDir(), NewSigner("test-key"), logger)

	_, err := log.Record(CategorySystemError, "disk trouble")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLogWrite))
}

func TestAppend_ConcurrentWritersNeverInterleave(t *testing.T) {
	log := newTestLog(t)

	const writers = 8
	const perWriter = 25

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_, err := log.Record(CategoryLoginFailure, fmt.Sprintf("writer %d attempt %d", w, i))
				assert.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()

	events, err := log.Tail(writers * perWriter)
	require.NoError(t, err)
	assert.Len(t, events, writers*perWriter, "every appended line must parse back cleanly")
}

func TestAppend_SignedEventsVerify(t *testing.T) {
	signer := NewSigner("test-key")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	log := New(filepath.Join(t.TempDir(), "security.log"), signer, logger)

	_, err := log.Record(CategoryPasswordReset, "Admin password reset completed")
	require.NoError(t, err)

	events, err := log.Tail(1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, signer.Verify(events[0]))
}
