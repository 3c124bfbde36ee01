package lockfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireAt_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.lock")

	lock, err := AcquireAt(path)
	require.NoError(t, err)

	// Held by this (live) process: a second acquire must fail.
	_, err = AcquireAt(path)
	assert.Error(t, err)

	require.NoError(t, lock.Release())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	lock, err = AcquireAt(path)
	require.NoError(t, err)
	require.NoError(t, lock.Release())
}

func TestAcquireAt_BreaksUnreadableLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.lock")
	require.NoError(t, os.WriteFile(path, []byte("not a pid"), 0o644))

	lock, err := AcquireAt(path)
	require.NoError(t, err)
	require.NoError(t, lock.Release())
}

func TestRelease_ToleratesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.lock")
	lock, err := AcquireAt(path)
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	assert.NoError(t, lock.Release())
}
