package backend

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestAcquireMarker_SecondHolderFails keeps the install directory exclusive while the marker is held.
func TestAcquireMarker_SecondHolderFails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), MarkerFilename)

	release, err := acquireMarker(ctx, path)
	require.NoError(t, err)

	_, err = acquireMarker(ctx, path)
	require.ErrorIs(t, err, ErrRunInProgress)
	require.FileExists(t, path)

	release()
	require.NoFileExists(t, path)

	release, err = acquireMarker(ctx, path)
	require.NoError(t, err)

	release()
}

// TestAcquireMarker_StaleIsReplaced takes over a marker whose process is gone.
func TestAcquireMarker_StaleIsReplaced(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), MarkerFilename)
	require.NoError(t, os.WriteFile(path, []byte("99999999"), 0o644))

	release, err := acquireMarker(context.Background(), path)
	require.NoError(t, err)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, strconv.Itoa(os.Getpid()), string(contents))

	release()
	require.NoFileExists(t, path)
}

// TestAcquireMarker_GarbageIsStale treats an unparsable marker as abandoned.
func TestAcquireMarker_GarbageIsStale(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), MarkerFilename)
	require.NoError(t, os.WriteFile(path, []byte("not a pid"), 0o644))

	release, err := acquireMarker(context.Background(), path)
	require.NoError(t, err)

	release()
}

// TestReleaseMarker_KeepsForeignMarker leaves a marker rewritten by another process in place.
func TestReleaseMarker_KeepsForeignMarker(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), MarkerFilename)

	release, err := acquireMarker(context.Background(), path)
	require.NoError(t, err)

	foreign := strconv.Itoa(os.Getppid())
	require.NoError(t, os.WriteFile(path, []byte(foreign), 0o644))

	release()

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, foreign, string(contents))
}
