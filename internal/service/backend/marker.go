package backend

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/dgfx-setup/internal/logger"
)

// MarkerFilename marks the install directory as in use by a running setup.
const MarkerFilename = ".dgfx-setup.pid"

// ErrRunInProgress is returned when another live process holds the install directory.
var ErrRunInProgress = errors.New("another setup run is using the install directory")

// acquireMarker creates path exclusively and writes our PID into it.
// A marker left by a process that no longer exists is removed and the
// creation is retried once. The returned function removes the marker
// while it still holds our PID.
func acquireMarker(ctx context.Context, path string) (func(), error) {
	pid := strconv.Itoa(os.Getpid())

	err := createMarker(path, pid)
	if errors.Is(err, fs.ErrExist) {
		if err = checkStaleMarker(path); err != nil {
			return nil, err
		}

		logger.InfoKV(ctx, "Replacing stale run marker", "path", path)

		if err = os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("remove stale run marker: %w", err)
		}

		err = createMarker(path, pid)
	}

	switch {
	case errors.Is(err, fs.ErrExist):
		return nil, fmt.Errorf("%w: marker %s appeared concurrently", ErrRunInProgress, path)
	case err != nil:
		return nil, err
	}

	return func() { releaseMarker(ctx, path, pid) }, nil
}

func createMarker(path, pid string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return err
		}

		return fmt.Errorf("create run marker: %w", err)
	}

	_, writeErr := file.WriteString(pid)
	closeErr := file.Close()

	if err = errors.Join(writeErr, closeErr); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("write run marker: %w", err)
	}

	return nil
}

// checkStaleMarker fails with ErrRunInProgress when the marker names a live process.
// An unreadable PID counts as stale.
func checkStaleMarker(path string) error {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("read run marker: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(contents)))
	if err != nil {
		return nil
	}

	if pid == os.Getpid() {
		return fmt.Errorf("%w: pid %d (this process)", ErrRunInProgress, pid)
	}

	process, err := ps.FindProcess(pid)
	if err == nil && process != nil {
		return fmt.Errorf("%w: pid %d (%s)", ErrRunInProgress, pid, process.Executable())
	}

	return nil
}

func releaseMarker(ctx context.Context, path, pid string) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.WarnKV(ctx, "Unable to read run marker", "path", path, "error", err)
		}

		return
	}

	if strings.TrimSpace(string(contents)) != pid {
		logger.WarnKV(ctx, "Run marker belongs to another process, leaving it", "path", path)
		return
	}

	if err = os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.WarnKV(ctx, "Unable to remove run marker", "path", path, "error", err)
	}
}
